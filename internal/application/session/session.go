// Package session carries the per-invocation session through context.
package session

import (
	"context"
	"os/user"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
)

// Session identifies one CLI invocation.
type Session struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	StartedAt time.Time `json:"started_at"`
}

type ctxKey struct{}

// New starts a session for actor.  An empty actor resolves to the OS user.
func New(actor string) *Session {
	if actor == "" {
		actor = currentUser()
	}
	return &Session{
		ID:        uuid.New().String(),
		Actor:     actor,
		StartedAt: time.Now().UTC(),
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// ID returns the session id in ctx, or "" when there is none.
func ID(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.ID
	}
	return ""
}

// Fields returns log fields identifying the session in ctx.
func Fields(ctx context.Context) []logging.Field {
	s := FromContext(ctx)
	if s == nil {
		return nil
	}
	return []logging.Field{
		logging.String("session_id", s.ID),
		logging.String("actor", s.Actor),
	}
}
