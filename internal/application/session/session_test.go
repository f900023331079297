package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New("field-officer")

	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "field-officer", s.Actor)
	assert.False(t, s.StartedAt.IsZero())
	assert.NotEqual(t, s.ID, New("field-officer").ID)
}

func TestNew_DefaultsActor(t *testing.T) {
	assert.NotEmpty(t, New("").Actor)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.Equal(t, "", ID(ctx))
	assert.Nil(t, Fields(ctx))

	s := New("tester")
	ctx = WithSession(ctx, s)
	assert.Same(t, s, FromContext(ctx))
	assert.Equal(t, s.ID, ID(ctx))
	assert.Len(t, Fields(ctx), 2)
}
