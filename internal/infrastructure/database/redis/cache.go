package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeCacheError, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// revisionTag opens every analytics key.  The analytics service writes keys
// as "rev<N>:<operation>:<params>", so a store write makes older entries
// unreachable and Prune can find them by revision.
const revisionTag = "rev"

// ResultCache stores JSON-encoded analytics results under a key prefix.
type ResultCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	// spread is the fraction of the TTL randomised per entry.
	spread float64
}

type CacheOption func(*ResultCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *ResultCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *ResultCache) { c.ttl = ttl }
}

// WithJitter randomises each TTL by ±fraction.  Zero disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *ResultCache) { c.spread = fraction }
}

func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) *ResultCache {
	c := &ResultCache{
		client: client,
		logger: log.Named("cache"),
		prefix: config.DefaultCacheKeyPrefix,
		ttl:    config.DefaultCacheTTL,
		spread: 0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if c.spread == 0 {
		return ttl
	}
	return ttl + time.Duration(float64(ttl)*c.spread*(2*rand.Float64()-1))
}

// Get decodes the entry for key into dest.  An absent or undecodable entry
// is ErrCacheMiss.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.get(ctx, c.prefix+key)
	switch {
	case stderrors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to read cached result")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", logging.String("key", key), logging.Err(err))
		return ErrCacheMiss
	}
	return nil
}

// Set stores value for ttl, or the default TTL when ttl is zero.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.set(ctx, c.prefix+key, raw, c.expiry(ttl)); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to cache result")
	}
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (c *ResultCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	n, err := c.client.sweep(ctx, c.prefix+prefix+"*")
	if err != nil {
		return n, errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cached results")
	}
	return n, nil
}

// Prune drops entries cached at revisions other than current.  It returns
// the number of keys removed.
func (c *ResultCache) Prune(ctx context.Context, current int64) (int64, error) {
	var removed int64
	for _, rev := range c.revisions(ctx) {
		if rev == current {
			continue
		}
		n, err := c.DeleteByPrefix(ctx, revisionTag+strconv.FormatInt(rev, 10)+":")
		removed += n
		if err != nil {
			return removed, err
		}
	}
	c.logger.Info("Pruned result cache",
		logging.Int64("revision", current),
		logging.Int64("removed", removed),
	)
	return removed, nil
}

// revisions lists the distinct revisions present under the prefix.  Keys
// that do not carry a revision tag are ignored.
func (c *ResultCache) revisions(ctx context.Context) []int64 {
	if c.client.closed.Load() {
		return nil
	}
	seen := make(map[int64]struct{})
	var out []int64
	iter := c.client.rdb.Scan(ctx, 0, c.prefix+revisionTag+"*", 100).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), c.prefix+revisionTag)
		digits, _, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		rev, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[rev]; !dup {
			seen[rev] = struct{}{}
			out = append(out, rev)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Failed to list cached revisions", logging.Err(err))
	}
	return out
}

func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
