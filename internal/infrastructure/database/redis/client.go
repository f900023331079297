// Package redis provides the optional result cache backing analytics reads.
package redis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeCacheError, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeCacheError, "redis connection failed")
)

// A CLI run issues a handful of commands, so the pool stays small and the
// timeouts short enough that a dead server only delays one invocation.
const (
	poolSize     = 4
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
	commandRetry = 2
)

// Client is the result cache's connection.  Commands issued after Close fail
// with ErrClientClosed instead of reaching go-redis.
type Client struct {
	rdb    redis.UniversalClient
	logger logging.Logger
	closed atomic.Bool
}

// Options maps the cache section of the configuration onto go-redis options.
func Options(cfg config.CacheConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		MaxRetries:   commandRetry,
	}
}

// NewClient connects to the configured server and pings it once.
func NewClient(cfg config.CacheConfig, log logging.Logger) (*Client, error) {
	return Dial(Options(cfg), log)
}

// Dial connects with explicit go-redis options.
func Dial(opts *redis.Options, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(opts)
	c := Wrap(rdb, log)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}
	c.logger.Debug("Connected to result cache", logging.String("addr", opts.Addr), logging.Int("db", opts.DB))
	return c, nil
}

// Wrap adopts an existing go-redis client.
func Wrap(rdb redis.UniversalClient, log logging.Logger) *Client {
	return &Client{rdb: rdb, logger: log.Named("cache")}
}

func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Warn("Failed to close result cache connection", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to close redis client")
	}
	return nil
}

func (c *Client) get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	return c.rdb.Get(ctx, key).Bytes()
}

func (c *Client) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// sweep deletes every key matching pattern, one SCAN page at a time.
func (c *Client) sweep(ctx context.Context, pattern string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	var (
		deleted int64
		cursor  uint64
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += int64(len(keys))
		}
		if cursor = next; cursor == 0 {
			return deleted, nil
		}
	}
}
