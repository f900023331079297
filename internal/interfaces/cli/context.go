package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/turtacn/SHG-Insights/internal/application/advisory"
	"github.com/turtacn/SHG-Insights/internal/application/analytics"
	"github.com/turtacn/SHG-Insights/internal/application/records"
	"github.com/turtacn/SHG-Insights/internal/application/session"
	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/redis"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite/repositories"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// CLIContext carries initialized dependencies through the command tree.  The
// store, cache and services are opened on first use so that commands such
// as version never touch the database.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Session      *session.Session
	OutputFormat string
	MetricsFile  string

	collector prometheus.MetricsCollector
	metrics   *prometheus.AnalyticsMetrics
	cancel    context.CancelFunc

	mu          sync.Mutex
	conn        *sqlite.Connection
	redisClient *redis.Client
	cache       *redis.ResultCache
	repos       *repoSet
	analytics   analytics.Service
	records     records.Service
	advisory    advisory.Service
}

type repoSet struct {
	shgs       shg.SHGRepository
	members    shg.MemberRepository
	products   shg.ProductRepository
	ledger     shg.TransactionRepository
	production shg.ProductionRepository
	demands    shg.DemandRepository
	revisions  shg.RevisionReader
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Validation("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Validation("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Store opens the SQLite store, running migrations first when
// database.migrate_on_start is set.
func (c *CLIContext) Store() (*sqlite.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeLocked()
}

func (c *CLIContext) storeLocked() (*sqlite.Connection, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := sqlite.NewConnection(sqlite.SQLiteConfig{
		Path:         c.Config.Database.Path,
		BusyTimeout:  c.Config.Database.BusyTimeout,
		MaxOpenConns: c.Config.Database.MaxOpenConns,
	}, c.Logger)
	if err != nil {
		return nil, err
	}
	if c.Config.Database.MigrateOnStart {
		if err := sqlite.NewMigrator(conn, c.Logger).Up(); err != nil {
			conn.Close()
			return nil, err
		}
	}
	c.conn = conn
	return conn, nil
}

func (c *CLIContext) reposLocked() (*repoSet, error) {
	if c.repos != nil {
		return c.repos, nil
	}
	conn, err := c.storeLocked()
	if err != nil {
		return nil, err
	}
	c.repos = &repoSet{
		shgs:       repositories.NewSHGRepo(conn, c.Logger),
		members:    repositories.NewMemberRepo(conn, c.Logger),
		products:   repositories.NewProductRepo(conn, c.Logger),
		ledger:     repositories.NewTransactionRepo(conn, c.Logger),
		production: repositories.NewProductionRepo(conn, c.Logger),
		demands:    repositories.NewDemandRepo(conn, c.Logger),
		revisions:  repositories.NewRevisionReader(conn),
	}
	return c.repos, nil
}

// resultCache connects to Redis when the cache is enabled.  An unreachable
// server disables caching for this invocation.
func (c *CLIContext) resultCache() *redis.ResultCache {
	if c.cache != nil || !c.Config.Cache.Enabled {
		return c.cache
	}
	client, err := redis.NewClient(c.Config.Cache, c.Logger)
	if err != nil {
		c.Logger.Warn("Result cache unavailable, continuing without it",
			logging.String("addr", c.Config.Cache.Addr), logging.Err(err))
		return nil
	}
	c.redisClient = client
	c.cache = redis.NewRedisCache(client, c.Logger,
		redis.WithPrefix(c.Config.Cache.KeyPrefix),
		redis.WithDefaultTTL(c.Config.Cache.TTL),
	)
	return c.cache
}

// Revision reads the store's current write revision.
func (c *CLIContext) Revision(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, err := c.reposLocked()
	if err != nil {
		return 0, err
	}
	return r.revisions.CurrentRevision(ctx)
}

// Cache returns the result cache, or a NotConfigured error when it is
// disabled or unreachable.
func (c *CLIContext) Cache() (*redis.ResultCache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rc := c.resultCache(); rc != nil {
		return rc, nil
	}
	return nil, errors.New(errors.ErrCodeFeatureDisabled, "result cache is disabled or unreachable")
}

// Analytics returns the analytics service.
func (c *CLIContext) Analytics() (analytics.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyticsLocked()
}

func (c *CLIContext) analyticsLocked() (analytics.Service, error) {
	if c.analytics != nil {
		return c.analytics, nil
	}
	r, err := c.reposLocked()
	if err != nil {
		return nil, err
	}
	cfg := analytics.ServiceConfig{
		SHGRepository:         r.shgs,
		MemberRepository:      r.members,
		ProductRepository:     r.products,
		TransactionRepository: r.ledger,
		ProductionRepository:  r.production,
		DemandRepository:      r.demands,
		RevisionReader:        r.revisions,
		CacheTTL:              c.Config.Cache.TTL,
		Metrics:               c.metrics,
		Logger:                c.Logger,
		Settings:              c.Config.Analytics,
	}
	if cache := c.resultCache(); cache != nil {
		cfg.Cache = cache
	}
	svc, err := analytics.NewService(cfg)
	if err != nil {
		return nil, err
	}
	c.analytics = svc
	return svc, nil
}

// Records returns the records service.
func (c *CLIContext) Records() (records.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.records != nil {
		return c.records, nil
	}
	r, err := c.reposLocked()
	if err != nil {
		return nil, err
	}
	svc, err := records.NewService(records.ServiceConfig{
		SHGRepository:         r.shgs,
		MemberRepository:      r.members,
		ProductRepository:     r.products,
		TransactionRepository: r.ledger,
		ProductionRepository:  r.production,
		DemandRepository:      r.demands,
		Metrics:               c.metrics,
		Logger:                c.Logger,
	})
	if err != nil {
		return nil, err
	}
	c.records = svc
	return svc, nil
}

// Advisory returns the advisory service.  A missing API key yields a
// service that answers with a configuration hint.
func (c *CLIContext) Advisory() (advisory.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.advisory != nil {
		return c.advisory, nil
	}
	an, err := c.analyticsLocked()
	if err != nil {
		return nil, err
	}
	cfg := advisory.ServiceConfig{
		Analytics: an,
		Settings:  c.Config.Advisory,
		Clusters:  c.Config.Analytics.Clusters,
		Metrics:   c.metrics,
		Logger:    c.Logger,
	}
	gen, err := advisory.NewGeminiClient(c.Config.Advisory)
	switch {
	case err == nil:
		cfg.Generator = gen
	case !errors.IsCode(err, errors.ErrCodeAdvisoryNotConfigured):
		return nil, err
	}
	svc, err := advisory.NewService(cfg)
	if err != nil {
		return nil, err
	}
	c.advisory = svc
	return svc, nil
}

// Close flushes metrics and releases the store and cache.
func (c *CLIContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if c.conn != nil {
		c.metrics.ObservePool(c.conn.Stats())
	}
	if c.collector != nil && c.MetricsFile != "" {
		if err := c.collector.WriteTextfile(c.MetricsFile); err != nil {
			c.Logger.Warn("Failed to write metrics textfile",
				logging.String("path", c.MetricsFile), logging.Err(err))
			firstErr = err
		}
	}
	if c.redisClient != nil {
		_ = c.redisClient.Close()
		c.redisClient = nil
		c.cache = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.conn = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	return firstErr
}
