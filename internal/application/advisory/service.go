// Package advisory assembles a compact insight bundle from the analytics
// service and asks a generative model for recommendations.  Advisory output
// is always text: configuration gaps, rate limiting and upstream failures
// come back as messages for the user rather than errors.
package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/turtacn/SHG-Insights/internal/application/analytics"
	"github.com/turtacn/SHG-Insights/internal/application/session"
	"github.com/turtacn/SHG-Insights/internal/config"
	domainanalytics "github.com/turtacn/SHG-Insights/internal/domain/analytics"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Messages returned in place of generated text.
const (
	MsgNotConfigured = "Advisory is not configured. Set advisory.api_key or SHG_ADVISORY_API_KEY."
	MsgNoResponse    = "No response from the advisory model."
)

// Outcome labels for the advisory request counter.
const (
	statusOK            = "ok"
	statusError         = "error"
	statusRateLimited   = "rate_limited"
	statusNotConfigured = "not_configured"
)

// Bundle is the system summary sent with every advisory prompt.
type Bundle struct {
	TotalSHGs      int                                      `json:"total_shgs"`
	ClusterSummary []domainanalytics.BusinessClusterSummary `json:"cluster_summary"`
	HealthSummary  []domainanalytics.HealthBandCount        `json:"health_summary"`
	Underutilised  []domainanalytics.UnderutilizedRow       `json:"underutilised"`
	HighPotential  []domainanalytics.FeatureRow             `json:"high_potential"`
	TopProducts    []domainanalytics.ProductCapacity        `json:"top_products"`
}

// Service produces advisory text.
type Service interface {
	// Bundle assembles the insight bundle with list sections capped at the
	// configured limit.
	Bundle(ctx context.Context) (*Bundle, error)
	// Advise answers query against the current bundle.  The error is
	// reserved for failures to build the bundle.
	Advise(ctx context.Context, query string) (string, error)
}

// ServiceConfig holds configuration for constructing the service.
type ServiceConfig struct {
	Analytics analytics.Service
	// Generator may be nil when no API key is configured.
	Generator Generator
	Settings  config.AdvisoryConfig
	// Clusters is the k used for the bundle's cluster summary.
	Clusters int
	Metrics  *prometheus.AnalyticsMetrics
	Logger   logging.Logger
}

type serviceImpl struct {
	analytics   analytics.Service
	generator   Generator
	maxAttempts int
	bundleLimit int
	clusters    int
	baseDelay   time.Duration
	jitter      func() time.Duration
	metrics     *prometheus.AnalyticsMetrics
	logger      logging.Logger
}

// NewService constructs the advisory service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Analytics == nil {
		return nil, errors.Validation("advisory service requires Analytics")
	}
	if cfg.Logger == nil {
		return nil, errors.Validation("advisory service requires Logger")
	}
	s := &serviceImpl{
		analytics:   cfg.Analytics,
		generator:   cfg.Generator,
		maxAttempts: cfg.Settings.MaxRetries,
		bundleLimit: cfg.Settings.BundleLimit,
		clusters:    cfg.Clusters,
		baseDelay:   time.Second,
		jitter:      func() time.Duration { return time.Duration(rand.Int63n(int64(time.Second))) },
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.Named("advisory"),
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = config.DefaultAdvisoryMaxRetries
	}
	if s.bundleLimit <= 0 {
		s.bundleLimit = config.DefaultAdvisoryBundleLimit
	}
	if s.clusters <= 0 {
		s.clusters = config.DefaultClusters
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewNopMetrics()
	}
	return s, nil
}

func (s *serviceImpl) Bundle(ctx context.Context) (*Bundle, error) {
	features, err := s.analytics.Features(ctx)
	if err != nil {
		return nil, err
	}
	clusters, err := s.analytics.ClusterBusiness(ctx, s.clusters)
	if err != nil {
		return nil, err
	}
	health, err := s.analytics.Health(ctx)
	if err != nil {
		return nil, err
	}
	under, err := s.analytics.Underutilized(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	high, err := s.analytics.HighPotential(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	top, err := s.analytics.TopProducts(ctx, 0)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		TotalSHGs:      len(features),
		ClusterSummary: clusters.Summaries,
		HealthSummary:  health.Bands,
		Underutilised:  capped(under, s.bundleLimit),
		HighPotential:  capped(high, s.bundleLimit),
		TopProducts:    capped(top, s.bundleLimit),
	}, nil
}

func capped[T any](rows []T, limit int) []T {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// Prompt renders the advisory prompt for query over b.
func Prompt(query string, b *Bundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode insight bundle")
	}
	var sb strings.Builder
	sb.WriteString("You are an expert in SHG livelihood, rural development, cluster management and market linkage.\n\n")
	sb.WriteString("SHG System Data (JSON):\n")
	sb.Write(data)
	sb.WriteString("\n\nUser Query:\n")
	fmt.Fprintf(&sb, "%q\n\n", strings.TrimSpace(query))
	sb.WriteString("Give practical, SHG-specific insights:\n")
	sb.WriteString("- Opportunities\n- Risks\n- Target SHGs/clusters\n- Buyer linkages\n- Recommended actions\n")
	return sb.String(), nil
}

func (s *serviceImpl) Advise(ctx context.Context, query string) (string, error) {
	log := s.logger.With(session.Fields(ctx)...)
	if s.generator == nil {
		s.metrics.AdvisoryRequestsTotal.WithLabelValues(statusNotConfigured).Inc()
		log.Warn("Advisory requested without an API key")
		return MsgNotConfigured, nil
	}

	b, err := s.Bundle(ctx)
	if err != nil {
		return "", err
	}
	prompt, err := Prompt(query, b)
	if err != nil {
		return "", err
	}

	timer := prometheus.NewTimer(s.metrics.AdvisoryDuration.WithLabelValues())
	text, attempts, err := s.generate(ctx, prompt)
	elapsed := timer.ObserveDuration()

	switch {
	case err == nil && strings.TrimSpace(text) == "":
		s.metrics.AdvisoryRequestsTotal.WithLabelValues(statusOK).Inc()
		log.Warn("Advisory model returned no text", logging.Int("attempts", attempts))
		return MsgNoResponse, nil
	case err == nil:
		s.metrics.AdvisoryRequestsTotal.WithLabelValues(statusOK).Inc()
		log.Info("Advisory generated",
			logging.Int("attempts", attempts),
			logging.Int("prompt_bytes", len(prompt)),
			logging.Duration("elapsed", elapsed),
		)
		return text, nil
	case errors.IsCode(err, errors.ErrCodeAdvisoryRateLimited):
		s.metrics.AdvisoryRequestsTotal.WithLabelValues(statusRateLimited).Inc()
		log.Warn("Advisory rate limited", logging.Int("attempts", attempts), logging.Err(err))
		return fmt.Sprintf("Advisory failed after %d attempts: %s", attempts, errMessage(err)), nil
	default:
		s.metrics.AdvisoryRequestsTotal.WithLabelValues(statusError).Inc()
		log.Error("Advisory failed", logging.Int("attempts", attempts), logging.Err(err))
		return "Advisory error: " + errMessage(err), nil
	}
}

// generate calls the generator, retrying only rate-limited attempts.
func (s *serviceImpl) generate(ctx context.Context, prompt string) (string, int, error) {
	var (
		text     string
		attempts int
	)
	op := func() error {
		attempts++
		out, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeAdvisoryRateLimited) {
				return err
			}
			return backoff.Permanent(err)
		}
		text = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.metrics.AdvisoryRetriesTotal.WithLabelValues().Inc()
		s.logger.Debug("Retrying advisory request",
			logging.Int("attempt", attempts),
			logging.Duration("wait", wait),
			logging.Err(err),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&attemptBackOff{base: s.baseDelay, jitter: s.jitter}, uint64(s.maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, notify)
	return text, attempts, err
}

// attemptBackOff waits base·2^n plus jitter before retry n+1.
type attemptBackOff struct {
	base   time.Duration
	jitter func() time.Duration
	n      int
}

func (b *attemptBackOff) NextBackOff() time.Duration {
	d := b.base << uint(b.n)
	b.n++
	if b.jitter != nil {
		d += b.jitter()
	}
	return d
}

func (b *attemptBackOff) Reset() { b.n = 0 }

func errMessage(err error) string {
	if ae, ok := err.(*errors.AppError); ok {
		return ae.Message
	}
	return err.Error()
}
