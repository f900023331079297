// Package analytics is the application service in front of the analytics
// engine.  Every operation loads a fresh snapshot from the store, runs the
// engine and returns typed records; results may be served from a cache keyed
// by the store revision.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/SHG-Insights/internal/application/session"
	"github.com/turtacn/SHG-Insights/internal/config"
	domainanalytics "github.com/turtacn/SHG-Insights/internal/domain/analytics"
	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Operation names used for cache keys, metrics and logs.
const (
	OpFeatures        = "features"
	OpHealth          = "health"
	OpCredibility     = "credibility"
	OpMatch           = "match"
	OpClusterBusiness = "cluster_business"
	OpClusterGeo      = "cluster_geo"
	OpTeams           = "teams"
	OpProducts        = "products"
	OpTopProducts     = "top_products"
	OpUnderutilized   = "underutilized"
	OpHighPotential   = "high_potential"
	OpStateSummary    = "state_summary"
)

// ResultCache is the optional cache in front of the engine.  Any Get error
// is treated as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service exposes the analytics operations.
type Service interface {
	Features(ctx context.Context) ([]domainanalytics.FeatureRow, error)
	Health(ctx context.Context) (*HealthReport, error)
	Credibility(ctx context.Context, shgID int64) (*domainanalytics.CredibilityReport, error)
	Match(ctx context.Context, q domainanalytics.DemandQuery) (*MatchReport, error)
	MatchDemand(ctx context.Context, demandID int64) (*MatchReport, error)
	ClusterBusiness(ctx context.Context, k int) (*BusinessClusters, error)
	ClusterGeo(ctx context.Context, k int) (*GeoClusters, error)
	Teams(ctx context.Context, req domainanalytics.TeamRequest) (*TeamReport, error)
	AvailableProducts(ctx context.Context) ([]string, error)
	TopProducts(ctx context.Context, limit int) ([]domainanalytics.ProductCapacity, error)
	Underutilized(ctx context.Context, threshold, minCapacity float64) ([]domainanalytics.UnderutilizedRow, error)
	HighPotential(ctx context.Context, incomeThreshold, capacityThreshold float64) ([]domainanalytics.FeatureRow, error)
	StateSummary(ctx context.Context) ([]domainanalytics.StateSummary, error)
}

// HealthReport is the scored SHG list and its band distribution.
type HealthReport struct {
	Records []domainanalytics.HealthRecord    `json:"records"`
	Bands   []domainanalytics.HealthBandCount `json:"bands"`
}

// MatchReport is a ranked producer list, or the reason it is empty.
type MatchReport struct {
	Query   domainanalytics.DemandQuery   `json:"query"`
	Results []domainanalytics.MatchResult `json:"results"`
	Reason  string                        `json:"reason,omitempty"`
}

// BusinessClusters is the output of the business clustering.
type BusinessClusters struct {
	K           int                                      `json:"k"`
	Assignments []domainanalytics.ClusterAssignment      `json:"assignments"`
	Summaries   []domainanalytics.BusinessClusterSummary `json:"summaries"`
}

// GeoClusters is the output of the geo-demand clustering.
type GeoClusters struct {
	K         int                                 `json:"k"`
	Rows      []domainanalytics.GeoFeatureRow     `json:"rows"`
	Summaries []domainanalytics.GeoClusterSummary `json:"summaries"`
}

// TeamReport is a ranked team list, or the reason it is empty.
type TeamReport struct {
	Request domainanalytics.TeamRequest     `json:"request"`
	Teams   []domainanalytics.TeamCandidate `json:"teams"`
	Reason  string                          `json:"reason,omitempty"`
}

// ServiceConfig holds configuration for constructing the service.
type ServiceConfig struct {
	SHGRepository         shg.SHGRepository
	MemberRepository      shg.MemberRepository
	ProductRepository     shg.ProductRepository
	TransactionRepository shg.TransactionRepository
	ProductionRepository  shg.ProductionRepository
	DemandRepository      shg.DemandRepository
	RevisionReader        shg.RevisionReader
	Cache                 ResultCache
	CacheTTL              time.Duration
	Metrics               *prometheus.AnalyticsMetrics
	Logger                logging.Logger
	Settings              config.AnalyticsConfig
}

type serviceImpl struct {
	shgs      shg.SHGRepository
	products  shg.ProductRepository
	ledger    shg.TransactionRepository
	demands   shg.DemandRepository
	revisions shg.RevisionReader
	loader    *SnapshotLoader
	cache     ResultCache
	cacheTTL  time.Duration
	metrics   *prometheus.AnalyticsMetrics
	logger    logging.Logger
	settings  config.AnalyticsConfig
	group     singleflight.Group
}

// NewService constructs the analytics service.  Cache and Metrics are
// optional; every repository is required.
func NewService(cfg ServiceConfig) (Service, error) {
	switch {
	case cfg.SHGRepository == nil:
		return nil, errors.Validation("analytics service requires SHGRepository")
	case cfg.MemberRepository == nil:
		return nil, errors.Validation("analytics service requires MemberRepository")
	case cfg.ProductRepository == nil:
		return nil, errors.Validation("analytics service requires ProductRepository")
	case cfg.TransactionRepository == nil:
		return nil, errors.Validation("analytics service requires TransactionRepository")
	case cfg.ProductionRepository == nil:
		return nil, errors.Validation("analytics service requires ProductionRepository")
	case cfg.DemandRepository == nil:
		return nil, errors.Validation("analytics service requires DemandRepository")
	case cfg.Cache != nil && cfg.RevisionReader == nil:
		return nil, errors.Validation("analytics service requires RevisionReader when caching")
	case cfg.Logger == nil:
		return nil, errors.Validation("analytics service requires Logger")
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = prometheus.NewNopMetrics()
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = config.DefaultCacheTTL
	}
	logger := cfg.Logger.Named("analytics")
	loader := NewSnapshotLoader(cfg.SHGRepository, cfg.MemberRepository,
		cfg.ProductionRepository, cfg.DemandRepository, metrics, logger)

	return &serviceImpl{
		shgs:      cfg.SHGRepository,
		products:  cfg.ProductRepository,
		ledger:    cfg.TransactionRepository,
		demands:   cfg.DemandRepository,
		revisions: cfg.RevisionReader,
		loader:    loader,
		cache:     cfg.Cache,
		cacheTTL:  ttl,
		metrics:   metrics,
		logger:    logger,
		settings:  cfg.Settings,
	}, nil
}

// run executes compute once per (operation, params) among concurrent callers
// and consults the result cache when one is configured.
func run[T any](ctx context.Context, s *serviceImpl, op, params string, size func(T) int, compute func(context.Context) (T, error)) (T, error) {
	timer := prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues(op))
	log := s.logger.With(session.Fields(ctx)...)

	var zero T
	key := op + ":" + params
	if s.cache != nil {
		rev, err := s.revisions.CurrentRevision(ctx)
		if err != nil {
			s.metrics.ObserveOperation(op, err)
			return zero, err
		}
		key = fmt.Sprintf("rev%d:%s", rev, key)

		var cached T
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.CacheHitsTotal.WithLabelValues(op).Inc()
			s.metrics.ObserveOperation(op, nil)
			log.Debug("Served from cache", logging.String("operation", op), logging.String("key", key))
			return cached, nil
		}
		s.metrics.CacheMissesTotal.WithLabelValues(op).Inc()
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
				log.Warn("Failed to cache result", logging.String("key", key), logging.Err(err))
			}
		}
		return out, nil
	})
	s.metrics.ObserveOperation(op, err)
	if err != nil {
		log.Error("Analytics operation failed", logging.String("operation", op), logging.Err(err))
		return zero, err
	}

	out := v.(T)
	n := size(out)
	s.metrics.ResultRows.WithLabelValues(op).Set(float64(n))
	log.Info("Analytics operation completed",
		logging.String("operation", op),
		logging.Int("rows", n),
		logging.Bool("shared", shared),
		logging.Duration("elapsed", timer.ObserveDuration()),
	)
	return out, nil
}

func (s *serviceImpl) kmeansConfig(k int) domainanalytics.KMeansConfig {
	if k <= 0 {
		k = s.settings.Clusters
	}
	return domainanalytics.KMeansConfig{
		K:             k,
		Seed:          s.settings.Seed,
		Restarts:      s.settings.Restarts,
		MaxIterations: s.settings.MaxIterations,
	}
}

func (s *serviceImpl) Features(ctx context.Context) ([]domainanalytics.FeatureRow, error) {
	return run(ctx, s, OpFeatures, "", lenOf[domainanalytics.FeatureRow],
		func(ctx context.Context) ([]domainanalytics.FeatureRow, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			return domainanalytics.BuildFeatures(snap), nil
		})
}

func (s *serviceImpl) Health(ctx context.Context) (*HealthReport, error) {
	return run(ctx, s, OpHealth, "", func(r *HealthReport) int { return len(r.Records) },
		func(ctx context.Context) (*HealthReport, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			records := domainanalytics.ComputeHealth(domainanalytics.BuildFeatures(snap), snap.Production)
			return &HealthReport{Records: records, Bands: domainanalytics.SummarizeHealth(records)}, nil
		})
}

func (s *serviceImpl) Credibility(ctx context.Context, shgID int64) (*domainanalytics.CredibilityReport, error) {
	return run(ctx, s, OpCredibility, fmt.Sprintf("shg=%d", shgID),
		func(*domainanalytics.CredibilityReport) int { return 1 },
		func(ctx context.Context) (*domainanalytics.CredibilityReport, error) {
			if _, err := s.shgs.GetByID(ctx, shgID); err != nil {
				return nil, err
			}
			txs, err := s.ledger.ListBySHG(ctx, shgID)
			if err != nil {
				return nil, err
			}
			products, err := s.products.ListBySHG(ctx, shgID)
			if err != nil {
				return nil, err
			}
			stocked := make([]domainanalytics.StockedProduct, 0, len(products))
			for _, p := range products {
				qty, err := s.products.CurrentStock(ctx, p.ID)
				if err != nil {
					return nil, err
				}
				stocked = append(stocked, domainanalytics.StockedProduct{ProductID: p.ID, CostPrice: p.CostPrice, Quantity: qty})
			}
			report := domainanalytics.ScoreCredibility(shgID, txs, domainanalytics.InventoryValue(stocked))
			return &report, nil
		})
}

func (s *serviceImpl) Match(ctx context.Context, q domainanalytics.DemandQuery) (*MatchReport, error) {
	if q.Quantity <= 0 {
		return nil, errors.InvalidParam(fmt.Sprintf("required quantity must be positive, got %g", q.Quantity))
	}
	params := fmt.Sprintf("product=%s|qty=%g|district=%s|state=%s", q.Product, q.Quantity, q.District, q.State)
	return run(ctx, s, OpMatch, params, func(r *MatchReport) int { return len(r.Results) },
		func(ctx context.Context) (*MatchReport, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			results, reason := domainanalytics.MatchDemand(domainanalytics.BuildProductSupply(snap), q)
			return &MatchReport{Query: q, Results: results, Reason: reason}, nil
		})
}

// MatchDemand matches a stored demand centre.
func (s *serviceImpl) MatchDemand(ctx context.Context, demandID int64) (*MatchReport, error) {
	d, err := s.demands.GetByID(ctx, demandID)
	if err != nil {
		return nil, err
	}
	return s.Match(ctx, domainanalytics.DemandQuery{
		Product:  d.ProductRequired,
		Quantity: d.QuantityRequired,
		District: d.District,
		State:    d.State,
	})
}

func (s *serviceImpl) ClusterBusiness(ctx context.Context, k int) (*BusinessClusters, error) {
	cfg := s.kmeansConfig(k)
	return run(ctx, s, OpClusterBusiness, fmt.Sprintf("k=%d", cfg.K), func(r *BusinessClusters) int { return len(r.Assignments) },
		func(ctx context.Context) (*BusinessClusters, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			assigned, summaries := domainanalytics.ClusterBusiness(domainanalytics.BuildFeatures(snap), cfg)
			s.metrics.ClustersFormed.WithLabelValues("business").Set(float64(len(summaries)))
			return &BusinessClusters{K: len(summaries), Assignments: assigned, Summaries: summaries}, nil
		})
}

func (s *serviceImpl) ClusterGeo(ctx context.Context, k int) (*GeoClusters, error) {
	cfg := s.kmeansConfig(k)
	return run(ctx, s, OpClusterGeo, fmt.Sprintf("k=%d", cfg.K), func(r *GeoClusters) int { return len(r.Rows) },
		func(ctx context.Context) (*GeoClusters, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			rows, summaries := domainanalytics.ClusterGeo(snap, cfg)
			s.metrics.ClustersFormed.WithLabelValues("geo").Set(float64(len(summaries)))
			return &GeoClusters{K: len(summaries), Rows: rows, Summaries: summaries}, nil
		})
}

func (s *serviceImpl) Teams(ctx context.Context, req domainanalytics.TeamRequest) (*TeamReport, error) {
	if req.MaxTeamSize <= 0 {
		req.MaxTeamSize = s.settings.MaxTeamSize
	}
	if req.TopK <= 0 {
		req.TopK = s.settings.TeamTopK
	}
	params := fmt.Sprintf("product=%s|qty=%g|state=%s|district=%s|m=%d|top=%d",
		req.Product, req.Quantity, req.State, req.District, req.MaxTeamSize, req.TopK)
	return run(ctx, s, OpTeams, params, func(r *TeamReport) int { return len(r.Teams) },
		func(ctx context.Context) (*TeamReport, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			teams, reason := domainanalytics.FormTeams(domainanalytics.BuildProductSupply(snap), req)
			return &TeamReport{Request: req, Teams: teams, Reason: reason}, nil
		})
}

func (s *serviceImpl) AvailableProducts(ctx context.Context) ([]string, error) {
	return run(ctx, s, OpProducts, "", lenOf[string],
		func(ctx context.Context) ([]string, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			return domainanalytics.AvailableProducts(domainanalytics.BuildProductSupply(snap)), nil
		})
}

func (s *serviceImpl) TopProducts(ctx context.Context, limit int) ([]domainanalytics.ProductCapacity, error) {
	if limit <= 0 {
		limit = s.settings.TopProductsLimit
	}
	return run(ctx, s, OpTopProducts, fmt.Sprintf("limit=%d", limit), lenOf[domainanalytics.ProductCapacity],
		func(ctx context.Context) ([]domainanalytics.ProductCapacity, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			return domainanalytics.TopProducts(snap, limit), nil
		})
}

func (s *serviceImpl) Underutilized(ctx context.Context, threshold, minCapacity float64) ([]domainanalytics.UnderutilizedRow, error) {
	if threshold <= 0 {
		threshold = s.settings.UtilThreshold
	}
	if minCapacity < 0 {
		minCapacity = s.settings.MinCapacity
	}
	return run(ctx, s, OpUnderutilized, fmt.Sprintf("util=%g|min=%g", threshold, minCapacity), lenOf[domainanalytics.UnderutilizedRow],
		func(ctx context.Context) ([]domainanalytics.UnderutilizedRow, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			return domainanalytics.Underutilized(snap, threshold, minCapacity), nil
		})
}

func (s *serviceImpl) HighPotential(ctx context.Context, incomeThreshold, capacityThreshold float64) ([]domainanalytics.FeatureRow, error) {
	if incomeThreshold <= 0 {
		incomeThreshold = s.settings.IncomeThreshold
	}
	if capacityThreshold < 0 {
		capacityThreshold = s.settings.CapacityThreshold
	}
	return run(ctx, s, OpHighPotential, fmt.Sprintf("income=%g|cap=%g", incomeThreshold, capacityThreshold), lenOf[domainanalytics.FeatureRow],
		func(ctx context.Context) ([]domainanalytics.FeatureRow, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			return domainanalytics.HighPotential(domainanalytics.BuildFeatures(snap), incomeThreshold, capacityThreshold), nil
		})
}

func (s *serviceImpl) StateSummary(ctx context.Context) ([]domainanalytics.StateSummary, error) {
	return run(ctx, s, OpStateSummary, "", lenOf[domainanalytics.StateSummary],
		func(ctx context.Context) ([]domainanalytics.StateSummary, error) {
			snap, err := s.loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			return domainanalytics.SummarizeStates(domainanalytics.BuildFeatures(snap)), nil
		})
}

func lenOf[E any](v []E) int { return len(v) }
