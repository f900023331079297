package analytics

import (
	"context"

	domainanalytics "github.com/turtacn/SHG-Insights/internal/domain/analytics"
	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// SnapshotLoader materialises the rows the engine reads.
type SnapshotLoader struct {
	shgs       shg.SHGRepository
	members    shg.MemberRepository
	production shg.ProductionRepository
	demands    shg.DemandRepository
	metrics    *prometheus.AnalyticsMetrics
	logger     logging.Logger
}

// NewSnapshotLoader returns a loader over the given repositories.
func NewSnapshotLoader(
	shgs shg.SHGRepository,
	members shg.MemberRepository,
	production shg.ProductionRepository,
	demands shg.DemandRepository,
	metrics *prometheus.AnalyticsMetrics,
	logger logging.Logger,
) *SnapshotLoader {
	if metrics == nil {
		metrics = prometheus.NewNopMetrics()
	}
	return &SnapshotLoader{
		shgs:       shgs,
		members:    members,
		production: production,
		demands:    demands,
		metrics:    metrics,
		logger:     logger,
	}
}

// Load reads every table the engine consumes.
func (l *SnapshotLoader) Load(ctx context.Context) (domainanalytics.Snapshot, error) {
	timer := prometheus.NewTimer(l.metrics.SnapshotLoadDuration.WithLabelValues())
	var (
		s   domainanalytics.Snapshot
		err error
	)
	if s.SHGs, err = l.shgs.List(ctx); err != nil {
		return s, wrapLoad(err, "shg")
	}
	if s.Members, err = l.members.List(ctx); err != nil {
		return s, wrapLoad(err, "member")
	}
	if s.Skills, err = l.members.ListSkills(ctx); err != nil {
		return s, wrapLoad(err, "member_skills")
	}
	if s.Financials, err = l.members.ListFinancials(ctx); err != nil {
		return s, wrapLoad(err, "member_financials")
	}
	if s.Production, err = l.production.List(ctx); err != nil {
		return s, wrapLoad(err, "shg_production")
	}
	if s.DistrictDemand, err = l.demands.ListDistrictDemand(ctx); err != nil {
		return s, wrapLoad(err, "district_demand")
	}
	elapsed := timer.ObserveDuration()

	counts := map[string]int{
		"shg":               len(s.SHGs),
		"member":            len(s.Members),
		"member_skills":     len(s.Skills),
		"member_financials": len(s.Financials),
		"shg_production":    len(s.Production),
		"district_demand":   len(s.DistrictDemand),
	}
	for table, n := range counts {
		l.metrics.SnapshotRows.WithLabelValues(table).Set(float64(n))
	}
	l.logger.Debug("Loaded snapshot",
		logging.Int("shgs", len(s.SHGs)),
		logging.Int("production_rows", len(s.Production)),
		logging.Duration("elapsed", elapsed),
	)
	return s, nil
}

func wrapLoad(err error, table string) error {
	return errors.Wrap(err, errors.ErrCodeSnapshotLoadFailed, "failed to load snapshot").WithDetail("table: " + table)
}
