// Package records is the write side of the SHG store.  It applies the
// bookkeeping rules that sit above the repositories: inventory changes are
// appended as absolute snapshots, product-linked sales and purchases move
// stock, capacity declarations are classified, and whole datasets can be
// seeded or the district demand table replaced from CSV.
package records

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/SHG-Insights/internal/application/session"
	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Record kinds used as the metrics label.
const (
	KindSHG            = "shg"
	KindMember         = "member"
	KindSkill          = "skill"
	KindFinancial      = "financial"
	KindProduct        = "product"
	KindInventory      = "inventory"
	KindTransaction    = "transaction"
	KindCapacity       = "capacity"
	KindDemand         = "demand"
	KindDistrictDemand = "district_demand"
)

// InventoryAdjustment is a relative stock change for one product.
type InventoryAdjustment struct {
	ProductID int64
	Change    float64
	Reason    string
}

// Service records SHG business activity.
type Service interface {
	CreateSHG(ctx context.Context, g *shg.SHG) error
	AddMember(ctx context.Context, m *shg.Member) error
	AddSkill(ctx context.Context, s *shg.MemberSkill) error
	SetFinancial(ctx context.Context, f *shg.MemberFinancial) error
	CreateProduct(ctx context.Context, p *shg.Product) error
	// AdjustInventory appends latest+change as the new snapshot, logs an
	// inventory_<reason> ledger entry and returns the new quantity.
	AdjustInventory(ctx context.Context, adj InventoryAdjustment) (float64, error)
	// RecordTransaction logs a ledger entry.  A sale or purchase linked to
	// a product with a positive quantity also moves its stock.
	RecordTransaction(ctx context.Context, t *shg.Transaction) error
	// DeclareCapacity stores a production capacity row, classifying the
	// product when no type is given.
	DeclareCapacity(ctx context.Context, c *shg.ProductionCapacity) error
	RecordDemand(ctx context.Context, d *shg.DemandCenter) error
	// ListDemands returns every demand centre, newest first.
	ListDemands(ctx context.Context) ([]shg.DemandCenter, error)
	// ImportDistrictDemand replaces the district demand table with the
	// rows of a CSV document.
	ImportDistrictDemand(ctx context.Context, r io.Reader) (int, error)
	// Seed writes a whole dataset.
	Seed(ctx context.Context, ds *Dataset) (*SeedReport, error)
}

// ServiceConfig holds configuration for constructing the service.
type ServiceConfig struct {
	SHGRepository         shg.SHGRepository
	MemberRepository      shg.MemberRepository
	ProductRepository     shg.ProductRepository
	TransactionRepository shg.TransactionRepository
	ProductionRepository  shg.ProductionRepository
	DemandRepository      shg.DemandRepository
	Metrics               *prometheus.AnalyticsMetrics
	Logger                logging.Logger
}

type serviceImpl struct {
	shgs       shg.SHGRepository
	members    shg.MemberRepository
	products   shg.ProductRepository
	ledger     shg.TransactionRepository
	production shg.ProductionRepository
	demands    shg.DemandRepository
	metrics    *prometheus.AnalyticsMetrics
	logger     logging.Logger
}

// NewService constructs the records service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.SHGRepository == nil || cfg.MemberRepository == nil || cfg.ProductRepository == nil ||
		cfg.TransactionRepository == nil || cfg.ProductionRepository == nil || cfg.DemandRepository == nil {
		return nil, errors.Validation("records service requires every repository")
	}
	if cfg.Logger == nil {
		return nil, errors.Validation("records service requires Logger")
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = prometheus.NewNopMetrics()
	}
	return &serviceImpl{
		shgs:       cfg.SHGRepository,
		members:    cfg.MemberRepository,
		products:   cfg.ProductRepository,
		ledger:     cfg.TransactionRepository,
		production: cfg.ProductionRepository,
		demands:    cfg.DemandRepository,
		metrics:    metrics,
		logger:     cfg.Logger.Named("records"),
	}, nil
}

func (s *serviceImpl) written(ctx context.Context, kind string, id int64) {
	s.metrics.RecordsWrittenTotal.WithLabelValues(kind).Inc()
	s.logger.With(session.Fields(ctx)...).Debug("Record written",
		logging.String("kind", kind), logging.Int64("id", id))
}

func (s *serviceImpl) CreateSHG(ctx context.Context, g *shg.SHG) error {
	if err := s.shgs.Create(ctx, g); err != nil {
		return err
	}
	s.written(ctx, KindSHG, g.ID)
	return nil
}

func (s *serviceImpl) AddMember(ctx context.Context, m *shg.Member) error {
	if _, err := s.shgs.GetByID(ctx, m.SHGID); err != nil {
		return err
	}
	if err := s.members.Create(ctx, m); err != nil {
		return err
	}
	s.written(ctx, KindMember, m.ID)
	return nil
}

func (s *serviceImpl) AddSkill(ctx context.Context, sk *shg.MemberSkill) error {
	if err := s.members.AddSkill(ctx, sk); err != nil {
		return err
	}
	s.written(ctx, KindSkill, sk.ID)
	return nil
}

func (s *serviceImpl) SetFinancial(ctx context.Context, f *shg.MemberFinancial) error {
	if err := s.members.UpsertFinancial(ctx, f); err != nil {
		return err
	}
	s.written(ctx, KindFinancial, f.MemberID)
	return nil
}

func (s *serviceImpl) CreateProduct(ctx context.Context, p *shg.Product) error {
	if _, err := s.shgs.GetByID(ctx, p.SHGID); err != nil {
		return err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}
	s.written(ctx, KindProduct, p.ID)
	return nil
}

func (s *serviceImpl) AdjustInventory(ctx context.Context, adj InventoryAdjustment) (float64, error) {
	p, err := s.products.GetByID(ctx, adj.ProductID)
	if err != nil {
		return 0, err
	}
	reason := strings.TrimSpace(adj.Reason)
	if reason == "" {
		reason = "adjustment"
	}
	productID := p.ID
	tx := &shg.Transaction{
		SHGID:       p.SHGID,
		ProductID:   &productID,
		Quantity:    adj.Change,
		Type:        shg.InventoryTxType(reason),
		Description: "Inventory adjustment: " + reason,
	}
	snap, err := s.products.AdjustStock(ctx, p.ID, adj.Change, tx)
	if err != nil {
		return 0, err
	}
	next := snap.Quantity
	if next < 0 {
		s.logger.Warn("Stock is negative after adjustment",
			logging.Int64("product_id", p.ID), logging.Float64("quantity", next))
	}
	s.written(ctx, KindInventory, tx.ID)
	return next, nil
}

func (s *serviceImpl) RecordTransaction(ctx context.Context, t *shg.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.Type.IsInventory() && t.Amount <= 0 {
		return errors.InvalidParam("amount must be greater than 0")
	}
	if _, err := s.shgs.GetByID(ctx, t.SHGID); err != nil {
		return err
	}

	delta := stockDelta(t)
	if t.ProductID == nil || delta == 0 {
		if err := s.ledger.Create(ctx, t); err != nil {
			return err
		}
		s.written(ctx, KindTransaction, t.ID)
		return nil
	}

	p, err := s.products.GetByID(ctx, *t.ProductID)
	if err != nil {
		return err
	}
	if p.SHGID != t.SHGID {
		return errors.InvalidParam(fmt.Sprintf("product %d does not belong to SHG %d", p.ID, t.SHGID))
	}
	if _, err := s.products.AdjustStock(ctx, p.ID, delta, t); err != nil {
		return err
	}
	s.written(ctx, KindTransaction, t.ID)
	return nil
}

// stockDelta is the stock movement implied by a product-linked entry.
func stockDelta(t *shg.Transaction) float64 {
	if t.Quantity <= 0 {
		return 0
	}
	switch t.Type {
	case shg.TxSale:
		return -t.Quantity
	case shg.TxPurchase:
		return t.Quantity
	}
	return 0
}

func (s *serviceImpl) DeclareCapacity(ctx context.Context, c *shg.ProductionCapacity) error {
	if c.ProductType == "" {
		c.ProductType = shg.ClassifyProduct(c.ProductName)
	}
	if _, err := s.shgs.GetByID(ctx, c.SHGID); err != nil {
		return err
	}
	if err := s.production.Create(ctx, c); err != nil {
		return err
	}
	s.written(ctx, KindCapacity, c.ID)
	return nil
}

func (s *serviceImpl) RecordDemand(ctx context.Context, d *shg.DemandCenter) error {
	if err := s.demands.Create(ctx, d); err != nil {
		return err
	}
	s.written(ctx, KindDemand, d.ID)
	return nil
}

func (s *serviceImpl) ListDemands(ctx context.Context) ([]shg.DemandCenter, error) {
	return s.demands.List(ctx)
}

func (s *serviceImpl) ImportDistrictDemand(ctx context.Context, r io.Reader) (int, error) {
	rows, err := ParseDistrictDemand(r)
	if err != nil {
		return 0, err
	}
	n, err := s.demands.ReplaceDistrictDemand(ctx, rows)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordsWrittenTotal.WithLabelValues(KindDistrictDemand).Add(float64(n))
	s.logger.With(session.Fields(ctx)...).Info("District demand imported", logging.Int("rows", n))
	return n, nil
}
