package shg

import "context"

// SHGRepository persists self-help groups.
type SHGRepository interface {
	Create(ctx context.Context, s *SHG) error
	GetByID(ctx context.Context, id int64) (*SHG, error)
	List(ctx context.Context) ([]SHG, error)
}

// MemberRepository persists members together with their skills and
// financial profiles.
type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	List(ctx context.Context) ([]Member, error)
	AddSkill(ctx context.Context, s *MemberSkill) error
	ListSkills(ctx context.Context) ([]MemberSkill, error)
	// UpsertFinancial replaces the member's profile when one exists.
	UpsertFinancial(ctx context.Context, f *MemberFinancial) error
	ListFinancials(ctx context.Context) ([]MemberFinancial, error)
}

// ProductRepository persists products and their inventory snapshots.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListBySHG(ctx context.Context, shgID int64) ([]Product, error)
	// CurrentStock returns the quantity of the most recently inserted
	// snapshot, or 0 when the product has none.
	CurrentStock(ctx context.Context, productID int64) (float64, error)
	AppendSnapshot(ctx context.Context, s *InventorySnapshot) error
	// AdjustStock reads the latest snapshot, appends one holding latest+delta
	// and logs t, all in one transaction.  It returns the new snapshot.
	AdjustStock(ctx context.Context, productID int64, delta float64, t *Transaction) (*InventorySnapshot, error)
}

// TransactionRepository persists ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	// ListBySHG returns the SHG's entries ordered by tx_date.
	ListBySHG(ctx context.Context, shgID int64) ([]Transaction, error)
}

// ProductionRepository persists production capacity declarations.
type ProductionRepository interface {
	Create(ctx context.Context, c *ProductionCapacity) error
	List(ctx context.Context) ([]ProductionCapacity, error)
}

// DemandRepository persists demand centres and the district demand
// reference table.
type DemandRepository interface {
	Create(ctx context.Context, d *DemandCenter) error
	GetByID(ctx context.Context, id int64) (*DemandCenter, error)
	// List returns demand centres newest first.
	List(ctx context.Context) ([]DemandCenter, error)
	// ReplaceDistrictDemand swaps the whole reference table in one
	// transaction and returns the number of rows written.
	ReplaceDistrictDemand(ctx context.Context, rows []DistrictDemand) (int, error)
	ListDistrictDemand(ctx context.Context) ([]DistrictDemand, error)
}

// RevisionReader exposes the store's data revision.  The revision changes
// on every write and serves as the freshness token for cached results.
type RevisionReader interface {
	CurrentRevision(ctx context.Context) (int64, error)
}
