// Package shg holds the raw record types of the SHG store: groups, members,
// skills, financial profiles, products, inventory snapshots, transactions,
// production capacity and demand centres, plus the repository ports through
// which they are read and written.
package shg

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// SHG is one self-help group.
type SHG struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Village   string    `json:"village" yaml:"village"`
	District  string    `json:"district" yaml:"district"`
	State     string    `json:"state" yaml:"state"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Validate checks the fields required before an SHG is stored.
func (s *SHG) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("shg name must not be empty")
	}
	return nil
}

// Member belongs to exactly one SHG.
type Member struct {
	ID       int64     `json:"id" yaml:"id"`
	SHGID    int64     `json:"shg_id" yaml:"shg_id"`
	Name     string    `json:"name" yaml:"name"`
	Phone    string    `json:"phone" yaml:"phone"`
	Role     string    `json:"role" yaml:"role"`
	JoinedAt time.Time `json:"joined_at" yaml:"-"`
}

func (m *Member) Validate() error {
	if m.SHGID <= 0 {
		return invalid("member must belong to an shg")
	}
	if strings.TrimSpace(m.Name) == "" {
		return invalid("member name must not be empty")
	}
	return nil
}

// MemberSkill is one skill declared by a member.
type MemberSkill struct {
	ID              int64   `json:"id" yaml:"id"`
	MemberID        int64   `json:"member_id" yaml:"member_id"`
	SkillCategory   string  `json:"skill_category" yaml:"skill_category"`
	SubSkill        string  `json:"sub_skill" yaml:"sub_skill"`
	YearsExperience float64 `json:"years_experience" yaml:"years_experience"`
}

func (s *MemberSkill) Validate() error {
	if s.MemberID <= 0 {
		return invalid("skill must belong to a member")
	}
	if strings.TrimSpace(s.SkillCategory) == "" {
		return invalid("skill category must not be empty")
	}
	if s.YearsExperience < 0 {
		return invalid("years of experience must not be negative")
	}
	return nil
}

// MemberFinancial is the financial profile of a member.  A member has at
// most one; writes replace the previous profile.
type MemberFinancial struct {
	ID                int64     `json:"id" yaml:"id"`
	MemberID          int64     `json:"member_id" yaml:"member_id"`
	MonthlyIncome     float64   `json:"monthly_income" yaml:"monthly_income"`
	MonthlyExpense    float64   `json:"monthly_expense" yaml:"monthly_expense"`
	CreditOutstanding float64   `json:"credit_outstanding" yaml:"credit_outstanding"`
	LoanRepaymentRate float64   `json:"loan_repayment_rate" yaml:"loan_repayment_rate"`
	Savings           float64   `json:"savings" yaml:"savings"`
	LastUpdated       time.Time `json:"last_updated" yaml:"-"`
}

func (f *MemberFinancial) Validate() error {
	if f.MemberID <= 0 {
		return invalid("financial profile must belong to a member")
	}
	if f.LoanRepaymentRate < 0 || f.LoanRepaymentRate > 1 {
		return invalid(fmt.Sprintf("loan repayment rate %.2f is outside [0, 1]", f.LoanRepaymentRate))
	}
	return nil
}

// Product is something an SHG makes and sells.
type Product struct {
	ID           int64     `json:"id" yaml:"id"`
	SHGID        int64     `json:"shg_id" yaml:"shg_id"`
	Name         string    `json:"name" yaml:"name"`
	Category     string    `json:"category" yaml:"category"`
	Unit         string    `json:"unit" yaml:"unit"`
	CostPrice    float64   `json:"cost_price" yaml:"cost_price"`
	SellingPrice float64   `json:"selling_price" yaml:"selling_price"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

func (p *Product) Validate() error {
	if p.SHGID <= 0 {
		return invalid("product must belong to an shg")
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("product name must not be empty")
	}
	if p.CostPrice < 0 || p.SellingPrice < 0 {
		return invalid("prices must not be negative")
	}
	return nil
}

// InventorySnapshot records the absolute stock of a product at a point in
// time.  The snapshot with the greatest ID is the current stock.
type InventorySnapshot struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is one ledger entry of an SHG.
type Transaction struct {
	ID          int64   `json:"id" yaml:"id"`
	SHGID       int64   `json:"shg_id" yaml:"shg_id"`
	MemberID    *int64  `json:"member_id,omitempty" yaml:"member_id"`
	ProductID   *int64  `json:"product_id,omitempty" yaml:"product_id"`
	TxDate      string  `json:"tx_date" yaml:"tx_date"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Amount      float64 `json:"amount" yaml:"amount"`
	Type        TxType  `json:"tx_type" yaml:"tx_type"`
	Description string  `json:"description" yaml:"description"`
}

func (t *Transaction) Validate() error {
	if t.SHGID <= 0 {
		return invalid("transaction must belong to an shg")
	}
	if !t.Type.Valid() {
		return invalid(fmt.Sprintf("unknown transaction type %q", t.Type))
	}
	if t.Amount < 0 {
		return invalid("transaction amount must not be negative")
	}
	return nil
}

// ProductionCapacity declares how much of a product an SHG can make per month
// and how much is ready to ship now.
type ProductionCapacity struct {
	ID              int64       `json:"id" yaml:"id"`
	SHGID           int64       `json:"shg_id" yaml:"shg_id"`
	ProductName     string      `json:"product_name" yaml:"product_name"`
	MonthlyCapacity float64     `json:"monthly_capacity" yaml:"monthly_capacity"`
	SupplyReady     float64     `json:"supply_ready" yaml:"supply_ready"`
	ProductType     ProductType `json:"product_type" yaml:"product_type"`
}

func (c *ProductionCapacity) Validate() error {
	if c.SHGID <= 0 {
		return invalid("capacity must belong to an shg")
	}
	if strings.TrimSpace(c.ProductName) == "" {
		return invalid("capacity product name must not be empty")
	}
	if c.MonthlyCapacity < 0 || c.SupplyReady < 0 {
		return invalid("capacity and supply must not be negative")
	}
	if c.ProductType != "" && !c.ProductType.Valid() {
		return invalid(fmt.Sprintf("unknown product type %q", c.ProductType))
	}
	return nil
}

// DemandCenter is a buyer location asking for a quantity of a product.
type DemandCenter struct {
	ID               int64     `json:"id" yaml:"id"`
	Location         string    `json:"location" yaml:"location"`
	District         string    `json:"district" yaml:"district"`
	State            string    `json:"state" yaml:"state"`
	ProductRequired  string    `json:"product_required" yaml:"product_required"`
	QuantityRequired float64   `json:"quantity_required" yaml:"quantity_required"`
	Deadline         string    `json:"deadline" yaml:"deadline"`
	CreatedAt        time.Time `json:"created_at" yaml:"-"`
}

func (d *DemandCenter) Validate() error {
	if strings.TrimSpace(d.ProductRequired) == "" {
		return invalid("demand product must not be empty")
	}
	if d.QuantityRequired <= 0 {
		return invalid("demand quantity must be positive")
	}
	return nil
}

// DistrictDemand is one row of the geo-demand reference table.
type DistrictDemand struct {
	State         string  `json:"state" yaml:"state"`
	District      string  `json:"district" yaml:"district"`
	SkillCategory string  `json:"skill_category" yaml:"skill_category"`
	MonthlyDemand float64 `json:"monthly_demand" yaml:"monthly_demand"`
	PriorityLevel float64 `json:"priority_level" yaml:"priority_level"`
	Latitude      float64 `json:"latitude" yaml:"latitude"`
	Longitude     float64 `json:"longitude" yaml:"longitude"`
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeInvalidRecord, msg)
}
