package records

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/SHG-Insights/internal/application/session"
	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Dataset is a YAML document describing SHGs together with everything they
// own.  Children reference their parents by nesting, so the document never
// carries store ids.
type Dataset struct {
	SHGs           []SeedSHG            `yaml:"shgs"`
	DemandCenters  []shg.DemandCenter   `yaml:"demand_centers"`
	DistrictDemand []shg.DistrictDemand `yaml:"district_demand"`
}

// SeedSHG is one group in a Dataset.
type SeedSHG struct {
	Name         string            `yaml:"name"`
	Village      string            `yaml:"village"`
	District     string            `yaml:"district"`
	State        string            `yaml:"state"`
	Members      []SeedMember      `yaml:"members"`
	Products     []SeedProduct     `yaml:"products"`
	Production   []SeedCapacity    `yaml:"production"`
	Transactions []SeedTransaction `yaml:"transactions"`
}

// SeedMember is one member with skills and an optional financial profile.
type SeedMember struct {
	Name      string               `yaml:"name"`
	Phone     string               `yaml:"phone"`
	Role      string               `yaml:"role"`
	Skills    []shg.MemberSkill    `yaml:"skills"`
	Financial *shg.MemberFinancial `yaml:"financial"`
}

// SeedProduct is a product with its opening stock.
type SeedProduct struct {
	Name         string  `yaml:"name"`
	Category     string  `yaml:"category"`
	Unit         string  `yaml:"unit"`
	CostPrice    float64 `yaml:"cost_price"`
	SellingPrice float64 `yaml:"selling_price"`
	Stock        float64 `yaml:"stock"`
}

// SeedCapacity is a production capacity row.
type SeedCapacity struct {
	ProductName     string          `yaml:"product_name"`
	MonthlyCapacity float64         `yaml:"monthly_capacity"`
	SupplyReady     float64         `yaml:"supply_ready"`
	ProductType     shg.ProductType `yaml:"product_type"`
}

// SeedTransaction is a ledger entry.  Product names one of the group's
// seeded products.
type SeedTransaction struct {
	TxDate      string     `yaml:"tx_date"`
	Type        shg.TxType `yaml:"tx_type"`
	Amount      float64    `yaml:"amount"`
	Quantity    float64    `yaml:"quantity"`
	Product     string     `yaml:"product"`
	Description string     `yaml:"description"`
}

// SeedReport counts the records a Seed call wrote.
type SeedReport struct {
	SHGs           int `json:"shgs"`
	Members        int `json:"members"`
	Skills         int `json:"skills"`
	Financials     int `json:"financials"`
	Products       int `json:"products"`
	Transactions   int `json:"transactions"`
	Capacities     int `json:"capacities"`
	DemandCenters  int `json:"demand_centers"`
	DistrictDemand int `json:"district_demand"`
}

// LoadDataset decodes a YAML dataset.  Unknown keys are rejected.
func LoadDataset(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if err == io.EOF {
			return &ds, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatasetMalformed, "failed to decode dataset")
	}
	return &ds, nil
}

// Seed writes ds through the service so every bookkeeping rule applies.  It
// stops at the first failing record; rows written before it are kept.
func (s *serviceImpl) Seed(ctx context.Context, ds *Dataset) (*SeedReport, error) {
	report := &SeedReport{}
	if ds == nil {
		return report, nil
	}

	for _, sg := range ds.SHGs {
		g := &shg.SHG{Name: sg.Name, Village: sg.Village, District: sg.District, State: sg.State}
		if err := s.CreateSHG(ctx, g); err != nil {
			return report, seedErr(err, "shg "+sg.Name)
		}
		report.SHGs++

		for _, sm := range sg.Members {
			m := &shg.Member{SHGID: g.ID, Name: sm.Name, Phone: sm.Phone, Role: sm.Role}
			if err := s.AddMember(ctx, m); err != nil {
				return report, seedErr(err, "member "+sm.Name)
			}
			report.Members++

			for _, sk := range sm.Skills {
				sk.MemberID = m.ID
				if err := s.AddSkill(ctx, &sk); err != nil {
					return report, seedErr(err, "skill of "+sm.Name)
				}
				report.Skills++
			}
			if sm.Financial != nil {
				f := *sm.Financial
				f.MemberID = m.ID
				if err := s.SetFinancial(ctx, &f); err != nil {
					return report, seedErr(err, "financial profile of "+sm.Name)
				}
				report.Financials++
			}
		}

		productIDs := make(map[string]int64, len(sg.Products))
		for _, sp := range sg.Products {
			p := &shg.Product{
				SHGID:        g.ID,
				Name:         sp.Name,
				Category:     sp.Category,
				Unit:         sp.Unit,
				CostPrice:    sp.CostPrice,
				SellingPrice: sp.SellingPrice,
			}
			if err := s.CreateProduct(ctx, p); err != nil {
				return report, seedErr(err, "product "+sp.Name)
			}
			productIDs[sp.Name] = p.ID
			report.Products++

			if sp.Stock != 0 {
				if _, err := s.AdjustInventory(ctx, InventoryAdjustment{ProductID: p.ID, Change: sp.Stock, Reason: "opening_stock"}); err != nil {
					return report, seedErr(err, "opening stock of "+sp.Name)
				}
			}
		}

		for _, sc := range sg.Production {
			c := &shg.ProductionCapacity{
				SHGID:           g.ID,
				ProductName:     sc.ProductName,
				MonthlyCapacity: sc.MonthlyCapacity,
				SupplyReady:     sc.SupplyReady,
				ProductType:     sc.ProductType,
			}
			if err := s.DeclareCapacity(ctx, c); err != nil {
				return report, seedErr(err, "capacity "+sc.ProductName)
			}
			report.Capacities++
		}

		for _, st := range sg.Transactions {
			t := &shg.Transaction{
				SHGID:       g.ID,
				TxDate:      st.TxDate,
				Type:        st.Type,
				Amount:      st.Amount,
				Quantity:    st.Quantity,
				Description: st.Description,
			}
			if st.Product != "" {
				id, ok := productIDs[st.Product]
				if !ok {
					return report, errors.New(errors.ErrCodeDatasetMalformed, "transaction references unknown product "+st.Product)
				}
				t.ProductID = &id
			}
			if err := s.RecordTransaction(ctx, t); err != nil {
				return report, seedErr(err, "transaction of "+sg.Name)
			}
			report.Transactions++
		}
	}

	for i := range ds.DemandCenters {
		d := ds.DemandCenters[i]
		d.ID = 0
		if err := s.RecordDemand(ctx, &d); err != nil {
			return report, seedErr(err, "demand centre "+d.Location)
		}
		report.DemandCenters++
	}

	if len(ds.DistrictDemand) > 0 {
		n, err := s.demands.ReplaceDistrictDemand(ctx, ds.DistrictDemand)
		if err != nil {
			return report, seedErr(err, "district demand")
		}
		s.metrics.RecordsWrittenTotal.WithLabelValues(KindDistrictDemand).Add(float64(n))
		report.DistrictDemand = n
	}

	s.logger.With(session.Fields(ctx)...).Info("Dataset seeded",
		logging.Int("shgs", report.SHGs),
		logging.Int("members", report.Members),
		logging.Int("products", report.Products),
		logging.Int("transactions", report.Transactions),
		logging.Int("capacities", report.Capacities),
		logging.Int("demand_centers", report.DemandCenters),
		logging.Int("district_demand", report.DistrictDemand),
	)
	return report, nil
}

func seedErr(err error, what string) error {
	return errors.Wrap(err, errors.CodeUnknown, "failed to seed "+what)
}
