package records

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite/repositories"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/testutil"
	pkgerrors "github.com/turtacn/SHG-Insights/pkg/errors"
)

type RecordsTestSuite struct {
	suite.Suite
	ctx      context.Context
	log      *testutil.MockLogger
	svc      Service
	products shg.ProductRepository
	ledger   shg.TransactionRepository
	prod     shg.ProductionRepository
	demands  shg.DemandRepository
	shgs     shg.SHGRepository
	members  shg.MemberRepository
}

func (s *RecordsTestSuite) SetupTest() {
	conn := testutil.NewStore(s.T())
	nop := logging.NewNopLogger()
	s.ctx = context.Background()
	s.log = testutil.NewMockLogger()
	s.shgs = repositories.NewSHGRepo(conn, nop)
	s.members = repositories.NewMemberRepo(conn, nop)
	s.products = repositories.NewProductRepo(conn, nop)
	s.ledger = repositories.NewTransactionRepo(conn, nop)
	s.prod = repositories.NewProductionRepo(conn, nop)
	s.demands = repositories.NewDemandRepo(conn, nop)

	svc, err := NewService(ServiceConfig{
		SHGRepository:         s.shgs,
		MemberRepository:      s.members,
		ProductRepository:     s.products,
		TransactionRepository: s.ledger,
		ProductionRepository:  s.prod,
		DemandRepository:      s.demands,
		Logger:                s.log,
	})
	s.Require().NoError(err)
	s.svc = svc
}

func TestRecordsTestSuite(t *testing.T) {
	suite.Run(t, new(RecordsTestSuite))
}

func (s *RecordsTestSuite) newProduct() (*shg.SHG, *shg.Product) {
	g := &shg.SHG{Name: "Jyoti", District: "Pune", State: "Maharashtra"}
	s.Require().NoError(s.svc.CreateSHG(s.ctx, g))
	p := &shg.Product{SHGID: g.ID, Name: "Paper Bags", CostPrice: 4, SellingPrice: 7}
	s.Require().NoError(s.svc.CreateProduct(s.ctx, p))
	return g, p
}

func (s *RecordsTestSuite) TestAdjustInventory_AppendsAbsoluteSnapshots() {
	g, p := s.newProduct()

	qty, err := s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: p.ID, Change: 50, Reason: "production_add"})
	s.Require().NoError(err)
	s.Equal(50.0, qty)

	qty, err = s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: p.ID, Change: -8, Reason: "damage"})
	s.Require().NoError(err)
	s.Equal(42.0, qty)

	stock, err := s.products.CurrentStock(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(42.0, stock)

	txs, err := s.ledger.ListBySHG(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Require().Len(txs, 2)
	s.Equal(shg.TxType("inventory_production_add"), txs[0].Type)
	s.Equal(shg.TxType("inventory_damage"), txs[1].Type)
	s.Equal(-8.0, txs[1].Quantity)
	s.Zero(txs[1].Amount)
	s.Require().NotNil(txs[1].ProductID)
	s.Equal(p.ID, *txs[1].ProductID)
	s.Equal("Inventory adjustment: damage", txs[1].Description)
}

func (s *RecordsTestSuite) TestAdjustInventory_UnknownProduct() {
	_, err := s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: 404, Change: 1})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeProductNotFound))
}

func (s *RecordsTestSuite) TestAdjustInventory_NegativeStockWarns() {
	_, p := s.newProduct()
	qty, err := s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: p.ID, Change: -3})
	s.Require().NoError(err)
	s.Equal(-3.0, qty)
	s.True(s.log.HasMessage("warn", "Stock is negative after adjustment"))
}

func (s *RecordsTestSuite) TestAdjustInventory_ConcurrentChangesAllLand() {
	g, p := s.newProduct()
	_, err := s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: p.ID, Change: 100, Reason: "production_add"})
	s.Require().NoError(err)

	id := p.ID
	var eg errgroup.Group
	for i := 0; i < 10; i++ {
		eg.Go(func() error {
			_, err := s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: id, Change: -2, Reason: "damage"})
			return err
		})
		eg.Go(func() error {
			return s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID, ProductID: &id, Quantity: 5, Amount: 35, Type: shg.TxSale})
		})
	}
	s.Require().NoError(eg.Wait())

	stock, err := s.products.CurrentStock(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(30.0, stock)
}

func (s *RecordsTestSuite) TestRecordTransaction_SaleAndPurchaseMoveStock() {
	g, p := s.newProduct()
	_, err := s.svc.AdjustInventory(s.ctx, InventoryAdjustment{ProductID: p.ID, Change: 100, Reason: "production_add"})
	s.Require().NoError(err)

	id := p.ID
	s.Require().NoError(s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID, ProductID: &id, Quantity: 30, Amount: 210, Type: shg.TxSale}))
	stock, err := s.products.CurrentStock(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(70.0, stock)

	s.Require().NoError(s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID, ProductID: &id, Quantity: 5, Amount: 20, Type: shg.TxPurchase}))
	stock, err = s.products.CurrentStock(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(75.0, stock)

	s.Require().NoError(s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID, Amount: 500, Type: shg.TxIncome}))
	stock, err = s.products.CurrentStock(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(75.0, stock)

	txs, err := s.ledger.ListBySHG(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Len(txs, 4)
}

func (s *RecordsTestSuite) TestRecordTransaction_Rejections() {
	g, p := s.newProduct()

	err := s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID, Amount: 0, Type: shg.TxSale})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	err = s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID, Amount: 10, Type: "gift"})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeInvalidRecord))

	err = s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: g.ID + 50, Amount: 10, Type: shg.TxIncome})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSHGNotFound))

	other := &shg.SHG{Name: "Sakhi"}
	s.Require().NoError(s.svc.CreateSHG(s.ctx, other))
	id := p.ID
	err = s.svc.RecordTransaction(s.ctx, &shg.Transaction{SHGID: other.ID, ProductID: &id, Quantity: 1, Amount: 7, Type: shg.TxSale})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
}

func (s *RecordsTestSuite) TestDeclareCapacity_ClassifiesProduct() {
	g := &shg.SHG{Name: "Sakhi"}
	s.Require().NoError(s.svc.CreateSHG(s.ctx, g))

	pickle := &shg.ProductionCapacity{SHGID: g.ID, ProductName: "Mango Pickle", MonthlyCapacity: 100}
	s.Require().NoError(s.svc.DeclareCapacity(s.ctx, pickle))
	s.Equal(shg.Perishable, pickle.ProductType)

	bags := &shg.ProductionCapacity{SHGID: g.ID, ProductName: "Paper Bags", MonthlyCapacity: 500}
	s.Require().NoError(s.svc.DeclareCapacity(s.ctx, bags))
	s.Equal(shg.NonPerishable, bags.ProductType)

	explicit := &shg.ProductionCapacity{SHGID: g.ID, ProductName: "Paper Bags", ProductType: shg.Perishable}
	s.Require().NoError(s.svc.DeclareCapacity(s.ctx, explicit))
	s.Equal(shg.Perishable, explicit.ProductType)

	rows, err := s.prod.List(s.ctx)
	s.Require().NoError(err)
	s.Len(rows, 3)

	err = s.svc.DeclareCapacity(s.ctx, &shg.ProductionCapacity{SHGID: g.ID + 9, ProductName: "Candles"})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSHGNotFound))
}

func (s *RecordsTestSuite) TestSetFinancial_Upserts() {
	g := &shg.SHG{Name: "Jyoti"}
	s.Require().NoError(s.svc.CreateSHG(s.ctx, g))
	m := &shg.Member{SHGID: g.ID, Name: "Asha"}
	s.Require().NoError(s.svc.AddMember(s.ctx, m))

	s.Require().NoError(s.svc.SetFinancial(s.ctx, &shg.MemberFinancial{MemberID: m.ID, MonthlyIncome: 5000}))
	s.Require().NoError(s.svc.SetFinancial(s.ctx, &shg.MemberFinancial{MemberID: m.ID, MonthlyIncome: 7000}))

	fins, err := s.members.ListFinancials(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(fins, 1)
	s.Equal(7000.0, fins[0].MonthlyIncome)

	err = s.svc.AddMember(s.ctx, &shg.Member{SHGID: g.ID + 1, Name: "Ghost"})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSHGNotFound))
}

func (s *RecordsTestSuite) TestImportDistrictDemand() {
	csv := "state,district,latitude,longitude,skill_category,monthly_demand,priority_level\n" +
		"Maharashtra,Pune,18.5204,73.8567,Tailoring,12000,4\n" +
		"Maharashtra,Nashik,19.9975,73.7898,Pickle Making,n/a,2\n" +
		",Blank,0,0,Tailoring,10,1\n"

	n, err := s.svc.ImportDistrictDemand(s.ctx, strings.NewReader(csv))
	s.Require().NoError(err)
	s.Equal(2, n)

	rows, err := s.demands.ListDistrictDemand(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(12000.0, rows[0].MonthlyDemand)
	s.Zero(rows[1].MonthlyDemand)
	s.Equal(2.0, rows[1].PriorityLevel)
	s.True(s.log.HasMessage("info", "District demand imported"))

	n, err = s.svc.ImportDistrictDemand(s.ctx, strings.NewReader("state,district,skill_category\nGujarat,Surat,Embroidery\n"))
	s.Require().NoError(err)
	s.Equal(1, n)
	rows, err = s.demands.ListDistrictDemand(s.ctx)
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *RecordsTestSuite) TestSeed_Fixture() {
	f, err := os.Open("testdata/dataset.yaml")
	s.Require().NoError(err)
	defer f.Close()

	ds, err := LoadDataset(f)
	s.Require().NoError(err)

	report, err := s.svc.Seed(s.ctx, ds)
	s.Require().NoError(err)
	s.Equal(&SeedReport{
		SHGs:           2,
		Members:        3,
		Skills:         3,
		Financials:     2,
		Products:       1,
		Transactions:   2,
		Capacities:     2,
		DemandCenters:  1,
		DistrictDemand: 2,
	}, report)

	groups, err := s.shgs.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 2)

	products, err := s.products.ListBySHG(s.ctx, groups[0].ID)
	s.Require().NoError(err)
	s.Require().Len(products, 1)
	stock, err := s.products.CurrentStock(s.ctx, products[0].ID)
	s.Require().NoError(err)
	s.Equal(100.0, stock)

	txs, err := s.ledger.ListBySHG(s.ctx, groups[0].ID)
	s.Require().NoError(err)
	s.Len(txs, 3)

	caps, err := s.prod.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(caps, 2)
	s.Equal(shg.Perishable, caps[1].ProductType)
}

func (s *RecordsTestSuite) TestSeed_UnknownProductReference() {
	ds := &Dataset{SHGs: []SeedSHG{{
		Name:         "Jyoti",
		Transactions: []SeedTransaction{{Type: shg.TxSale, Amount: 10, Quantity: 1, Product: "Candles"}},
	}}}
	report, err := s.svc.Seed(s.ctx, ds)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatasetMalformed))
	s.Equal(1, report.SHGs)
}

func TestNewService_RequiresRepositories(t *testing.T) {
	_, err := NewService(ServiceConfig{Logger: logging.NewNopLogger()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}
