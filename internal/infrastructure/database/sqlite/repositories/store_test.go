package repositories_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite/repositories"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SHG-Insights/pkg/errors"
)

func openStore(t *testing.T) *sqlite.Connection {
	t.Helper()
	log := logging.NewNopLogger()
	conn, err := sqlite.NewConnection(sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "shg.db")}, log)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, sqlite.NewMigrator(conn, log).Up())
	return conn
}

func TestStore_RoundTrip(t *testing.T) {
	conn := openStore(t)
	log := logging.NewNopLogger()
	ctx := context.Background()

	shgs := repositories.NewSHGRepo(conn, log)
	members := repositories.NewMemberRepo(conn, log)
	products := repositories.NewProductRepo(conn, log)
	ledger := repositories.NewTransactionRepo(conn, log)
	production := repositories.NewProductionRepo(conn, log)
	revisions := repositories.NewRevisionReader(conn)

	rev0, err := revisions.CurrentRevision(ctx)
	require.NoError(t, err)

	g := &shg.SHG{Name: "Jyoti Mahila", Village: "Wagholi", District: "Pune", State: "Maharashtra"}
	require.NoError(t, shgs.Create(ctx, g))
	require.NotZero(t, g.ID)

	got, err := shgs.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.District)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = shgs.GetByID(ctx, g.ID+100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSHGNotFound))

	m := &shg.Member{SHGID: g.ID, Name: "Asha", Role: "President"}
	require.NoError(t, members.Create(ctx, m))
	require.NoError(t, members.AddSkill(ctx, &shg.MemberSkill{MemberID: m.ID, SkillCategory: "Tailoring", YearsExperience: 4}))

	require.NoError(t, members.UpsertFinancial(ctx, &shg.MemberFinancial{MemberID: m.ID, MonthlyIncome: 8000, Savings: 1000}))
	require.NoError(t, members.UpsertFinancial(ctx, &shg.MemberFinancial{MemberID: m.ID, MonthlyIncome: 9000, Savings: 1500}))
	fins, err := members.ListFinancials(ctx)
	require.NoError(t, err)
	require.Len(t, fins, 1, "upsert keeps one profile per member")
	assert.Equal(t, 9000.0, fins[0].MonthlyIncome)
	assert.Equal(t, 1500.0, fins[0].Savings)

	skills, err := members.ListSkills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, 4.0, skills[0].YearsExperience)

	p := &shg.Product{SHGID: g.ID, Name: "Mango Pickle", Unit: "jar", CostPrice: 40, SellingPrice: 65}
	require.NoError(t, products.Create(ctx, p))

	stock, err := products.CurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stock)

	snap, err := products.AdjustStock(ctx, p.ID, 25,
		&shg.Transaction{SHGID: g.ID, ProductID: &p.ID, TxDate: "2024-02-01", Quantity: 25, Type: shg.InventoryTxType("restock")},
	)
	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.Quantity)
	snap, err = products.AdjustStock(ctx, p.ID, -7,
		&shg.Transaction{SHGID: g.ID, ProductID: &p.ID, TxDate: "2024-02-03", Quantity: 7, Type: shg.InventoryTxType("sale")},
	)
	require.NoError(t, err)
	assert.Equal(t, 18.0, snap.Quantity)
	stock, err = products.CurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 18.0, stock)

	require.NoError(t, ledger.Create(ctx, &shg.Transaction{SHGID: g.ID, MemberID: &m.ID, TxDate: "2024-01-15", Amount: 500, Type: shg.TxSavings}))
	txs, err := ledger.ListBySHG(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "2024-01-15", txs[0].TxDate, "ledger is ordered by date")
	assert.Equal(t, m.ID, *txs[0].MemberID)
	assert.Nil(t, txs[0].ProductID)
	assert.Equal(t, shg.TxType("inventory_sale"), txs[2].Type)

	c := &shg.ProductionCapacity{SHGID: g.ID, ProductName: "Paper Bags", MonthlyCapacity: 500, SupplyReady: 120}
	require.NoError(t, production.Create(ctx, c))
	caps, err := production.List(ctx)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, shg.NonPerishable, caps[0].ProductType)

	listed, err := products.ListBySHG(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 65.0, listed[0].SellingPrice)

	rev1, err := revisions.CurrentRevision(ctx)
	require.NoError(t, err)
	assert.Greater(t, rev1, rev0)
}

func TestStore_AdjustStockRollsBackOnFailure(t *testing.T) {
	conn := openStore(t)
	log := logging.NewNopLogger()
	ctx := context.Background()

	g := &shg.SHG{Name: "Sakhi"}
	require.NoError(t, repositories.NewSHGRepo(conn, log).Create(ctx, g))
	products := repositories.NewProductRepo(conn, log)
	p := &shg.Product{SHGID: g.ID, Name: "Soap"}
	require.NoError(t, products.Create(ctx, p))

	missingSHG := g.ID + 50
	snap, err := products.AdjustStock(ctx, p.ID, 10,
		&shg.Transaction{SHGID: missingSHG, ProductID: &p.ID, Type: shg.InventoryTxType("restock")},
	)
	require.Error(t, err)
	assert.Nil(t, snap)

	stock, err := products.CurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stock, "snapshot is rolled back with the ledger row")
}

func TestStore_ConcurrentAdjustStockKeepsEveryDelta(t *testing.T) {
	conn := openStore(t)
	log := logging.NewNopLogger()
	ctx := context.Background()

	g := &shg.SHG{Name: "Sakhi"}
	require.NoError(t, repositories.NewSHGRepo(conn, log).Create(ctx, g))
	products := repositories.NewProductRepo(conn, log)
	p := &shg.Product{SHGID: g.ID, Name: "Soap"}
	require.NoError(t, products.Create(ctx, p))

	const workers = 16
	var eg errgroup.Group
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			_, err := products.AdjustStock(ctx, p.ID, 3,
				&shg.Transaction{SHGID: g.ID, ProductID: &p.ID, Quantity: 3, Type: shg.InventoryTxType("restock")},
			)
			return err
		})
	}
	require.NoError(t, eg.Wait())

	stock, err := products.CurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0*workers, stock)
}

func TestStore_DemandAndDistrictDemand(t *testing.T) {
	conn := openStore(t)
	log := logging.NewNopLogger()
	ctx := context.Background()
	demands := repositories.NewDemandRepo(conn, log)

	first := &shg.DemandCenter{Location: "Pune Mandi", District: "Pune", State: "Maharashtra", ProductRequired: "Pickle", QuantityRequired: 200}
	second := &shg.DemandCenter{Location: "Nashik Hub", District: "Nashik", State: "Maharashtra", ProductRequired: "Bags", QuantityRequired: 50}
	require.NoError(t, demands.Create(ctx, first))
	require.NoError(t, demands.Create(ctx, second))

	list, err := demands.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	got, err := demands.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.QuantityRequired)

	n, err := demands.ReplaceDistrictDemand(ctx, []shg.DistrictDemand{
		{State: "Kerala", District: "Idukki", SkillCategory: "Tailoring", MonthlyDemand: 300, PriorityLevel: 2, Latitude: 9.85, Longitude: 76.97},
		{State: "Kerala", District: "Wayanad", SkillCategory: "Food Processing", MonthlyDemand: 150, PriorityLevel: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = demands.ReplaceDistrictDemand(ctx, []shg.DistrictDemand{
		{State: "Odisha", District: "Puri", SkillCategory: "Handicrafts", MonthlyDemand: 80},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := demands.ListDistrictDemand(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1, "replace drops the previous table")
	assert.Equal(t, "Puri", rows[0].District)
	assert.Equal(t, 80.0, rows[0].MonthlyDemand)
}
