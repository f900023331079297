package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

func ledger(n int, typ shg.TxType, amount float64) []shg.Transaction {
	out := make([]shg.Transaction, n)
	for i := range out {
		out[i] = shg.Transaction{SHGID: 1, Type: typ, Amount: amount}
	}
	return out
}

func TestCredibilityScore(t *testing.T) {
	cases := []struct {
		name    string
		balance float64
		numTx   int
		want    int
	}{
		{"deficit", -1, 30, 45},
		{"even and sparse", 0, 0, 65},
		{"surplus and sparse", 10, 9, 65},
		{"ten entries", 10, 10, 75},
		{"twenty entries even balance", 0, 20, 75},
		{"twenty entries surplus", 0.01, 20, 82},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CredibilityScore(tc.balance, tc.numTx))
		})
	}
}

func TestScoreCredibility_Totals(t *testing.T) {
	txs := []shg.Transaction{
		{Type: shg.TxIncome, Amount: 1000},
		{Type: shg.TxSale, Amount: 500},
		{Type: shg.TxSavings, Amount: 200},
		{Type: shg.TxLoanRepaid, Amount: 300},
		{Type: shg.TxExpense, Amount: 400},
		{Type: shg.TxPurchase, Amount: 100},
		{Type: shg.TxLoanDisbursed, Amount: 250},
		{Type: shg.InventoryTxType("restock"), Amount: 9999},
		{Type: shg.TxIncome, Amount: -50},
	}
	r := ScoreCredibility(1, txs, 0)
	assert.Equal(t, int64(1), r.SHGID)
	assert.Equal(t, 2000.0, r.TotalIncome)
	assert.Equal(t, 750.0, r.TotalExpense)
	assert.Equal(t, 1250.0, r.Balance)
	assert.Equal(t, 9, r.NumTransactions)
	assert.Equal(t, 65, r.Score)
	assert.Equal(t, AdviceReinvest, r.Advice)
}

func TestScoreCredibility_Advice(t *testing.T) {
	deficit := ScoreCredibility(1, ledger(3, shg.TxExpense, 10), 1e6)
	assert.Equal(t, AdviceCutCosts, deficit.Advice)
	assert.Equal(t, 45, deficit.Score)

	stocked := ScoreCredibility(1, ledger(30, shg.TxSale, 10), 601)
	assert.Equal(t, AdviceDestock, stocked.Advice)
	assert.Equal(t, 82, stocked.Score)

	balanced := ScoreCredibility(1, ledger(30, shg.TxSale, 10), 600)
	assert.Equal(t, AdviceReinvest, balanced.Advice, "inventory must exceed twice the balance")

	sparse := ScoreCredibility(1, ledger(4, shg.TxSale, 10), 0)
	assert.Equal(t, AdviceKeepRecords, sparse.Advice)

	empty := ScoreCredibility(1, nil, 0)
	assert.Equal(t, 65, empty.Score)
	assert.Equal(t, AdviceKeepRecords, empty.Advice)

	emptyWithStock := ScoreCredibility(1, nil, 5)
	assert.Equal(t, AdviceDestock, emptyWithStock.Advice)
}

func TestScoreCredibility_ScoreSet(t *testing.T) {
	allowed := map[int]bool{45: true, 50: true, 65: true, 75: true, 82: true}
	types := []shg.TxType{shg.TxIncome, shg.TxExpense, shg.TxSale, shg.TxPurchase, shg.InventoryTxType("damage")}
	for n := 0; n < 40; n++ {
		for _, typ := range types {
			r := ScoreCredibility(1, ledger(n, typ, float64(n)), 0)
			assert.True(t, allowed[r.Score], "score %d", r.Score)
			assert.GreaterOrEqual(t, r.TotalIncome, 0.0)
			assert.GreaterOrEqual(t, r.TotalExpense, 0.0)
		}
	}
}

func TestInventoryValue(t *testing.T) {
	assert.Zero(t, InventoryValue(nil))
	assert.Equal(t, 350.0, InventoryValue([]StockedProduct{
		{ProductID: 1, CostPrice: 10, Quantity: 20},
		{ProductID: 2, CostPrice: 50, Quantity: 3},
		{ProductID: 3, CostPrice: 99, Quantity: 0},
	}))
}
