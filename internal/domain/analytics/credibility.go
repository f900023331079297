package analytics

import (
	"math"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// Advice texts attached to a credibility report.
const (
	AdviceCutCosts    = "Your expenses are higher than income. Reduce non-essential spending and increase income-generating activities."
	AdviceDestock     = "You are holding a lot of inventory. Focus on selling existing stock before producing more."
	AdviceKeepRecords = "Good surplus, but very few transactions recorded. Train members to log every sale, purchase, and expense."
	AdviceReinvest    = "Great job maintaining a surplus. Consider reinvesting part of it into your most profitable products."
)

// CredibilityReport summarises an SHG's ledger.
type CredibilityReport struct {
	SHGID           int64   `json:"shg_id"`
	TotalIncome     float64 `json:"total_income"`
	TotalExpense    float64 `json:"total_expense"`
	Balance         float64 `json:"balance"`
	NumTransactions int     `json:"num_transactions"`
	Score           int     `json:"score"`
	InventoryValue  float64 `json:"inventory_value"`
	Advice          string  `json:"advice"`
}

// StockedProduct is a product with its current stock.
type StockedProduct struct {
	ProductID int64
	CostPrice float64
	Quantity  float64
}

// InventoryValue sums current stock × cost price.
func InventoryValue(items []StockedProduct) float64 {
	var total float64
	for _, it := range items {
		total += it.Quantity * it.CostPrice
	}
	return total
}

// CredibilityScore maps a balance and ledger size onto the discrete score
// set {45, 65, 75, 82}.
func CredibilityScore(balance float64, numTx int) int {
	if balance < 0 {
		return 45
	}
	score := 65
	if numTx >= 10 {
		score = 75
	}
	if numTx >= 20 && balance > 0 {
		score = 82
	}
	return score
}

// ScoreCredibility builds the credibility report for one SHG.  Inventory
// entries count towards the ledger size but add to neither total.
// Negative amounts are treated as 0.
func ScoreCredibility(shgID int64, txs []shg.Transaction, inventoryValue float64) CredibilityReport {
	var income, expense float64
	for _, tx := range txs {
		amount := math.Max(tx.Amount, 0)
		switch {
		case tx.Type.IsIncomeLike():
			income += amount
		case tx.Type.IsExpenseLike():
			expense += amount
		}
	}
	balance := income - expense

	r := CredibilityReport{
		SHGID:           shgID,
		TotalIncome:     income,
		TotalExpense:    expense,
		Balance:         balance,
		NumTransactions: len(txs),
		Score:           CredibilityScore(balance, len(txs)),
		InventoryValue:  inventoryValue,
	}
	switch {
	case balance < 0:
		r.Advice = AdviceCutCosts
	case inventoryValue > 0 && inventoryValue > 2*balance:
		r.Advice = AdviceDestock
	case len(txs) < 5:
		r.Advice = AdviceKeepRecords
	default:
		r.Advice = AdviceReinvest
	}
	return r
}
