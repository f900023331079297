package shg

import "strings"

// TxType classifies a ledger entry.
type TxType string

const (
	TxIncome        TxType = "income"
	TxExpense       TxType = "expense"
	TxLoanDisbursed TxType = "loan_disbursed"
	TxLoanRepaid    TxType = "loan_repaid"
	TxSavings       TxType = "savings"
	TxSale          TxType = "sale"
	TxPurchase      TxType = "purchase"
)

// inventoryTxPrefix marks ledger entries written by inventory adjustments,
// e.g. "inventory_restock" or "inventory_damage".
const inventoryTxPrefix = "inventory_"

// InventoryTxType returns the transaction type used to log an inventory
// adjustment for the given reason.
func InventoryTxType(reason string) TxType {
	reason = strings.ToLower(strings.TrimSpace(reason))
	reason = strings.Join(strings.Fields(reason), "_")
	if reason == "" {
		reason = "adjustment"
	}
	return TxType(inventoryTxPrefix + reason)
}

// IsIncomeLike reports whether the amount counts towards total income.
func (t TxType) IsIncomeLike() bool {
	switch t {
	case TxIncome, TxLoanRepaid, TxSavings, TxSale:
		return true
	}
	return false
}

// IsExpenseLike reports whether the amount counts towards total expense.
func (t TxType) IsExpenseLike() bool {
	switch t {
	case TxExpense, TxLoanDisbursed, TxPurchase:
		return true
	}
	return false
}

// IsInventory reports whether the entry was written by an inventory
// adjustment.
func (t TxType) IsInventory() bool {
	return strings.HasPrefix(string(t), inventoryTxPrefix) && len(t) > len(inventoryTxPrefix)
}

// Valid reports whether t is one of the known types.
func (t TxType) Valid() bool {
	return t.IsIncomeLike() || t.IsExpenseLike() || t.IsInventory()
}

// ProductType says whether a product spoils.
type ProductType string

const (
	Perishable    ProductType = "perishable"
	NonPerishable ProductType = "non_perishable"
)

func (p ProductType) Valid() bool {
	return p == Perishable || p == NonPerishable
}

// perishableKeywords trigger the perishable classification when they appear
// anywhere in a product name.
var perishableKeywords = []string{
	"milk", "curd", "paneer", "vegetable", "fruit", "pickle", "food", "snack",
}

// ClassifyProduct infers the product type from its name.
func ClassifyProduct(name string) ProductType {
	lower := strings.ToLower(name)
	for _, kw := range perishableKeywords {
		if strings.Contains(lower, kw) {
			return Perishable
		}
	}
	return NonPerishable
}
