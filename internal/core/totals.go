package core

import "github.com/shopspring/decimal"

// Totals sums the money columns of a set of transactions.
type Totals struct {
	Amount  decimal.Decimal `json:"amount"`
	Due     decimal.Decimal `json:"due"`
	Paid    decimal.Decimal `json:"paid"`
	Expense decimal.Decimal `json:"expense"`
	Count   int             `json:"count"`
}

// Sum totals the given entries. Float columns are converted through decimal
// so repeated additions do not drift.
func Sum(entries []Entry) Totals {
	t := Totals{
		Amount:  decimal.Zero,
		Due:     decimal.Zero,
		Paid:    decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, e := range entries {
		t.Amount = t.Amount.Add(decimal.NewFromFloat(e.Amount))
		t.Due = t.Due.Add(decimal.NewFromFloat(e.Due))
		t.Paid = t.Paid.Add(decimal.NewFromFloat(e.Paid))
		t.Expense = t.Expense.Add(decimal.NewFromFloat(e.Expense))
		t.Count++
	}
	return t
}

