package model

import "github.com/shopspring/decimal"

// TrialBalanceRow is one account of an imported trial balance. Both sides are
// gross; either may be zero.
type TrialBalanceRow struct {
	AccountCode string
	Name        string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}
