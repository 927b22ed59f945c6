package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset      AccountType = "ASSET"
	AccountTypeLiability  AccountType = "LIABILITY"
	AccountTypeEquity     AccountType = "EQUITY"
	AccountTypeRevenue    AccountType = "REVENUE"
	AccountTypeExpense    AccountType = "EXPENSE"
	AccountTypeOffBalance AccountType = "OFF_BALANCE"
)

// ParseAccountType accepts the canonical upper-case names, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense, AccountTypeOffBalance:
		return t, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// NormalSide returns the side on which balances of this type are positive.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return SideCredit
	default:
		return SideDebit
	}
}

// Balance is a debit/credit pair. Both sides are kept gross.
type Balance struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add returns the side-wise sum of two balances.
func (b Balance) Add(o Balance) Balance {
	return Balance{Debit: b.Debit.Add(o.Debit), Credit: b.Credit.Add(o.Credit)}
}

// IsZero reports whether both sides are zero.
func (b Balance) IsZero() bool {
	return b.Debit.IsZero() && b.Credit.IsZero()
}

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	Code       string
	Name       string
	Type       AccountType
	Category   string // finer grained, e.g. CURRENT_ASSET
	ParentCode string // "" = root
	Level      int    // 0 = root
	IsGroup    bool
	Opening    Balance
	Current    Balance
	Closing    Balance
	Active     bool
}
