package accounts

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/model"
)

// AccountBalance is the closing position of an account in its natural sign.
type AccountBalance struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
	Net    decimal.Decimal
}

// BalanceOf returns the closing balance of an account. Net is debit minus credit for
// debit-normal types (ASSET, EXPENSE, OFF_BALANCE) and credit minus debit otherwise.
func BalanceOf(a model.Account) AccountBalance {
	return balanceFrom(a.Closing, a.Type)
}

// MovementOf returns the change between the opening and closing balances, in the
// same sign convention as BalanceOf.
func MovementOf(a model.Account) AccountBalance {
	mv := model.Balance{
		Debit:  a.Closing.Debit.Sub(a.Opening.Debit),
		Credit: a.Closing.Credit.Sub(a.Opening.Credit),
	}
	return balanceFrom(mv, a.Type)
}

func balanceFrom(b model.Balance, t model.AccountType) AccountBalance {
	net := b.Debit.Sub(b.Credit)
	if t.NormalSide() == model.SideCredit {
		net = net.Neg()
	}
	return AccountBalance{Debit: b.Debit, Credit: b.Credit, Net: net}
}
