package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/standards"
	"github.com/cleared-dev/coa/internal/statement"
)

// checkLines recomputes every line from what it is made of: detail lines from
// their account contributions, totals from their component lines.
func checkLines(res *Result, stmt *statement.GeneratedStatement) {
	for _, l := range stmt.Lines {
		want := decimal.Zero
		if l.Total && len(l.Components) > 0 {
			ok := true
			for _, c := range l.Components {
				cl, found := stmt.Line(c.Code)
				if !found {
					res.add(SeverityError, CodeTotalsMismatch, l.Code, "total %s references missing line %s", l.Code, c.Code)
					ok = false
					continue
				}
				if c.Negate {
					want = want.Sub(cl.Amount)
				} else {
					want = want.Add(cl.Amount)
				}
			}
			if !ok {
				continue
			}
		} else {
			for _, c := range l.Accounts {
				want = want.Add(c.Amount)
			}
		}
		if !want.Equal(l.Amount) {
			res.add(SeverityError, CodeTotalsMismatch, l.Code, "line %s is %s, its parts sum to %s", l.Code, l.Amount, want)
		}
	}
}

// checkTotals compares the recorded aggregates with the lines they are read from.
func checkTotals(res *Result, stmt *statement.GeneratedStatement, std standards.Standard) {
	fs := std.FinancialStatements
	tot := stmt.Totals
	pairs := []struct {
		code string
		got  decimal.Decimal
	}{
		{fs.BalanceSheet.Structure.Assets.TotalAssets, tot.TotalAssets},
		{fs.BalanceSheet.Structure.Liabilities.TotalLiabilities, tot.TotalLiabilities},
		{fs.BalanceSheet.Structure.Equity.TotalEquity, tot.TotalEquity},
		{fs.IncomeStatement.Structure.Resources.TotalResources, tot.TotalResources},
		{fs.IncomeStatement.Structure.Expenses.TotalExpenses, tot.TotalExpenses},
		{fs.IncomeStatement.Structure.NetResult, tot.NetResult},
		{fs.CashFlow.Structure.NetCashFlow, tot.NetCashFlow},
		{fs.CashFlow.Structure.CashVariation, tot.CashVariation},
	}
	for _, p := range pairs {
		if p.code == "" {
			continue
		}
		l, ok := stmt.Line(p.code)
		if !ok {
			continue
		}
		if !l.Amount.Equal(p.got) {
			res.add(SeverityError, CodeTotalsMismatch, p.code, "recorded total %s differs from line amount %s", p.got, l.Amount)
		}
	}
}

// checkRequiredAccounts warns about required accounts without a non-zero
// contribution. A required account is only expected on a statement that
// carries accounts of its class.
func checkRequiredAccounts(res *Result, stmt *statement.GeneratedStatement, std standards.Standard) {
	for _, req := range std.ChartOfAccounts.Validation.RequiredAccounts {
		if req == "" {
			continue
		}
		classSeen, found := false, false
		for _, l := range stmt.Lines {
			if l.Total {
				continue
			}
			for _, c := range l.Accounts {
				if strings.HasPrefix(c.AccountCode, req[:1]) {
					classSeen = true
				}
				if strings.HasPrefix(c.AccountCode, req) && !c.Amount.IsZero() {
					found = true
				}
			}
		}
		if classSeen && !found {
			res.add(SeverityWarning, CodeMissingRequiredAccount, req, "required account %s has no balance on this statement", req)
		}
	}
}

func checkNotes(res *Result, stmt *statement.GeneratedStatement, std standards.Standard) {
	minimum := std.FinancialStatements.Notes.MinimumFor(stmt.Scope.System)
	if len(stmt.Notes) < minimum {
		res.add(SeverityWarning, CodeNotesBelowMinimum, "", "%d notes, the standard asks for at least %d", len(stmt.Notes), minimum)
	}
	for _, code := range []string{statement.NoteAccountingPolicies, statement.NoteSubsequentEvents} {
		if !hasNote(stmt.Notes, code) {
			res.add(SeverityWarning, CodeMissingNote, code, "note %s is missing", code)
		}
	}
}

func hasNote(notes []statement.Note, code string) bool {
	for _, n := range notes {
		if n.Code == code {
			return true
		}
	}
	return false
}
