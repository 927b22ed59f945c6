package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
	"github.com/cleared-dev/coa/internal/statement"
)

// Function names an expense function.
type Function string

const (
	FunctionMission        Function = "MISSION"
	FunctionAdministration Function = "ADMINISTRATION"
	FunctionFundraising    Function = "FUNDRAISING"
)

var hundred = decimal.NewFromInt(100)

// Allocation is the share of expenses per function, in percent, kept at full
// precision. Round only for display.
type Allocation struct {
	Mission        decimal.Decimal `json:"mission"`
	Administration decimal.Decimal `json:"administration"`
	Fundraising    decimal.Decimal `json:"fundraising"`
}

// FunctionalAllocationOf splits the expenses of an income statement by
// function using the standard's expense prefixes. It reports false for other
// statement types and when no expense falls under any function.
func FunctionalAllocationOf(stmt *statement.GeneratedStatement, std standards.Standard) (Allocation, bool) {
	switch stmt.Type() {
	case model.StatementCompteResultat, model.StatementRecettesDepenses:
	default:
		return Allocation{}, false
	}

	exp := std.FinancialStatements.IncomeStatement.Structure.Expenses
	mission, admin, fundraising := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range stmt.Lines {
		if l.Total {
			continue
		}
		for _, c := range l.Accounts {
			switch {
			case matchesAny(exp.MissionExpenses, c.AccountCode):
				mission = mission.Add(c.Amount)
			case matchesAny(exp.AdministrativeExpenses, c.AccountCode):
				admin = admin.Add(c.Amount)
			case matchesAny(exp.FundraisingExpenses, c.AccountCode):
				fundraising = fundraising.Add(c.Amount)
			}
		}
	}

	total := mission.Add(admin).Add(fundraising)
	if !total.IsPositive() {
		return Allocation{}, false
	}
	pct := func(d decimal.Decimal) decimal.Decimal {
		return d.Mul(hundred).Div(total)
	}
	return Allocation{Mission: pct(mission), Administration: pct(admin), Fundraising: pct(fundraising)}, true
}

// CheckFunctionalAllocation warns for every function whose share is below
// its minimum.
func CheckFunctionalAllocation(a Allocation, m standards.Minimums) []Issue {
	var out []Issue
	check := func(f Function, got decimal.Decimal, minimum int) {
		want := decimal.NewFromInt(int64(minimum))
		if got.LessThan(want) {
			out = append(out, Issue{
				Code:     CodeFunctionalAllocationBelowMinimum,
				Severity: SeverityWarning,
				Subject:  string(f),
				Message:  fmt.Sprintf("%s expenses are %s%%, below the %d%% minimum", strings.ToLower(string(f)), got.Truncate(2).StringFixed(2), minimum),
			})
		}
	}
	check(FunctionMission, a.Mission, m.Mission)
	check(FunctionAdministration, a.Administration, m.Administration)
	check(FunctionFundraising, a.Fundraising, m.Fundraising)
	return out
}

func matchesAny(prefixes []string, code string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}
