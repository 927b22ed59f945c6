package standards

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/coa/internal/model"
)

// Validate checks the invariants a standard must satisfy before it is usable.
// Every problem is reported, joined into one error.
func (s Standard) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if s.Code == "" {
		add("missing code")
	}
	if len(s.ApplicableCountries) == 0 {
		add("no applicable countries")
	}

	coa := s.ChartOfAccounts
	classes := make(map[string]bool, len(coa.Classes))
	for _, c := range coa.Classes {
		classes[c.Code] = true
		if _, err := model.ParseAccountType(string(c.Type)); err != nil {
			add("class %s: %v", c.Code, err)
		}
	}
	subClasses := make(map[string]bool, len(coa.SubClasses))
	for _, sc := range coa.SubClasses {
		subClasses[sc.Code] = true
		if !classes[sc.ParentClass] {
			add("sub-class %s: unknown parent class %q", sc.Code, sc.ParentClass)
		}
	}
	accounts := make(map[string]bool, len(coa.Accounts))
	for _, a := range coa.Accounts {
		accounts[a.Code] = true
		if !subClasses[a.ParentSubClass] {
			add("account %s: unknown parent sub-class %q", a.Code, a.ParentSubClass)
		}
		if _, err := model.ParseAccountType(string(a.Type)); err != nil {
			add("account %s: %v", a.Code, err)
		}
	}
	for _, code := range coa.Validation.RequiredAccounts {
		if !accounts[code] {
			add("required account %s is not declared", code)
		}
	}
	for _, code := range coa.Validation.MandatorySubAccounts {
		if !accounts[code] {
			add("mandatory sub-account %s is not declared", code)
		}
	}
	if coa.Numbering.Length <= 0 {
		add("numbering length must be positive")
	}

	stmts := s.FinancialStatements
	for name, code := range map[string]string{
		"totalAssets":      stmts.BalanceSheet.Structure.Assets.TotalAssets,
		"totalLiabilities": stmts.BalanceSheet.Structure.Liabilities.TotalLiabilities,
		"totalEquity":      stmts.BalanceSheet.Structure.Equity.TotalEquity,
		"totalResources":   stmts.IncomeStatement.Structure.Resources.TotalResources,
		"totalExpenses":    stmts.IncomeStatement.Structure.Expenses.TotalExpenses,
		"netResult":        stmts.IncomeStatement.Structure.NetResult,
	} {
		if code == "" {
			add("statement structure: missing %s line", name)
		}
	}
	if stmts.CashFlow.Required {
		switch stmts.CashFlow.Format {
		case CashFlowDirect, CashFlowIndirect:
		default:
			add("cash flow: unknown format %q", stmts.CashFlow.Format)
		}
		if stmts.CashFlow.Structure.NetCashFlow == "" {
			add("statement structure: missing netCashFlow line")
		}
	}

	rules := s.SpecificRules
	for _, ft := range rules.FundAccounting.Types {
		switch ft.Restriction {
		case Unrestricted, TemporarilyRestricted, PermanentlyRestricted:
		default:
			add("fund type %s: unknown restriction %q", ft.Code, ft.Restriction)
		}
	}
	for _, r := range rules.FundAccounting.Restrictions {
		switch r.Type {
		case RestrictionProject, RestrictionTime, RestrictionPurpose, RestrictionGeographic:
		default:
			add("fund restriction %s: unknown type %q", r.Code, r.Type)
		}
	}
	if fa := rules.FunctionalAllocation; fa.Required {
		m := fa.Minimums
		if m.Mission < 0 || m.Administration < 0 || m.Fundraising < 0 || m.Mission+m.Administration+m.Fundraising > 100 {
			add("functional allocation minimums must be non-negative and sum to at most 100")
		}
	}
	switch rules.Depreciation.Method {
	case StraightLine, DecliningBalance, UnitsOfProduction:
	default:
		add("depreciation: unknown method %q", rules.Depreciation.Method)
	}
	switch rules.Inventory.Valuation {
	case FIFO, LIFO, WeightedAverage, SpecificIdentification:
	default:
		add("inventory: unknown valuation %q", rules.Inventory.Valuation)
	}
	rr := rules.RevenueRecognition
	for name, p := range map[string]RecognitionPolicy{"grants": rr.Grants, "donations": rr.Donations, "services": rr.Services} {
		switch p {
		case RecognizeCash, RecognizeAccrual, RecognizeConditional:
		default:
			add("revenue recognition %s: unknown policy %q", name, p)
		}
	}

	return errors.Join(errs...)
}
