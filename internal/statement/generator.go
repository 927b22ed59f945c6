package statement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/id"
	"github.com/cleared-dev/coa/internal/journal"
	"github.com/cleared-dev/coa/internal/mapping"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
)

// Input is the snapshot a statement is generated from. Entries are applied on
// top of the accounts' opening balances; when Entries is nil the accounts'
// closing balances are used as given.
type Input struct {
	EntityID    string
	Period      string
	PeriodStart time.Time
	AsOf        time.Time
	Country     string
	Standard    string
	System      model.SystemType
	Currency    string
	Materiality decimal.Decimal
	Accounts    []model.Account
	Entries     []model.JournalEntry
}

// Generator produces statements from account balances and mapping rules. It
// holds no per-call state; concurrent calls are safe.
type Generator struct {
	catalog *standards.Catalog
	engine  *mapping.Engine
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDs sets the statement ID source.
func WithIDs(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// NewGenerator creates a Generator. A nil logger discards output.
func NewGenerator(catalog *standards.Catalog, engine *mapping.Engine, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		catalog: catalog,
		engine:  engine,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   id.NewStatementID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces one statement. Structural problems (unbalanced posted
// entries, a broken account hierarchy, ambiguous mapping) abort generation;
// everything else is recorded as warnings on a DRAFT statement.
func (g *Generator) Generate(ctx context.Context, in Input, t model.StatementType) (*GeneratedStatement, error) {
	std, accts, err := g.prepare(in)
	if err != nil {
		return nil, err
	}
	return g.generate(ctx, in, std, accts, t, g.newID())
}

// GenerateAll produces several statements concurrently from the same snapshot.
// With no types, every statement of the input's system is produced. Results
// follow the requested order.
func (g *Generator) GenerateAll(ctx context.Context, in Input, types ...model.StatementType) ([]*GeneratedStatement, error) {
	if len(types) == 0 {
		types = model.StatementsFor(in.System)
	}
	std, accts, err := g.prepare(in)
	if err != nil {
		return nil, err
	}

	out := make([]*GeneratedStatement, len(types))
	eg, ctx := errgroup.WithContext(ctx)
	for i, t := range types {
		i, t := i, t
		stmtID := g.newID()
		eg.Go(func() error {
			stmt, err := g.generate(ctx, in, std, accts, t, stmtID)
			if err != nil {
				return err
			}
			out[i] = stmt
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Regenerate replaces a DRAFT statement with a fresh generation of the same
// type, keeping its ID.
func (g *Generator) Regenerate(ctx context.Context, prev *GeneratedStatement, in Input) (*GeneratedStatement, error) {
	switch prev.Status {
	case model.StatementCloture:
		return nil, fmt.Errorf("%w: %s", ErrStatementClosed, prev.ID)
	case model.StatementDraft:
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrNotDraft, prev.ID, prev.Status)
	}
	std, accts, err := g.prepare(in)
	if err != nil {
		return nil, err
	}
	return g.generate(ctx, in, std, accts, prev.Type(), prev.ID)
}

// prepare resolves the standard and computes the account snapshot shared by
// every statement of one input.
func (g *Generator) prepare(in Input) (standards.Standard, []model.Account, error) {
	std, err := g.catalog.Get(in.Standard)
	if err != nil {
		return standards.Standard{}, nil, err
	}
	if _, err := model.LookupCurrency(in.Currency); err != nil {
		return standards.Standard{}, nil, err
	}

	accts := in.Accounts
	if in.Entries != nil {
		accts, err = journal.Apply(in.Accounts, in.Entries, journal.Period{Start: in.PeriodStart, End: in.AsOf})
		if err != nil {
			return standards.Standard{}, nil, fmt.Errorf("applying journal entries: %w", err)
		}
	}
	if err := accounts.NewRegistry(accts).ValidateForReporting(); err != nil {
		return standards.Standard{}, nil, fmt.Errorf("account hierarchy: %w", err)
	}
	return std, accts, nil
}

func (g *Generator) generate(ctx context.Context, in Input, std standards.Standard, accts []model.Account, t model.StatementType, stmtID string) (*GeneratedStatement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !produces(in.System, t) {
		return nil, fmt.Errorf("statement %s is not produced under the %s system", t, in.System)
	}

	scope := mapping.Scope{Country: strings.ToUpper(in.Country), Standard: std.Code, System: in.System, Statement: t}
	stmt := &GeneratedStatement{
		ID:          stmtID,
		EntityID:    in.EntityID,
		Period:      in.Period,
		Scope:       scope,
		AsOf:        in.AsOf,
		Currency:    strings.ToUpper(in.Currency),
		Basis:       basisFor(t),
		Status:      model.StatementDraft,
		GeneratedAt: g.now(),
	}

	if t == model.StatementAnnexes {
		stmt.Notes = buildNotes(std, in, accts)
		stmt.Equilibre, stmt.EquilibreRule = true, "notes annexes carry no figures to balance"
		g.logGenerated(stmt)
		return stmt, nil
	}

	res, err := g.engine.ResolveAll(accts, scope, stmt.Basis)
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", t, err)
	}

	stmt.Lines = buildLines(res)
	stmt.Unmapped = res.Unmapped()
	stmt.Totals = totalsFor(stmt, std)
	stmt.Equilibre, stmt.EquilibreRule = checkEquilibre(stmt, std, in.Materiality)
	stmt.Warnings = warningsFor(stmt, std, res)

	g.logGenerated(stmt)
	return stmt, nil
}

func (g *Generator) logGenerated(stmt *GeneratedStatement) {
	g.logger.Info("statement generated",
		zap.String("id", stmt.ID),
		zap.String("scope", stmt.Scope.String()),
		zap.Bool("equilibre", stmt.Equilibre),
		zap.Int("lines", len(stmt.Lines)),
		zap.Int("unmapped", len(stmt.Unmapped)),
		zap.Int("warnings", len(stmt.Warnings)),
	)
}

func produces(system model.SystemType, t model.StatementType) bool {
	for _, s := range model.StatementsFor(system) {
		if s == t {
			return true
		}
	}
	return false
}

// basisFor returns the balance a statement type reads: flows use the period
// movement, every other statement the closing position.
func basisFor(t model.StatementType) mapping.Basis {
	if t == model.StatementTableauFlux {
		return mapping.BasisMovement
	}
	return mapping.BasisClosing
}

// buildLines materialises every rule of the resolved set. Detail lines sum
// their contributions; totals are computed level by level, deepest first, from
// their components (a total without components sums its direct matches).
// Components are added as they are: signs are never flipped implicitly, a
// component marked negated is subtracted.
func buildLines(res *mapping.Resolution) []Line {
	rules := res.RuleSet.Rules
	lines := make([]Line, len(rules))
	amounts := make(map[string]decimal.Decimal, len(rules))

	var totals []int
	for i, r := range rules {
		lines[i] = Line{
			Code:       r.Code,
			Label:      r.Label,
			Order:      r.Order,
			Level:      r.Level,
			Total:      r.Total,
			Sign:       r.Sign,
			Components: r.Components,
			Accounts:   res.Contributions(r.Code),
		}
		if r.Total && len(r.Components) > 0 {
			totals = append(totals, i)
			continue
		}
		lines[i].Amount = res.LineAmount(r.Code)
		amounts[r.Code] = lines[i].Amount
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return rules[totals[a]].Level > rules[totals[b]].Level
	})
	var eval func(code string) decimal.Decimal
	eval = func(code string) decimal.Decimal {
		if v, ok := amounts[code]; ok {
			return v
		}
		r, _ := res.RuleSet.Line(code)
		sum := decimal.Zero
		for _, c := range r.Components {
			v := eval(c.Code)
			if c.Negate {
				v = v.Neg()
			}
			sum = sum.Add(v)
		}
		amounts[code] = sum
		return sum
	}
	for _, i := range totals {
		lines[i].Amount = eval(rules[i].Code)
	}
	return lines
}

func totalsFor(stmt *GeneratedStatement, std standards.Standard) Totals {
	fs := std.FinancialStatements
	amount := func(code string) decimal.Decimal {
		if l, ok := stmt.Line(code); ok && code != "" {
			return l.Amount
		}
		return decimal.Zero
	}
	return Totals{
		TotalAssets:      amount(fs.BalanceSheet.Structure.Assets.TotalAssets),
		TotalLiabilities: amount(fs.BalanceSheet.Structure.Liabilities.TotalLiabilities),
		TotalEquity:      amount(fs.BalanceSheet.Structure.Equity.TotalEquity),
		TotalResources:   amount(fs.IncomeStatement.Structure.Resources.TotalResources),
		TotalExpenses:    amount(fs.IncomeStatement.Structure.Expenses.TotalExpenses),
		NetResult:        amount(fs.IncomeStatement.Structure.NetResult),
		NetCashFlow:      amount(fs.CashFlow.Structure.NetCashFlow),
		CashVariation:    amount(fs.CashFlow.Structure.CashVariation),
	}
}

// checkEquilibre applies the balance rule of the statement type and returns
// the outcome together with a description of the rule applied.
func checkEquilibre(stmt *GeneratedStatement, std standards.Standard, materiality decimal.Decimal) (bool, string) {
	fs := std.FinancialStatements
	bs := fs.BalanceSheet.Structure
	is := fs.IncomeStatement.Structure
	cf := fs.CashFlow.Structure
	tot := stmt.Totals

	switch stmt.Type() {
	case model.StatementBilan:
		rule := fmt.Sprintf("%s == %s + %s", bs.Assets.TotalAssets, bs.Liabilities.TotalLiabilities, bs.Equity.TotalEquity)
		if !stmt.hasLines(bs.Assets.TotalAssets, bs.Liabilities.TotalLiabilities, bs.Equity.TotalEquity) {
			return false, rule + " (lines missing)"
		}
		return tot.TotalAssets.Equal(tot.TotalLiabilities.Add(tot.TotalEquity)), rule

	case model.StatementCompteResultat, model.StatementRecettesDepenses:
		rule := fmt.Sprintf("no unmapped account above %s in the perimeter, and %s == %s - %s",
			materiality, is.NetResult, is.Resources.TotalResources, is.Expenses.TotalExpenses)
		if !stmt.hasLines(is.NetResult, is.Resources.TotalResources, is.Expenses.TotalExpenses) {
			return false, rule + " (lines missing)"
		}
		return !hasMaterialUnmapped(stmt.Unmapped, materiality) &&
			tot.NetResult.Equal(tot.TotalResources.Sub(tot.TotalExpenses)), rule

	case model.StatementTableauFlux:
		rule := fmt.Sprintf("no unmapped account above %s in the perimeter, and %s == %s",
			materiality, cf.NetCashFlow, cf.CashVariation)
		if !stmt.hasLines(cf.NetCashFlow, cf.CashVariation) {
			return false, rule + " (lines missing)"
		}
		return !hasMaterialUnmapped(stmt.Unmapped, materiality) && tot.NetCashFlow.Equal(tot.CashVariation), rule

	case model.StatementSituationTresorerie:
		return !hasMaterialUnmapped(stmt.Unmapped, materiality),
			fmt.Sprintf("no unmapped account above %s in the perimeter", materiality)

	case model.StatementAnnexes:
		return true, "notes annexes carry no figures to balance"

	default:
		return false, fmt.Sprintf("no balance rule for statement type %s", stmt.Type())
	}
}

func (s *GeneratedStatement) hasLines(codes ...string) bool {
	for _, c := range codes {
		if _, ok := s.Line(c); !ok || c == "" {
			return false
		}
	}
	return true
}

func hasMaterialUnmapped(unmapped []mapping.UnmappedAccount, materiality decimal.Decimal) bool {
	for _, u := range unmapped {
		if u.Net.Abs().GreaterThan(materiality) {
			return true
		}
	}
	return false
}

// warningsFor records required accounts with no contributing account,
// unmapped accounts carrying a balance and inactive accounts that still hold
// one. Required accounts outside the rule set's perimeter are not expected on
// this statement and are skipped.
func warningsFor(stmt *GeneratedStatement, std standards.Standard, res *mapping.Resolution) []Warning {
	rs := res.RuleSet
	var out []Warning

	for _, req := range std.ChartOfAccounts.Validation.RequiredAccounts {
		if !rs.InPerimeter(req) {
			continue
		}
		if !stmt.hasContribution(req) {
			out = append(out, Warning{
				Code:    WarnMissingRequiredAccount,
				Subject: req,
				Message: fmt.Sprintf("required account %s has no contributing account", req),
			})
		}
	}

	for _, code := range aggregateCodes(stmt.Type(), std) {
		if _, ok := stmt.Line(code); ok {
			continue
		}
		out = append(out, Warning{
			Code:    WarnMissingLine,
			Subject: code,
			Message: fmt.Sprintf("aggregate line %s is not produced by rule set %s", code, rs.Scope),
		})
	}

	for _, ia := range res.Inactive() {
		out = append(out, Warning{
			Code:    WarnInactiveAccount,
			Subject: ia.Code,
			Message: fmt.Sprintf("inactive account %s (%s) still carries balance %s", ia.Code, ia.Name, ia.Net),
		})
	}

	for _, u := range stmt.Unmapped {
		if u.Net.IsZero() {
			continue
		}
		out = append(out, Warning{
			Code:    WarnUnmappedAccount,
			Subject: u.Code,
			Message: fmt.Sprintf("account %s (%s) with balance %s is not mapped to any line", u.Code, u.Name, u.Net),
		})
	}
	return out
}

// aggregateCodes returns the aggregate line codes a statement type is checked
// against.
func aggregateCodes(t model.StatementType, std standards.Standard) []string {
	fs := std.FinancialStatements
	var codes []string
	switch t {
	case model.StatementBilan:
		bs := fs.BalanceSheet.Structure
		codes = []string{bs.Assets.TotalAssets, bs.Liabilities.TotalLiabilities, bs.Equity.TotalEquity}
	case model.StatementCompteResultat, model.StatementRecettesDepenses:
		is := fs.IncomeStatement.Structure
		codes = []string{is.Resources.TotalResources, is.Expenses.TotalExpenses, is.NetResult}
	case model.StatementTableauFlux:
		codes = []string{fs.CashFlow.Structure.NetCashFlow, fs.CashFlow.Structure.CashVariation}
	}
	out := codes[:0]
	for _, c := range codes {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// hasContribution reports whether an account under the required code feeds a
// detail line.
func (s *GeneratedStatement) hasContribution(required string) bool {
	for _, l := range s.Lines {
		if l.Total {
			continue
		}
		for _, c := range l.Accounts {
			if strings.HasPrefix(c.AccountCode, required) {
				return true
			}
		}
	}
	return false
}
