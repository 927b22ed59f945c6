package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/model"
)

// Basis selects which balance feeds statement lines.
type Basis int

const (
	// BasisClosing uses closing balances (position statements, income statements).
	BasisClosing Basis = iota
	// BasisMovement uses closing minus opening (flow statements).
	BasisMovement
)

func (b Basis) String() string {
	if b == BasisMovement {
		return "movement"
	}
	return "closing"
}

func (b Basis) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Basis) UnmarshalText(text []byte) error {
	switch string(text) {
	case "closing":
		*b = BasisClosing
	case "movement":
		*b = BasisMovement
	default:
		return fmt.Errorf("unknown basis %q", text)
	}
	return nil
}

// AmbiguousMappingError is returned when an account matches more than one
// non-total line of a rule set.
type AmbiguousMappingError struct {
	Account string
	Scope   Scope
	Lines   []string
}

func (e *AmbiguousMappingError) Error() string {
	return fmt.Sprintf("account %s matches several line items in %s: %s", e.Account, e.Scope, strings.Join(e.Lines, ", "))
}

// UnmappedAccount is an account inside a statement's perimeter that no rule
// matched. It is tracked, not fatal.
type UnmappedAccount struct {
	Code string            `json:"code"`
	Name string            `json:"name"`
	Type model.AccountType `json:"type"`
	Net  decimal.Decimal   `json:"net"` // natural sign of the account type
}

// InactiveAccount is a deactivated account that still carries a balance. It
// keeps feeding the statement and is tracked so the balance can be explained.
type InactiveAccount struct {
	Code string          `json:"code"`
	Name string          `json:"name"`
	Net  decimal.Decimal `json:"net"`
}

// Contribution is one account's signed amount in a line item.
type Contribution struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Amount      decimal.Decimal `json:"amount"`
}

// Resolution is the outcome of mapping a set of accounts for one scope.
type Resolution struct {
	Scope    Scope
	RuleSet  *RuleSet
	byLine   map[string][]Contribution
	unmapped []UnmappedAccount
	inactive []InactiveAccount
}

// Contributions returns the contributions to a line, ordered by account code.
func (r *Resolution) Contributions(lineCode string) []Contribution {
	return r.byLine[lineCode]
}

// LineAmount sums the contributions to a line.
func (r *Resolution) LineAmount(lineCode string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.byLine[lineCode] {
		total = total.Add(c.Amount)
	}
	return total
}

// Unmapped returns the accounts inside the perimeter that no rule matched,
// ordered by account code.
func (r *Resolution) Unmapped() []UnmappedAccount {
	return r.unmapped
}

// Inactive returns the deactivated accounts with a non-zero balance that were
// resolved, ordered by account code.
func (r *Resolution) Inactive() []InactiveAccount {
	return r.inactive
}

// Engine resolves accounts against the rule book. It holds no per-call state
// and may be shared between goroutines.
type Engine struct {
	book   *Book
	logger *zap.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(book *Book, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{book: book, logger: logger}
}

// RuleSet returns the rule set used for a scope.
func (e *Engine) RuleSet(scope Scope) (*RuleSet, error) {
	return e.book.Lookup(scope)
}

// Resolve returns every rule of the scope matching the account, most specific
// first. More than one matching non-total rule is an AmbiguousMappingError.
func (e *Engine) Resolve(account model.Account, scope Scope) ([]Rule, error) {
	rs, err := e.book.Lookup(scope)
	if err != nil {
		return nil, err
	}
	return resolveIn(rs, account.Code)
}

func resolveIn(rs *RuleSet, code string) ([]Rule, error) {
	type hit struct {
		rule Rule
		spec int
	}
	var hits []hit
	var details []string
	for _, r := range rs.Rules {
		p, ok := r.Matches(code)
		if !ok {
			continue
		}
		hits = append(hits, hit{rule: r, spec: p.Specificity()})
		if !r.Total {
			details = append(details, r.Code)
		}
	}
	if len(details) > 1 {
		return nil, &AmbiguousMappingError{Account: code, Scope: rs.Scope, Lines: details}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].spec != hits[j].spec {
			return hits[i].spec > hits[j].spec
		}
		if hits[i].rule.Order != hits[j].rule.Order {
			return hits[i].rule.Order < hits[j].rule.Order
		}
		return hits[i].rule.Code < hits[j].rule.Code
	})
	out := make([]Rule, len(hits))
	for i, h := range hits {
		out[i] = h.rule
	}
	return out, nil
}

// ResolveAll maps every active detail account, and every inactive one still
// carrying a balance on the basis. Accounts are processed in code order so the
// result does not depend on input order. The first ambiguous account aborts
// the resolution.
func (e *Engine) ResolveAll(accts []model.Account, scope Scope, basis Basis) (*Resolution, error) {
	rs, err := e.book.Lookup(scope)
	if err != nil {
		return nil, err
	}

	sorted := make([]model.Account, 0, len(accts))
	for _, a := range accts {
		if a.IsGroup {
			continue
		}
		if !a.Active && balance(a, basis).Net.IsZero() {
			continue
		}
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	res := &Resolution{Scope: rs.Scope, RuleSet: rs, byLine: make(map[string][]Contribution)}
	for _, a := range sorted {
		rules, err := resolveIn(rs, a.Code)
		if err != nil {
			return nil, err
		}
		if len(rules) == 0 && !rs.InPerimeter(a.Code) {
			continue
		}
		if !a.Active {
			net := balance(a, basis).Net
			res.inactive = append(res.inactive, InactiveAccount{Code: a.Code, Name: a.Name, Net: net})
			e.logger.Warn("inactive account carries a balance",
				zap.String("account", a.Code),
				zap.String("scope", scope.String()),
				zap.String("net", net.String()),
			)
		}
		if len(rules) == 0 {
			net := balance(a, basis).Net
			res.unmapped = append(res.unmapped, UnmappedAccount{Code: a.Code, Name: a.Name, Type: a.Type, Net: net})
			if !net.IsZero() {
				e.logger.Warn("unmapped account",
					zap.String("account", a.Code),
					zap.String("scope", scope.String()),
					zap.String("net", net.String()),
				)
			}
			continue
		}
		for _, r := range rules {
			res.byLine[r.Code] = append(res.byLine[r.Code], Contribution{
				AccountCode: a.Code,
				AccountName: a.Name,
				Amount:      ContributionOf(a, r, basis),
			})
		}
	}

	e.logger.Debug("accounts resolved",
		zap.String("scope", scope.String()),
		zap.Int("accounts", len(sorted)),
		zap.Int("unmapped", len(res.unmapped)),
	)
	return res, nil
}

// ContributionOf expresses an account's balance in the rule's normal sign:
// the account's net is negated when its natural side differs from the rule's.
func ContributionOf(a model.Account, r Rule, basis Basis) decimal.Decimal {
	net := balance(a, basis).Net
	if a.Type.NormalSide() != r.Sign {
		return net.Neg()
	}
	return net
}

func balance(a model.Account, basis Basis) accounts.AccountBalance {
	if basis == BasisMovement {
		return accounts.MovementOf(a)
	}
	return accounts.BalanceOf(a)
}
