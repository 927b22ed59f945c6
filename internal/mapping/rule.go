package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/coa/internal/model"
)

// AnyCountry scopes a rule set to every country without a specific one.
const AnyCountry = "*"

// Scope selects the rule set used for one statement.
type Scope struct {
	Country   string              `json:"country"`
	Standard  string              `json:"standard"`
	System    model.SystemType    `json:"system"`
	Statement model.StatementType `json:"statement"`
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.Country, s.Standard, s.System, s.Statement)
}

func (s Scope) key() string {
	return strings.ToUpper(s.String())
}

// Component is one term of a total: a line code, added or subtracted.
type Component struct {
	Code   string `json:"code"`
	Negate bool   `json:"negate,omitempty"`
}

// Rule maps account patterns to one statement line item. Total rules aggregate
// other lines through their components instead of matching accounts directly,
// unless they declare patterns and no components.
type Rule struct {
	Code       string
	Label      string
	Order      int
	Level      int
	Total      bool
	Sign       model.Side
	Patterns   []Pattern
	Components []Component
}

// Matches returns the most specific pattern of the rule matching code.
func (r Rule) Matches(code string) (Pattern, bool) {
	var best Pattern
	found := false
	for _, p := range r.Patterns {
		if p.Match(code) && (!found || p.Specificity() > best.Specificity()) {
			best, found = p, true
		}
	}
	return best, found
}

// RuleSet holds the rules of one scope ordered for presentation, plus the
// perimeter of account codes the statement is expected to cover.
type RuleSet struct {
	Scope     Scope
	Perimeter []Pattern
	Rules     []Rule
	index     map[string]int
}

// NewRuleSet orders the rules by display order then code, and validates them.
func NewRuleSet(scope Scope, perimeter []Pattern, rules []Rule) (*RuleSet, error) {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].Code < sorted[j].Code
	})

	rs := &RuleSet{Scope: scope, Perimeter: perimeter, Rules: sorted, index: make(map[string]int, len(sorted))}
	if err := rs.validate(); err != nil {
		return nil, fmt.Errorf("rule set %s: %w", scope, err)
	}
	return rs, nil
}

// Line returns the rule for a line code.
func (rs *RuleSet) Line(code string) (Rule, bool) {
	i, ok := rs.index[code]
	if !ok {
		return Rule{}, false
	}
	return rs.Rules[i], true
}

// InPerimeter reports whether an account belongs to the statement's perimeter.
// An empty perimeter covers every account.
func (rs *RuleSet) InPerimeter(code string) bool {
	if len(rs.Perimeter) == 0 {
		return true
	}
	for _, p := range rs.Perimeter {
		if p.Match(code) {
			return true
		}
	}
	return false
}

func (rs *RuleSet) validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for i, r := range rs.Rules {
		if r.Code == "" {
			add("rule at order %d has no code", r.Order)
			continue
		}
		if _, dup := rs.index[r.Code]; dup {
			add("line %s declared twice", r.Code)
			continue
		}
		rs.index[r.Code] = i

		if _, err := model.ParseSide(string(r.Sign)); err != nil {
			add("line %s: %v", r.Code, err)
		}
		switch {
		case !r.Total && len(r.Patterns) == 0:
			add("line %s: detail line without patterns", r.Code)
		case !r.Total && len(r.Components) > 0:
			add("line %s: only totals may have components", r.Code)
		case r.Total && len(r.Components) == 0 && len(r.Patterns) == 0:
			add("line %s: total without components or patterns", r.Code)
		}
	}

	for _, r := range rs.Rules {
		for _, c := range r.Components {
			if _, ok := rs.index[c.Code]; !ok {
				add("line %s: unknown component %s", r.Code, c.Code)
			}
		}
	}
	if len(errs) == 0 {
		if cyc := rs.findCycle(); cyc != "" {
			add("component cycle through line %s", cyc)
		}
	}

	for i, a := range rs.Rules {
		if a.Total {
			continue
		}
		for _, b := range rs.Rules[i+1:] {
			if b.Total {
				continue
			}
			for _, pa := range a.Patterns {
				for _, pb := range b.Patterns {
					if pa.Overlaps(pb) {
						add("lines %s and %s overlap on patterns %s and %s", a.Code, b.Code, pa, pb)
					}
				}
			}
		}
	}

	return errors.Join(errs...)
}

func (rs *RuleSet) findCycle() string {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int, len(rs.Rules))
	var visit func(code string) string
	visit = func(code string) string {
		switch state[code] {
		case visiting:
			return code
		case done:
			return ""
		}
		state[code] = visiting
		r, _ := rs.Line(code)
		for _, c := range r.Components {
			if cyc := visit(c.Code); cyc != "" {
				return cyc
			}
		}
		state[code] = done
		return ""
	}
	for _, r := range rs.Rules {
		if cyc := visit(r.Code); cyc != "" {
			return cyc
		}
	}
	return ""
}
