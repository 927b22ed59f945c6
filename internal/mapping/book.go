package mapping

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/coa/internal/model"
)

//go:embed rules/*.yaml
var embedded embed.FS

// ErrNoRuleSet is returned when no rule set covers a scope.
var ErrNoRuleSet = errors.New("no mapping rules for scope")

// Book indexes rule sets by scope. It is immutable once loaded.
type Book struct {
	sets map[string]*RuleSet
}

type fileYAML struct {
	RuleSets []ruleSetYAML `yaml:"ruleSets"`
}

type ruleSetYAML struct {
	Standards []string   `yaml:"standards"`
	Countries []string   `yaml:"countries"`
	System    string     `yaml:"system"`
	Statement string     `yaml:"statement"`
	Perimeter []string   `yaml:"perimeter"`
	Lines     []lineYAML `yaml:"lines"`
}

type lineYAML struct {
	Code       string   `yaml:"code"`
	Label      string   `yaml:"label"`
	Order      int      `yaml:"order"`
	Level      int      `yaml:"level"`
	Total      bool     `yaml:"total"`
	Sign       string   `yaml:"sign"`
	Patterns   []string `yaml:"patterns"`
	Components []string `yaml:"components"`
}

var (
	defaultOnce sync.Once
	defaultBook *Book
	defaultErr  error
)

// DefaultBook returns the embedded rule sets, loaded once per process.
func DefaultBook() (*Book, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "rules")
		if err != nil {
			defaultErr = err
			return
		}
		defaultBook, defaultErr = LoadBook(sub)
	})
	return defaultBook, defaultErr
}

// LoadBook reads every *.yaml file at the root of fsys. A file declares rule
// sets that may apply to several standards and countries at once.
func LoadBook(fsys fs.FS) (*Book, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing mapping rules: %w", err)
	}

	b := &Book{sets: make(map[string]*RuleSet)}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var f fileYAML
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		for i, rsy := range f.RuleSets {
			if err := b.addYAML(rsy); err != nil {
				errs = append(errs, fmt.Errorf("%s: rule set %d: %w", e.Name(), i+1, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

func (b *Book) addYAML(rsy ruleSetYAML) error {
	system, err := model.ParseSystemType(rsy.System)
	if err != nil {
		return err
	}
	stmt, err := model.ParseStatementType(rsy.Statement)
	if err != nil {
		return err
	}
	perimeter, err := ParsePatterns(rsy.Perimeter)
	if err != nil {
		return fmt.Errorf("perimeter: %w", err)
	}
	rules := make([]Rule, 0, len(rsy.Lines))
	for _, ly := range rsy.Lines {
		r, err := ly.rule()
		if err != nil {
			return err
		}
		rules = append(rules, r)
	}
	if len(rsy.Standards) == 0 {
		return fmt.Errorf("no standards listed")
	}
	countries := rsy.Countries
	if len(countries) == 0 {
		countries = []string{AnyCountry}
	}

	for _, std := range rsy.Standards {
		for _, country := range countries {
			scope := Scope{Country: strings.ToUpper(country), Standard: strings.ToUpper(std), System: system, Statement: stmt}
			rs, err := NewRuleSet(scope, perimeter, rules)
			if err != nil {
				return err
			}
			if err := b.Add(rs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ly lineYAML) rule() (Rule, error) {
	sign, err := model.ParseSide(ly.Sign)
	if err != nil {
		return Rule{}, fmt.Errorf("line %s: %w", ly.Code, err)
	}
	patterns, err := ParsePatterns(ly.Patterns)
	if err != nil {
		return Rule{}, fmt.Errorf("line %s: %w", ly.Code, err)
	}
	comps := make([]Component, 0, len(ly.Components))
	for _, c := range ly.Components {
		c = strings.TrimSpace(c)
		if strings.HasPrefix(c, "-") {
			comps = append(comps, Component{Code: strings.TrimSpace(c[1:]), Negate: true})
			continue
		}
		comps = append(comps, Component{Code: strings.TrimPrefix(c, "+")})
	}
	return Rule{
		Code:       ly.Code,
		Label:      ly.Label,
		Order:      ly.Order,
		Level:      ly.Level,
		Total:      ly.Total,
		Sign:       sign,
		Patterns:   patterns,
		Components: comps,
	}, nil
}

// NewBook builds a book from rule sets, rejecting duplicate scopes.
func NewBook(sets ...*RuleSet) (*Book, error) {
	b := &Book{sets: make(map[string]*RuleSet, len(sets))}
	for _, rs := range sets {
		if err := b.Add(rs); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Add registers a rule set. It is only meant to be called while building a book.
func (b *Book) Add(rs *RuleSet) error {
	k := rs.Scope.key()
	if _, dup := b.sets[k]; dup {
		return fmt.Errorf("duplicate rule set for %s", rs.Scope)
	}
	b.sets[k] = rs
	return nil
}

// Lookup returns the rule set for a scope. A country-specific rule set takes
// precedence over one declared for every country.
func (b *Book) Lookup(scope Scope) (*RuleSet, error) {
	if rs, ok := b.sets[scope.key()]; ok {
		return rs, nil
	}
	generic := scope
	generic.Country = AnyCountry
	if rs, ok := b.sets[generic.key()]; ok {
		return rs, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRuleSet, scope)
}

// Scopes lists the scopes covered, sorted.
func (b *Book) Scopes() []Scope {
	out := make([]Scope, 0, len(b.sets))
	for _, rs := range b.sets {
		out = append(out, rs.Scope)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
