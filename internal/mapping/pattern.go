package mapping

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternKind distinguishes the three forms of account pattern.
type PatternKind int

const (
	// PatternPrefix matches every code starting with the literal ("60").
	PatternPrefix PatternKind = iota
	// PatternExact matches one code only ("=601000").
	PatternExact
	// PatternWildcard matches the whole code against * or % (any run) and
	// ? or _ (one character), e.g. "60*" or "4_1%".
	PatternWildcard
)

func (k PatternKind) String() string {
	switch k {
	case PatternExact:
		return "exact"
	case PatternWildcard:
		return "wildcard"
	default:
		return "prefix"
	}
}

// Pattern selects account codes. Matching is case-insensitive.
type Pattern struct {
	raw     string
	kind    PatternKind
	literal string // upper-cased; for wildcards, the text without wildcard characters
	re      *regexp.Regexp
}

// ParsePattern parses one entry of a rule's pattern list.
func ParsePattern(s string) (Pattern, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty account pattern")
	}

	if strings.HasPrefix(raw, "=") {
		lit := strings.ToUpper(strings.TrimSpace(raw[1:]))
		if lit == "" {
			return Pattern{}, fmt.Errorf("exact pattern %q has no code", s)
		}
		if strings.ContainsAny(lit, "*%?_") {
			return Pattern{}, fmt.Errorf("exact pattern %q contains wildcard characters", s)
		}
		return Pattern{raw: raw, kind: PatternExact, literal: lit}, nil
	}

	upper := strings.ToUpper(raw)
	if !strings.ContainsAny(upper, "*%?_") {
		return Pattern{raw: raw, kind: PatternPrefix, literal: upper}, nil
	}

	var expr, lit strings.Builder
	expr.WriteString("^")
	for _, r := range upper {
		switch r {
		case '*', '%':
			expr.WriteString(".*")
		case '?', '_':
			expr.WriteString(".")
		default:
			expr.WriteString(regexp.QuoteMeta(string(r)))
			lit.WriteRune(r)
		}
	}
	expr.WriteString("$")
	re, err := regexp.Compile(expr.String())
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling pattern %q: %w", s, err)
	}
	return Pattern{raw: raw, kind: PatternWildcard, literal: lit.String(), re: re}, nil
}

// MustParsePattern is ParsePattern for literals known to be valid.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePatterns parses a list of patterns, stopping at the first invalid one.
func ParsePatterns(ss []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(ss))
	for _, s := range ss {
		p, err := ParsePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (p Pattern) Kind() PatternKind { return p.kind }
func (p Pattern) String() string { return p.raw }

// Match reports whether code is selected by the pattern.
func (p Pattern) Match(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch p.kind {
	case PatternExact:
		return code == p.literal
	case PatternWildcard:
		return p.re.MatchString(code)
	default:
		return strings.HasPrefix(code, p.literal)
	}
}

// Specificity ranks patterns: more literal characters first, then exact over
// prefix over wildcard for the same number of literal characters.
func (p Pattern) Specificity() int {
	rank := 0
	switch p.kind {
	case PatternExact:
		rank = 2
	case PatternPrefix:
		rank = 1
	}
	return len(p.literal)*10 + rank
}

// Overlaps reports whether two exact or prefix patterns can select the same
// code. Wildcard patterns are not analysed and never report an overlap here;
// conflicts involving them surface when accounts are resolved.
func (p Pattern) Overlaps(q Pattern) bool {
	if p.kind == PatternWildcard || q.kind == PatternWildcard {
		return false
	}
	switch {
	case p.kind == PatternExact && q.kind == PatternExact:
		return p.literal == q.literal
	case p.kind == PatternExact:
		return strings.HasPrefix(p.literal, q.literal)
	case q.kind == PatternExact:
		return strings.HasPrefix(q.literal, p.literal)
	default:
		return strings.HasPrefix(p.literal, q.literal) || strings.HasPrefix(q.literal, p.literal)
	}
}
