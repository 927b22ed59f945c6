package standards

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
)

//go:embed data/*.yaml
var embedded embed.FS

var (
	ErrStandardNotFound     = errors.New("accounting standard not found")
	ErrNoStandardForCountry = errors.New("no accounting standard applies to country")
)

// Catalog holds the accounting standards in declaration order. It is immutable
// once loaded and safe for concurrent use.
type Catalog struct {
	standards []Standard
	byCode    map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded standards. It is loaded
// once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = Load(sub)
	})
	return defaultCatalog, defaultErr
}

// Load reads every *.yaml file at the root of fsys, one standard per file, and
// validates each of them. Declaration order follows the order field, then code.
func Load(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing standards: %w", err)
	}

	var stds []Standard
	var errs []error
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var std Standard
		if err := yaml.Unmarshal(data, &std); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		if err := std.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		stds = append(stds, std)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return New(stds)
}

// New builds a catalog from already-parsed standards. Codes are stored
// upper-cased, the form Get looks them up in.
func New(stds []Standard) (*Catalog, error) {
	sorted := make([]Standard, len(stds))
	copy(sorted, stds)
	for i := range sorted {
		sorted[i].Code = strings.ToUpper(strings.TrimSpace(sorted[i].Code))
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].Code < sorted[j].Code
	})

	byCode := make(map[string]int, len(sorted))
	for i, s := range sorted {
		if _, dup := byCode[s.Code]; dup {
			return nil, fmt.Errorf("standard %s declared twice", s.Code)
		}
		byCode[s.Code] = i
	}
	return &Catalog{standards: sorted, byCode: byCode}, nil
}

// All returns every standard in declaration order.
func (c *Catalog) All() []Standard {
	out := make([]Standard, len(c.standards))
	copy(out, c.standards)
	return out
}

// Get returns a standard by code.
func (c *Catalog) Get(code string) (Standard, error) {
	i, ok := c.byCode[strings.ToUpper(code)]
	if !ok {
		return Standard{}, fmt.Errorf("%w: %s", ErrStandardNotFound, code)
	}
	return c.standards[i], nil
}

// ForCountry returns the standards applicable to a country, in declaration order.
func (c *Catalog) ForCountry(country string) []Standard {
	var out []Standard
	for _, s := range c.standards {
		if s.AppliesTo(country) {
			out = append(out, s)
		}
	}
	return out
}

// Recommended returns the jurisdiction's regional default when one applies,
// otherwise the first applicable standard in declaration order.
func (c *Catalog) Recommended(country string) (Standard, error) {
	applicable := c.ForCountry(country)
	if len(applicable) == 0 {
		return Standard{}, fmt.Errorf("%w: %s", ErrNoStandardForCountry, country)
	}
	for _, s := range applicable {
		if s.RegionalDefault {
			return s, nil
		}
	}
	return applicable[0], nil
}

// IsApplicable reports whether a standard applies to a country.
func (c *Catalog) IsApplicable(standardCode, country string) bool {
	s, err := c.Get(standardCode)
	return err == nil && s.AppliesTo(country)
}

// IsAccountValid reports whether accountCode is declared in the standard's chart.
// Membership is exact: a sub-account of a declared account is not itself declared.
func (c *Catalog) IsAccountValid(standardCode, accountCode string) bool {
	s, err := c.Get(standardCode)
	if err != nil {
		return false
	}
	for _, a := range s.ChartOfAccounts.Accounts {
		if a.Code == accountCode {
			return true
		}
	}
	return false
}

// RequiredAccounts returns the account codes the standard requires.
func (c *Catalog) RequiredAccounts(standardCode string) []string {
	s, err := c.Get(standardCode)
	if err != nil {
		return nil
	}
	return s.ChartOfAccounts.Validation.RequiredAccounts
}

// FunctionalAllocation returns the standard's functional allocation rules.
func (c *Catalog) FunctionalAllocation(standardCode string) (FunctionalAllocation, error) {
	s, err := c.Get(standardCode)
	if err != nil {
		return FunctionalAllocation{}, err
	}
	return s.SpecificRules.FunctionalAllocation, nil
}

// FundTypes returns the fund types recognised by the standard.
func (c *Catalog) FundTypes(standardCode string) []FundType {
	s, err := c.Get(standardCode)
	if err != nil {
		return nil
	}
	return s.SpecificRules.FundAccounting.Types
}

// RevenueRecognition returns the recognition policy for a revenue category
// (grants, donations or services).
func (c *Catalog) RevenueRecognition(standardCode, category string) (RecognitionPolicy, error) {
	s, err := c.Get(standardCode)
	if err != nil {
		return "", err
	}
	rr := s.SpecificRules.RevenueRecognition
	switch strings.ToLower(category) {
	case "grants":
		return rr.Grants, nil
	case "donations":
		return rr.Donations, nil
	case "services":
		return rr.Services, nil
	default:
		return "", fmt.Errorf("unknown revenue category %q", category)
	}
}

// AppliesTo reports whether the standard lists the country.
func (s Standard) AppliesTo(country string) bool {
	country = strings.ToUpper(country)
	for _, c := range s.ApplicableCountries {
		if c == country {
			return true
		}
	}
	return false
}
