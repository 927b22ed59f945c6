package accounts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cleared-dev/coa/internal/model"
)

// ChartFile is the chart of accounts location relative to a project root.
const ChartFile = "accounts/chart-of-accounts.csv"

// Registry provides in-memory lookup over the chart of accounts. It is not
// modified after construction and is safe for concurrent readers.
type Registry struct {
	accounts []model.Account
	byCode   map[string]model.Account
	children map[string][]string
}

// NewRegistry creates a Registry from a slice of accounts. The last account wins
// when a code is repeated; BuildTree reports the duplicate.
func NewRegistry(accts []model.Account) *Registry {
	byCode := make(map[string]model.Account, len(accts))
	children := make(map[string][]string)
	for _, a := range accts {
		byCode[a.Code] = a
		if a.ParentCode != "" {
			children[a.ParentCode] = append(children[a.ParentCode], a.Code)
		}
	}
	for _, c := range children {
		sort.Strings(c)
	}
	return &Registry{accounts: accts, byCode: byCode, children: children}
}

// Load reads chart-of-accounts.csv from a project root and returns a Registry.
func Load(root string) (*Registry, error) {
	path := filepath.Join(root, ChartFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewRegistry(accts), nil
}

// All returns all accounts in load order.
func (r *Registry) All() []model.Account {
	return r.accounts
}

// Get returns an account by code.
func (r *Registry) Get(code string) (model.Account, bool) {
	a, ok := r.byCode[code]
	return a, ok
}

// Exists reports whether an account code exists.
func (r *Registry) Exists(code string) bool {
	_, ok := r.byCode[code]
	return ok
}

// IsPostable reports whether entries may be recorded against the account:
// it must exist, be active and not be a group account.
func (r *Registry) IsPostable(code string) bool {
	a, ok := r.byCode[code]
	return ok && !a.IsGroup && a.Active
}

// ByType returns all accounts of the given type.
func (r *Registry) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range r.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Children returns the direct children of an account, ordered by code.
func (r *Registry) Children(code string) []model.Account {
	var result []model.Account
	for _, c := range r.children[code] {
		result = append(result, r.byCode[c])
	}
	return result
}

// Details returns the active detail (non-group) accounts ordered by code. Only
// these carry postings that feed statements.
func (r *Registry) Details() []model.Account {
	var result []model.Account
	for _, a := range r.accounts {
		if !a.IsGroup && a.Active {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// Tree builds the account hierarchy.
func (r *Registry) Tree() ([]*Node, error) {
	return BuildTree(r.accounts)
}

// ValidateForReporting checks the hierarchy and that every group account has at
// least one child.
func (r *Registry) ValidateForReporting() error {
	var issues []HierarchyIssue
	if _, err := BuildTree(r.accounts); err != nil {
		var herr *HierarchyError
		if !errors.As(err, &herr) {
			return err
		}
		issues = append(issues, herr.Issues...)
	}
	for _, a := range r.accounts {
		if a.IsGroup && len(r.children[a.Code]) == 0 {
			issues = append(issues, HierarchyIssue{Code: a.Code, Problem: ProblemChildlessGroup, Detail: "group account has no children"})
		}
	}
	if len(issues) > 0 {
		return &HierarchyError{Issues: issues}
	}
	return nil
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (r *Registry) Save(root string) error {
	path := filepath.Join(root, ChartFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, r.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
