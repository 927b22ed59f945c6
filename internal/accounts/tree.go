package accounts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/coa/internal/model"
)

// Node is one account in the hierarchy with its children ordered by code.
type Node struct {
	Account  model.Account
	Children []*Node
}

// FlatAccount is an account annotated with its depth in a flattened tree.
type FlatAccount struct {
	Account model.Account
	Level   int
}

// HierarchyProblem names the kind of structural defect found in a chart.
type HierarchyProblem string

const (
	ProblemDuplicateCode  HierarchyProblem = "duplicate_code"
	ProblemDanglingParent HierarchyProblem = "dangling_parent"
	ProblemLevelMismatch  HierarchyProblem = "level_mismatch"
	ProblemCycle          HierarchyProblem = "cycle"
	ProblemChildlessGroup HierarchyProblem = "childless_group"
)

// HierarchyIssue is a single defect attached to an account code.
type HierarchyIssue struct {
	Code    string
	Problem HierarchyProblem
	Detail  string
}

// HierarchyError reports every structural defect found in one pass.
type HierarchyError struct {
	Issues []HierarchyIssue
}

func (e *HierarchyError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = fmt.Sprintf("%s [%s]: %s", is.Problem, is.Code, is.Detail)
	}
	return "invalid account hierarchy: " + strings.Join(msgs, "; ")
}

// Has reports whether the error contains at least one issue of the given kind.
func (e *HierarchyError) Has(p HierarchyProblem) bool {
	for _, is := range e.Issues {
		if is.Problem == p {
			return true
		}
	}
	return false
}

// BuildTree groups accounts by parent code. An account whose parent code does not
// exist is reported as a dangling parent rather than promoted to a root.
func BuildTree(accts []model.Account) ([]*Node, error) {
	var issues []HierarchyIssue

	nodes := make(map[string]*Node, len(accts))
	unique := make([]*Node, 0, len(accts))
	for _, a := range accts {
		if _, dup := nodes[a.Code]; dup {
			issues = append(issues, HierarchyIssue{Code: a.Code, Problem: ProblemDuplicateCode, Detail: "account code appears more than once"})
			continue
		}
		n := &Node{Account: a}
		nodes[a.Code] = n
		unique = append(unique, n)
	}

	var roots []*Node
	for _, n := range unique {
		a := n.Account
		if a.ParentCode == "" {
			if a.Level != 0 {
				issues = append(issues, HierarchyIssue{Code: a.Code, Problem: ProblemLevelMismatch, Detail: fmt.Sprintf("root account has level %d, want 0", a.Level)})
			}
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[a.ParentCode]
		if !ok {
			issues = append(issues, HierarchyIssue{Code: a.Code, Problem: ProblemDanglingParent, Detail: fmt.Sprintf("parent %s does not exist", a.ParentCode)})
			continue
		}
		if parent.Account.Level != a.Level-1 {
			issues = append(issues, HierarchyIssue{Code: a.Code, Problem: ProblemLevelMismatch, Detail: fmt.Sprintf("level %d under parent %s at level %d", a.Level, parent.Account.Code, parent.Account.Level)})
		}
		parent.Children = append(parent.Children, n)
	}

	issues = append(issues, findCycles(nodes)...)

	if len(issues) > 0 {
		return nil, &HierarchyError{Issues: issues}
	}

	sortNodes(roots)
	return roots, nil
}

// findCycles reports accounts whose parent chain never reaches a root.
func findCycles(nodes map[string]*Node) []HierarchyIssue {
	codes := make([]string, 0, len(nodes))
	for code := range nodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var issues []HierarchyIssue
	for _, code := range codes {
		seen := map[string]bool{code: true}
		cur := nodes[code].Account.ParentCode
		for cur != "" {
			if seen[cur] {
				issues = append(issues, HierarchyIssue{Code: code, Problem: ProblemCycle, Detail: "parent chain loops back on itself"})
				break
			}
			seen[cur] = true
			p, ok := nodes[cur]
			if !ok {
				break // dangling, reported separately
			}
			cur = p.Account.ParentCode
		}
	}
	return issues
}

func sortNodes(ns []*Node) {
	sort.Slice(ns, func(i, j int) bool { return ns[i].Account.Code < ns[j].Account.Code })
	for _, n := range ns {
		sortNodes(n.Children)
	}
}

// Flatten walks the tree depth-first in pre-order and annotates each account with
// its depth, starting at level.
func Flatten(tree []*Node, level int) []FlatAccount {
	var out []FlatAccount
	for _, n := range tree {
		out = append(out, FlatAccount{Account: n.Account, Level: level})
		out = append(out, Flatten(n.Children, level+1)...)
	}
	return out
}
