// Package importer reads trial balances exported by other bookkeeping tools
// and loads them as opening balances into the chart of accounts.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/model"
)

// Parser converts a trial balance file into rows.
type Parser interface {
	Parse(r io.Reader) ([]model.TrialBalanceRow, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BalanceParser{})
	r.Register(&SemicolonParser{})
	return r
}

// ApplyOpenings returns a copy of accts with opening balances taken from rows.
// Current movements are reset and closing equals opening. Every row must name
// a detail account of the chart, and the trial balance must balance.
func ApplyOpenings(accts []model.Account, rows []model.TrialBalanceRow) ([]model.Account, error) {
	index := make(map[string]int, len(accts))
	for i, a := range accts {
		index[a.Code] = i
	}

	out := make([]model.Account, len(accts))
	copy(out, accts)

	var debit, credit decimal.Decimal
	seen := make(map[string]bool, len(rows))
	var problems []string
	for _, row := range rows {
		i, ok := index[row.AccountCode]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("account %s is not in the chart", row.AccountCode))
			continue
		case out[i].IsGroup:
			problems = append(problems, fmt.Sprintf("account %s is a group account", row.AccountCode))
			continue
		case seen[row.AccountCode]:
			problems = append(problems, fmt.Sprintf("account %s appears twice", row.AccountCode))
			continue
		}
		seen[row.AccountCode] = true
		out[i].Opening = model.Balance{Debit: row.Debit, Credit: row.Credit}
		debit = debit.Add(row.Debit)
		credit = credit.Add(row.Credit)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("trial balance: %s", strings.Join(problems, "; "))
	}
	if !debit.Equal(credit) {
		return nil, fmt.Errorf("trial balance does not balance: debits %s, credits %s", debit, credit)
	}

	for i := range out {
		out[i].Current = model.Balance{}
		out[i].Closing = out[i].Opening
	}
	return out, nil
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
