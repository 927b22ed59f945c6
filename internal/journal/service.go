package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/id"
	"github.com/cleared-dev/coa/internal/model"
)

// Dir is the journal directory under the repository root.
const Dir = "journal"

// ErrEntryNotFound is returned when an entry ID is not in its month's journal.
var ErrEntryNotFound = errors.New("journal entry not found")

// Service provides business logic for journal entries.
type Service struct {
	repoRoot  string
	accounts  AccountChecker
	precision int32
}

// NewService creates a journal Service. precision is the number of decimal
// places allowed on amounts (the reporting currency's minor unit).
func NewService(repoRoot string, accounts AccountChecker, precision int32) *Service {
	return &Service{repoRoot: repoRoot, accounts: accounts, precision: precision}
}

// LineParams describes one line of a new entry.
type LineParams struct {
	AccountCode string
	Side        model.Side
	Amount      decimal.Decimal
	Description string
}

// AddParams holds parameters for creating a journal entry.
type AddParams struct {
	Date        time.Time
	Description string
	Reference   string
	Status      model.EntryStatus
	Lines       []LineParams
}

// Add assigns the next entry ID of the month, validates the month's entries
// including the new one, and appends it to the month's journal.csv. Returns
// the entry ID.
func (s *Service) Add(params AddParams) (string, error) {
	year := params.Date.Year()
	month := int(params.Date.Month())

	existing, err := s.ReadMonth(year, month)
	if err != nil {
		return "", err
	}

	entryID := id.FormatEntryID(year, month, nextSeq(existing))
	status := params.Status
	if status == "" {
		status = model.EntryDraft
	}
	entry := model.JournalEntry{
		ID:          entryID,
		Date:        params.Date,
		Description: params.Description,
		Reference:   params.Reference,
		Status:      status,
	}
	for i, lp := range params.Lines {
		desc := lp.Description
		if desc == "" {
			desc = params.Description
		}
		entry.Lines = append(entry.Lines, model.EntryLine{
			ID:          id.FormatLineID(entryID, i),
			AccountCode: lp.AccountCode,
			Side:        lp.Side,
			Amount:      lp.Amount,
			Description: desc,
		})
	}

	all := append(existing, entry)
	if verrs := ValidateEntries(all, s.accounts, monthPeriod(year, month), s.precision); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	journalPath := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(journalPath), 0o755); err != nil {
		return "", fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(journalPath); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(journalPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return "", fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendEntries(f, []model.JournalEntry{entry}); err != nil {
		return "", fmt.Errorf("appending entry: %w", err)
	}

	return entryID, nil
}

// AddDoubleParams holds parameters for a two-line entry.
type AddDoubleParams struct {
	Date          time.Time
	Description   string
	Reference     string
	DebitAccount  string
	CreditAccount string
	Amount        decimal.Decimal
	Status        model.EntryStatus
}

// AddDouble creates a balanced two-line entry (debit then credit).
func (s *Service) AddDouble(params AddDoubleParams) (string, error) {
	return s.Add(AddParams{
		Date:        params.Date,
		Description: params.Description,
		Reference:   params.Reference,
		Status:      params.Status,
		Lines: []LineParams{
			{AccountCode: params.DebitAccount, Side: model.SideDebit, Amount: params.Amount},
			{AccountCode: params.CreditAccount, Side: model.SideCredit, Amount: params.Amount},
		},
	})
}

// SetStatus rewrites the month's journal with the entry moved to status.
// Cancelled entries cannot change status again.
func (s *Service) SetStatus(entryID string, status model.EntryStatus) error {
	year, month, _, err := id.ParseEntryID(entryID)
	if err != nil {
		return err
	}
	entries, err := s.ReadMonth(year, month)
	if err != nil {
		return err
	}

	found := false
	for i := range entries {
		if entries[i].ID != entryID {
			continue
		}
		if entries[i].Status == model.EntryCancelled {
			return fmt.Errorf("entry %s is cancelled", entryID)
		}
		if status.Posted() {
			if err := CheckBalance(entries[i]); err != nil {
				return err
			}
		}
		entries[i].Status = status
		found = true
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}

	path := s.monthPath(year, month)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := WriteEntries(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// ReadMonth reads all entries for a given year/month.
func (s *Service) ReadMonth(year, month int) ([]model.JournalEntry, error) {
	return readFile(s.monthPath(year, month))
}

// ReadAll reads every month's journal, ordered by entry date then ID.
func (s *Service) ReadAll() ([]model.JournalEntry, error) {
	root := filepath.Join(s.repoRoot, Dir)
	var all []model.JournalEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if errors.Is(err, fs.ErrNotExist) && path == root {
			return filepath.SkipDir
		}
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "journal.csv" {
			return nil
		}
		entries, err := readFile(path)
		if err != nil {
			return err
		}
		all = append(all, entries...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking journal: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// NextEntrySeq returns the next available sequence number for a month.
func (s *Service) NextEntrySeq(year, month int) (int, error) {
	entries, err := s.ReadMonth(year, month)
	if err != nil {
		return 0, err
	}
	return nextSeq(entries), nil
}

func nextSeq(entries []model.JournalEntry) int {
	maxSeq := 0
	for _, e := range entries {
		_, _, seq, err := id.ParseEntryID(e.ID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

func readFile(path string) ([]model.JournalEntry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return entries, nil
}

func monthPeriod(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.repoRoot, Dir, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
