package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/id"
	"github.com/cleared-dev/coa/internal/model"
)

// DoubleEntryMismatch is returned when an entry's debits and credits differ.
type DoubleEntryMismatch struct {
	EntryID string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

func (e *DoubleEntryMismatch) Error() string {
	return fmt.Sprintf("entry %s: debits (%s) != credits (%s)", e.EntryID, e.Debit, e.Credit)
}

// CheckBalance returns a *DoubleEntryMismatch unless the entry balances exactly.
func CheckBalance(e model.JournalEntry) error {
	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return &DoubleEntryMismatch{EntryID: e.ID, Debit: debit, Credit: credit}
	}
	return nil
}

// Check names the rule an entry violated.
type Check string

const (
	CheckBalanced  Check = "balanced"
	CheckLines     Check = "lines"
	CheckAmount    Check = "amount"
	CheckPrecision Check = "precision"
	CheckAccount   Check = "account"
	CheckPostable  Check = "postable"
	CheckPeriod    Check = "period"
	CheckID        Check = "id"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Check       Check
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Check, e.EntryID, e.Description)
}

// AccountChecker tests account codes against the chart of accounts.
type AccountChecker interface {
	Exists(code string) bool
	IsPostable(code string) bool
}

// Period bounds entry dates, inclusive. A zero bound is open.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

// ValidateEntries checks every non-cancelled entry and returns all violations
// found. precision is the number of decimal places amounts may carry.
func ValidateEntries(entries []model.JournalEntry, accounts AccountChecker, period Period, precision int32) []ValidationError {
	var errs []ValidationError
	add := func(c Check, entryID, format string, args ...any) {
		errs = append(errs, ValidationError{Check: c, EntryID: entryID, Description: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Status == model.EntryCancelled {
			continue
		}

		if _, _, _, err := id.ParseEntryID(e.ID); err != nil {
			add(CheckID, e.ID, "invalid entry ID: %v", err)
		} else if seen[e.ID] {
			add(CheckID, e.ID, "duplicate entry ID")
		}
		seen[e.ID] = true

		if debit, credit := e.Totals(); !debit.Equal(credit) {
			add(CheckBalanced, e.ID, "debits (%s) != credits (%s)", debit, credit)
		}
		if len(e.Lines) < 2 {
			add(CheckLines, e.ID, "entry has %d line(s), need at least 2", len(e.Lines))
		}
		if !period.Contains(e.Date) {
			add(CheckPeriod, e.ID, "date %s outside %s..%s", e.Date.Format(dateFormat), formatBound(period.Start), formatBound(period.End))
		}

		for _, l := range e.Lines {
			if !l.Amount.IsPositive() {
				add(CheckAmount, l.ID, "amount %s must be positive", l.Amount)
			}
			if !l.Amount.Equal(l.Amount.Truncate(precision)) {
				add(CheckPrecision, l.ID, "amount %s has more than %d decimal places", l.Amount, precision)
			}
			switch {
			case !accounts.Exists(l.AccountCode):
				add(CheckAccount, l.ID, "unknown account %s", l.AccountCode)
			case !accounts.IsPostable(l.AccountCode):
				add(CheckPostable, l.ID, "account %s is a group or inactive account", l.AccountCode)
			}
		}
	}
	return errs
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format(dateFormat)
}
