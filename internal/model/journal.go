package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the debit or credit side of a posting, and the normal sign of a statement line.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// ParseSide accepts DEBIT or CREDIT, case-insensitively.
func ParseSide(s string) (Side, error) {
	switch v := Side(strings.ToUpper(strings.TrimSpace(s))); v {
	case SideDebit, SideCredit:
		return v, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryDraft     EntryStatus = "DRAFT"
	EntryValidated EntryStatus = "VALIDATED"
	EntryPosted    EntryStatus = "POSTED"
	EntryCancelled EntryStatus = "CANCELLED"
)

// ParseEntryStatus accepts the canonical status names, case-insensitively.
func ParseEntryStatus(s string) (EntryStatus, error) {
	switch v := EntryStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case EntryDraft, EntryValidated, EntryPosted, EntryCancelled:
		return v, nil
	default:
		return "", fmt.Errorf("unknown entry status %q", s)
	}
}

// Posted reports whether entries in this state feed balances and statements.
func (s EntryStatus) Posted() bool {
	return s == EntryValidated || s == EntryPosted
}

// EntryLine is a single row in journal.csv (one side of a double-entry).
type EntryLine struct {
	ID          string // "YYYY-MM-NNNx" where x = a,b,c...
	AccountCode string
	Side        Side
	Amount      decimal.Decimal
	Description string
}

// Debit returns the amount when the line is on the debit side, zero otherwise.
func (l EntryLine) Debit() decimal.Decimal {
	if l.Side == SideDebit {
		return l.Amount
	}
	return decimal.Zero
}

// Credit returns the amount when the line is on the credit side, zero otherwise.
func (l EntryLine) Credit() decimal.Decimal {
	if l.Side == SideCredit {
		return l.Amount
	}
	return decimal.Zero
}

// JournalEntry groups the lines of one balanced posting.
type JournalEntry struct {
	ID          string // "YYYY-MM-NNN"
	Date        time.Time
	Description string
	Reference   string
	Status      EntryStatus
	Lines       []EntryLine
}

// Totals returns the debit and credit sums of the entry.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit())
		credit = credit.Add(l.Credit())
	}
	return debit, credit
}
