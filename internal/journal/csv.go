package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/id"
	"github.com/cleared-dev/coa/internal/model"
)

// Header is the CSV header for journal.csv.
const Header = "line_id,date,account_code,description,debit,credit,reference,status"

const (
	numFields  = 8
	dateFormat = "2006-01-02"
	colLineID  = 0
	colDate    = 1
	colAcct    = 2
	colDesc    = 3
	colDebit   = 4
	colCredit  = 5
	colRef     = 6
	colStatus  = 7
)

// row is one parsed journal.csv line before grouping into entries.
type row struct {
	line      model.EntryLine
	date      time.Time
	reference string
	status    model.EntryStatus
}

// ReadEntries reads journal.csv and groups consecutive lines sharing an entry
// ID into entries. Lines of one entry must agree on date, reference and status.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	index := make(map[string]int)
	for i, rec := range records[1:] {
		rw, err := unmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entryID := id.EntryGroup(rw.line.ID)
		n, seen := index[entryID]
		if !seen {
			index[entryID] = len(entries)
			entries = append(entries, model.JournalEntry{
				ID:          entryID,
				Date:        rw.date,
				Description: rw.line.Description,
				Reference:   rw.reference,
				Status:      rw.status,
				Lines:       []model.EntryLine{rw.line},
			})
			continue
		}
		e := &entries[n]
		switch {
		case !e.Date.Equal(rw.date):
			return nil, fmt.Errorf("row %d: entry %s: date %s differs from %s", i+2, entryID, rw.date.Format(dateFormat), e.Date.Format(dateFormat))
		case e.Status != rw.status:
			return nil, fmt.Errorf("row %d: entry %s: status %s differs from %s", i+2, entryID, rw.status, e.Status)
		case e.Reference != rw.reference:
			return nil, fmt.Errorf("row %d: entry %s: reference %q differs from %q", i+2, entryID, rw.reference, e.Reference)
		}
		e.Lines = append(e.Lines, rw.line)
	}
	return entries, nil
}

// WriteEntries writes entries to a journal.csv writer (including header).
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return writeRows(cw, entries)
}

// AppendEntries appends entries to an existing journal.csv writer (no header).
func AppendEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	return writeRows(cw, entries)
}

func writeRows(cw *csv.Writer, entries []model.JournalEntry) error {
	for _, e := range entries {
		for _, l := range e.Lines {
			if err := cw.Write(MarshalLine(e, l)); err != nil {
				return fmt.Errorf("writing line %s: %w", l.ID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts one line of an entry to a CSV row.
func MarshalLine(e model.JournalEntry, l model.EntryLine) []string {
	row := make([]string, numFields)
	row[colLineID] = l.ID
	row[colDate] = e.Date.Format(dateFormat)
	row[colAcct] = l.AccountCode
	row[colDesc] = l.Description
	if l.Side == model.SideDebit {
		row[colDebit] = l.Amount.String()
	} else {
		row[colCredit] = l.Amount.String()
	}
	row[colRef] = e.Reference
	row[colStatus] = string(e.Status)
	return row
}

func unmarshalRow(record []string) (row, error) {
	if len(record) != numFields {
		return row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	lineID := strings.TrimSpace(record[colLineID])
	if _, _, _, err := id.ParseEntryID(lineID); err != nil {
		return row{}, err
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	code := strings.TrimSpace(record[colAcct])
	if code == "" {
		return row{}, fmt.Errorf("line %s: empty account code", lineID)
	}

	debitStr := strings.TrimSpace(record[colDebit])
	creditStr := strings.TrimSpace(record[colCredit])
	var side model.Side
	var amountStr string
	switch {
	case debitStr != "" && creditStr == "":
		side, amountStr = model.SideDebit, debitStr
	case creditStr != "" && debitStr == "":
		side, amountStr = model.SideCredit, creditStr
	default:
		return row{}, fmt.Errorf("line %s must have exactly one of debit or credit", lineID)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return row{}, fmt.Errorf("parsing %s amount %q: %w", strings.ToLower(string(side)), amountStr, err)
	}

	status := model.EntryPosted
	if s := strings.TrimSpace(record[colStatus]); s != "" {
		status, err = model.ParseEntryStatus(s)
		if err != nil {
			return row{}, fmt.Errorf("line %s: %w", lineID, err)
		}
	}

	return row{
		line: model.EntryLine{
			ID:          lineID,
			AccountCode: code,
			Side:        side,
			Amount:      amount,
			Description: record[colDesc],
		},
		date:      date,
		reference: record[colRef],
		status:    status,
	}, nil
}
