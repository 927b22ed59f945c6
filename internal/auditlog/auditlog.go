// Package auditlog keeps the append-only trail of statement lifecycle actions
// in logs/audit-log.csv.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/coa/internal/model"
)

// Action is a recorded lifecycle step.
type Action string

const (
	ActionGenerated   Action = "generated"
	ActionRegenerated Action = "regenerated"
	ActionValidated   Action = "validated"
	ActionApproved    Action = "approved"
	ActionClosed      Action = "closed"
	ActionExported    Action = "exported"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp   time.Time
	Actor       string
	Action      Action
	StatementID string
	Status      model.StatementStatus
	Details     string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,actor,action,statement_id,status,details"

const (
	numFields      = 6
	logDir         = "logs"
	logFile        = "logs/audit-log.csv"
	colTimestamp   = 0
	colActor       = 1
	colAction      = 2
	colStatementID = 3
	colStatus      = 4
	colDetails     = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = string(e.Action)
	row[colStatementID] = e.StatementID
	row[colStatus] = string(e.Status)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var status model.StatementStatus
	if record[colStatus] != "" {
		status, err = model.ParseStatementStatus(record[colStatus])
		if err != nil {
			return Entry{}, err
		}
	}

	return Entry{
		Timestamp:   ts,
		Actor:       record[colActor],
		Action:      Action(record[colAction]),
		StatementID: record[colStatementID],
		Status:      status,
		Details:     record[colDetails],
	}, nil
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// ForStatement returns the entries recorded for one statement, oldest first.
func ForStatement(root, statementID string) ([]Entry, error) {
	all, err := Read(root)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.StatementID == statementID {
			out = append(out, e)
		}
	}
	return out, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
