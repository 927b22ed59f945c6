// Package export writes generated statements as CSV, XLSX or JSON. Amounts
// are rounded to the reporting currency here and nowhere earlier.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/coa/internal/statement"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat rejects anything outside the supported formats.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Write exports stmt to w in the given format.
func Write(w io.Writer, stmt *statement.GeneratedStatement, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, stmt)
	case FormatXLSX:
		return WriteXLSX(w, stmt)
	case FormatJSON:
		return WriteJSON(w, stmt)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// FileName returns the conventional file name of an export:
// <entity>_<period>_<type>_<id prefix>.<ext>.
func FileName(stmt *statement.GeneratedStatement, f Format) string {
	short := stmt.ID
	if len(short) > 8 {
		short = short[:8]
	}
	parts := []string{stmt.EntityID, stmt.Period, string(stmt.Type()), short}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_") + "." + string(f)
}

// WriteJSON writes the full statement, amounts at full precision.
func WriteJSON(w io.Writer, stmt *statement.GeneratedStatement) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stmt); err != nil {
		return fmt.Errorf("encoding statement %s: %w", stmt.ID, err)
	}
	return nil
}
