package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/coa/internal/statement"
)

// Header is the CSV header of a statement export.
const Header = "section,code,label,level,total,amount"

const (
	numFields  = 6
	colSection = 0
	colCode    = 1
	colLabel   = 2
	colLevel   = 3
	colTotal   = 4
	colAmount  = 5
)

const (
	sectionLine = "line"
	sectionNote = "note"
)

// WriteCSV writes one row per line, then one row per note. Amounts are
// rounded to the statement currency.
func WriteCSV(w io.Writer, stmt *statement.GeneratedStatement) error {
	cur, err := stmt.CurrencyDef()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, l := range stmt.Lines {
		row := make([]string, numFields)
		row[colSection] = sectionLine
		row[colCode] = l.Code
		row[colLabel] = l.Label
		row[colLevel] = strconv.Itoa(l.Level)
		row[colTotal] = strconv.FormatBool(l.Total)
		row[colAmount] = l.Presented(cur)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing line %s: %w", l.Code, err)
		}
	}

	for _, n := range stmt.Notes {
		row := make([]string, numFields)
		row[colSection] = sectionNote
		row[colCode] = n.Code
		row[colLabel] = n.Title
		row[colLevel] = strconv.Itoa(n.Order)
		row[colTotal] = "false"
		if n.Accounts > 0 {
			row[colAmount] = cur.Format(cur.Round(n.Amount))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing note %s: %w", n.Code, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
