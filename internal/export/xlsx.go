package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/statement"
)

const (
	sheetAccounts = "Comptes"
	sheetNotes    = "Notes"
)

// WriteXLSX writes a workbook with the statement lines on a sheet named after
// the statement type, the per-account contributions on "Comptes" and the
// notes on "Notes".
func WriteXLSX(w io.Writer, stmt *statement.GeneratedStatement) error {
	cur, err := stmt.CurrencyDef()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := string(stmt.Type())
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	numFmt := amountFormat(cur)
	amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("creating amount style: %w", err)
	}
	total, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("creating total style: %w", err)
	}

	if err := writeRow(f, sheet, 1, []any{"Code", "Libellé", "Niveau", "Montant"}); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	for i, l := range stmt.Lines {
		row := i + 2
		label := strings.Repeat("  ", max(l.Level-1, 0)) + l.Label
		if err := writeRow(f, sheet, row, []any{l.Code, label, l.Level, cur.Round(l.Amount).InexactFloat64()}); err != nil {
			return err
		}
		style := amount
		if l.Total {
			style = total
		}
		cell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("styling line %s: %w", l.Code, err)
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 48); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := writeAccounts(f, stmt, cur, header, amount); err != nil {
		return err
	}
	if len(stmt.Notes) > 0 {
		if err := writeNotes(f, stmt, cur, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeAccounts(f *excelize.File, stmt *statement.GeneratedStatement, cur model.CurrencyDef, header, amount int) error {
	if _, err := f.NewSheet(sheetAccounts); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheetAccounts, err)
	}
	if err := writeRow(f, sheetAccounts, 1, []any{"Ligne", "Compte", "Intitulé", "Montant"}); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetAccounts, 1, 1, header); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	row := 2
	for _, l := range stmt.Lines {
		for _, c := range l.Accounts {
			if err := writeRow(f, sheetAccounts, row, []any{l.Code, c.AccountCode, c.AccountName, cur.Round(c.Amount).InexactFloat64()}); err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(4, row)
			if err := f.SetCellStyle(sheetAccounts, cell, cell, amount); err != nil {
				return fmt.Errorf("styling account %s: %w", c.AccountCode, err)
			}
			row++
		}
	}
	return nil
}

func writeNotes(f *excelize.File, stmt *statement.GeneratedStatement, cur model.CurrencyDef, header int) error {
	if _, err := f.NewSheet(sheetNotes); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheetNotes, err)
	}
	if err := writeRow(f, sheetNotes, 1, []any{"Ordre", "Code", "Titre", "Montant", "Contenu"}); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetNotes, 1, 1, header); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	for i, n := range stmt.Notes {
		var figure any
		if n.Accounts > 0 {
			figure = cur.Round(n.Amount).InexactFloat64()
		}
		if err := writeRow(f, sheetNotes, i+2, []any{n.Order, n.Code, n.Title, figure, n.Content}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func amountFormat(cur model.CurrencyDef) string {
	if cur.Exponent <= 0 {
		return "#,##0"
	}
	return "#,##0." + strings.Repeat("0", int(cur.Exponent))
}
