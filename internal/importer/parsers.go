package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/model"
)

// BalanceParser reads comma-separated trial balances with a header row:
// code,name,debit,credit. Amounts use a dot as decimal separator.
type BalanceParser struct{}

const (
	balanceNumFields = 4
	balanceColCode   = 0
	balanceColName   = 1
	balanceColDebit  = 2
	balanceColCredit = 3
)

// Format returns the parser name.
func (p *BalanceParser) Format() string { return "balance" }

// Parse reads a trial balance and returns its rows.
func (p *BalanceParser) Parse(r io.Reader) ([]model.TrialBalanceRow, error) {
	return parseRows(r, ',', func(s string) string { return s })
}

// SemicolonParser reads the semicolon-separated exports of French-language
// accounting packages: Compte;Intitulé;Débit;Crédit, with a decimal comma
// and spaces as thousands separators.
type SemicolonParser struct{}

// Format returns the parser name.
func (p *SemicolonParser) Format() string { return "semicolon" }

// Parse reads a trial balance and returns its rows.
func (p *SemicolonParser) Parse(r io.Reader) ([]model.TrialBalanceRow, error) {
	return parseRows(r, ';', frenchAmount)
}

func parseRows(r io.Reader, sep rune, normalize func(string) string) ([]model.TrialBalanceRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = balanceNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trial balance: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]model.TrialBalanceRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRow(rec, normalize)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string, normalize func(string) string) (model.TrialBalanceRow, error) {
	code := strings.TrimSpace(rec[balanceColCode])
	if code == "" {
		return model.TrialBalanceRow{}, fmt.Errorf("missing account code")
	}
	debit, err := parseAmount(normalize(rec[balanceColDebit]))
	if err != nil {
		return model.TrialBalanceRow{}, fmt.Errorf("debit of %s: %w", code, err)
	}
	credit, err := parseAmount(normalize(rec[balanceColCredit]))
	if err != nil {
		return model.TrialBalanceRow{}, fmt.Errorf("credit of %s: %w", code, err)
	}
	return model.TrialBalanceRow{
		AccountCode: code,
		Name:        strings.TrimSpace(rec[balanceColName]),
		Debit:       debit,
		Credit:      credit,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}

// frenchAmount turns "1 234 567,50" into "1234567.50".
func frenchAmount(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
}
