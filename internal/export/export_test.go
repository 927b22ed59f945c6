package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/coa/internal/mapping"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/statement"
)

func sample(currency string) *statement.GeneratedStatement {
	return &statement.GeneratedStatement{
		ID:       "0f3c9a2e-5b1d-4c8e-9a7f-1d2e3f4a5b6c",
		EntityID: "ONG-001",
		Period:   "2025",
		Scope:    mapping.Scope{Country: "SN", Standard: "SYCEBNL", System: model.SystemNormal, Statement: model.StatementBilan},
		AsOf:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Currency: currency,
		Basis:    mapping.BasisClosing,
		Lines: []statement.Line{
			{
				Code: "BD", Label: "Trésorerie actif", Order: 90, Level: 3, Sign: model.SideDebit,
				Amount: decimal.RequireFromString("800000.6"),
				Accounts: []mapping.Contribution{
					{AccountCode: "521000", AccountName: "Banque", Amount: decimal.RequireFromString("750000.6")},
					{AccountCode: "571000", AccountName: "Caisse", Amount: decimal.RequireFromString("50000")},
				},
			},
			{
				Code: "TOTAL_ASSETS", Label: "Total actif", Order: 110, Level: 1, Total: true, Sign: model.SideDebit,
				Amount:     decimal.RequireFromString("800000.6"),
				Components: []mapping.Component{{Code: "BD"}},
			},
		},
		Notes: []statement.Note{
			{Code: "ACCOUNTING_POLICIES", Title: "Accounting policies", Order: 1},
			{Code: "CASH", Title: "Cash", Order: 2, Amount: decimal.RequireFromString("800000.6"), Accounts: 2},
		},
		Equilibre:   true,
		Status:      model.StatementDraft,
		GeneratedAt: time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, " XLSX ": FormatXLSX, "Json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	stmt := sample("XOF")
	assert.Equal(t, "ONG-001_2025_BILAN_0f3c9a2e.xlsx", FileName(stmt, FormatXLSX))

	stmt.EntityID = ""
	stmt.ID = "s1"
	assert.Equal(t, "2025_BILAN_s1.csv", FileName(stmt, FormatCSV))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample("XOF")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"section", "code", "label", "level", "total", "amount"}, records[0])
	assert.Equal(t, []string{"line", "BD", "Trésorerie actif", "3", "false", "800001"}, records[1])
	assert.Equal(t, []string{"line", "TOTAL_ASSETS", "Total actif", "1", "true", "800001"}, records[2])
	assert.Equal(t, []string{"note", "ACCOUNTING_POLICIES", "Accounting policies", "1", "false", ""}, records[3])
	assert.Equal(t, []string{"note", "CASH", "Cash", "2", "false", "800001"}, records[4])
}

func TestWriteCSV_MinorUnits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample("EUR")))
	assert.Contains(t, buf.String(), "line,BD,Trésorerie actif,3,false,800000.60\n")
}

func TestWriteCSV_UnknownCurrency(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, sample("FCFA")))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample("XOF"), FormatJSON))

	var got statement.GeneratedStatement
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "ONG-001", got.EntityID)
	assert.True(t, got.Lines[0].Amount.Equal(decimal.RequireFromString("800000.6")), "full precision is kept")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample("XOF"), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"BILAN", "Comptes", "Notes"}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	rows, err := f.GetRows("BILAN", raw)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Code", "Libellé", "Niveau", "Montant"}, rows[0])
	assert.Equal(t, []string{"BD", "    Trésorerie actif", "3", "800001"}, rows[1])
	assert.Equal(t, []string{"TOTAL_ASSETS", "Total actif", "1", "800001"}, rows[2])

	accounts, err := f.GetRows("Comptes", raw)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, []string{"BD", "521000", "Banque", "750001"}, accounts[1])
	assert.Equal(t, []string{"BD", "571000", "Caisse", "50000"}, accounts[2])

	notes, err := f.GetRows("Notes", raw)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{"1", "ACCOUNTING_POLICIES", "Accounting policies"}, notes[1])
	assert.Equal(t, []string{"2", "CASH", "Cash", "800001"}, notes[2])
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, sample("XOF"), Format("pdf")))
}
