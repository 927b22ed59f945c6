package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/model"
)

// Header is the CSV header for chart-of-accounts.csv.
var Header = []string{
	"code", "name", "type", "category", "parent_code", "level", "is_group",
	"opening_debit", "opening_credit", "current_debit", "current_credit",
	"closing_debit", "closing_credit", "active",
}

const (
	numFields    = 14
	colCode      = 0
	colName      = 1
	colType      = 2
	colCategory  = 3
	colParent    = 4
	colLevel     = 5
	colIsGroup   = 6
	colOpeningDr = 7
	colOpeningCr = 8
	colCurrentDr = 9
	colCurrentCr = 10
	colClosingDr = 11
	colClosingCr = 12
	colActive    = 13
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row. Zero amounts are left blank.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCategory] = acct.Category
	row[colParent] = acct.ParentCode
	row[colLevel] = strconv.Itoa(acct.Level)
	row[colIsGroup] = strconv.FormatBool(acct.IsGroup)
	row[colOpeningDr] = formatAmount(acct.Opening.Debit)
	row[colOpeningCr] = formatAmount(acct.Opening.Credit)
	row[colCurrentDr] = formatAmount(acct.Current.Debit)
	row[colCurrentCr] = formatAmount(acct.Current.Credit)
	row[colClosingDr] = formatAmount(acct.Closing.Debit)
	row[colClosingCr] = formatAmount(acct.Closing.Credit)
	row[colActive] = strconv.FormatBool(acct.Active)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colCode] == "" {
		return model.Account{}, fmt.Errorf("empty account code")
	}

	acctType, err := model.ParseAccountType(record[colType])
	if err != nil {
		return model.Account{}, fmt.Errorf("account %s: %w", record[colCode], err)
	}

	level, err := strconv.Atoi(record[colLevel])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing level %q: %w", record[colLevel], err)
	}

	isGroup, err := parseBool(record[colIsGroup], false)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing is_group %q: %w", record[colIsGroup], err)
	}
	active, err := parseBool(record[colActive], true)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
	}

	amounts := make([]decimal.Decimal, 6)
	for i, col := range []int{colOpeningDr, colOpeningCr, colCurrentDr, colCurrentCr, colClosingDr, colClosingCr} {
		amounts[i], err = parseAmount(record[col])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing %s %q: %w", Header[col], record[col], err)
		}
	}

	return model.Account{
		Code:       record[colCode],
		Name:       record[colName],
		Type:       acctType,
		Category:   record[colCategory],
		ParentCode: record[colParent],
		Level:      level,
		IsGroup:    isGroup,
		Opening:    model.Balance{Debit: amounts[0], Credit: amounts[1]},
		Current:    model.Balance{Debit: amounts[2], Credit: amounts[3]},
		Closing:    model.Balance{Debit: amounts[4], Credit: amounts[5]},
		Active:     active,
	}, nil
}

func formatAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}
