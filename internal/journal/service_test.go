package journal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/coa/internal/model"
)

func TestAddDouble_NewMonth(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts("521000", "706000"), 0)

	entryID, err := svc.AddDouble(AddDoubleParams{
		Date:          date(2025, 1, 15),
		Description:   "Prestation atelier",
		DebitAccount:  "521000",
		CreditAccount: "706000",
		Amount:        dec("40000"),
		Status:        model.EntryPosted,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-001", entryID)

	// Verify file was created.
	path := filepath.Join(dir, "journal", "2025", "01", "journal.csv")
	_, err = os.Stat(path)
	require.NoError(t, err)

	entries, err := svc.ReadMonth(2025, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, model.EntryPosted, e.Status)
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "2025-01-001a", e.Lines[0].ID)
	assert.Equal(t, "Prestation atelier", e.Lines[1].Description)
	assert.True(t, e.Lines[0].Debit().Equal(dec("40000")))
	assert.True(t, e.Lines[1].Credit().Equal(dec("40000")))
}

func TestAdd_ExistingMonthAndDefaultStatus(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts("661000", "431000", "422000", "521000", "706000"), 0)

	_, err := svc.AddDouble(AddDoubleParams{
		Date: date(2025, 1, 10), DebitAccount: "521000", CreditAccount: "706000", Amount: dec("10"),
	})
	require.NoError(t, err)

	entryID, err := svc.Add(AddParams{
		Date:        date(2025, 1, 31),
		Description: "Paie janvier",
		Lines: []LineParams{
			{AccountCode: "661000", Side: model.SideDebit, Amount: dec("750")},
			{AccountCode: "431000", Side: model.SideCredit, Amount: dec("50"), Description: "CNPS"},
			{AccountCode: "422000", Side: model.SideCredit, Amount: dec("700")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-002", entryID)

	entries, err := svc.ReadMonth(2025, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.EntryDraft, entries[0].Status, "status defaults to draft")
	require.Len(t, entries[1].Lines, 3)
	assert.Equal(t, "CNPS", entries[1].Lines[1].Description)
	assert.Equal(t, "2025-01-002c", entries[1].Lines[2].ID)
}

func TestAdd_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts("521000"), 0)

	tests := []struct {
		name   string
		params AddParams
		want   string
	}{
		{
			name: "unknown account",
			params: AddParams{Date: date(2025, 1, 15), Lines: []LineParams{
				{AccountCode: "521000", Side: model.SideDebit, Amount: dec("5")},
				{AccountCode: "706000", Side: model.SideCredit, Amount: dec("5")},
			}},
			want: "unknown account 706000",
		},
		{
			name: "unbalanced",
			params: AddParams{Date: date(2025, 1, 15), Lines: []LineParams{
				{AccountCode: "521000", Side: model.SideDebit, Amount: dec("5")},
				{AccountCode: "521000", Side: model.SideCredit, Amount: dec("4")},
			}},
			want: "debits (5) != credits (4)",
		},
		{
			name: "decimals beyond currency precision",
			params: AddParams{Date: date(2025, 1, 15), Lines: []LineParams{
				{AccountCode: "521000", Side: model.SideDebit, Amount: dec("5.5")},
				{AccountCode: "521000", Side: model.SideCredit, Amount: dec("5.5")},
			}},
			want: "more than 0 decimal places",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(tt.params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	// Verify nothing was written.
	entries, err := svc.ReadMonth(2025, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSetStatus(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts("521000", "706000"), 2)

	entryID, err := svc.AddDouble(AddDoubleParams{
		Date: date(2025, 4, 2), DebitAccount: "521000", CreditAccount: "706000", Amount: dec("12.34"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(entryID, model.EntryPosted))
	entries, err := svc.ReadMonth(2025, 4)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.EntryPosted, entries[0].Status)

	require.NoError(t, svc.SetStatus(entryID, model.EntryCancelled))
	err = svc.SetStatus(entryID, model.EntryPosted)
	assert.ErrorContains(t, err, "cancelled")

	err = svc.SetStatus("2025-04-009", model.EntryPosted)
	assert.True(t, errors.Is(err, ErrEntryNotFound))

	_, err = os.Stat(filepath.Join(dir, "journal", "2025", "04", "journal.csv.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadAll(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts("521000", "706000"), 0)

	all, err := svc.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, all, "missing journal dir is not an error")

	for _, d := range []int{3, 1, 2} {
		_, err := svc.AddDouble(AddDoubleParams{
			Date: date(2025, d, 5), DebitAccount: "521000", CreditAccount: "706000", Amount: dec("1"),
		})
		require.NoError(t, err)
	}

	all, err = svc.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-01-001", all[0].ID)
	assert.Equal(t, "2025-02-001", all[1].ID)
	assert.Equal(t, "2025-03-001", all[2].ID)
}

func TestNextEntrySeq(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts("521000", "706000"), 0)

	// Empty month: seq should be 1.
	seq, err := svc.NextEntrySeq(2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	_, err = svc.AddDouble(AddDoubleParams{
		Date: date(2025, 1, 1), DebitAccount: "521000", CreditAccount: "706000", Amount: dec("1"),
	})
	require.NoError(t, err)

	seq, err = svc.NextEntrySeq(2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)
}
