package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/coa/internal/model"
)

var testTime = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:   testTime,
		Actor:       "comptable",
		Action:      ActionGenerated,
		StatementID: "6f1c1b0e-4a55-4bb5-9d8a-0c7e6f0f2b11",
		Status:      model.StatementDraft,
		Details:     "BILAN SYCEBNL/NORMAL, equilibre=true",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, []Entry{testEntry()})
	require.NoError(t, err)

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, ActionGenerated, entries[0].Action)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Action = ActionApproved
	e2.Status = model.StatementValide
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionGenerated, entries[0].Action)
	assert.Equal(t, ActionApproved, entries[1].Action)
	assert.Equal(t, model.StatementValide, entries[1].Status)
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	original.Details = "exported, with \"quotes\" and commas"
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, original, entries[0])
}

func TestForStatement(t *testing.T) {
	dir := t.TempDir()
	other := testEntry()
	other.StatementID = "other"
	closed := testEntry()
	closed.Action = ActionClosed
	closed.Status = model.StatementCloture
	require.NoError(t, Append(dir, []Entry{testEntry(), other, closed}))

	got, err := ForStatement(dir, testEntry().StatementID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ActionClosed, got[1].Action)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "audit-log.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 6 fields")

	row := MarshalEntry(testEntry())
	row[colStatus] = "ARCHIVED"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)

	row = MarshalEntry(testEntry())
	row[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)
}

func TestTimestampFormat(t *testing.T) {
	row := MarshalEntry(testEntry())
	assert.Equal(t, "2026-01-15T10:30:00Z", row[colTimestamp])
}
