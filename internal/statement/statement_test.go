package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/coa/internal/model"
)

func TestLifecycle(t *testing.T) {
	stmt := &GeneratedStatement{ID: "s1", Status: model.StatementDraft}

	assert.ErrorIs(t, stmt.Close(fixedNow), ErrNotValidated, "a draft cannot be closed")

	require.NoError(t, stmt.MarkValid(fixedNow))
	assert.Equal(t, model.StatementValide, stmt.Status)
	assert.Equal(t, fixedNow, stmt.ValidatedAt)
	assert.ErrorIs(t, stmt.MarkValid(fixedNow), ErrNotDraft)

	require.NoError(t, stmt.Close(fixedNow))
	assert.Equal(t, model.StatementCloture, stmt.Status)
	assert.Equal(t, fixedNow, stmt.ClosedAt)

	assert.ErrorIs(t, stmt.MarkValid(fixedNow), ErrStatementClosed)
	assert.ErrorIs(t, stmt.Close(fixedNow), ErrStatementClosed)
	assert.Equal(t, model.StatementCloture, stmt.Status)
}

func TestLinePresented(t *testing.T) {
	xof, err := model.LookupCurrency("XOF")
	require.NoError(t, err)
	eur, err := model.LookupCurrency("eur")
	require.NoError(t, err)

	tests := []struct {
		amount string
		cur    model.CurrencyDef
		want   string
	}{
		{"1250000.4", xof, "1250000"},
		{"1250000.5", xof, "1250001"},
		{"-10.5", xof, "-11"},
		{"1234.565", eur, "1234.57"},
		{"12", eur, "12.00"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+"/"+tt.cur.Code, func(t *testing.T) {
			l := Line{Amount: dec(tt.amount)}
			assert.Equal(t, tt.want, l.Presented(tt.cur))
			assert.True(t, l.Amount.Equal(dec(tt.amount)), "presenting does not round the stored amount")
		})
	}
}

func TestStatementLookups(t *testing.T) {
	stmt := &GeneratedStatement{
		Currency: "EUR",
		Lines:    []Line{{Code: "AA", Amount: dec("1")}, {Code: "AB", Amount: dec("2")}},
	}
	stmt.Scope.Statement = model.StatementBilan

	assert.Equal(t, model.StatementBilan, stmt.Type())
	l, ok := stmt.Line("AB")
	require.True(t, ok)
	assert.True(t, l.Amount.Equal(dec("2")))
	_, ok = stmt.Line("ZZ")
	assert.False(t, ok)

	cur, err := stmt.CurrencyDef()
	require.NoError(t, err)
	assert.Equal(t, int32(2), cur.Exponent)
}

func TestNoteCodes(t *testing.T) {
	normal := NoteCodes(model.SystemNormal)
	minimal := NoteCodes(model.SystemMinimal)
	assert.Len(t, normal, 10)
	assert.Len(t, minimal, 8)
	for _, codes := range [][]string{normal, minimal} {
		assert.Equal(t, NoteAccountingPolicies, codes[0])
		assert.Contains(t, codes, NoteSubsequentEvents)
	}
	assert.Equal(t, "Fund restrictions", humanize("FUND_RESTRICTIONS"))
}
