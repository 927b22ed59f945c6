package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/coa/internal/mapping"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/statement"
)

var generatedAt = time.Date(2026, 1, 20, 8, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "statements.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(id, period string, typ model.StatementType) *statement.GeneratedStatement {
	return &statement.GeneratedStatement{
		ID:       id,
		EntityID: "ONG-001",
		Period:   period,
		Scope:    mapping.Scope{Country: "BF", Standard: "SYCEBNL", System: model.SystemNormal, Statement: typ},
		AsOf:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Currency: "XOF",
		Basis:    mapping.BasisClosing,
		Lines: []statement.Line{
			{
				Code: "BD", Label: "Trésorerie actif", Order: 90, Level: 3, Sign: model.SideDebit,
				Amount:   decimal.RequireFromString("800000.5"),
				Accounts: []mapping.Contribution{{AccountCode: "521000", AccountName: "Banque", Amount: decimal.RequireFromString("800000.5")}},
			},
			{
				Code: "TOTAL_ASSETS", Label: "Total actif", Order: 110, Level: 1, Total: true, Sign: model.SideDebit,
				Amount:     decimal.RequireFromString("800000.5"),
				Components: []mapping.Component{{Code: "BD"}},
			},
		},
		Totals:        statement.Totals{TotalAssets: decimal.RequireFromString("800000.5")},
		Equilibre:     true,
		EquilibreRule: "TOTAL_ASSETS == TOTAL_LIABILITIES + TOTAL_EQUITY",
		Status:        model.StatementDraft,
		GeneratedAt:   generatedAt,
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statements.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sample("s1", "2025", model.StatementBilan)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Get(context.Background(), "s1")
	assert.NoError(t, err, "migrations are not reapplied")
}

func TestSaveGet_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	want := sample("s1", "2025", model.StatementBilan)
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want.Scope, got.Scope)
	assert.Equal(t, mapping.BasisClosing, got.Basis)
	assert.True(t, want.AsOf.Equal(got.AsOf))
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].Amount.Equal(want.Lines[0].Amount))
	assert.Equal(t, "521000", got.Lines[0].Accounts[0].AccountCode)
	assert.Equal(t, []mapping.Component{{Code: "BD"}}, got.Lines[1].Components)
	assert.True(t, got.Totals.TotalAssets.Equal(want.Totals.TotalAssets))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrStatementNotFound)
}

func TestLifecycleHistory(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	stmt := sample("s1", "2025", model.StatementBilan)
	require.NoError(t, s.Save(ctx, stmt))

	// Regenerating a draft replaces it without a transition.
	stmt.Lines[0].Label = "Trésorerie"
	require.NoError(t, s.Save(ctx, stmt))

	validatedAt := generatedAt.Add(24 * time.Hour)
	require.NoError(t, stmt.MarkValid(validatedAt))
	require.NoError(t, s.Save(ctx, stmt))

	closedAt := validatedAt.Add(24 * time.Hour)
	require.NoError(t, stmt.Close(closedAt))
	require.NoError(t, s.Save(ctx, stmt))

	hist, err := s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, model.StatementStatus(""), hist[0].From)
	assert.Equal(t, model.StatementDraft, hist[0].To)
	assert.Equal(t, model.StatementValide, hist[1].To)
	assert.True(t, hist[1].At.Equal(validatedAt))
	assert.Equal(t, model.StatementValide, hist[2].From)
	assert.Equal(t, model.StatementCloture, hist[2].To)
	assert.True(t, hist[2].At.Equal(closedAt))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatementCloture, got.Status)
	assert.Equal(t, "Trésorerie", got.Lines[0].Label)

	assert.ErrorIs(t, s.Save(ctx, stmt), statement.ErrStatementClosed)
	assert.ErrorIs(t, s.Delete(ctx, "s1"), statement.ErrStatementClosed)
}

func TestClosedRowsAreImmutable(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	stmt := sample("s1", "2025", model.StatementBilan)
	stmt.Status = model.StatementCloture
	require.NoError(t, s.Save(ctx, stmt))

	_, err := s.writer.ExecContext(ctx, `UPDATE statements SET status = 'DRAFT' WHERE id = 's1'`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement is closed")
}

func TestList(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sample("b25", "2025", model.StatementBilan)))
	require.NoError(t, s.Save(ctx, sample("c25", "2025", model.StatementCompteResultat)))
	require.NoError(t, s.Save(ctx, sample("b24", "2024", model.StatementBilan)))

	ids := func(stmts []*statement.GeneratedStatement) []string {
		out := make([]string, len(stmts))
		for i, st := range stmts {
			out[i] = st.ID
		}
		return out
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b24", "b25", "c25"}, ids(all))

	period, err := s.List(ctx, Filter{EntityID: "ONG-001", Period: "2025"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b25", "c25"}, ids(period))

	bilans, err := s.List(ctx, Filter{Type: model.StatementBilan, Status: model.StatementDraft})
	require.NoError(t, err)
	assert.Equal(t, []string{"b24", "b25"}, ids(bilans))

	none, err := s.List(ctx, Filter{Status: model.StatementValide})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sample("s1", "2025", model.StatementBilan)))

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrStatementNotFound)
	hist, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, hist)

	assert.ErrorIs(t, s.Delete(ctx, "s1"), ErrStatementNotFound)
}
