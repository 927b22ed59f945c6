package statement

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/journal"
	"github.com/cleared-dev/coa/internal/mapping"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
)

var fixedNow = time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("stmt-%d", n)
	}
}

func newGenerator(t *testing.T, logger *zap.Logger) *Generator {
	t.Helper()
	catalog, err := standards.Default()
	require.NoError(t, err)
	book, err := mapping.DefaultBook()
	require.NoError(t, err)
	return NewGenerator(catalog, mapping.NewEngine(book, nil), logger,
		WithClock(func() time.Time { return fixedNow }),
		WithIDs(sequentialIDs()),
	)
}

func posted(entryID, debit, credit, amount string) model.JournalEntry {
	return model.JournalEntry{
		ID:          entryID,
		Date:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: entryID,
		Status:      model.EntryPosted,
		Lines: []model.EntryLine{
			{ID: entryID + "a", AccountCode: debit, Side: model.SideDebit, Amount: dec(amount)},
			{ID: entryID + "b", AccountCode: credit, Side: model.SideCredit, Amount: dec(amount)},
		},
	}
}

// ngoYear is a year of activity for a small association: two resources, two
// expenses and an equipment purchase.
func ngoYear() []model.JournalEntry {
	return []model.JournalEntry{
		posted("2025-03-001", "521000", "750100", "1000000"),
		posted("2025-03-002", "521000", "740100", "500000"),
		posted("2025-03-003", "604000", "401000", "200000"),
		posted("2025-03-004", "661000", "521000", "300000"),
		posted("2025-03-005", "244000", "521000", "400000"),
	}
}

func ngoInput(standard string, system model.SystemType) Input {
	return Input{
		EntityID:    "ASSO-DKR-001",
		Period:      "2025",
		PeriodStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AsOf:        time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Country:     "SN",
		Standard:    standard,
		System:      system,
		Currency:    "XOF",
		Accounts:    accounts.DefaultChart(standard),
		Entries:     ngoYear(),
	}
}

func lineAmount(t *testing.T, stmt *GeneratedStatement, code string) decimal.Decimal {
	t.Helper()
	l, ok := stmt.Line(code)
	require.True(t, ok, "line %s missing", code)
	return l.Amount
}

func TestGenerate_BilanBalances(t *testing.T) {
	g := newGenerator(t, nil)

	stmt, err := g.Generate(context.Background(), ngoInput("SYCEBNL", model.SystemNormal), model.StatementBilan)
	require.NoError(t, err)

	assert.Equal(t, "stmt-1", stmt.ID)
	assert.Equal(t, model.StatementDraft, stmt.Status)
	assert.Equal(t, fixedNow, stmt.GeneratedAt)
	assert.Equal(t, mapping.BasisClosing, stmt.Basis)
	assert.True(t, stmt.Equilibre, stmt.EquilibreRule)
	assert.Empty(t, stmt.Warnings)
	assert.Empty(t, stmt.Unmapped)

	assert.True(t, stmt.Totals.TotalAssets.Equal(dec("1200000")), "total assets %s", stmt.Totals.TotalAssets)
	assert.True(t, stmt.Totals.TotalEquity.Equal(dec("1000000")), "total equity %s", stmt.Totals.TotalEquity)
	assert.True(t, stmt.Totals.TotalLiabilities.Equal(dec("200000")), "total liabilities %s", stmt.Totals.TotalLiabilities)
	assert.True(t, lineAmount(t, stmt, "BD").Equal(dec("800000")))
	assert.True(t, lineAmount(t, stmt, "AB").Equal(dec("400000")))
	assert.True(t, lineAmount(t, stmt, "CD").Equal(dec("1000000")), "the year's result sits in equity")
	assert.True(t, lineAmount(t, stmt, "TOTAL_LIABILITIES_EQUITY").Equal(dec("1200000")))

	for i := 1; i < len(stmt.Lines); i++ {
		assert.Less(t, stmt.Lines[i-1].Order, stmt.Lines[i].Order)
	}
}

func TestGenerate_CompteResultat(t *testing.T) {
	g := newGenerator(t, nil)

	stmt, err := g.Generate(context.Background(), ngoInput("SYCEBNL", model.SystemNormal), model.StatementCompteResultat)
	require.NoError(t, err)

	assert.True(t, stmt.Equilibre, stmt.EquilibreRule)
	assert.True(t, stmt.Totals.TotalResources.Equal(dec("1500000")))
	assert.True(t, stmt.Totals.TotalExpenses.Equal(dec("500000")))
	assert.True(t, stmt.Totals.NetResult.Equal(dec("1000000")))
	assert.True(t, lineAmount(t, stmt, "RC").Equal(dec("1000000")))
}

func TestGenerate_TableauFluxUsesMovement(t *testing.T) {
	g := newGenerator(t, nil)
	in := ngoInput("SYCEBNL", model.SystemNormal)
	for i, a := range in.Accounts {
		switch a.Code {
		case "521000":
			in.Accounts[i].Opening = model.Balance{Debit: dec("5000000")}
		case "102000":
			in.Accounts[i].Opening = model.Balance{Credit: dec("5000000")}
		}
	}

	flux, err := g.Generate(context.Background(), in, model.StatementTableauFlux)
	require.NoError(t, err)
	assert.Equal(t, mapping.BasisMovement, flux.Basis)
	assert.True(t, flux.Equilibre, flux.EquilibreRule)
	assert.True(t, flux.Totals.NetCashFlow.Equal(dec("800000")), "net cash flow %s", flux.Totals.NetCashFlow)
	assert.True(t, flux.Totals.CashVariation.Equal(dec("800000")))
	assert.True(t, lineAmount(t, flux, "FB").Equal(dec("-400000")))

	bilan, err := g.Generate(context.Background(), in, model.StatementBilan)
	require.NoError(t, err)
	assert.True(t, bilan.Equilibre)
	assert.True(t, lineAmount(t, bilan, "BD").Equal(dec("5800000")), "the balance sheet reads closing balances")
}

func TestGenerate_UnmappedAccountBreaksEquilibre(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	g := newGenerator(t, zap.New(core))
	in := ngoInput("SYCEBNL", model.SystemNormal)
	in.Accounts = append(in.Accounts, model.Account{
		Code: "801000", Name: "Produits divers", Type: model.AccountTypeRevenue, Active: true,
	})
	in.Entries = append(in.Entries, posted("2025-03-006", "571000", "801000", "25000"))

	stmt, err := g.Generate(context.Background(), in, model.StatementCompteResultat)
	require.NoError(t, err)

	assert.False(t, stmt.Equilibre)
	require.Len(t, stmt.Unmapped, 1)
	assert.Equal(t, "801000", stmt.Unmapped[0].Code)
	assert.True(t, stmt.Unmapped[0].Net.Equal(dec("25000")))
	require.Len(t, stmt.Warnings, 1)
	assert.Equal(t, WarnUnmappedAccount, stmt.Warnings[0].Code)
	assert.Equal(t, "801000", stmt.Warnings[0].Subject)

	// An unmapped balance within materiality does not break the balance.
	in.Materiality = dec("25000")
	stmt, err = g.Generate(context.Background(), in, model.StatementCompteResultat)
	require.NoError(t, err)
	assert.True(t, stmt.Equilibre, stmt.EquilibreRule)

	entries := logs.FilterMessage("statement generated").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "SN/SYCEBNL/NORMAL/COMPTE_RESULTAT", entries[0].ContextMap()["scope"])
}

func TestGenerate_InactiveAccountKeepsItsBalance(t *testing.T) {
	g := newGenerator(t, nil)
	in := ngoInput("SYCEBNL", model.SystemNormal)
	in.Entries = in.Entries[:4]
	for i := range in.Accounts {
		switch in.Accounts[i].Code {
		case "244000":
			in.Accounts[i].Active = false
			in.Accounts[i].Opening = model.Balance{Debit: dec("400000")}
		case "102000":
			in.Accounts[i].Opening = model.Balance{Credit: dec("400000")}
		}
	}

	stmt, err := g.Generate(context.Background(), in, model.StatementBilan)
	require.NoError(t, err)

	assert.True(t, stmt.Equilibre, stmt.EquilibreRule)
	assert.True(t, lineAmount(t, stmt, "AB").Equal(dec("400000")))
	assert.True(t, stmt.Totals.TotalAssets.Equal(dec("1600000")), "total assets %s", stmt.Totals.TotalAssets)
	assert.Empty(t, stmt.Unmapped)
	require.Len(t, stmt.Warnings, 1)
	assert.Equal(t, WarnInactiveAccount, stmt.Warnings[0].Code)
	assert.Equal(t, "244000", stmt.Warnings[0].Subject)

	annexes, err := g.Generate(context.Background(), in, model.StatementAnnexes)
	require.NoError(t, err)
	for _, n := range annexes.Notes {
		if n.Code == "IMMOBILISATIONS" {
			assert.True(t, n.Amount.Equal(dec("400000")), "fixed assets note %s", n.Amount)
		}
	}

	// Posting to an inactive account is refused outright.
	in.Entries = ngoYear()
	_, err = g.Generate(context.Background(), in, model.StatementBilan)
	assert.ErrorContains(t, err, "account 244000 is inactive")
}

func TestGenerate_IgnoresEntriesBeforePeriodStart(t *testing.T) {
	g := newGenerator(t, nil)
	in := ngoInput("SYCEBNL", model.SystemNormal)
	prior := posted("2024-12-001", "521000", "750100", "250000")
	prior.Date = time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	in.Entries = append(in.Entries, prior)

	bilan, err := g.Generate(context.Background(), in, model.StatementBilan)
	require.NoError(t, err)
	assert.True(t, bilan.Equilibre, bilan.EquilibreRule)
	assert.True(t, bilan.Totals.TotalAssets.Equal(dec("1200000")), "total assets %s", bilan.Totals.TotalAssets)
	assert.True(t, lineAmount(t, bilan, "CD").Equal(dec("1000000")))

	cr, err := g.Generate(context.Background(), in, model.StatementCompteResultat)
	require.NoError(t, err)
	assert.True(t, cr.Totals.TotalResources.Equal(dec("1500000")), "total resources %s", cr.Totals.TotalResources)
}

func TestGenerate_MissingRequiredAccount(t *testing.T) {
	g := newGenerator(t, nil)
	in := ngoInput("SYSCOHADA", model.SystemNormal)

	bilan, err := g.Generate(context.Background(), in, model.StatementBilan)
	require.NoError(t, err)
	require.Len(t, bilan.Warnings, 1)
	assert.Equal(t, WarnMissingRequiredAccount, bilan.Warnings[0].Code)
	assert.Equal(t, "101", bilan.Warnings[0].Subject)
	assert.True(t, bilan.Equilibre, "a warning does not break the balance")

	cr, err := g.Generate(context.Background(), in, model.StatementCompteResultat)
	require.NoError(t, err)
	assert.Empty(t, cr.Warnings, "account 101 is outside the income statement perimeter")
}

func TestGenerate_Annexes(t *testing.T) {
	g := newGenerator(t, nil)
	catalog, err := standards.Default()
	require.NoError(t, err)
	std, err := catalog.Get("SYCEBNL")
	require.NoError(t, err)
	extra := len(std.FinancialStatements.Notes.NGOSpecificNotes)

	tests := []struct {
		system model.SystemType
		want   int
	}{
		{model.SystemNormal, 10},
		{model.SystemMinimal, 8},
	}
	for _, tt := range tests {
		t.Run(string(tt.system), func(t *testing.T) {
			stmt, err := g.Generate(context.Background(), ngoInput("SYCEBNL", tt.system), model.StatementAnnexes)
			require.NoError(t, err)

			assert.True(t, stmt.Equilibre)
			assert.Empty(t, stmt.Lines)
			require.Len(t, stmt.Notes, tt.want+extra)
			assert.Equal(t, NoteAccountingPolicies, stmt.Notes[0].Code)
			assert.Contains(t, stmt.Notes[0].Content, "SYCEBNL")
			assert.Equal(t, NoteSubsequentEvents, stmt.Notes[tt.want-1].Code)
			for i, n := range stmt.Notes {
				assert.Equal(t, i+1, n.Order)
			}
		})
	}
}

func TestGenerate_AnnexesFigures(t *testing.T) {
	g := newGenerator(t, nil)

	stmt, err := g.Generate(context.Background(), ngoInput("SYCEBNL", model.SystemNormal), model.StatementAnnexes)
	require.NoError(t, err)

	byCode := make(map[string]Note)
	for _, n := range stmt.Notes {
		byCode[n.Code] = n
	}
	assert.True(t, byCode["IMMOBILISATIONS"].Amount.Equal(dec("400000")))
	assert.True(t, byCode["PRODUITS"].Amount.Equal(dec("1500000")))
	assert.True(t, byCode["CHARGES"].Amount.Equal(dec("500000")))
}

func TestGenerate_Errors(t *testing.T) {
	g := newGenerator(t, nil)

	t.Run("statement not produced by system", func(t *testing.T) {
		_, err := g.Generate(context.Background(), ngoInput("SYCEBNL", model.SystemMinimal), model.StatementCompteResultat)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not produced")
	})

	t.Run("unknown standard", func(t *testing.T) {
		in := ngoInput("SYCEBNL", model.SystemNormal)
		in.Standard = "NOPE"
		_, err := g.Generate(context.Background(), in, model.StatementBilan)
		assert.Error(t, err)
	})

	t.Run("unknown currency", func(t *testing.T) {
		in := ngoInput("SYCEBNL", model.SystemNormal)
		in.Currency = "ABC"
		_, err := g.Generate(context.Background(), in, model.StatementBilan)
		assert.Error(t, err)
	})

	t.Run("unbalanced posted entry", func(t *testing.T) {
		in := ngoInput("SYCEBNL", model.SystemNormal)
		bad := posted("2025-03-009", "521000", "750100", "100")
		bad.Lines[1].Amount = dec("90")
		in.Entries = append(in.Entries, bad)

		_, err := g.Generate(context.Background(), in, model.StatementBilan)
		var mismatch *journal.DoubleEntryMismatch
		require.True(t, errors.As(err, &mismatch), "got %v", err)
		assert.Equal(t, "2025-03-009", mismatch.EntryID)
	})

	t.Run("broken hierarchy", func(t *testing.T) {
		in := ngoInput("SYCEBNL", model.SystemNormal)
		in.Accounts = append(in.Accounts, model.Account{Code: "9", Name: "Vide", Type: model.AccountTypeOffBalance, IsGroup: true, Active: true})
		_, err := g.Generate(context.Background(), in, model.StatementBilan)
		var herr *accounts.HierarchyError
		require.True(t, errors.As(err, &herr), "got %v", err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Generate(ctx, ngoInput("SYCEBNL", model.SystemNormal), model.StatementBilan)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerate_OrderIndependent(t *testing.T) {
	g := newGenerator(t, nil)
	base, err := g.Generate(context.Background(), ngoInput("SYCEBNL", model.SystemNormal), model.StatementBilan)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		in := ngoInput("SYCEBNL", model.SystemNormal)
		rng.Shuffle(len(in.Accounts), func(a, b int) { in.Accounts[a], in.Accounts[b] = in.Accounts[b], in.Accounts[a] })
		rng.Shuffle(len(in.Entries), func(a, b int) { in.Entries[a], in.Entries[b] = in.Entries[b], in.Entries[a] })

		got, err := g.Generate(context.Background(), in, model.StatementBilan)
		require.NoError(t, err)
		require.Len(t, got.Lines, len(base.Lines))
		for j := range base.Lines {
			assert.Equal(t, base.Lines[j].Code, got.Lines[j].Code)
			assert.True(t, base.Lines[j].Amount.Equal(got.Lines[j].Amount), "line %s", base.Lines[j].Code)
			assert.Equal(t, base.Lines[j].Accounts, got.Lines[j].Accounts)
		}
	}
}

func TestGenerate_International(t *testing.T) {
	g := newGenerator(t, nil)
	in := Input{
		EntityID: "NGO-UK-7",
		Period:   "2025",
		Country:  "GB",
		Standard: "IFRS",
		System:   model.SystemNormal,
		Currency: "GBP",
		Accounts: accounts.DefaultChart("IFRS"),
		Entries: []model.JournalEntry{
			posted("2025-03-001", "1000", "3000", "10000.00"),
			posted("2025-03-002", "1100", "4000", "2500.50"),
			posted("2025-03-003", "5300", "2000", "700.25"),
			posted("2025-03-004", "1500", "1000", "3000.00"),
		},
	}

	stmts, err := g.GenerateAll(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, stmts, 4)
	for _, s := range stmts {
		assert.True(t, s.Equilibre, "%s: %s", s.Type(), s.EquilibreRule)
	}
	assert.True(t, stmts[0].Totals.TotalAssets.Equal(dec("12500.50")))
	assert.True(t, stmts[1].Totals.NetResult.Equal(dec("1800.25")))
	assert.True(t, stmts[2].Totals.CashVariation.Equal(dec("7000.00")))
}

func TestGenerateAll(t *testing.T) {
	g := newGenerator(t, nil)

	stmts, err := g.GenerateAll(context.Background(), ngoInput("SYCEBNL", model.SystemMinimal))
	require.NoError(t, err)

	var types []model.StatementType
	var ids []string
	for _, s := range stmts {
		types = append(types, s.Type())
		ids = append(ids, s.ID)
		assert.True(t, s.Equilibre, "%s: %s", s.Type(), s.EquilibreRule)
	}
	assert.Equal(t, model.StatementsFor(model.SystemMinimal), types)
	assert.Equal(t, []string{"stmt-1", "stmt-2", "stmt-3", "stmt-4"}, ids)

	rd := stmts[1]
	assert.True(t, rd.Totals.NetResult.Equal(dec("1000000")))
	assert.True(t, lineAmount(t, stmts[2], "TOTAL_TRESORERIE").Equal(dec("800000")))
}

func TestGenerateAll_SameResultAsSequential(t *testing.T) {
	g := newGenerator(t, nil)
	in := ngoInput("SYCEBNL", model.SystemNormal)
	types := []model.StatementType{model.StatementTableauFlux, model.StatementBilan, model.StatementCompteResultat}

	all, err := g.GenerateAll(context.Background(), in, types...)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i, typ := range types {
		one, err := g.Generate(context.Background(), in, typ)
		require.NoError(t, err)
		assert.Equal(t, typ, all[i].Type())
		assert.Equal(t, one.Totals, all[i].Totals)
	}
}

func TestGenerateAll_FirstErrorWins(t *testing.T) {
	g := newGenerator(t, nil)
	_, err := g.GenerateAll(context.Background(), ngoInput("SYCEBNL", model.SystemNormal),
		model.StatementBilan, model.StatementSituationTresorerie)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SITUATION_TRESORERIE")
}

func TestRegenerate(t *testing.T) {
	g := newGenerator(t, nil)
	in := ngoInput("SYCEBNL", model.SystemNormal)

	first, err := g.Generate(context.Background(), in, model.StatementBilan)
	require.NoError(t, err)

	in.Entries = append(in.Entries, posted("2025-03-006", "571000", "756000", "15000"))
	again, err := g.Regenerate(context.Background(), first, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.Totals.TotalAssets.Equal(dec("1215000")))

	require.NoError(t, again.MarkValid(fixedNow))
	_, err = g.Regenerate(context.Background(), again, in)
	assert.ErrorIs(t, err, ErrNotDraft)

	require.NoError(t, again.Close(fixedNow))
	_, err = g.Regenerate(context.Background(), again, in)
	assert.ErrorIs(t, err, ErrStatementClosed)
}
