package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/coa/internal/auditlog"
)

// projectRunner runs coa against one project and fails the test on error.
func projectRunner(t *testing.T, dir string) func(args ...string) string {
	return func(args ...string) string {
		t.Helper()
		out, err := runCoa(t, append(args, "--dir", dir)...)
		require.NoError(t, err, out)
		return out
	}
}

// statementIDs maps statement types to IDs from a statement table.
func statementIDs(t *testing.T, out string) map[string]string {
	t.Helper()
	ids := make(map[string]string)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	require.True(t, strings.HasPrefix(lines[0], "ID"), out)
	for _, l := range lines[1:] {
		fields := strings.Fields(l)
		require.GreaterOrEqual(t, len(fields), 2, l)
		ids[fields[1]] = fields[0]
	}
	return ids
}

func recordYear(t *testing.T, run func(args ...string) string) {
	t.Helper()
	first := strings.TrimSpace(run("entries", "add", "--date", "2025-03-15",
		"--debit", "521000", "--credit", "750100", "--amount", "1000000", "--description", "Dons manuels"))
	second := strings.TrimSpace(run("entries", "add", "--date", "2025-03-20",
		"--debit", "604000", "--credit", "401000", "--amount", "200000", "--description", "Fournitures"))
	assert.Equal(t, "2025-03-001", first)
	assert.Equal(t, "2025-03-002", second)
	run("entries", "post", first, second)
}

func TestEntries(t *testing.T) {
	dir := initProject(t, "--country", "SN")
	run := projectRunner(t, dir)

	recordYear(t, run)
	assert.Contains(t, run("entries", "check"), "2 entries OK")

	tree := run("accounts", "tree", "--balances")
	assert.Contains(t, tree, "521000  Banque principale  [ASSET]  1000000")
	assert.Contains(t, tree, "401000  Fournisseurs  [LIABILITY]  200000")

	out, err := runCoa(t, "entries", "add", "--dir", dir, "--date", "2025-04-01",
		"--debit", "999999", "--credit", "521000", "--amount", "10")
	require.Error(t, err)
	assert.Contains(t, out, "999999")

	out, err = runCoa(t, "entries", "add", "--dir", dir, "--date", "2025-04-01",
		"--debit", "604000", "--credit", "521000", "--amount", "-10")
	require.Error(t, err)
	assert.Contains(t, out, "must be positive")
}

func TestStatementLifecycle(t *testing.T) {
	dir := initProject(t, "--country", "SN")
	run := projectRunner(t, dir)
	recordYear(t, run)

	ids := statementIDs(t, run("generate", "--all"))
	require.Len(t, ids, 4)
	for _, typ := range []string{"BILAN", "COMPTE_RESULTAT", "TABLEAU_FLUX", "ANNEXES"} {
		assert.NotEmpty(t, ids[typ], typ)
	}
	bilan := ids["BILAN"]

	assert.Contains(t, run("validate", bilan), bilan+" BILAN: valid")
	assert.Contains(t, run("statements", "list", "--status", "VALIDE"), bilan)

	out, err := runCoa(t, "regenerate", bilan, "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "not a draft")

	assert.Contains(t, run("close", bilan), bilan+" CLOTURE")

	csvPath := strings.TrimSpace(run("export", bilan, "--format", "csv"))
	assert.Equal(t, filepath.Join(dir, "exports", "ONG-001_2025_BILAN_"+bilan[:8]+".csv"), csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "section,code,label,level,total,amount\n"))

	xlsxPath := filepath.Join(t.TempDir(), "bilan.xlsx")
	run("export", bilan, "-o", xlsxPath)
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out, err = runCoa(t, "regenerate", bilan, "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "statement is closed")

	history := run("statements", "history", bilan)
	assert.Contains(t, history, "- -> DRAFT")
	assert.Contains(t, history, "DRAFT -> VALIDE")
	assert.Contains(t, history, "VALIDE -> CLOTURE")
	assert.Contains(t, history, "exported")
	assert.Contains(t, history, "by tester")

	trail, err := auditlog.ForStatement(dir, bilan)
	require.NoError(t, err)
	var actions []auditlog.Action
	for _, e := range trail {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []auditlog.Action{
		auditlog.ActionGenerated,
		auditlog.ActionValidated,
		auditlog.ActionApproved,
		auditlog.ActionClosed,
		auditlog.ActionExported,
		auditlog.ActionExported,
	}, actions)

	all := run("validate", "--all")
	assert.Contains(t, all, "3 statement(s): 3 valid, 0 invalid")

	listed := statementIDs(t, run("statements", "list", "--type", "BILAN"))
	assert.Equal(t, bilan, listed["BILAN"])
	assert.Empty(t, strings.TrimSpace(strings.SplitN(run("statements", "list", "--status", "DRAFT"), "\n", 2)[1]))
}

func TestGenerate_Types(t *testing.T) {
	dir := initProject(t, "--country", "BF", "--system", "MINIMAL")
	run := projectRunner(t, dir)
	recordYear(t, run)

	ids := statementIDs(t, run("generate", "--type", "SITUATION_TRESORERIE", "--type", "RECETTES_DEPENSES", "--as-of", "2025-06-30"))
	assert.Len(t, ids, 2)

	draft := ids["RECETTES_DEPENSES"]
	regenerated := statementIDs(t, run("regenerate", draft))
	assert.Equal(t, draft, regenerated["RECETTES_DEPENSES"], "regeneration keeps the ID")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no selection", []string{"generate"}, "--type or --all"},
		{"both", []string{"generate", "--all", "--type", "BILAN"}, "--type or --all"},
		{"unknown type", []string{"generate", "--type", "BOGUS"}, "unknown statement type"},
		{"not produced", []string{"generate", "--type", "COMPTE_RESULTAT"}, "not produced"},
		{"bad date", []string{"generate", "--all", "--as-of", "31/12/2025"}, "YYYY-MM-DD"},
		{"unknown statement", []string{"validate", "nope"}, "statement not found"},
		{"validate selection", []string{"validate"}, "statement IDs or --all"},
		{"close draft", []string{"close", draft}, "not validated"},
		{"bad format", []string{"export", draft, "--format", "pdf"}, "unknown export format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCoa(t, append(tt.args, "--dir", dir)...)
			require.Error(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestNotAProject(t *testing.T) {
	out, err := runCoa(t, "statements", "list", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "not a coa project")
}

func TestStandards(t *testing.T) {
	out, err := runCoa(t, "standards", "list", "--dir", t.TempDir())
	require.NoError(t, err, out)
	for _, code := range []string{"SYCEBNL", "SYSCOHADA", "IFRS", "GAAP", "PCG"} {
		assert.Contains(t, out, code)
	}

	out, err = runCoa(t, "standards", "show", "sycebnl")
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "SYCEBNL  "), out)
	assert.Contains(t, out, "Countries:")

	out, err = runCoa(t, "standards", "recommend", "BF")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Recommended: SYCEBNL")
	assert.Contains(t, out, "Also applicable: SYSCOHADA")

	out, err = runCoa(t, "standards", "recommend", "JP")
	require.Error(t, err)
	assert.Contains(t, out, "no accounting standard applies")
}

func TestAccountsImport(t *testing.T) {
	dir := initProject(t, "--country", "SN")
	run := projectRunner(t, dir)

	tb := "Compte;Intitulé;Débit;Crédit\n521000;Banque;5 000 000;\n102000;Fonds associatifs;;5 000 000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "ouverture.csv"), []byte(tb), 0o644))

	assert.Contains(t, run("accounts", "import", "--format", "semicolon"), "ouverture.csv: 2 accounts")
	_, err := os.Stat(filepath.Join(dir, "import", "processed", "ouverture.csv"))
	require.NoError(t, err)

	recordYear(t, run)
	tree := run("accounts", "tree", "--balances")
	assert.Contains(t, tree, "521000  Banque principale  [ASSET]  6000000")
	assert.Contains(t, tree, "102000  Fonds associatifs sans droit de reprise  [EQUITY]  5000000")

	out, err := runCoa(t, "accounts", "import", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "nothing to import")

	unbalanced := filepath.Join(t.TempDir(), "tb.csv")
	require.NoError(t, os.WriteFile(unbalanced, []byte("code,name,debit,credit\n521000,Banque,10,\n"), 0o644))
	out, err = runCoa(t, "accounts", "import", unbalanced, "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not balance")
}
