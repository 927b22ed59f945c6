package statement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
)

// Note codes that every set of notes must contain.
const (
	NoteAccountingPolicies = "REGLES_METHODES"
	NoteSubsequentEvents   = "EVENEMENTS_POSTERIEURS"
)

// noteDef describes a note. Figure notes sum the natural-sign closing balance
// of detail accounts of the given types whose code starts with one of the
// prefixes (OHADA class numbering). Inactive accounts count while they still
// carry a balance.
type noteDef struct {
	code     string
	title    string
	types    []model.AccountType
	prefixes []string
}

var normalNotes = []noteDef{
	{code: NoteAccountingPolicies, title: "Règles et méthodes comptables"},
	{code: "IMMOBILISATIONS", title: "Immobilisations", types: []model.AccountType{model.AccountTypeAsset}, prefixes: []string{"2"}},
	{code: "STOCKS", title: "Stocks", types: []model.AccountType{model.AccountTypeAsset}, prefixes: []string{"3"}},
	{code: "CREANCES", title: "Créances", types: []model.AccountType{model.AccountTypeAsset}, prefixes: []string{"4"}},
	{code: "DETTES", title: "Dettes", types: []model.AccountType{model.AccountTypeLiability}, prefixes: []string{"16", "17", "18", "4"}},
	{code: "CAPITAUX_PROPRES", title: "Capitaux propres", types: []model.AccountType{model.AccountTypeEquity}, prefixes: []string{"10", "11", "12", "13", "14", "15"}},
	{code: "CHARGES", title: "Charges", types: []model.AccountType{model.AccountTypeExpense}, prefixes: []string{"6", "8"}},
	{code: "PRODUITS", title: "Produits", types: []model.AccountType{model.AccountTypeRevenue}, prefixes: []string{"7", "8"}},
	{code: "ENGAGEMENTS_HORS_BILAN", title: "Engagements hors bilan", types: []model.AccountType{model.AccountTypeOffBalance}},
	{code: NoteSubsequentEvents, title: "Événements postérieurs à la clôture"},
}

var minimalNotes = []noteDef{
	{code: NoteAccountingPolicies, title: "Règles et méthodes comptables"},
	{code: "IMMOBILISATIONS", title: "Immobilisations et amortissements", types: []model.AccountType{model.AccountTypeAsset}, prefixes: []string{"2"}},
	{code: "TRESORERIE", title: "Trésorerie et disponibilités", types: []model.AccountType{model.AccountTypeAsset}, prefixes: []string{"5"}},
	{code: "FONDS_PROPRES", title: "Fonds propres et réserves", types: []model.AccountType{model.AccountTypeEquity}, prefixes: []string{"10", "11", "12", "13", "14", "15"}},
	{code: "DETTES", title: "Dettes et engagements", types: []model.AccountType{model.AccountTypeLiability}, prefixes: []string{"16", "17", "18", "4"}},
	{code: "RESSOURCES", title: "Analyse des ressources collectées", types: []model.AccountType{model.AccountTypeRevenue}, prefixes: []string{"7", "8"}},
	{code: "CHARGES", title: "Répartition des charges", types: []model.AccountType{model.AccountTypeExpense}, prefixes: []string{"6", "8"}},
	{code: NoteSubsequentEvents, title: "Événements postérieurs à la clôture"},
}

// NoteCodes returns the codes of the notes produced for a system type, in order.
func NoteCodes(system model.SystemType) []string {
	defs := notesFor(system)
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.code
	}
	return out
}

func notesFor(system model.SystemType) []noteDef {
	if system == model.SystemMinimal {
		return minimalNotes
	}
	return normalNotes
}

// buildNotes produces the notes annexes for the system type, followed by the
// standard's NGO-specific notes as narrative notes.
func buildNotes(std standards.Standard, in Input, accts []model.Account) []Note {
	defs := notesFor(in.System)
	notes := make([]Note, 0, len(defs)+len(std.FinancialStatements.Notes.NGOSpecificNotes))
	for i, d := range defs {
		n := Note{Code: d.code, Title: d.title, Order: i + 1}
		switch {
		case d.code == NoteAccountingPolicies:
			n.Content = policiesText(std, in)
		case d.types != nil:
			n.Amount, n.Accounts = sumAccounts(accts, d.types, d.prefixes)
		}
		notes = append(notes, n)
	}
	for _, code := range std.FinancialStatements.Notes.NGOSpecificNotes {
		notes = append(notes, Note{Code: code, Title: humanize(code), Order: len(notes) + 1})
	}
	return notes
}

func policiesText(std standards.Standard, in Input) string {
	rules := std.SpecificRules
	return fmt.Sprintf("Référentiel %s (%s), système %s, monnaie %s. Amortissement: %s. Valorisation des stocks: %s.",
		std.Code, std.Version, in.System, in.Currency, rules.Depreciation.Method, rules.Inventory.Valuation)
}

func sumAccounts(accts []model.Account, types []model.AccountType, prefixes []string) (decimal.Decimal, int) {
	total := decimal.Zero
	n := 0
	for _, a := range accts {
		if a.IsGroup || !hasType(types, a.Type) || !hasPrefix(prefixes, a.Code) {
			continue
		}
		net := accounts.BalanceOf(a).Net
		if !a.Active && net.IsZero() {
			continue
		}
		total = total.Add(net)
		n++
	}
	return total, n
}

func hasType(types []model.AccountType, t model.AccountType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// hasPrefix treats an empty prefix list as matching every code.
func hasPrefix(prefixes []string, code string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

func humanize(code string) string {
	s := strings.ToLower(strings.ReplaceAll(code, "_", " "))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
