package accounts

import (
	"strings"

	"github.com/cleared-dev/coa/internal/model"
)

// DefaultChart returns the seed chart of accounts for an accounting standard.
func DefaultChart(standardCode string) []model.Account {
	switch strings.ToUpper(standardCode) {
	case "SYCEBNL", "SYSCOHADA", "PCG":
		return sycebnlChart()
	default:
		return ifrsChart()
	}
}

func group(code, name string, t model.AccountType, parent string, level int) model.Account {
	return model.Account{Code: code, Name: name, Type: t, ParentCode: parent, Level: level, IsGroup: true, Active: true}
}

func detail(code, name string, t model.AccountType, category, parent string) model.Account {
	return model.Account{Code: code, Name: name, Type: t, Category: category, ParentCode: parent, Level: 2, Active: true}
}

// sycebnlChart follows the OHADA class numbering with six-digit detail accounts.
func sycebnlChart() []model.Account {
	eq, li, as, ex, re := model.AccountTypeEquity, model.AccountTypeLiability, model.AccountTypeAsset, model.AccountTypeExpense, model.AccountTypeRevenue
	return []model.Account{
		group("1", "Ressources durables", eq, "", 0),
		group("10", "Fonds associatifs", eq, "1", 1),
		detail("102000", "Fonds associatifs sans droit de reprise", eq, "FUND", "10"),
		detail("103000", "Fonds associatifs avec droit de reprise", eq, "FUND", "10"),
		group("12", "Report à nouveau", eq, "1", 1),
		detail("121000", "Report à nouveau créditeur", eq, "RETAINED", "12"),
		group("13", "Résultat net de l'exercice", eq, "1", 1),
		detail("131000", "Excédent de l'exercice", eq, "RESULT", "13"),
		group("14", "Subventions d'investissement", eq, "1", 1),
		detail("141000", "Subventions d'équipement", eq, "GRANT", "14"),
		group("16", "Emprunts et dettes assimilées", li, "1", 1),
		detail("162000", "Emprunts auprès des établissements de crédit", li, "NON_CURRENT_LIABILITY", "16"),

		group("2", "Actif immobilisé", as, "", 0),
		group("24", "Matériel", as, "2", 1),
		detail("244000", "Matériel et mobilier de bureau", as, "NON_CURRENT_ASSET", "24"),
		detail("245000", "Matériel de transport", as, "NON_CURRENT_ASSET", "24"),
		group("28", "Amortissements", as, "2", 1),
		detail("284000", "Amortissements du matériel", as, "NON_CURRENT_ASSET", "28"),

		group("3", "Stocks", as, "", 0),
		group("32", "Matières et fournitures", as, "3", 1),
		detail("321000", "Fournitures consommables", as, "CURRENT_ASSET", "32"),

		group("4", "Tiers", li, "", 0),
		group("40", "Fournisseurs", li, "4", 1),
		detail("401000", "Fournisseurs", li, "CURRENT_LIABILITY", "40"),
		group("41", "Usagers et membres", as, "4", 1),
		detail("411000", "Usagers", as, "CURRENT_ASSET", "41"),
		detail("418000", "Cotisations à recevoir", as, "CURRENT_ASSET", "41"),
		group("42", "Personnel", li, "4", 1),
		detail("422000", "Personnel, rémunérations dues", li, "CURRENT_LIABILITY", "42"),
		group("43", "Organismes sociaux", li, "4", 1),
		detail("431000", "Sécurité sociale", li, "CURRENT_LIABILITY", "43"),
		group("44", "État et collectivités publiques", li, "4", 1),
		detail("447000", "État, impôts retenus à la source", li, "CURRENT_LIABILITY", "44"),
		group("45", "Bailleurs et partenaires", li, "4", 1),
		detail("458000", "Fonds dédiés à reverser", li, "CURRENT_LIABILITY", "45"),

		group("5", "Trésorerie", as, "", 0),
		group("52", "Banques", as, "5", 1),
		detail("521000", "Banque principale", as, "CASH", "52"),
		group("57", "Caisse", as, "5", 1),
		detail("571000", "Caisse siège", as, "CASH", "57"),

		group("6", "Charges", ex, "", 0),
		group("60", "Achats", ex, "6", 1),
		detail("604000", "Achats de matières et fournitures", ex, "MISSION", "60"),
		group("62", "Services extérieurs", ex, "6", 1),
		detail("622000", "Locations", ex, "MISSION", "62"),
		group("63", "Autres services extérieurs", ex, "6", 1),
		detail("632000", "Honoraires", ex, "MISSION", "63"),
		group("64", "Impôts et taxes", ex, "6", 1),
		detail("641000", "Impôts et taxes directs", ex, "ADMINISTRATION", "64"),
		group("65", "Frais de recherche de fonds", ex, "6", 1),
		detail("658000", "Campagnes d'appel à la générosité", ex, "FUNDRAISING", "65"),
		group("66", "Charges de personnel", ex, "6", 1),
		detail("661000", "Rémunérations du personnel", ex, "ADMINISTRATION", "66"),
		group("68", "Dotations aux amortissements", ex, "6", 1),
		detail("681000", "Dotations aux amortissements d'exploitation", ex, "ADMINISTRATION", "68"),

		group("7", "Ressources", re, "", 0),
		group("70", "Prestations de services", re, "7", 1),
		detail("706000", "Services vendus", re, "SERVICES", "70"),
		group("74", "Subventions d'exploitation", re, "7", 1),
		detail("740100", "Subventions de l'État", re, "GRANTS", "74"),
		group("75", "Dons, legs et cotisations", re, "7", 1),
		detail("750100", "Dons manuels", re, "DONATIONS", "75"),
		detail("756000", "Cotisations des membres", re, "DONATIONS", "75"),
		group("77", "Revenus financiers", re, "7", 1),
		detail("771000", "Intérêts de placements", re, "FINANCIAL", "77"),
	}
}

// ifrsChart uses four-digit accounts grouped into classes 1 to 5.
func ifrsChart() []model.Account {
	as, li, eq, re, ex := model.AccountTypeAsset, model.AccountTypeLiability, model.AccountTypeEquity, model.AccountTypeRevenue, model.AccountTypeExpense
	return []model.Account{
		group("1", "Assets", as, "", 0),
		group("10", "Cash and cash equivalents", as, "1", 1),
		detail("1000", "Cash at bank", as, "CASH", "10"),
		group("11", "Trade and other receivables", as, "1", 1),
		detail("1100", "Trade receivables", as, "CURRENT_ASSET", "11"),
		group("15", "Property, plant and equipment", as, "1", 1),
		detail("1500", "Equipment", as, "NON_CURRENT_ASSET", "15"),
		detail("1590", "Accumulated depreciation", as, "NON_CURRENT_ASSET", "15"),

		group("2", "Liabilities", li, "", 0),
		group("20", "Trade and other payables", li, "2", 1),
		detail("2000", "Trade payables", li, "CURRENT_LIABILITY", "20"),
		group("25", "Borrowings", li, "2", 1),
		detail("2500", "Bank loans", li, "NON_CURRENT_LIABILITY", "25"),

		group("3", "Equity", eq, "", 0),
		group("30", "Share capital and reserves", eq, "3", 1),
		detail("3000", "Share capital", eq, "CAPITAL", "30"),
		detail("3100", "Retained earnings", eq, "RETAINED", "30"),

		group("4", "Income", re, "", 0),
		group("40", "Revenue", re, "4", 1),
		detail("4000", "Revenue from contracts with customers", re, "SERVICES", "40"),
		detail("4100", "Other income", re, "OTHER", "40"),

		group("5", "Expenses", ex, "", 0),
		group("50", "Operating expenses", ex, "5", 1),
		detail("5000", "Cost of sales", ex, "COST_OF_SALES", "50"),
		detail("5100", "Employee benefits", ex, "PERSONNEL", "50"),
		detail("5200", "Depreciation", ex, "DEPRECIATION", "50"),
		detail("5300", "Other operating expenses", ex, "OTHER", "50"),
	}
}
