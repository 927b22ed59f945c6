package standards

import "github.com/cleared-dev/coa/internal/model"

// Standard describes one accounting framework: its chart of accounts, the layout
// of its statements and the rules specific to it.
type Standard struct {
	Code                string              `yaml:"code"`
	Order               int                 `yaml:"order"`
	Name                string              `yaml:"name"`
	LocalName           string              `yaml:"localName"`
	Description         string              `yaml:"description"`
	Version             string              `yaml:"version"`
	EffectiveDate       string              `yaml:"effectiveDate"`
	Framework           string              `yaml:"framework"`
	ApplicableCountries []string            `yaml:"applicableCountries"`
	RegionalDefault     bool                `yaml:"regionalDefault"`
	ChartOfAccounts     ChartOfAccounts     `yaml:"chartOfAccounts"`
	FinancialStatements FinancialStatements `yaml:"financialStatements"`
	SpecificRules       SpecificRules       `yaml:"specificRules"`
}

// ChartOfAccounts is the reference chart published by the standard.
type ChartOfAccounts struct {
	Classes    []AccountClass    `yaml:"classes"`
	SubClasses []AccountSubClass `yaml:"subClasses"`
	Accounts   []AccountConfig   `yaml:"accounts"`
	Numbering  Numbering         `yaml:"numbering"`
	Validation AccountValidation `yaml:"validation"`
}

type AccountClass struct {
	Code        string            `yaml:"code"`
	Name        string            `yaml:"name"`
	LocalName   string            `yaml:"localName"`
	Description string            `yaml:"description"`
	Type        model.AccountType `yaml:"type"`
	NGOSpecific bool              `yaml:"ngoSpecific"`
	Mandatory   bool              `yaml:"mandatory"`
}

type AccountSubClass struct {
	Code        string `yaml:"code"`
	ParentClass string `yaml:"parentClass"`
	Name        string `yaml:"name"`
	LocalName   string `yaml:"localName"`
	Description string `yaml:"description"`
	NGOSpecific bool   `yaml:"ngoSpecific"`
}

type AccountConfig struct {
	Code           string              `yaml:"code"`
	ParentSubClass string              `yaml:"parentSubClass"`
	Name           string              `yaml:"name"`
	LocalName      string              `yaml:"localName"`
	Description    string              `yaml:"description"`
	Type           model.AccountType   `yaml:"type"`
	NGOSpecific    bool                `yaml:"ngoSpecific"`
	Mandatory      bool                `yaml:"mandatory"`
	Restrictions   AccountRestrictions `yaml:"restrictions"`
	Reporting      AccountReporting    `yaml:"reporting"`
}

type AccountRestrictions struct {
	Fund    bool `yaml:"fundRestriction"`
	Project bool `yaml:"projectRestriction"`
	Time    bool `yaml:"timeRestriction"`
}

type AccountReporting struct {
	BalanceSheet    bool `yaml:"balanceSheet"`
	IncomeStatement bool `yaml:"incomeStatement"`
	CashFlow        bool `yaml:"cashFlow"`
	Notes           bool `yaml:"notes"`
}

type Numbering struct {
	Pattern   string `yaml:"pattern"`
	Length    int    `yaml:"length"`
	Separator string `yaml:"separator"`
}

type AccountValidation struct {
	RequiredAccounts     []string `yaml:"requiredAccounts"`
	ProhibitedAccounts   []string `yaml:"prohibitedAccounts"`
	MandatorySubAccounts []string `yaml:"mandatorySubAccounts"`
}

// FinancialStatements names, per statement, which account prefixes feed each
// section and which line codes carry the section totals.
type FinancialStatements struct {
	BalanceSheet    BalanceSheetConfig    `yaml:"balanceSheet"`
	IncomeStatement IncomeStatementConfig `yaml:"incomeStatement"`
	CashFlow        CashFlowConfig        `yaml:"cashFlow"`
	Notes           NotesConfig           `yaml:"notes"`
}

type BalanceSheetConfig struct {
	Format        string                `yaml:"format"`
	Structure     BalanceSheetStructure `yaml:"structure"`
	RequiredNotes []string              `yaml:"requiredNotes"`
}

type BalanceSheetStructure struct {
	Assets      AssetsStructure      `yaml:"assets"`
	Liabilities LiabilitiesStructure `yaml:"liabilities"`
	Equity      EquityStructure      `yaml:"equity"`
}

type AssetsStructure struct {
	CurrentAssets    []string `yaml:"currentAssets"`
	NonCurrentAssets []string `yaml:"nonCurrentAssets"`
	TotalAssets      string   `yaml:"totalAssets"`
}

type LiabilitiesStructure struct {
	CurrentLiabilities    []string `yaml:"currentLiabilities"`
	NonCurrentLiabilities []string `yaml:"nonCurrentLiabilities"`
	TotalLiabilities      string   `yaml:"totalLiabilities"`
}

type EquityStructure struct {
	Funds            []string `yaml:"funds"`
	Reserves         []string `yaml:"reserves"`
	RetainedEarnings string   `yaml:"retainedEarnings"`
	TotalEquity      string   `yaml:"totalEquity"`
}

type IncomeStatementConfig struct {
	Format               string                   `yaml:"format"`
	Structure            IncomeStatementStructure `yaml:"structure"`
	FunctionalAllocation bool                     `yaml:"functionalAllocation"`
	RequiredNotes        []string                 `yaml:"requiredNotes"`
}

type IncomeStatementStructure struct {
	Resources ResourcesStructure `yaml:"resources"`
	Expenses  ExpensesStructure  `yaml:"expenses"`
	NetResult string             `yaml:"netResult"`
}

type ResourcesStructure struct {
	Grants         []string `yaml:"grants"`
	Donations      []string `yaml:"donations"`
	MembershipFees []string `yaml:"membershipFees"`
	OtherResources []string `yaml:"otherResources"`
	TotalResources string   `yaml:"totalResources"`
}

// ExpensesStructure lists account prefixes per function; they drive the
// functional allocation of expenses.
type ExpensesStructure struct {
	MissionExpenses        []string `yaml:"missionExpenses"`
	AdministrativeExpenses []string `yaml:"administrativeExpenses"`
	FundraisingExpenses    []string `yaml:"fundraisingExpenses"`
	TotalExpenses          string   `yaml:"totalExpenses"`
}

type CashFlowFormat string

const (
	CashFlowDirect   CashFlowFormat = "DIRECT"
	CashFlowIndirect CashFlowFormat = "INDIRECT"
)

type CashFlowConfig struct {
	Required  bool              `yaml:"required"`
	Format    CashFlowFormat    `yaml:"format"`
	Structure CashFlowStructure `yaml:"structure"`
}

type CashFlowStructure struct {
	OperatingActivities []string `yaml:"operatingActivities"`
	InvestingActivities []string `yaml:"investingActivities"`
	FinancingActivities []string `yaml:"financingActivities"`
	NetCashFlow         string   `yaml:"netCashFlow"`
	CashVariation       string   `yaml:"cashVariation"`
}

type NotesConfig struct {
	Required            bool     `yaml:"required"`
	MinimumNotes        int      `yaml:"minimumNotes"`
	MinimumNotesMinimal int      `yaml:"minimumNotesMinimal"`
	NGOSpecificNotes    []string `yaml:"ngoSpecificNotes"`
}

// MinimumFor returns the minimum number of notes for a reporting system.
func (n NotesConfig) MinimumFor(system model.SystemType) int {
	if system == model.SystemMinimal && n.MinimumNotesMinimal > 0 {
		return n.MinimumNotesMinimal
	}
	return n.MinimumNotes
}

type SpecificRules struct {
	FundAccounting       FundAccounting       `yaml:"fundAccounting"`
	FunctionalAllocation FunctionalAllocation `yaml:"functionalAllocation"`
	Depreciation         Depreciation         `yaml:"depreciation"`
	Inventory            Inventory            `yaml:"inventory"`
	RevenueRecognition   RevenueRecognition   `yaml:"revenueRecognition"`
}

type FundRestrictionKind string

const (
	Unrestricted          FundRestrictionKind = "UNRESTRICTED"
	TemporarilyRestricted FundRestrictionKind = "TEMPORARILY_RESTRICTED"
	PermanentlyRestricted FundRestrictionKind = "PERMANENTLY_RESTRICTED"
)

type RestrictionType string

const (
	RestrictionProject    RestrictionType = "PROJECT"
	RestrictionTime       RestrictionType = "TIME"
	RestrictionPurpose    RestrictionType = "PURPOSE"
	RestrictionGeographic RestrictionType = "GEOGRAPHIC"
)

type FundAccounting struct {
	Required     bool              `yaml:"required"`
	Types        []FundType        `yaml:"types"`
	Restrictions []FundRestriction `yaml:"restrictions"`
}

type FundType struct {
	Code        string              `yaml:"code"`
	Name        string              `yaml:"name"`
	LocalName   string              `yaml:"localName"`
	Description string              `yaml:"description"`
	Restriction FundRestrictionKind `yaml:"restriction"`
}

type FundRestriction struct {
	Code        string          `yaml:"code"`
	Name        string          `yaml:"name"`
	LocalName   string          `yaml:"localName"`
	Description string          `yaml:"description"`
	Type        RestrictionType `yaml:"type"`
}

// Minimums are percentages of functional expenses.
type Minimums struct {
	Mission        int `yaml:"mission"`
	Administration int `yaml:"administration"`
	Fundraising    int `yaml:"fundraising"`
}

type FunctionalAllocation struct {
	Required bool     `yaml:"required"`
	Minimums Minimums `yaml:"minimums"`
}

type DepreciationMethod string

const (
	StraightLine      DepreciationMethod = "STRAIGHT_LINE"
	DecliningBalance  DepreciationMethod = "DECLINING_BALANCE"
	UnitsOfProduction DepreciationMethod = "UNITS_OF_PRODUCTION"
)

type Depreciation struct {
	Method DepreciationMethod `yaml:"method"`
	Rates  []DepreciationRate `yaml:"rates"`
}

type DepreciationRate struct {
	AssetType    string `yaml:"assetType"`
	Rate         int    `yaml:"rate"`
	MinimumYears int    `yaml:"minimumYears"`
	MaximumYears int    `yaml:"maximumYears"`
}

type InventoryValuation string

const (
	FIFO                   InventoryValuation = "FIFO"
	LIFO                   InventoryValuation = "LIFO"
	WeightedAverage        InventoryValuation = "WEIGHTED_AVERAGE"
	SpecificIdentification InventoryValuation = "SPECIFIC_IDENTIFICATION"
)

type Inventory struct {
	Valuation InventoryValuation `yaml:"valuation"`
	WriteDown bool               `yaml:"writeDown"`
}

type RecognitionPolicy string

const (
	RecognizeCash        RecognitionPolicy = "CASH"
	RecognizeAccrual     RecognitionPolicy = "ACCRUAL"
	RecognizeConditional RecognitionPolicy = "CONDITIONAL"
)

type RevenueRecognition struct {
	Grants    RecognitionPolicy `yaml:"grants"`
	Donations RecognitionPolicy `yaml:"donations"`
	Services  RecognitionPolicy `yaml:"services"`
}
