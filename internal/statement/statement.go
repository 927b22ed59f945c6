package statement

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/coa/internal/mapping"
	"github.com/cleared-dev/coa/internal/model"
)

var (
	// ErrNotDraft is returned when an operation needs a DRAFT statement.
	ErrNotDraft = errors.New("statement is not a draft")
	// ErrNotValidated is returned when closing a statement that was not validated.
	ErrNotValidated = errors.New("statement is not validated")
	// ErrStatementClosed is returned for any change to a closed statement.
	ErrStatementClosed = errors.New("statement is closed")
)

// Line is one line item of a generated statement. Amount is kept at full
// precision; rounding happens only when presenting it.
type Line struct {
	Code       string                 `json:"code"`
	Label      string                 `json:"label"`
	Order      int                    `json:"order"`
	Level      int                    `json:"level"`
	Total      bool                   `json:"total"`
	Sign       model.Side             `json:"sign"`
	Amount     decimal.Decimal        `json:"amount"`
	Components []mapping.Component    `json:"components,omitempty"`
	Accounts   []mapping.Contribution `json:"accounts,omitempty"`
}

// Presented returns the amount rounded and formatted for a currency.
func (l Line) Presented(cur model.CurrencyDef) string {
	return cur.Format(cur.Round(l.Amount))
}

// Totals are the aggregates named by the standard's statement structure. A
// field stays zero when the statement has no such line.
type Totals struct {
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	TotalResources   decimal.Decimal `json:"totalResources"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	NetResult        decimal.Decimal `json:"netResult"`
	NetCashFlow      decimal.Decimal `json:"netCashFlow"`
	CashVariation    decimal.Decimal `json:"cashVariation"`
}

// WarningCode classifies a generation warning.
type WarningCode string

const (
	WarnMissingRequiredAccount WarningCode = "MISSING_REQUIRED_ACCOUNT"
	WarnUnmappedAccount        WarningCode = "UNMAPPED_ACCOUNT"
	WarnMissingLine            WarningCode = "MISSING_LINE"
	WarnInactiveAccount        WarningCode = "INACTIVE_ACCOUNT"
)

// Warning is a non-fatal finding recorded while generating.
type Warning struct {
	Code    WarningCode `json:"code"`
	Subject string      `json:"subject"`
	Message string      `json:"message"`
}

// Note is one note annexe. Figure notes carry the balance of the accounts they
// describe; narrative notes only carry text.
type Note struct {
	Code     string          `json:"code"`
	Title    string          `json:"title"`
	Order    int             `json:"order"`
	Content  string          `json:"content,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Accounts int             `json:"accounts"`
}

// GeneratedStatement is the output of one generation. It is created DRAFT and
// changes only through MarkValid and Close.
type GeneratedStatement struct {
	ID            string                    `json:"id"`
	EntityID      string                    `json:"entityId"`
	Period        string                    `json:"period"`
	Scope         mapping.Scope             `json:"scope"`
	AsOf          time.Time                 `json:"asOf"`
	Currency      string                    `json:"currency"`
	Basis         mapping.Basis             `json:"basis"`
	Lines         []Line                    `json:"lines"`
	Totals        Totals                    `json:"totals"`
	Equilibre     bool                      `json:"equilibre"`
	EquilibreRule string                    `json:"equilibreRule"`
	Unmapped      []mapping.UnmappedAccount `json:"unmapped,omitempty"`
	Warnings      []Warning                 `json:"warnings,omitempty"`
	Notes         []Note                    `json:"notes,omitempty"`
	Status        model.StatementStatus     `json:"status"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
	ValidatedAt   time.Time                 `json:"validatedAt"`
	ClosedAt      time.Time                 `json:"closedAt"`
}

// Type returns the statement type.
func (s *GeneratedStatement) Type() model.StatementType {
	return s.Scope.Statement
}

// Line returns the line with the given code.
func (s *GeneratedStatement) Line(code string) (Line, bool) {
	for _, l := range s.Lines {
		if l.Code == code {
			return l, true
		}
	}
	return Line{}, false
}

// CurrencyDef returns the reporting currency definition.
func (s *GeneratedStatement) CurrencyDef() (model.CurrencyDef, error) {
	return model.LookupCurrency(s.Currency)
}

// MarkValid moves a DRAFT statement to VALIDE.
func (s *GeneratedStatement) MarkValid(at time.Time) error {
	switch s.Status {
	case model.StatementCloture:
		return fmt.Errorf("%w: %s", ErrStatementClosed, s.ID)
	case model.StatementDraft:
		s.Status = model.StatementValide
		s.ValidatedAt = at
		return nil
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotDraft, s.ID, s.Status)
	}
}

// Close moves a VALIDE statement to CLOTURE. A closed statement never changes again.
func (s *GeneratedStatement) Close(at time.Time) error {
	switch s.Status {
	case model.StatementCloture:
		return fmt.Errorf("%w: %s", ErrStatementClosed, s.ID)
	case model.StatementValide:
		s.Status = model.StatementCloture
		s.ClosedAt = at
		return nil
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotValidated, s.ID, s.Status)
	}
}
