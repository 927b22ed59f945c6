// Package validation checks journal entries and generated statements against
// the rules of their accounting standard. Every check runs; findings are
// collected and returned together.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/coa/internal/journal"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
	"github.com/cleared-dev/coa/internal/statement"
)

// ErrValidationFailed is returned when approving a statement that has errors.
var ErrValidationFailed = errors.New("statement has validation errors")

// Severity separates blocking errors from warnings.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Code classifies an issue.
type Code string

const (
	CodeDoubleEntryMismatch              Code = "DoubleEntryMismatch"
	CodeInvalidEntry                     Code = "InvalidEntry"
	CodeNotBalanced                      Code = "NotBalanced"
	CodeTotalsMismatch                   Code = "TotalsMismatch"
	CodeMissingAsOf                      Code = "MissingAsOf"
	CodeMissingRequiredAccount           Code = "MissingRequiredAccount"
	CodeFunctionalAllocationBelowMinimum Code = "FunctionalAllocationBelowMinimum"
	CodeUnmappedAccount                  Code = "UnmappedAccount"
	CodeNotesBelowMinimum                Code = "NotesBelowMinimum"
	CodeMissingNote                      Code = "MissingNote"
	CodeNegativeTotalAssets              Code = "NegativeTotalAssets"
)

// Issue is a single finding.
type Issue struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) Error() string {
	if i.Subject == "" {
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Code, i.Subject, i.Message)
}

// Result is the outcome of validating one statement. Valide is true when
// there are no errors; warnings never block.
type Result struct {
	StatementID    string  `json:"statementId"`
	Valide         bool    `json:"valide"`
	Erreurs        []Issue `json:"erreurs"`
	Avertissements []Issue `json:"avertissements"`
}

func (r *Result) add(sev Severity, code Code, subject, format string, args ...any) {
	is := Issue{Code: code, Severity: sev, Subject: subject, Message: fmt.Sprintf(format, args...)}
	if sev == SeverityError {
		r.Erreurs = append(r.Erreurs, is)
	} else {
		r.Avertissements = append(r.Avertissements, is)
	}
}

// ValidateEntryBalance returns nil when the entry's debits equal its credits,
// a *journal.DoubleEntryMismatch otherwise.
func ValidateEntryBalance(e model.JournalEntry) error {
	return journal.CheckBalance(e)
}

// ValidateEntries checks entries against the chart and returns every issue
// found. precision is the number of decimal places amounts may carry.
func ValidateEntries(entries []model.JournalEntry, accts journal.AccountChecker, precision int32) []Issue {
	var out []Issue
	for _, ve := range journal.ValidateEntries(entries, accts, journal.Period{}, precision) {
		code := CodeInvalidEntry
		if ve.Check == journal.CheckBalanced {
			code = CodeDoubleEntryMismatch
		}
		out = append(out, Issue{Code: code, Severity: SeverityError, Subject: ve.EntryID, Message: ve.Description})
	}
	return out
}

// Validator validates generated statements.
type Validator struct {
	logger *zap.Logger
}

// New creates a Validator. A nil logger discards output.
func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// ValidateStatement runs every statement check and returns the findings.
func (v *Validator) ValidateStatement(stmt *statement.GeneratedStatement, std standards.Standard) Result {
	res := Result{StatementID: stmt.ID}

	if !stmt.Equilibre {
		res.add(SeverityError, CodeNotBalanced, string(stmt.Type()), "statement does not balance (%s)", stmt.EquilibreRule)
	}
	if stmt.AsOf.IsZero() {
		res.add(SeverityError, CodeMissingAsOf, "", "statement has no as-of date")
	}
	checkLines(&res, stmt)
	checkTotals(&res, stmt, std)

	checkRequiredAccounts(&res, stmt, std)
	for _, u := range stmt.Unmapped {
		if u.Net.IsZero() {
			continue
		}
		res.add(SeverityWarning, CodeUnmappedAccount, u.Code, "account %s (%s) with balance %s is not mapped", u.Code, u.Name, u.Net)
	}
	if alloc, ok := FunctionalAllocationOf(stmt, std); ok && std.SpecificRules.FunctionalAllocation.Required {
		res.Avertissements = append(res.Avertissements, CheckFunctionalAllocation(alloc, std.SpecificRules.FunctionalAllocation.Minimums)...)
	}
	if stmt.Type() == model.StatementAnnexes {
		checkNotes(&res, stmt, std)
	}
	if stmt.Type() == model.StatementBilan && stmt.Totals.TotalAssets.IsNegative() {
		res.add(SeverityWarning, CodeNegativeTotalAssets, std.FinancialStatements.BalanceSheet.Structure.Assets.TotalAssets,
			"total assets are negative (%s)", stmt.Totals.TotalAssets)
	}

	res.Valide = len(res.Erreurs) == 0
	v.logger.Info("statement validated",
		zap.String("id", stmt.ID),
		zap.String("type", string(stmt.Type())),
		zap.Bool("valide", res.Valide),
		zap.Int("errors", len(res.Erreurs)),
		zap.Int("warnings", len(res.Avertissements)),
	)
	return res
}

// Approve validates a DRAFT statement against its standard and moves it to
// VALIDE when no errors are found. The result is returned either way.
func (v *Validator) Approve(stmt *statement.GeneratedStatement, std standards.Standard, at time.Time) (Result, error) {
	if stmt.Status != model.StatementDraft {
		// MarkValid reports the lifecycle error for closed and validated statements.
		return Result{StatementID: stmt.ID}, stmt.MarkValid(at)
	}
	res := v.ValidateStatement(stmt, std)
	if len(res.Erreurs) > 0 {
		msgs := make([]string, len(res.Erreurs))
		for i, is := range res.Erreurs {
			msgs[i] = is.Error()
		}
		return res, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(msgs, "; "))
	}
	if err := stmt.MarkValid(at); err != nil {
		return res, err
	}
	v.logger.Info("statement approved", zap.String("id", stmt.ID))
	return res, nil
}

// Report summarises the validation of a period's statements.
type Report struct {
	Total   int      `json:"total"`
	Valid   int      `json:"valid"`
	Invalid int      `json:"invalid"`
	Results []Result `json:"results"`
}

// ValidateAll validates every statement, in order.
func (v *Validator) ValidateAll(stmts []*statement.GeneratedStatement, std standards.Standard) Report {
	rep := Report{Total: len(stmts), Results: make([]Result, 0, len(stmts))}
	for _, s := range stmts {
		res := v.ValidateStatement(s, std)
		if res.Valide {
			rep.Valid++
		} else {
			rep.Invalid++
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}
