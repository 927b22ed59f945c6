package model

import (
	"fmt"
	"strings"
)

// StatementType identifies a statutory statement.
type StatementType string

const (
	StatementBilan               StatementType = "BILAN"
	StatementCompteResultat      StatementType = "COMPTE_RESULTAT"
	StatementTableauFlux         StatementType = "TABLEAU_FLUX"
	StatementAnnexes             StatementType = "ANNEXES"
	StatementRecettesDepenses    StatementType = "RECETTES_DEPENSES"
	StatementSituationTresorerie StatementType = "SITUATION_TRESORERIE"
)

// StatementTypes lists every statement type in presentation order.
var StatementTypes = []StatementType{
	StatementBilan,
	StatementCompteResultat,
	StatementTableauFlux,
	StatementAnnexes,
	StatementRecettesDepenses,
	StatementSituationTresorerie,
}

// ParseStatementType rejects anything outside the closed set.
func ParseStatementType(s string) (StatementType, error) {
	switch v := StatementType(strings.ToUpper(strings.TrimSpace(s))); v {
	case StatementBilan, StatementCompteResultat, StatementTableauFlux,
		StatementAnnexes, StatementRecettesDepenses, StatementSituationTresorerie:
		return v, nil
	default:
		return "", fmt.Errorf("unknown statement type %q", s)
	}
}

// SystemType selects the full (NORMAL) or simplified (MINIMAL, "SMT") reporting system.
type SystemType string

const (
	SystemNormal  SystemType = "NORMAL"
	SystemMinimal SystemType = "MINIMAL"
)

// ParseSystemType accepts NORMAL, MINIMAL and the SMT alias.
func ParseSystemType(s string) (SystemType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NORMAL":
		return SystemNormal, nil
	case "MINIMAL", "SMT":
		return SystemMinimal, nil
	default:
		return "", fmt.Errorf("unknown system type %q", s)
	}
}

// StatementsFor returns the statements produced under a system type.
func StatementsFor(system SystemType) []StatementType {
	if system == SystemMinimal {
		return []StatementType{StatementBilan, StatementRecettesDepenses, StatementSituationTresorerie, StatementAnnexes}
	}
	return []StatementType{StatementBilan, StatementCompteResultat, StatementTableauFlux, StatementAnnexes}
}

// StatementStatus is the lifecycle state of a generated statement.
type StatementStatus string

const (
	StatementDraft   StatementStatus = "DRAFT"
	StatementValide  StatementStatus = "VALIDE"
	StatementCloture StatementStatus = "CLOTURE"
)

// ParseStatementStatus rejects anything outside the closed set.
func ParseStatementStatus(s string) (StatementStatus, error) {
	switch v := StatementStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case StatementDraft, StatementValide, StatementCloture:
		return v, nil
	default:
		return "", fmt.Errorf("unknown statement status %q", s)
	}
}
