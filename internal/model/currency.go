package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyDef describes a reporting currency.
type CurrencyDef struct {
	Code     string
	Name     string
	Exponent int32 // minor units: 2 for EUR, 0 for XOF
}

// Currencies lists the reporting currencies the engine can present amounts in.
var Currencies = map[string]CurrencyDef{
	"XOF": {Code: "XOF", Name: "Franc CFA (BCEAO)", Exponent: 0},
	"XAF": {Code: "XAF", Name: "Franc CFA (BEAC)", Exponent: 0},
	"KMF": {Code: "KMF", Name: "Franc comorien", Exponent: 0},
	"GNF": {Code: "GNF", Name: "Franc guinéen", Exponent: 0},
	"CDF": {Code: "CDF", Name: "Franc congolais", Exponent: 2},
	"EUR": {Code: "EUR", Name: "Euro", Exponent: 2},
	"USD": {Code: "USD", Name: "US Dollar", Exponent: 2},
	"GBP": {Code: "GBP", Name: "Pound Sterling", Exponent: 2},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Exponent: 2},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Exponent: 2},
	"ZAR": {Code: "ZAR", Name: "South African Rand", Exponent: 2},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Exponent: 0},
}

// LookupCurrency returns the definition of a currency code.
func LookupCurrency(code string) (CurrencyDef, error) {
	cur, ok := Currencies[strings.ToUpper(code)]
	if !ok {
		return CurrencyDef{}, fmt.Errorf("unknown currency %q", code)
	}
	return cur, nil
}

// Round rounds an amount to the currency's minor unit (half away from zero).
func (c CurrencyDef) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Exponent)
}

// Format renders an amount with exactly the currency's minor-unit digits.
func (c CurrencyDef) Format(amount decimal.Decimal) string {
	return amount.StringFixed(c.Exponent)
}
