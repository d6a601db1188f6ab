// Package money formatea montos en reales (BRL) para reportes y prompts.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL devuelve el monto como "R$ 1.234,56".
func FormatBRL(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return printer.Sprintf("R$ %.2f", f)
}

// FormatPercent devuelve "58%" con separadores pt-BR.
func FormatPercent(p int) string {
	return printer.Sprintf("%d%%", p)
}
