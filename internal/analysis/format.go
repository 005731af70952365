package analysis

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders v as US dollars with grouping, e.g. "$1,234.50".
func FormatMoney(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// FormatGrowth renders a growth percentage with sign, or "n/a" when undefined.
func FormatGrowth(g *float64) string {
	if g == nil {
		return "n/a"
	}
	return printer.Sprintf("%+.1f%%", *g)
}
