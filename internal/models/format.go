package models

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// amountFormat groups thousands with a space and drops the fraction.
const amountFormat = "# ###."

// FormatAmount renders an amount rounded to whole units with thousands
// separators, e.g. "1 500 ₽".
func FormatAmount(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", humanize.FormatInteger(amountFormat, int(amount.Round(0).IntPart())), CurrencySymbol)
}

// FormatAmountExact renders an amount keeping up to two decimals, e.g. "1 500,50 ₽".
func FormatAmountExact(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return FormatAmount(amount)
	}
	return fmt.Sprintf("%s %s", humanize.FormatFloat("# ###,##", amount.Round(2).InexactFloat64()), CurrencySymbol)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes user text for Telegram's HTML parse mode.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
