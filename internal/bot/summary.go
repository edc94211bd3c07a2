package bot

import (
	"fmt"
	"strings"

	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
)

// formatSummary renders the monthly summary message.
func formatSummary(s appmodels.MonthlySummary, year, month int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Сводка за %s %d</b>\n\n", monthNames[month-1], year)
	fmt.Fprintf(&sb, "📈 Доходы: %s\n", appmodels.FormatAmountExact(s.TotalIncome))
	fmt.Fprintf(&sb, "📉 Расходы: %s\n", appmodels.FormatAmountExact(s.TotalExpenses))
	fmt.Fprintf(&sb, "💰 Накопления: %s\n", appmodels.FormatAmountExact(s.Savings))
	fmt.Fprintf(&sb, "📐 Норма сбережений: %s%%", strings.Replace(s.SavingsRatePercent.StringFixed(1), ".", ",", 1))
	return sb.String()
}

func summaryPeriod(year, month int) string {
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

func hasSummaryAmounts(s appmodels.MonthlySummary) bool {
	return !s.TotalIncome.IsZero() || !s.TotalExpenses.IsZero()
}
