package bot

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
)

var errNothingToChart = errors.New("summary has no amounts to chart")

// GenerateSummaryChart creates a pie chart splitting the month's income into
// expenses and savings. A month without income charts expenses alone.
// Returns PNG image as bytes.
func GenerateSummaryChart(s appmodels.MonthlySummary, period string) ([]byte, error) {
	values, names := summarySlices(s)
	if len(values) == 0 {
		return nil, errNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Сводка: " + period,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// summarySlices returns the positive chart slices with their legend labels.
func summarySlices(s appmodels.MonthlySummary) ([]float64, []string) {
	var (
		values []float64
		names  []string
	)
	add := func(name string, amount decimal.Decimal) {
		if amount.IsPositive() {
			values = append(values, amount.InexactFloat64())
			names = append(names, name)
		}
	}

	add("Расходы", s.TotalExpenses)
	add("Накопления", s.Savings)
	return values, names
}

// summaryChartFilename creates filename like "summary_2026-01.png".
func summaryChartFilename(year, month int) string {
	return fmt.Sprintf("summary_%d-%02d.png", year, month)
}
