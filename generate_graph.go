//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/bot"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

func main() {
	summary := models.MonthlySummary{
		TotalIncome:        decimal.NewFromInt(120000),
		TotalExpenses:      decimal.RequireFromString("78450.50"),
		Savings:            decimal.RequireFromString("41549.50"),
		SavingsRatePercent: decimal.RequireFromString("34.6"),
	}

	chartData, err := bot.GenerateSummaryChart(summary, "январь 2026")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example monthly summary chart")
}
