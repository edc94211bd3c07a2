// Package models defines the domain entities exchanged with the finance backend.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is appended to every formatted amount.
const CurrencySymbol = "₽"

// RecordKind tells incomes and expenses apart.
type RecordKind string

const (
	KindIncome  RecordKind = "income"
	KindExpense RecordKind = "expense"
)

// Other returns the opposite kind.
func (k RecordKind) Other() RecordKind {
	if k == KindIncome {
		return KindExpense
	}
	return KindIncome
}

// User is a backend user bound to a chat.
type User struct {
	ID          int64
	ChatID      int64
	DisplayName string
}

// Income is a single income record.
type Income struct {
	ID          int64
	UserID      int64
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Source      string
	Description string
}

// Expense is a single expense record.
type Expense struct {
	ID          int64
	UserID      int64
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Description string
}

// Record is the kind-agnostic view of an income or an expense. Source is only
// meaningful for incomes.
type Record struct {
	Kind        RecordKind
	ID          int64
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Source      string
	Description string
}

// Extra returns the secondary text shown next to the category in listings.
func (r Record) Extra() string {
	if source := CleanOptional(r.Source); r.Kind == KindIncome && source != "" {
		return source
	}
	return CleanOptional(r.Description)
}

// CleanOptional trims an optional text field. Blank values and the literal
// "null" produced by upstream stringification become empty.
func CleanOptional(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return ""
	}
	return trimmed
}

// RecordFromIncome converts an income into a Record.
func RecordFromIncome(in Income) Record {
	return Record{
		Kind:        KindIncome,
		ID:          in.ID,
		Amount:      in.Amount,
		Date:        in.Date,
		Category:    in.Category,
		Source:      in.Source,
		Description: in.Description,
	}
}

// RecordFromExpense converts an expense into a Record.
func RecordFromExpense(ex Expense) Record {
	return Record{
		Kind:        KindExpense,
		ID:          ex.ID,
		Amount:      ex.Amount,
		Date:        ex.Date,
		Category:    ex.Category,
		Description: ex.Description,
	}
}

// IncomeRequest is the create/update payload for incomes.
type IncomeRequest struct {
	UserID      int64
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Source      string
	Description string
}

// ExpenseRequest is the create/update payload for expenses.
type ExpenseRequest struct {
	UserID      int64
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Description string
}

// Page is one page of a paginated backend listing.
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	TotalItems int
}

// HasNext reports whether a page after this one exists.
func (p Page[T]) HasNext() bool {
	return p.Page+1 < p.TotalPages
}

// HasPrev reports whether a page before this one exists.
func (p Page[T]) HasPrev() bool {
	return p.Page > 0
}

// MonthlySummary aggregates one month of a user's records.
type MonthlySummary struct {
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	Savings            decimal.Decimal
	SavingsRatePercent decimal.Decimal
}
