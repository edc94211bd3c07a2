// Package apiclient talks to the finance REST backend.
package apiclient

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/finance-bot/internal/models"
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedStatus wraps every other non-2xx answer.
	ErrUnexpectedStatus = errors.New("unexpected backend status")
)

// DefaultPageSize is the number of records requested per listing page.
const DefaultPageSize = 10

// Backend lists every backend operation the bot consumes.
type Backend interface {
	GetUserByChatID(ctx context.Context, chatID int64) (models.User, error)
	RegisterUser(ctx context.Context, chatID int64, displayName string) (models.User, error)

	AddIncome(ctx context.Context, req models.IncomeRequest) (models.Income, error)
	AddExpense(ctx context.Context, req models.ExpenseRequest) (models.Expense, error)
	GetIncomeByID(ctx context.Context, id int64) (models.Income, error)
	GetExpenseByID(ctx context.Context, id int64) (models.Expense, error)
	UpdateIncome(ctx context.Context, id int64, req models.IncomeRequest) error
	UpdateExpense(ctx context.Context, id int64, req models.ExpenseRequest) error
	DeleteIncome(ctx context.Context, id int64) error
	DeleteExpense(ctx context.Context, id int64) error

	ListIncomesByMonth(ctx context.Context, userID int64, year, month, page int) (models.Page[models.Income], error)
	ListExpensesByMonth(ctx context.Context, userID int64, year, month, page int) (models.Page[models.Expense], error)
	GetMonthlySummary(ctx context.Context, userID int64, year, month int) (models.MonthlySummary, error)
}

// RecordFetcher is the subset of Backend needed to fetch a record of either kind.
type RecordFetcher interface {
	GetIncomeByID(ctx context.Context, id int64) (models.Income, error)
	GetExpenseByID(ctx context.Context, id int64) (models.Expense, error)
}

// ResolveRecordByAnyKind fetches id as each kind in order and returns the first
// hit. The default order is income, then expense. ErrNotFound is returned when
// every kind misses; any other failure is returned as is.
func ResolveRecordByAnyKind(ctx context.Context, b RecordFetcher, id int64, order ...models.RecordKind) (models.Record, error) {
	if len(order) == 0 {
		order = []models.RecordKind{models.KindIncome, models.KindExpense}
	}

	var lastErr error
	for _, kind := range order {
		var (
			rec models.Record
			err error
		)
		switch kind {
		case models.KindIncome:
			var in models.Income
			in, err = b.GetIncomeByID(ctx, id)
			rec = models.RecordFromIncome(in)
		case models.KindExpense:
			var ex models.Expense
			ex, err = b.GetExpenseByID(ctx, id)
			rec = models.RecordFromExpense(ex)
		default:
			continue
		}
		if err == nil {
			return rec, nil
		}
		if ctx.Err() != nil {
			return models.Record{}, ctx.Err()
		}
		lastErr = err
	}

	if lastErr == nil || errors.Is(lastErr, ErrNotFound) {
		return models.Record{}, ErrNotFound
	}
	return models.Record{}, lastErr
}
