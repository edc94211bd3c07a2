package apiclient

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

type stubFetcher struct {
	incomes   map[int64]models.Income
	expenses  map[int64]models.Expense
	incomeErr error
	calls     []models.RecordKind
}

func (s *stubFetcher) GetIncomeByID(_ context.Context, id int64) (models.Income, error) {
	s.calls = append(s.calls, models.KindIncome)
	if s.incomeErr != nil {
		return models.Income{}, s.incomeErr
	}
	if in, ok := s.incomes[id]; ok {
		return in, nil
	}
	return models.Income{}, ErrNotFound
}

func (s *stubFetcher) GetExpenseByID(_ context.Context, id int64) (models.Expense, error) {
	s.calls = append(s.calls, models.KindExpense)
	if ex, ok := s.expenses[id]; ok {
		return ex, nil
	}
	return models.Expense{}, ErrNotFound
}

func TestResolveRecordByAnyKind(t *testing.T) {
	t.Parallel()

	t.Run("income first", func(t *testing.T) {
		t.Parallel()
		f := &stubFetcher{
			incomes:  map[int64]models.Income{5: {ID: 5, Amount: decimal.NewFromInt(10), Source: "Работа"}},
			expenses: map[int64]models.Expense{5: {ID: 5}},
		}

		rec, err := ResolveRecordByAnyKind(context.Background(), f, 5)
		require.NoError(t, err)
		require.Equal(t, models.KindIncome, rec.Kind)
		require.Equal(t, "Работа", rec.Source)
		require.Equal(t, []models.RecordKind{models.KindIncome}, f.calls)
	})

	t.Run("falls back to expense", func(t *testing.T) {
		t.Parallel()
		f := &stubFetcher{expenses: map[int64]models.Expense{6: {ID: 6, Category: "Кафе"}}}

		rec, err := ResolveRecordByAnyKind(context.Background(), f, 6)
		require.NoError(t, err)
		require.Equal(t, models.KindExpense, rec.Kind)
		require.Equal(t, "Кафе", rec.Category)
		require.Equal(t, []models.RecordKind{models.KindIncome, models.KindExpense}, f.calls)
	})

	t.Run("falls back after income failure", func(t *testing.T) {
		t.Parallel()
		f := &stubFetcher{
			incomeErr: ErrUnexpectedStatus,
			expenses:  map[int64]models.Expense{6: {ID: 6}},
		}

		rec, err := ResolveRecordByAnyKind(context.Background(), f, 6)
		require.NoError(t, err)
		require.Equal(t, models.KindExpense, rec.Kind)
	})

	t.Run("explicit order", func(t *testing.T) {
		t.Parallel()
		f := &stubFetcher{expenses: map[int64]models.Expense{6: {ID: 6}}}

		_, err := ResolveRecordByAnyKind(context.Background(), f, 6, models.KindExpense, models.KindIncome)
		require.NoError(t, err)
		require.Equal(t, []models.RecordKind{models.KindExpense}, f.calls)
	})

	t.Run("both missing", func(t *testing.T) {
		t.Parallel()
		f := &stubFetcher{}

		_, err := ResolveRecordByAnyKind(context.Background(), f, 404)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled context stops fallback", func(t *testing.T) {
		t.Parallel()
		f := &stubFetcher{incomeErr: errors.New("dial failed")}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ResolveRecordByAnyKind(ctx, f, 1)
		require.ErrorIs(t, err, context.Canceled)
		require.Len(t, f.calls, 1)
	})
}
