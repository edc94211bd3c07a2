package session

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

func TestChatSessionReset(t *testing.T) {
	t.Parallel()

	s := ChatSession{
		State:        StateEditAmount,
		DraftExpense: &ExpenseDraft{Amount: decimal.NewFromInt(10), Category: "Еда"},
	}
	s.SetEditing(models.KindExpense, 42)

	s.Reset()

	require.Equal(t, StateIdle, s.State)
	require.Nil(t, s.DraftIncome)
	require.Nil(t, s.DraftExpense)
	require.Nil(t, s.EditingRecordID)
	require.Nil(t, s.EditingRecordKind)
	require.True(t, s.IsIdle())
}

func TestChatSessionValidate(t *testing.T) {
	t.Parallel()

	t.Run("idle session is valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, NewChatSession().Validate())
	})

	t.Run("both drafts are rejected", func(t *testing.T) {
		t.Parallel()
		s := ChatSession{State: StateIncomeDate, DraftIncome: &IncomeDraft{}, DraftExpense: &ExpenseDraft{}}
		require.Error(t, s.Validate())
	})

	t.Run("draft of the other wizard is rejected", func(t *testing.T) {
		t.Parallel()
		s := ChatSession{State: StateExpenseCategory, DraftIncome: &IncomeDraft{}}
		require.Error(t, s.Validate())
	})

	t.Run("editing id outside edit states is rejected", func(t *testing.T) {
		t.Parallel()
		s := ChatSession{State: StateIncomeAmount, DraftIncome: &IncomeDraft{}}
		s.SetEditing(models.KindIncome, 1)
		require.Error(t, s.Validate())
	})

	t.Run("idle with draft is rejected", func(t *testing.T) {
		t.Parallel()
		s := ChatSession{State: StateIdle, DraftIncome: &IncomeDraft{}}
		require.Error(t, s.Validate())
	})

	t.Run("edit state with seeded draft is valid", func(t *testing.T) {
		t.Parallel()
		s := ChatSession{State: StateEditDate, DraftIncome: &IncomeDraft{Category: "Зарплата"}}
		s.SetEditing(models.KindIncome, 3)
		require.NoError(t, s.Validate())
	})
}

func TestChatSessionClone(t *testing.T) {
	t.Parallel()

	s := ChatSession{State: StateIncomeSource, DraftIncome: &IncomeDraft{Category: "Зарплата"}}
	c := s.Clone()
	c.DraftIncome.Category = "Подарок"

	require.Equal(t, "Зарплата", s.DraftIncome.Category)
	require.Equal(t, StateIncomeSource, c.State)
}

func TestStateGroups(t *testing.T) {
	t.Parallel()

	require.True(t, StateEditChooseIndex.IsEditing())
	require.True(t, StateEditCategory.IsEditing())
	require.False(t, StateIncomeAmount.IsEditing())
	require.True(t, StateIncomeDescription.IsIncome())
	require.False(t, StateExpenseDate.IsIncome())
	require.True(t, StateExpenseDescription.IsExpense())
	require.False(t, StateIdle.IsExpense())
}

func TestListingContextResolve(t *testing.T) {
	t.Parallel()

	ids := []int64{101, 102, 103}
	l := NewListingContext(models.KindIncome, 2026, 1, 0, ids)
	ids[0] = 999

	for i, want := range []int64{101, 102, 103} {
		got, ok := l.Resolve(i + 1)
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := l.Resolve(0)
	require.False(t, ok)
	_, ok = l.Resolve(4)
	require.False(t, ok)
	require.Equal(t, 3, l.Len())

	var empty *ListingContext
	_, ok = empty.Resolve(1)
	require.False(t, ok)
	require.Equal(t, 0, empty.Len())
}
