package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

func listingChat() *session.Chat {
	return &session.Chat{ChatID: testChatID, Session: session.NewChatSession(), UserID: testUserID}
}

func TestListerRender(t *testing.T) {
	t.Parallel()

	t.Run("indexes records in display order", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		a := backend.seedIncome(testUserID, 50000, jan(15), "Зарплата", "ООО Ромашка")
		b := backend.seedIncome(testUserID, 700, jan(20), "Кэшбэк", "")
		backend.seedIncome(testUserID+1, 999, jan(20), "Чужое", "")
		backend.seedIncome(testUserID, 1, jan(1).AddDate(0, 1, 0), "Февраль", "")

		chat := listingChat()
		listing, err := NewLister(backend).Render(context.Background(), chat, appmodels.KindIncome, 2026, 1, 0)
		require.NoError(t, err)

		assert.Equal(t, []int64{a.ID, b.ID}, listing.IDs)
		assert.Equal(t, 1, listing.TotalPages)
		assert.Equal(t, "<b>📈 Доходы за январь 2026</b>\n\n"+
			"1. • 50 000 ₽ | 15.01\n Зарплата • ООО Ромашка\n"+
			"2. • 700 ₽ | 20.01\n Кэшбэк", listing.Text)

		for index, want := range map[int]int64{1: a.ID, 2: b.ID} {
			id, ok := NewLister(backend).Resolve(chat, index)
			require.True(t, ok)
			assert.Equal(t, want, id)
		}
		for _, index := range []int{0, 3, -1} {
			_, ok := NewLister(backend).Resolve(chat, index)
			assert.False(t, ok, "index %d", index)
		}
	})

	t.Run("second render supersedes the first", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		in := backend.seedIncome(testUserID, 100, jan(2), "Подарок", "")
		ex := backend.seedExpense(testUserID, 200, jan(3), "Кафе", "")
		lister := NewLister(backend)
		chat := listingChat()

		_, err := lister.Render(context.Background(), chat, appmodels.KindIncome, 2026, 1, 0)
		require.NoError(t, err)
		_, err = lister.Render(context.Background(), chat, appmodels.KindExpense, 2026, 1, 0)
		require.NoError(t, err)

		id, ok := lister.Resolve(chat, 1)
		require.True(t, ok)
		assert.Equal(t, ex.ID, id)
		assert.NotEqual(t, in.ID, id)
		assert.Equal(t, appmodels.KindExpense, chat.Listing.RecordKind)
	})

	t.Run("empty page replaces the context", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		backend.seedExpense(testUserID, 200, jan(3), "Кафе", "")
		lister := NewLister(backend)
		chat := listingChat()

		_, err := lister.Render(context.Background(), chat, appmodels.KindExpense, 2026, 1, 0)
		require.NoError(t, err)

		listing, err := lister.Render(context.Background(), chat, appmodels.KindExpense, 2025, 6, 0)
		require.NoError(t, err)
		assert.Contains(t, listing.Text, "Записей нет.")
		assert.Equal(t, 0, chat.Listing.Len())

		_, ok := lister.Resolve(chat, 1)
		assert.False(t, ok)
	})

	t.Run("failure keeps the previous context", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		ex := backend.seedExpense(testUserID, 200, jan(3), "Кафе", "")
		lister := NewLister(backend)
		chat := listingChat()

		_, err := lister.Render(context.Background(), chat, appmodels.KindExpense, 2026, 1, 0)
		require.NoError(t, err)

		backend.listErr = errors.New("bad gateway")
		_, err = lister.Render(context.Background(), chat, appmodels.KindIncome, 2026, 1, 0)
		require.ErrorIs(t, err, backend.listErr)

		id, ok := lister.Resolve(chat, 1)
		require.True(t, ok)
		assert.Equal(t, ex.ID, id)
	})

	t.Run("pages and escapes", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		backend.pageSize = 1
		backend.seedExpense(testUserID, 10, jan(1), "Кафе", "")
		backend.seedExpense(testUserID, 20, jan(2), "R&D <lab>", "")

		listing, err := NewLister(backend).Render(context.Background(), listingChat(), appmodels.KindExpense, 2026, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, listing.TotalPages)
		assert.Contains(t, listing.Text, "Страница 2 из 2")
		assert.Contains(t, listing.Text, "R&amp;D &lt;lab&gt;")
	})

	t.Run("rejects chats without a backend user", func(t *testing.T) {
		t.Parallel()

		chat := listingChat()
		chat.UserID = 0
		_, err := NewLister(newFakeBackend()).Render(context.Background(), chat, appmodels.KindIncome, 2026, 1, 0)
		require.ErrorIs(t, err, errNoBackendUser)
		assert.Nil(t, chat.Listing)
	})

	t.Run("rejects invalid month", func(t *testing.T) {
		t.Parallel()

		_, err := NewLister(newFakeBackend()).Render(context.Background(), listingChat(), appmodels.KindIncome, 2026, 13, 0)
		require.Error(t, err)
	})
}

func TestFormatRecordLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		index  int
		record appmodels.Record
		want   string
	}{
		{
			name:  "income with source",
			index: 3,
			record: appmodels.Record{
				Kind: appmodels.KindIncome, Amount: decimal.NewFromInt(50000), Date: jan(15),
				Category: "Зарплата", Source: "ООО Ромашка", Description: "аванс",
			},
			want: "3. • 50 000 ₽ | 15.01\n Зарплата • ООО Ромашка",
		},
		{
			name:  "income falls back to description",
			index: 1,
			record: appmodels.Record{
				Kind: appmodels.KindIncome, Amount: decimal.NewFromInt(100), Date: jan(2),
				Category: "Подарок", Source: "null", Description: "от бабушки",
			},
			want: "1. • 100 ₽ | 02.01\n Подарок • от бабушки",
		},
		{
			name:  "expense without description",
			index: 2,
			record: appmodels.Record{
				Kind: appmodels.KindExpense, Amount: decimal.RequireFromString("1500.49"), Date: jan(9),
				Category: "Продукты",
			},
			want: "2. • 1 500 ₽ | 09.01\n Продукты",
		},
		{
			name:  "expense with description",
			index: 10,
			record: appmodels.Record{
				Kind: appmodels.KindExpense, Amount: decimal.NewFromInt(1234567), Date: jan(31),
				Category: "Авто", Description: "ремонт",
			},
			want: "10. • 1 234 567 ₽ | 31.01\n Авто • ремонт",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatRecordLine(tt.index, tt.record))
		})
	}
}
