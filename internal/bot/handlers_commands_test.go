package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		command string
		want    string
	}{
		{
			name:    "simple command with args",
			text:    "/income 50000 Зарплата",
			command: "/income",
			want:    "50000 Зарплата",
		},
		{
			name:    "command with no args",
			text:    "/summary",
			command: "/summary",
			want:    "",
		},
		{
			name:    "command with bot mention and args",
			text:    "/expense@mybot 1500 Продукты",
			command: "/expense",
			want:    "1500 Продукты",
		},
		{
			name:    "command with bot mention and no args",
			text:    "/summary@mybot",
			command: "/summary",
			want:    "",
		},
		{
			name:    "command with extra spaces",
			text:    "/income   100  Подарок  ",
			command: "/income",
			want:    "100  Подарок",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, extractCommandArgs(tt.text, tt.command))
		})
	}
}

func TestSplitCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantName string
		wantArgs string
	}{
		{name: "plain command", text: "/start", wantName: "/start"},
		{name: "upper case", text: "/HELP", wantName: "/help"},
		{name: "bot mention", text: "/income@finance_bot 10 Кафе", wantName: "/income", wantArgs: "10 Кафе"},
		{name: "args", text: "/expense 1 500 Продукты", wantName: "/expense", wantArgs: "1 500 Продукты"},
		{name: "not a command", text: "привет", wantName: ""},
		{name: "slash only", text: "/", wantName: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			name, args := splitCommand(tt.text)
			require.Equal(t, tt.wantName, name)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestParseQuickEntry(t *testing.T) {
	t.Parallel()

	t.Run("amount category and text", func(t *testing.T) {
		t.Parallel()

		entry, err := parseQuickEntry("1500,50 Продукты молоко и хлеб")
		require.NoError(t, err)
		require.True(t, decimal.RequireFromString("1500.50").Equal(entry.amount))
		require.Equal(t, "Продукты", entry.category)
		require.Equal(t, "молоко и хлеб", entry.extra)
	})

	t.Run("amount and category", func(t *testing.T) {
		t.Parallel()

		entry, err := parseQuickEntry("50000 Зарплата")
		require.NoError(t, err)
		require.Equal(t, "Зарплата", entry.category)
		require.Empty(t, entry.extra)
	})

	for _, args := range []string{"", "100", "abc Кафе", "-5 Кафе", "0 Кафе"} {
		t.Run("rejects "+args, func(t *testing.T) {
			t.Parallel()

			_, err := parseQuickEntry(args)
			require.Error(t, err)
		})
	}
}

func TestStartText(t *testing.T) {
	t.Parallel()

	require.Contains(t, startText("Анна"), "Здравствуйте, Анна!")
	require.Contains(t, startText(""), "Здравствуйте!")
	require.Contains(t, startText("<b>"), "Здравствуйте, &lt;b&gt;!")
}
