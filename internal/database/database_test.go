package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectRejectsBadTargets(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "unparseable url", url: "invalid://connection"},
		{name: "unreachable host", url: "postgres://localhost:59999/finance?connect_timeout=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			pool, err := Connect(ctx, tt.url)
			require.Error(t, err)
			require.Nil(t, pool)
		})
	}
}

func TestSharedPoolAndTx(t *testing.T) {
	p1 := TestPool(t)
	require.Same(t, p1, TestPool(t))

	tx := TestTx(t)
	ctx := context.Background()

	_, err := tx.Exec(ctx, `INSERT INTO chat_sessions (chat_id, state) VALUES ($1, 'income_amount')`, int64(-1))
	require.NoError(t, err)

	var state string
	require.NoError(t, tx.QueryRow(ctx, `SELECT state FROM chat_sessions WHERE chat_id = $1`, int64(-1)).Scan(&state))
	require.Equal(t, "income_amount", state)

	var visible bool
	require.NoError(t, p1.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE chat_id = $1)`, int64(-1)).Scan(&visible))
	require.False(t, visible, "uncommitted rows stay inside the test transaction")
}
