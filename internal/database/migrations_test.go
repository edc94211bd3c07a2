package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestPool(t)
	ctx := context.Background()

	err := RunMigrations(ctx, pool)
	require.NoError(t, err)

	var tableExists bool
	err = pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'chat_sessions'
		)
	`).Scan(&tableExists)
	require.NoError(t, err)
	require.True(t, tableExists)

	var dataType string
	err = pool.QueryRow(ctx, `
		SELECT data_type FROM information_schema.columns
		WHERE table_name = 'chat_sessions' AND column_name = 'payload'
	`).Scan(&dataType)
	require.NoError(t, err)
	require.Equal(t, "jsonb", dataType)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestPool(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, RunMigrations(ctx, pool))
	}
}

func TestRunMigrations_WithContextCancellation(t *testing.T) {
	pool := TestPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunMigrations(ctx, pool)
	require.Error(t, err)
}

func TestRunMigrations_InsideTransaction(t *testing.T) {
	tx := TestTx(t)
	require.NoError(t, RunMigrations(context.Background(), tx))
}
