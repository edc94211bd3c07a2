package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the variable enabling Postgres integration tests.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testPoolErr  error
)

// TestPool returns a process-wide pool with migrations applied. The test is
// skipped when TEST_DATABASE_URL is unset.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv(TestDatabaseURLEnv)
	if dbURL == "" {
		t.Skip(TestDatabaseURLEnv + " not set, skipping integration test")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()
		testPool, testPoolErr = Connect(ctx, dbURL)
		if testPoolErr != nil {
			return
		}
		testPoolErr = RunMigrations(ctx, testPool)
	})
	if testPoolErr != nil {
		t.Fatalf("failed to set up test database: %v", testPoolErr)
	}

	return testPool
}

// TestTx opens a transaction on the shared pool and rolls it back at cleanup,
// so session rows written by one test are never seen by another.
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}
