// Package testutil provides shared test infrastructure: in-memory databases
// seeded with transaction fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/riskflow/internal/model"
	"github.com/Veraticus/riskflow/internal/storage"
	"github.com/Veraticus/riskflow/internal/testutil/transactions"
)

// TestDB wraps a migrated in-memory storage and the transactions seeded into it.
type TestDB struct {
	Storage      *storage.SQLiteStorage
	Transactions []model.Transaction
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Fixture        *transactions.Fixture
	SkipMigrations bool
}

// SetupTestDB creates an empty, migrated in-memory database.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithFixture creates a database seeded with a fixture's transactions.
func SetupTestDBWithFixture(t *testing.T, fixture transactions.Fixture) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Fixture: &fixture})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Storage: store}
	if opts.Fixture != nil {
		db.Transactions = transactions.NewBuilder(t).WithFixture(*opts.Fixture).Build()
		if _, err := store.SaveTransactions(ctx, db.Transactions); err != nil {
			t.Fatalf("failed to seed transactions: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}
	return db
}
