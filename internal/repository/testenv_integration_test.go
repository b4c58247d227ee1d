//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/testutil"
)

// newTestEnv connects to DATABASE_URL, serializes on the advisory lock and
// rebuilds the schema from the embedded migrations.
func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	testutil.LockDB(ctx, t, repo.Pool())

	if _, err := repo.Migrate(ctx, MigrateDown); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if _, err := repo.Migrate(ctx, MigrateUp); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	return ctx, repo
}

func mustCreateUser(ctx context.Context, t *testing.T, repo *Repository) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func mustCreateBook(ctx context.Context, t *testing.T, repo *Repository, author, title string, amount int) *model.Book {
	t.Helper()
	book := testutil.NewTestBook(t, author, title, amount)
	if err := repo.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	return book
}

func mustCreateCheckout(ctx context.Context, t *testing.T, repo *Repository, userID string, book *model.Book, daysAgo int) *model.Checkout {
	t.Helper()
	checkout := testutil.NewTestCheckout(t, userID, book, daysAgo)
	if err := repo.CreateCheckout(ctx, checkout); err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}
	return checkout
}
