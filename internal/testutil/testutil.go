// Package testutil holds fixtures shared by the integration tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// RequireEnv returns the variable's value, skipping the test when it is unset.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// dbLockKey serializes packages that rebuild the shared test schema.
const dbLockKey int64 = 0x5e1fde5c

// LockDB holds a session advisory lock until the test ends.
func LockDB(ctx context.Context, t testing.TB, pool *pgxpool.Pool) {
	t.Helper()
	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", dbLockKey); err != nil {
		conn.Release()
		t.Fatalf("advisory lock: %v", err)
	}
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", dbLockKey)
		conn.Release()
	})
}

// ClearRedisKeys deletes every key matching pattern.
func ClearRedisKeys(ctx context.Context, client *redis.Client, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return client.Del(ctx, batch...).Err()
	}
	return nil
}

// NewTestUser returns an unsaved reader with a unique email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	id := ulid.Make().String()
	return &model.User{
		ID:        id,
		Email:     "reader-" + id + "@shelfdesk.test",
		Name:      "Test Reader",
		Role:      model.RoleReader,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestBook returns an unsaved book shelved at A-1.
func NewTestBook(t testing.TB, author, title string, amount int) *model.Book {
	t.Helper()
	now := time.Now().UTC()
	return &model.Book{
		Author:    author,
		Title:     title,
		Location:  "A-1",
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestCheckout returns an unsaved checkout of book taken daysAgo days ago.
func NewTestCheckout(t testing.TB, userID string, book *model.Book, daysAgo int) *model.Checkout {
	t.Helper()
	return &model.Checkout{
		UserID:     userID,
		BookID:     book.ID,
		Book:       book,
		CheckoutAt: time.Now().UTC().AddDate(0, 0, -daysAgo),
	}
}

// KeyOption adjusts a key built by NewTestAPIKey.
type KeyOption func(*model.APIKey)

// WithTier sets the rate limit tier.
func WithTier(tier string) KeyOption {
	return func(k *model.APIKey) { k.RateLimitTier = tier }
}

// WithScopes replaces the default read and write scopes.
func WithScopes(scopes ...string) KeyOption {
	return func(k *model.APIKey) { k.Scopes = scopes }
}

// WithCreatedAt sets the creation time.
func WithCreatedAt(at time.Time) KeyOption {
	return func(k *model.APIKey) { k.CreatedAt = at }
}

// NewTestAPIKey returns an unsaved free-tier key with prefix abc123 and a
// unique hash.
func NewTestAPIKey(t testing.TB, userID string, opts ...KeyOption) *model.APIKey {
	t.Helper()
	id := ulid.Make().String()
	key := &model.APIKey{
		ID:            id,
		UserID:        userID,
		KeyHash:       "hash-" + id,
		KeyPrefix:     "abc123",
		Scopes:        []string{model.ScopeRead, model.ScopeWrite},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(key)
	}
	return key
}
