package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// ErrAPIKeyNotFound is returned when no key (or no active key) matches.
var ErrAPIKeyNotFound = errors.New("API key not found")

func apiKeyQuery() *goqu.SelectDataset {
	return dialect.From("api_keys").Select(
		"id", "user_id", "key_hash", "key_prefix", "scopes",
		"rate_limit_tier", "name", "revoked_at", "last_used_at", "created_at",
	)
}

// CreateAPIKey stores a newly issued key.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO api_keys (id, user_id, key_hash, key_prefix, scopes, rate_limit_tier, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.KeyHash, key.KeyPrefix,
		pq.Array(key.Scopes), key.RateLimitTier, key.Name, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

// GetAPIKeyByID returns a key whether or not it is revoked.
func (r *Repository) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	keys, err := r.queryAPIKeys(ctx, apiKeyQuery().Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrAPIKeyNotFound
	}
	return keys[0], nil
}

// GetAPIKeysByPrefix returns the active keys sharing a visible prefix; the
// caller verifies the hash of each candidate.
func (r *Repository) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error) {
	return r.queryAPIKeys(ctx, apiKeyQuery().Where(
		goqu.C("key_prefix").Eq(prefix),
		goqu.C("revoked_at").IsNull(),
	))
}

// ListAPIKeysByUserID returns every key of a user, newest first.
func (r *Repository) ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error) {
	return r.queryAPIKeys(ctx, apiKeyQuery().
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()))
}

// RevokeAPIKey marks an active key revoked.
func (r *Repository) RevokeAPIKey(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed stamps last_used_at; the auth middleware calls it in
// the background.
func (r *Repository) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to update API key last used: %w", err)
	}
	return nil
}

func (r *Repository) queryAPIKeys(ctx context.Context, ds *goqu.SelectDataset) ([]*model.APIKey, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build api key query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}
	return keys, nil
}

func scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	var key model.APIKey
	err := row.Scan(
		&key.ID, &key.UserID, &key.KeyHash, &key.KeyPrefix, pq.Array(&key.Scopes),
		&key.RateLimitTier, &key.Name, &key.RevokedAt, &key.LastUsedAt, &key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
