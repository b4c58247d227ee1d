package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// Errors returned by the user store.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

func userQuery(where exp.Expression) *goqu.SelectDataset {
	return dialect.From("users").Select(
		"id", "email", "name",
		goqu.COALESCE(goqu.C("password_hash"), ""),
		"role", "violations", "created_at",
	).Where(where)
}

// CreateUser stores a user. A blank password hash is stored as NULL so the
// user can only authenticate with API keys.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleReader
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, violations, created_at)
		VALUES ($1, $2, $3, NULLIF($4::text, ''), $5, $6, $7)`,
		user.ID, user.Email, user.Name, user.PasswordHash,
		user.Role, user.Violations, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID looks a user up by ULID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, goqu.C("id").Eq(id))
}

// GetUserByEmail looks a user up by their (lower-cased) email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, goqu.C("email").Eq(email))
}

func (r *Repository) getUser(ctx context.Context, where exp.Expression) (*model.User, error) {
	query, args, err := userQuery(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var u model.User
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Violations, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// IncrementUserViolations records one overdue return and returns the new count.
func (r *Repository) IncrementUserViolations(ctx context.Context, id string) (int, error) {
	var violations int
	err := r.db.QueryRow(ctx,
		`UPDATE users SET violations = violations + 1 WHERE id = $1 RETURNING violations`, id,
	).Scan(&violations)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment user violations: %w", err)
	}
	return violations, nil
}

// SetUserViolations overwrites the violation counter.
func (r *Repository) SetUserViolations(ctx context.Context, id string, violations int) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET violations = $2 WHERE id = $1`, id, violations)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("violations must not be negative: %w", err)
		}
		return fmt.Errorf("failed to set user violations: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
