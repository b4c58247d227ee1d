package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// Common errors for checkout repository operations.
var (
	ErrCheckoutNotFound = errors.New("checkout not found")
)

// checkoutWithBook selects checkout rows joined with their book.
func checkoutWithBook() *goqu.SelectDataset {
	return dialect.From(goqu.T("checkouts").As("c")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("c.book_id")))).
		Select(
			goqu.I("c.id"),
			goqu.I("c.user_id"),
			goqu.I("c.book_id"),
			goqu.I("c.checkout_at"),
			goqu.I("c.returned_at"),
			goqu.I("b.id"),
			goqu.I("b.author"),
			goqu.I("b.title"),
			goqu.I("b.location"),
			goqu.I("b.amount"),
			goqu.I("b.created_at"),
			goqu.I("b.updated_at"),
		)
}

// CreateCheckout inserts a new checkout and fills in its generated ID.
func (r *Repository) CreateCheckout(ctx context.Context, checkout *model.Checkout) error {
	query := `
		INSERT INTO checkouts (user_id, book_id, checkout_at, returned_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		checkout.UserID,
		checkout.BookID,
		checkout.CheckoutAt,
		checkout.ReturnedAt,
	).Scan(&checkout.ID)

	if err != nil {
		return fmt.Errorf("failed to create checkout: %w", err)
	}

	return nil
}

// GetCheckoutByID retrieves a checkout, active or not, with its book.
func (r *Repository) GetCheckoutByID(ctx context.Context, id int64) (*model.Checkout, error) {
	query, args, err := checkoutWithBook().
		Where(goqu.I("c.id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build checkout query: %w", err)
	}

	checkout, err := scanCheckout(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("failed to get checkout by ID: %w", err)
	}

	return checkout, nil
}

// ListActiveCheckoutsByUser returns the user's unreturned checkouts, oldest first.
func (r *Repository) ListActiveCheckoutsByUser(ctx context.Context, userID string) ([]*model.Checkout, error) {
	ds := checkoutWithBook().
		Where(
			goqu.I("c.user_id").Eq(userID),
			goqu.I("c.returned_at").IsNull(),
		).
		Order(goqu.I("c.checkout_at").Asc(), goqu.I("c.id").Asc())

	return r.queryCheckouts(ctx, ds)
}

// ListActiveCheckouts returns unreturned checkouts across all users, oldest
// first. When overdueBefore is non-nil only checkouts made at or before it
// are returned.
func (r *Repository) ListActiveCheckouts(ctx context.Context, overdueBefore *time.Time, limit int) ([]*model.Checkout, error) {
	ds := checkoutWithBook().
		Where(goqu.I("c.returned_at").IsNull()).
		Order(goqu.I("c.checkout_at").Asc(), goqu.I("c.id").Asc()).
		Limit(uint(limit))

	if overdueBefore != nil {
		ds = ds.Where(goqu.I("c.checkout_at").Lte(*overdueBefore))
	}

	return r.queryCheckouts(ctx, ds)
}

// SaveCheckout writes every mutable checkout column back to the database.
func (r *Repository) SaveCheckout(ctx context.Context, checkout *model.Checkout) error {
	query := `
		UPDATE checkouts
		SET user_id = $2, book_id = $3, checkout_at = $4, returned_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		checkout.ID,
		checkout.UserID,
		checkout.BookID,
		checkout.CheckoutAt,
		checkout.ReturnedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkout: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCheckoutNotFound
	}

	return nil
}

// queryCheckouts runs a prepared goqu select and scans every row.
func (r *Repository) queryCheckouts(ctx context.Context, ds *goqu.SelectDataset) ([]*model.Checkout, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build checkout query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkouts: %w", err)
	}
	defer rows.Close()

	var checkouts []*model.Checkout
	for rows.Next() {
		checkout, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout: %w", err)
		}
		checkouts = append(checkouts, checkout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkouts: %w", err)
	}

	return checkouts, nil
}

// scanCheckout scans a checkout joined with its book.
func scanCheckout(row pgx.Row) (*model.Checkout, error) {
	var checkout model.Checkout
	var book model.Book
	err := row.Scan(
		&checkout.ID,
		&checkout.UserID,
		&checkout.BookID,
		&checkout.CheckoutAt,
		&checkout.ReturnedAt,
		&book.ID,
		&book.Author,
		&book.Title,
		&book.Location,
		&book.Amount,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	checkout.Book = &book
	return &checkout, nil
}
