package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// Common errors for book repository operations.
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrNegativeAmount = errors.New("book amount cannot be negative")
)

var bookColumns = []any{
	goqu.C("id"),
	goqu.C("author"),
	goqu.C("title"),
	goqu.C("location"),
	goqu.C("amount"),
	goqu.C("created_at"),
	goqu.C("updated_at"),
}

// likeEscaper escapes LIKE wildcards so user text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateBook inserts a new book and fills in its generated ID and timestamps.
func (r *Repository) CreateBook(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (author, title, location, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		book.Author,
		book.Title,
		book.Location,
		book.Amount,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		if isCheckViolation(err) {
			return ErrNegativeAmount
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(ctx context.Context, id int64) (*model.Book, error) {
	query, args, err := dialect.From("books").
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	book, err := scanBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return book, nil
}

// FindBooksByAuthor returns books whose author equals author exactly.
func (r *Repository) FindBooksByAuthor(ctx context.Context, author string) ([]*model.Book, error) {
	ds := dialect.From("books").
		Select(bookColumns...).
		Where(goqu.C("author").Eq(author)).
		Order(goqu.C("id").Asc())

	return r.queryBooks(ctx, ds)
}

// FindBooksByTitle returns books whose title contains text, ignoring case.
// An empty text matches every book.
func (r *Repository) FindBooksByTitle(ctx context.Context, text string) ([]*model.Book, error) {
	pattern := "%" + likeEscaper.Replace(text) + "%"

	ds := dialect.From("books").
		Select(bookColumns...).
		Where(goqu.C("title").ILike(pattern)).
		Order(goqu.C("id").Asc())

	return r.queryBooks(ctx, ds)
}

// SetBookAmount overwrites the available copy count.
func (r *Repository) SetBookAmount(ctx context.Context, id int64, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	query := `
		UPDATE books
		SET amount = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to set book amount: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBookNotFound
	}

	return nil
}

// AdjustBookAmount adds delta to the available copy count and returns the new
// value. The amount column's check constraint rejects negative results.
func (r *Repository) AdjustBookAmount(ctx context.Context, id int64, delta int) (int, error) {
	query := `
		UPDATE books
		SET amount = amount + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING amount
	`

	var amount int
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBookNotFound
		}
		if isCheckViolation(err) {
			return 0, ErrNegativeAmount
		}
		return 0, fmt.Errorf("failed to adjust book amount: %w", err)
	}

	return amount, nil
}

// queryBooks runs a prepared goqu select and scans every row.
func (r *Repository) queryBooks(ctx context.Context, ds *goqu.SelectDataset) ([]*model.Book, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// scanBook scans a single row into a Book model.
func scanBook(row pgx.Row) (*model.Book, error) {
	var book model.Book
	err := row.Scan(
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
	return &book, nil
}
