package service

import (
	"context"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

// CatalogStore is the book persistence used by CatalogService.
type CatalogStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, id int64) (*model.Book, error)
	FindBooksByAuthor(ctx context.Context, author string) ([]*model.Book, error)
	FindBooksByTitle(ctx context.Context, text string) ([]*model.Book, error)
	SetBookAmount(ctx context.Context, id int64, amount int) error
}

// CheckoutStore is the persistence a borrow or return touches.
type CheckoutStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	IncrementUserViolations(ctx context.Context, id string) (int, error)
	GetBookByID(ctx context.Context, id int64) (*model.Book, error)
	AdjustBookAmount(ctx context.Context, id int64, delta int) (int, error)
	CreateCheckout(ctx context.Context, checkout *model.Checkout) error
	GetCheckoutByID(ctx context.Context, id int64) (*model.Checkout, error)
	ListActiveCheckoutsByUser(ctx context.Context, userID string) ([]*model.Checkout, error)
	ListActiveCheckouts(ctx context.Context, overdueBefore *time.Time, limit int) ([]*model.Checkout, error)
	SaveCheckout(ctx context.Context, checkout *model.Checkout) error
}

// TxStore is a CheckoutStore that can run a unit of work in one transaction.
type TxStore interface {
	CheckoutStore
	WithinTx(ctx context.Context, fn func(tx CheckoutStore) error) error
}

// AccountStore is the user persistence used by AccountService.
type AccountStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetUserViolations(ctx context.Context, id string, violations int) error
}

// KeyStore is the API key persistence used by KeyService.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// BookCache is the read-through cache in front of book lookups.
type BookCache interface {
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	SetBook(ctx context.Context, book *model.Book, ttl time.Duration) error
	DeleteBook(ctx context.Context, id int64) error
	SetBookNotFound(ctx context.Context, id int64) error
	IsBookNotFound(ctx context.Context, id int64) (bool, error)
}

type repoStore struct {
	*repository.Repository
}

// StoreFromRepository adapts a Repository to TxStore.
func StoreFromRepository(repo *repository.Repository) TxStore {
	return repoStore{Repository: repo}
}

func (s repoStore) WithinTx(ctx context.Context, fn func(tx CheckoutStore) error) error {
	return s.InTx(ctx, func(tx *repository.Repository) error {
		return fn(tx)
	})
}
