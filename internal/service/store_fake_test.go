package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

// memStore is an in-memory TxStore. WithinTx restores the previous state
// when the callback fails.
type memStore struct {
	mu             sync.Mutex
	users          map[string]model.User
	books          map[int64]model.Book
	checkouts      map[int64]model.Checkout
	keys           map[string]model.APIKey
	nextBookID     int64
	nextCheckoutID int64

	// failAdjust makes AdjustBookAmount fail, to exercise rollback.
	failAdjust error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]model.User{},
		books:     map[int64]model.Book{},
		checkouts: map[int64]model.Checkout{},
		keys:      map[string]model.APIKey{},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx CheckoutStore) error) error {
	s.mu.Lock()
	users := cloneMap(s.users)
	books := cloneMap(s.books)
	checkouts := cloneMap(s.checkouts)
	nextCheckoutID := s.nextCheckoutID
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.books, s.checkouts = users, books, checkouts
		s.nextCheckoutID = nextCheckoutID
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// seed helpers

func (s *memStore) addUser(id string, violations int) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: id, Email: id + "@shelfdesk.test", Role: model.RoleReader, Violations: violations}
	s.users[id] = u
	return &u
}

func (s *memStore) addBook(author, title string, amount int) *model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBookID++
	b := model.Book{ID: s.nextBookID, Author: author, Title: title, Amount: amount}
	s.books[b.ID] = b
	return &b
}

func (s *memStore) addCheckout(userID string, bookID int64, at time.Time) *model.Checkout {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCheckoutID++
	c := model.Checkout{ID: s.nextCheckoutID, UserID: userID, BookID: bookID, CheckoutAt: at}
	s.checkouts[c.ID] = c
	return &c
}

func (s *memStore) bookAmount(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id].Amount
}

func (s *memStore) userViolations(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Violations
}

func (s *memStore) checkoutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checkouts)
}

// CheckoutStore / CatalogStore / AccountStore

func (s *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) SetUserViolations(ctx context.Context, id string, violations int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Violations = violations
	s.users[id] = u
	return nil
}

func (s *memStore) IncrementUserViolations(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	u.Violations++
	s.users[id] = u
	return u.Violations, nil
}

func (s *memStore) CreateBook(ctx context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBookID++
	book.ID = s.nextBookID
	s.books[book.ID] = *book
	return nil
}

func (s *memStore) GetBookByID(ctx context.Context, id int64) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return &b, nil
}

func (s *memStore) FindBooksByAuthor(ctx context.Context, author string) ([]*model.Book, error) {
	return s.findBooks(func(b model.Book) bool { return b.Author == author }), nil
}

func (s *memStore) FindBooksByTitle(ctx context.Context, text string) ([]*model.Book, error) {
	text = strings.ToLower(text)
	return s.findBooks(func(b model.Book) bool { return strings.Contains(strings.ToLower(b.Title), text) }), nil
}

func (s *memStore) findBooks(match func(model.Book) bool) []*model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Book
	for _, b := range s.books {
		if match(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) SetBookAmount(ctx context.Context, id int64, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return repository.ErrBookNotFound
	}
	b.Amount = amount
	s.books[id] = b
	return nil
}

func (s *memStore) AdjustBookAmount(ctx context.Context, id int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAdjust != nil {
		return 0, s.failAdjust
	}
	b, ok := s.books[id]
	if !ok {
		return 0, repository.ErrBookNotFound
	}
	if b.Amount+delta < 0 {
		return 0, repository.ErrNegativeAmount
	}
	b.Amount += delta
	s.books[id] = b
	return b.Amount, nil
}

func (s *memStore) CreateCheckout(ctx context.Context, checkout *model.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCheckoutID++
	checkout.ID = s.nextCheckoutID
	stored := *checkout
	stored.Book = nil
	s.checkouts[checkout.ID] = stored
	return nil
}

func (s *memStore) GetCheckoutByID(ctx context.Context, id int64) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.checkouts[id]
	if !ok {
		return nil, repository.ErrCheckoutNotFound
	}
	return s.withBook(c), nil
}

func (s *memStore) ListActiveCheckoutsByUser(ctx context.Context, userID string) ([]*model.Checkout, error) {
	return s.listActive(func(c model.Checkout) bool { return c.UserID == userID }, 0), nil
}

func (s *memStore) ListActiveCheckouts(ctx context.Context, overdueBefore *time.Time, limit int) ([]*model.Checkout, error) {
	return s.listActive(func(c model.Checkout) bool {
		return overdueBefore == nil || !c.CheckoutAt.After(*overdueBefore)
	}, limit), nil
}

func (s *memStore) listActive(match func(model.Checkout) bool, limit int) []*model.Checkout {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Checkout
	for _, c := range s.checkouts {
		if c.ReturnedAt == nil && match(c) {
			out = append(out, s.withBook(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckoutAt.Equal(out[j].CheckoutAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CheckoutAt.Before(out[j].CheckoutAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) withBook(c model.Checkout) *model.Checkout {
	if b, ok := s.books[c.BookID]; ok {
		c.Book = &b
	}
	return &c
}

func (s *memStore) SaveCheckout(ctx context.Context, checkout *model.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkouts[checkout.ID]; !ok {
		return repository.ErrCheckoutNotFound
	}
	stored := *checkout
	stored.Book = nil
	s.checkouts[checkout.ID] = stored
	return nil
}

// KeyStore

func (s *memStore) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = *key
	return nil
}

func (s *memStore) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	return &k, nil
}

func (s *memStore) ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			k := k
			out = append(out, &k)
		}
	}
	return out, nil
}

func (s *memStore) RevokeAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.RevokedAt != nil {
		return repository.ErrAPIKeyNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	s.keys[id] = k
	return nil
}

var errStoreDown = errors.New("store down")
