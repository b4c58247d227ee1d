package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shelfdesk/shelfdesk/internal/cache"
	"github.com/shelfdesk/shelfdesk/internal/model"
)

type mockBookCache struct {
	mock.Mock
}

func (m *mockBookCache) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*model.Book)
	return book, args.Error(1)
}

func (m *mockBookCache) SetBook(ctx context.Context, book *model.Book, ttl time.Duration) error {
	return m.Called(ctx, book, ttl).Error(0)
}

func (m *mockBookCache) DeleteBook(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookCache) SetBookNotFound(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookCache) IsBookNotFound(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// memBookCache mirrors the Redis book cache: SetBook and DeleteBook both
// clear the not-found marker.
type memBookCache struct {
	books   map[int64]model.Book
	missing map[int64]bool
}

func newMemBookCache() *memBookCache {
	return &memBookCache{books: map[int64]model.Book{}, missing: map[int64]bool{}}
}

func (c *memBookCache) GetBook(_ context.Context, id int64) (*model.Book, error) {
	book, ok := c.books[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &book, nil
}

func (c *memBookCache) SetBook(_ context.Context, book *model.Book, _ time.Duration) error {
	c.books[book.ID] = *book
	delete(c.missing, book.ID)
	return nil
}

func (c *memBookCache) DeleteBook(_ context.Context, id int64) error {
	delete(c.books, id)
	delete(c.missing, id)
	return nil
}

func (c *memBookCache) SetBookNotFound(_ context.Context, id int64) error {
	c.missing[id] = true
	return nil
}

func (c *memBookCache) IsBookNotFound(_ context.Context, id int64) (bool, error) {
	return c.missing[id], nil
}
