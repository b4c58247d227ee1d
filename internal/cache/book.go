package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// Cache key prefixes and TTLs.
const (
	bookKeyPrefix     = keyspace + "book:"
	negCacheKeySuffix = ":neg"

	// DefaultBookTTL is the TTL for cached book data.
	DefaultBookTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func bookKey(id int64) string {
	return bookKeyPrefix + strconv.FormatInt(id, 10)
}

// GetBook retrieves a book from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	var cached model.CachedBook
	res := c.client.HGetAll(ctx, bookKey(id))
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(res.Val()) == 0 {
		return nil, ErrCacheMiss
	}

	if err := res.Scan(&cached); err != nil {
		return nil, fmt.Errorf("scan cached book: %w", err)
	}

	book, err := bookFromCache(id, &cached)
	if err != nil {
		// Corrupted entry, drop it and report a miss.
		c.client.Del(ctx, bookKey(id))
		return nil, ErrCacheMiss
	}

	return book, nil
}

// SetBook stores a book in cache. A non-positive ttl uses DefaultBookTTL.
func (c *Cache) SetBook(ctx context.Context, book *model.Book, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultBookTTL
	}
	key := bookKey(book.ID)
	cached := bookToCache(book)

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, cached)
	pipe.Expire(ctx, key, ttl)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache book: %w", err)
	}

	return nil
}

// DeleteBook removes a book and its negative entry from cache.
func (c *Cache) DeleteBook(ctx context.Context, id int64) error {
	key := bookKey(id)
	if err := c.client.Del(ctx, key, key+negCacheKeySuffix).Err(); err != nil {
		return fmt.Errorf("failed to delete cached book: %w", err)
	}
	return nil
}

// SetBookNotFound records that a book ID does not exist.
func (c *Cache) SetBookNotFound(ctx context.Context, id int64) error {
	return c.client.Set(ctx, bookKey(id)+negCacheKeySuffix, "1", NegativeCacheTTL).Err()
}

// IsBookNotFound reports whether a book ID is negatively cached.
func (c *Cache) IsBookNotFound(ctx context.Context, id int64) (bool, error) {
	n, err := c.client.Exists(ctx, bookKey(id)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

func bookToCache(book *model.Book) *model.CachedBook {
	return &model.CachedBook{
		Author:   book.Author,
		Title:    book.Title,
		Location: book.Location,
		Amount:   strconv.Itoa(book.Amount),
	}
}

func bookFromCache(id int64, cached *model.CachedBook) (*model.Book, error) {
	amount, err := strconv.Atoi(cached.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	return &model.Book{
		ID:       id,
		Author:   cached.Author,
		Title:    cached.Title,
		Location: cached.Location,
		Amount:   amount,
	}, nil
}
