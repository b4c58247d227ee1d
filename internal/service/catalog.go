package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/cache"
	"github.com/shelfdesk/shelfdesk/internal/metrics"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

const (
	maxAuthorLength   = 255
	maxTitleLength    = 512
	maxLocationLength = 64
)

// CatalogService handles book search and lookup.
type CatalogService struct {
	store    CatalogStore
	cache    BookCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewCatalogService creates a new CatalogService. bookCache may be nil.
func NewCatalogService(store CatalogStore, bookCache BookCache, cacheTTL time.Duration, recorder metrics.Recorder, logger *slog.Logger) *CatalogService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		store:    store,
		cache:    bookCache,
		cacheTTL: cacheTTL,
		metrics:  recorder,
		logger:   logger,
	}
}

// Search returns books whose author equals author, followed by books whose
// title contains text ignoring case. A nil argument is not applied; an empty
// text matches every title. Each book appears once, at its first position.
func (s *CatalogService) Search(ctx context.Context, author, text *string) ([]*model.Book, error) {
	var found []*model.Book

	if author != nil {
		books, err := s.store.FindBooksByAuthor(ctx, *author)
		if err != nil {
			return nil, fmt.Errorf("search by author: %w", err)
		}
		found = append(found, books...)
	}

	if text != nil {
		books, err := s.store.FindBooksByTitle(ctx, *text)
		if err != nil {
			return nil, fmt.Errorf("search by title: %w", err)
		}
		found = append(found, books...)
	}

	found = dedupeBooks(found)
	s.metrics.IncSearch(len(found) == 0)

	if len(found) == 0 {
		return nil, ErrNoBooksFound
	}
	return found, nil
}

// GetByID returns a single book, reading through the cache.
func (s *CatalogService) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	if id <= 0 {
		return nil, ErrNoBookFound
	}
	if s.cache != nil {
		book, err := s.cache.GetBook(ctx, id)
		if err == nil {
			s.metrics.IncBookCacheHit()
			return book, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("book cache read failed",
				slog.Int64("book_id", id),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.IncBookCacheMiss()

		if missing, _ := s.cache.IsBookNotFound(ctx, id); missing {
			return nil, ErrNoBookFound
		}
	}

	book, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			if s.cache != nil {
				_ = s.cache.SetBookNotFound(ctx, id)
			}
			return nil, ErrNoBookFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetBook(ctx, book, s.cacheTTL); err != nil {
			s.logger.Warn("book cache write failed",
				slog.Int64("book_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return book, nil
}

// AddBookInput defines input for adding a book to the catalog.
type AddBookInput struct {
	Author   string
	Title    string
	Location string
	Amount   int
}

// AddBook validates and stores a new book.
func (s *CatalogService) AddBook(ctx context.Context, input AddBookInput) (*model.Book, error) {
	book := &model.Book{
		Author:   strings.TrimSpace(input.Author),
		Title:    strings.TrimSpace(input.Title),
		Location: strings.TrimSpace(input.Location),
		Amount:   input.Amount,
	}

	switch {
	case book.Author == "":
		return nil, invalidInput("author is required")
	case len(book.Author) > maxAuthorLength:
		return nil, invalidInput("author exceeds %d characters", maxAuthorLength)
	case book.Title == "":
		return nil, invalidInput("title is required")
	case len(book.Title) > maxTitleLength:
		return nil, invalidInput("title exceeds %d characters", maxTitleLength)
	case len(book.Location) > maxLocationLength:
		return nil, invalidInput("location exceeds %d characters", maxLocationLength)
	case book.Amount < 0:
		return nil, invalidInput("amount must not be negative")
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	// A lookup of the next id may have left a not-found marker behind.
	s.evict(ctx, book.ID)

	s.logger.Info("book_added",
		slog.Int64("book_id", book.ID),
		slog.String("title", book.Title),
		slog.Int("amount", book.Amount),
	)

	return book, nil
}

// SetAmount overwrites a book's available copies and evicts it from cache.
func (s *CatalogService) SetAmount(ctx context.Context, id int64, amount int) (*model.Book, error) {
	if amount < 0 {
		return nil, invalidInput("amount must not be negative")
	}

	if err := s.store.SetBookAmount(ctx, id, amount); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrNoBookFound
		}
		return nil, fmt.Errorf("set book amount: %w", err)
	}

	s.evict(ctx, id)

	book, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload book: %w", err)
	}
	return book, nil
}

// Evict drops cached entries, including not-found markers, for the given
// books. Callers that insert books inside a transaction evict after commit.
func (s *CatalogService) Evict(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		s.evict(ctx, id)
	}
}

func (s *CatalogService) evict(ctx context.Context, id int64) {
	evictBook(ctx, s.cache, s.logger, id)
}

func evictBook(ctx context.Context, bookCache BookCache, logger *slog.Logger, id int64) {
	if bookCache == nil {
		return
	}
	if err := bookCache.DeleteBook(ctx, id); err != nil {
		logger.Warn("book cache eviction failed",
			slog.Int64("book_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func dedupeBooks(books []*model.Book) []*model.Book {
	if len(books) == 0 {
		return books
	}
	seen := make(map[int64]struct{}, len(books))
	out := books[:0]
	for _, b := range books {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}
