package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/metrics"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

// DefaultAdminListLimit caps ListAllActive when no limit is given.
const DefaultAdminListLimit = 100

// CheckoutService handles borrowing and returning books.
type CheckoutService struct {
	store   TxStore
	cache   BookCache
	policy  Policy
	now     func() time.Time
	metrics metrics.Recorder
	logger  *slog.Logger
}

// CheckoutOption configures a CheckoutService.
type CheckoutOption func(*CheckoutService)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) CheckoutOption {
	return func(s *CheckoutService) {
		s.now = now
	}
}

// NewCheckoutService creates a new CheckoutService. bookCache may be nil.
func NewCheckoutService(store TxStore, bookCache BookCache, policy Policy, recorder metrics.Recorder, logger *slog.Logger, opts ...CheckoutOption) *CheckoutService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &CheckoutService{
		store:   store,
		cache:   bookCache,
		policy:  policy,
		now:     time.Now,
		metrics: recorder,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the limits the service enforces.
func (s *CheckoutService) Policy() Policy {
	return s.policy
}

// ListActive returns the user's unreturned checkouts, oldest first.
func (s *CheckoutService) ListActive(ctx context.Context, userID string) ([]*model.Checkout, error) {
	active, err := s.store.ListActiveCheckoutsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list checkouts: %w", err)
	}
	if len(active) == 0 {
		return nil, ErrNoBooksBorrowed
	}
	return active, nil
}

// Create borrows bookID for userID. The book's amount is left as is.
func (s *CheckoutService) Create(ctx context.Context, bookID int64, userID string) (*model.Checkout, error) {
	start := time.Now()
	now := s.now().UTC()

	var created *model.Checkout
	err := s.store.WithinTx(ctx, func(tx CheckoutStore) error {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrUnknownUser
			}
			return fmt.Errorf("get user: %w", err)
		}

		active, err := tx.ListActiveCheckoutsByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list checkouts: %w", err)
		}

		if err := s.policy.CheckEligibility(user, active, now); err != nil {
			return err
		}

		book, err := tx.GetBookByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, repository.ErrBookNotFound) {
				return ErrNoBookFound
			}
			return fmt.Errorf("get book: %w", err)
		}

		if !book.IsAvailable() {
			return ErrBookUnavailable
		}

		checkout := &model.Checkout{
			UserID:     userID,
			BookID:     book.ID,
			Book:       book,
			CheckoutAt: now,
		}
		if err := tx.CreateCheckout(ctx, checkout); err != nil {
			return fmt.Errorf("create checkout: %w", err)
		}

		created = checkout
		return nil
	})
	s.metrics.ObserveCheckoutTxDuration(time.Since(start))

	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	s.metrics.IncCheckoutCreated()
	s.logger.Info("checkout_created",
		slog.Int64("checkout_id", created.ID),
		slog.Int64("book_id", created.BookID),
		slog.String("user_id", userID),
	)

	return created, nil
}

// Checkin returns checkoutID on behalf of userID. An overdue return adds a
// violation to the user. The book regains one copy; the checkout row is
// written back as it was read.
func (s *CheckoutService) Checkin(ctx context.Context, checkoutID int64, userID string) error {
	start := time.Now()
	now := s.now().UTC()

	var (
		bookID  int64
		overdue bool
	)
	err := s.store.WithinTx(ctx, func(tx CheckoutStore) error {
		checkout, err := tx.GetCheckoutByID(ctx, checkoutID)
		if err != nil {
			if errors.Is(err, repository.ErrCheckoutNotFound) {
				return ErrNoCheckoutFound
			}
			return fmt.Errorf("get checkout: %w", err)
		}

		if !checkout.BelongsTo(userID) {
			return ErrCheckoutOfAnotherUser
		}

		overdue = s.policy.IsOverdue(checkout, now)
		if overdue {
			if _, err := tx.IncrementUserViolations(ctx, userID); err != nil {
				return fmt.Errorf("record violation: %w", err)
			}
		}

		if _, err := tx.AdjustBookAmount(ctx, checkout.BookID, 1); err != nil {
			return fmt.Errorf("restock book: %w", err)
		}

		if err := tx.SaveCheckout(ctx, checkout); err != nil {
			return fmt.Errorf("save checkout: %w", err)
		}

		bookID = checkout.BookID
		return nil
	})
	s.metrics.ObserveCheckoutTxDuration(time.Since(start))

	if err != nil {
		return err
	}

	evictBook(ctx, s.cache, s.logger, bookID)
	s.metrics.IncCheckin(overdue)

	if overdue {
		s.logger.Info("violation_recorded",
			slog.Int64("checkout_id", checkoutID),
			slog.String("user_id", userID),
		)
	}
	s.logger.Info("checkout_closed",
		slog.Int64("checkout_id", checkoutID),
		slog.Int64("book_id", bookID),
		slog.String("user_id", userID),
		slog.Bool("overdue", overdue),
	)

	return nil
}

// ListAllActive returns unreturned checkouts across all users. With
// overdueOnly set, only checkouts past the borrow period are returned.
func (s *CheckoutService) ListAllActive(ctx context.Context, overdueOnly bool, limit int) ([]*model.Checkout, error) {
	if limit <= 0 || limit > DefaultAdminListLimit {
		limit = DefaultAdminListLimit
	}

	var before *time.Time
	if overdueOnly {
		// Whole days elapsed must exceed MaxBorrowDays, so the checkout is at
		// least MaxBorrowDays+1 days old.
		cutoff := s.now().UTC().Add(-time.Duration(s.policy.MaxBorrowDays+1) * 24 * time.Hour)
		before = &cutoff
	}

	checkouts, err := s.store.ListActiveCheckouts(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list active checkouts: %w", err)
	}
	return checkouts, nil
}

func (s *CheckoutService) recordRejection(err error) {
	switch {
	case errors.Is(err, ErrBorrowingProhibited):
		s.metrics.IncCheckoutRejected(metrics.RejectViolations)
	case errors.Is(err, ErrLimitReached):
		s.metrics.IncCheckoutRejected(metrics.RejectLimit)
	case errors.Is(err, ErrBookUnavailable):
		s.metrics.IncCheckoutRejected(metrics.RejectUnavailable)
	case errors.Is(err, ErrNoBookFound):
		s.metrics.IncCheckoutRejected(metrics.RejectNoBook)
	}
}
