package service

import (
	"time"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// Policy holds the borrowing limits. Comparisons are strict: a user is
// refused only once a count is greater than its maximum.
type Policy struct {
	MaxBooksAtOnce int `json:"max_books_at_once"`
	MaxViolations  int `json:"max_violations"`
	MaxBorrowDays  int `json:"max_borrow_days"`
}

// DefaultPolicy returns the stock library limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxBooksAtOnce: 3,
		MaxViolations:  2,
		MaxBorrowDays:  14,
	}
}

// IsOverdue reports whether a checkout has been out longer than MaxBorrowDays
// whole days at now.
func (p Policy) IsOverdue(c *model.Checkout, now time.Time) bool {
	return c.IsOverdue(now, p.MaxBorrowDays)
}

// ProjectedViolations counts active checkouts that will become violations
// when returned.
func (p Policy) ProjectedViolations(active []*model.Checkout, now time.Time) int {
	n := 0
	for _, c := range active {
		if p.IsOverdue(c, now) {
			n++
		}
	}
	return n
}

// CheckEligibility decides whether user may open another checkout given the
// checkouts they currently hold. The violation rule is evaluated first.
func (p Policy) CheckEligibility(user *model.User, active []*model.Checkout, now time.Time) error {
	if user.Violations+p.ProjectedViolations(active, now) > p.MaxViolations {
		return ErrBorrowingProhibited
	}
	if len(active) > p.MaxBooksAtOnce {
		return &LimitError{Limit: p.MaxBooksAtOnce}
	}
	return nil
}
