package model

import "time"

// Checkout links a user to a borrowed book. It is active while ReturnedAt is nil.
type Checkout struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     int64      `json:"book_id"`
	Book       *Book      `json:"book,omitempty"`
	CheckoutAt time.Time  `json:"checkout_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// IsActive returns true if the book has not been returned.
func (c *Checkout) IsActive() bool {
	return c.ReturnedAt == nil
}

// DaysOut returns the number of whole days elapsed since checkout.
func (c *Checkout) DaysOut(now time.Time) int {
	return int(now.Sub(c.CheckoutAt) / (24 * time.Hour))
}

// IsOverdue reports whether the checkout has been out for more than maxDays
// whole days.
func (c *Checkout) IsOverdue(now time.Time, maxDays int) bool {
	return c.DaysOut(now) > maxDays
}

// BelongsTo reports whether the checkout is owned by userID.
func (c *Checkout) BelongsTo(userID string) bool {
	return c.UserID == userID
}
