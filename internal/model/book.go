// Package model defines domain entities for the application.
package model

import "time"

// Book is a catalog row. Amount is the number of copies currently on the shelf.
type Book struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAvailable reports whether at least one copy can be lent.
func (b *Book) IsAvailable() bool {
	return b.Amount > 0
}

// CachedBook represents book data stored in Redis cache.
// Uses string types for Redis hash compatibility.
type CachedBook struct {
	Author   string `redis:"author"`
	Title    string `redis:"title"`
	Location string `redis:"location"`
	Amount   string `redis:"amount"`
}
