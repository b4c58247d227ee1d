// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// BookView is the public shape of a catalog entry.
type BookView struct {
	ID       int64  `json:"id"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Amount   int    `json:"amount"`
}

// CheckoutBookView is the book summary embedded in a checkout.
type CheckoutBookView struct {
	Author string `json:"author"`
	Title  string `json:"title"`
}

// CheckoutView is the public shape of a checkout.
type CheckoutView struct {
	ID               int64            `json:"id"`
	CheckoutDateTime time.Time        `json:"checkoutDateTime"`
	Book             CheckoutBookView `json:"book"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToBookView narrows a Book to its public fields.
func ToBookView(book *model.Book) BookView {
	return BookView{
		ID:       book.ID,
		Author:   book.Author,
		Title:    book.Title,
		Location: book.Location,
		Amount:   book.Amount,
	}
}

// ToBookViews converts a slice of books. The result is never nil.
func ToBookViews(books []*model.Book) []BookView {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, ToBookView(b))
	}
	return views
}

// ToCheckoutView narrows a Checkout. A checkout loaded without its book
// yields an empty book summary.
func ToCheckoutView(c *model.Checkout) CheckoutView {
	view := CheckoutView{
		ID:               c.ID,
		CheckoutDateTime: c.CheckoutAt,
	}
	if c.Book != nil {
		view.Book = CheckoutBookView{Author: c.Book.Author, Title: c.Book.Title}
	}
	return view
}

// ToCheckoutViews converts a slice of checkouts. The result is never nil.
func ToCheckoutViews(checkouts []*model.Checkout) []CheckoutView {
	views := make([]CheckoutView, 0, len(checkouts))
	for _, c := range checkouts {
		views = append(views, ToCheckoutView(c))
	}
	return views
}
