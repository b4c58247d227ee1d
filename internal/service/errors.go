// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
)

// Service errors. Each one is a client-correctable refusal; handlers map
// them to 422 responses.
var (
	ErrNoBooksFound          = errors.New("no books found")
	ErrNoBookFound           = errors.New("no book found")
	ErrNoBooksBorrowed       = errors.New("no books borrowed")
	ErrBookUnavailable       = errors.New("book is temporarily unavailable")
	ErrBorrowingProhibited   = errors.New("violation limit exceeded")
	ErrLimitReached          = errors.New("borrowing limit reached")
	ErrCheckoutOfAnotherUser = errors.New("checkout of another user")
	ErrNoCheckoutFound       = errors.New("no checkout found")
)

// Account and input errors.
var (
	ErrUnknownUser        = errors.New("unknown user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrKeyNotFound        = errors.New("api key not found")
)

// LimitError reports that the caller already holds more than Limit books.
// It matches ErrLimitReached under errors.Is.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("limit of %d books reached", e.Limit)
}

// Is reports whether target is ErrLimitReached.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitReached
}

// invalidInput wraps ErrInvalidInput with a field-level reason.
func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
