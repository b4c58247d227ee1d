package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Validation limits.
const (
	// MaxQueryValueLength is the maximum byte length of a validated query value.
	MaxQueryValueLength = 255
)

// Validation errors.
var (
	ErrQueryValueTooLong = errors.New("query value exceeds maximum length")
	ErrQueryValueInvalid = errors.New("query value contains invalid characters")
	ErrIDInvalid         = errors.New("id must be an integer")
)

// ValidateQueryValue rejects over-long values, invalid UTF-8 and control characters.
func ValidateQueryValue(value string) error {
	if len(value) > MaxQueryValueLength {
		return ErrQueryValueTooLong
	}

	if !utf8.ValidString(value) {
		return ErrQueryValueInvalid
	}

	for _, r := range value {
		if unicode.IsControl(r) {
			return ErrQueryValueInvalid
		}
	}

	return nil
}

// ParseID parses an int64 identifier from a path or query value. Zero and
// negative ids parse; they simply match no row.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrIDInvalid
	}
	return id, nil
}

// ValidateQuery returns middleware that checks the named query parameters
// with ValidateQueryValue and answers 400 on the first bad one.
func ValidateQuery(params ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			for _, name := range params {
				for _, value := range query[name] {
					if err := ValidateQueryValue(value); err != nil {
						writeJSONError(w, http.StatusBadRequest, "INVALID_QUERY", "invalid query parameter "+name+": "+err.Error())
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
