// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which maps a short code to its target URL,
// along with the error kinds the allocation and resolution engine reports.
package entity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned by a repository when an insert hits a short code that is already stored.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrInvalidURL is returned when the target is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidShortCode is returned when a caller-supplied short code has a forbidden shape.
	ErrInvalidShortCode = errors.New("invalid short code")
	// ErrShortCodeTaken is returned when a caller-supplied short code is already in use.
	ErrShortCodeTaken = errors.New("short code taken")
	// ErrAllocationExhausted is returned when no free short code was found within the attempt limit.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
	// ErrStoreUnavailable wraps any I/O failure of the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsRetryable reports whether the caller may retry the operation that returned err.
// Only store failures qualify; every other kind is final for the request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) && !IsCanceled(err)
}

// IsCanceled reports whether err comes from the caller's context ending.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// URL represents a short code and the target it points to.
type URL struct {
	ShortCode   string    // ShortCode is the unique key of the mapping.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	CreatedAt   time.Time // CreatedAt is the timestamp when the mapping was committed.
}
