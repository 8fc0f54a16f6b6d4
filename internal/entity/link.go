// Package entity defines the link entity and the error taxonomy shared
// across the service layers.
package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a new link with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when an attempt is made to retrieve
	// a link using a short code that doesn't exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrURLNotAllowed is returned when a destination URL is syntactically
	// valid but points at a host the service refuses to redirect to.
	ErrURLNotAllowed = errors.New("url not allowed")
	// ErrNothingToExport is returned when an export is requested while
	// no links exist.
	ErrNothingToExport = errors.New("nothing to export")
)

// Link represents a shortened link.
type Link struct {
	ID          int64     // ID is the unique identifier of the link in the database.
	ShortCode   string    // ShortCode is the code used in place of the original URL.
	OriginalURL string    // OriginalURL is the normalized destination the short code resolves to.
	AccessCount int64     // AccessCount is the number of times the link has been accessed.
	CreatedAt   time.Time // CreatedAt is the timestamp when the link was created.
}

// ValidationError reports a user-correctable problem with a single input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
