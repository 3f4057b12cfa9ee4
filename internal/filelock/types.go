package filelock

import (
	"errors"
	"time"
)

// Sentinel errors returned by registry operations.
var (
	// ErrAlreadyClaimed is returned when a locator is already claimed by another document.
	ErrAlreadyClaimed = errors.New("locator already claimed by another document")

	// ErrNotOwner is returned when a document tries to release a locator it does not own.
	ErrNotOwner = errors.New("document does not own this locator")

	// ErrNotClaimed is returned when a document tries to release an unclaimed locator.
	ErrNotClaimed = errors.New("locator is not claimed")
)

// Claim records which document is currently writing a locator.
type Claim struct {
	DocumentID string
	Locator    string
	ClaimedAt  time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides time.Now for claim timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithKeyFunc sets the function that maps a locator to its registry key, so
// different spellings of one file (a path and its file:// URI) collide.
// The default uses the locator as given.
func WithKeyFunc(key func(string) string) Option {
	return func(r *Registry) {
		r.key = key
	}
}
