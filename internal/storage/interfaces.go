// Package storage provides the Storage capability the session persists
// documents through, and a filesystem implementation of it.
//
// Locators are opaque to the session. The filesystem implementation accepts
// plain paths and file:// URIs.
package storage

import "context"

// Storage reads, writes, names and deletes content by locator.
//
// Every method that touches the backing store takes a context; implementations
// must leave the target untouched if the context is cancelled before the
// operation commits. Failures are returned as *errors.StorageError.
type Storage interface {
	// Read returns the full content at locator.
	Read(ctx context.Context, locator string) ([]byte, error)

	// Write replaces the content at locator (truncate mode). The write is
	// all-or-nothing: on error the previous content is intact.
	Write(ctx context.Context, locator string, data []byte) error

	// ResolveDisplayName returns a human readable name for locator. It is
	// best effort and never fails: it falls back to the trailing path segment,
	// or "Untitled".
	ResolveDisplayName(locator string) string

	// Create makes a new empty entry named name under parentLocator and
	// returns its locator. mimeType picks an extension when name has none.
	Create(ctx context.Context, parentLocator, name, mimeType string) (string, error)

	// Delete removes the entry at locator.
	Delete(ctx context.Context, locator string) error
}

// Lister is implemented by storages that can enumerate entries under a parent.
// Opening a directory from the command line goes through it.
type Lister interface {
	List(ctx context.Context, parentLocator string) ([]string, error)
}
