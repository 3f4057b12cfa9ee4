package session

import (
	"context"
	"sync"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
)

// CloseOutcome is the result of RequestClose.
type CloseOutcome int

const (
	// CloseClean means the document had no unsaved changes and is now closed.
	CloseClean CloseOutcome = iota
	// ClosePrompt means the document is dirty; the caller must resolve the
	// returned CloseRequest.
	ClosePrompt
)

func (o CloseOutcome) String() string {
	switch o {
	case CloseClean:
		return "clean"
	case ClosePrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// RequestClose closes a clean document immediately. For a dirty document it
// changes nothing and returns a CloseRequest offering save, discard, or
// cancel.
func (m *Manager) RequestClose(id document.ID) (CloseOutcome, *CloseRequest, error) {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return CloseClean, nil, invalidID("request close", id)
	}
	doc := m.docs[idx]
	if doc.Dirty() {
		m.mu.Unlock()
		return ClosePrompt, &CloseRequest{m: m, id: id}, nil
	}
	evs := m.removeLocked(idx)
	m.mu.Unlock()

	if doc.IsPersisted() {
		m.unwatch(doc.Locator())
	}
	m.logger.WithDocument(id.String()).Info("document closed", "index", idx, "dirty", false)
	m.emit(evs)
	return CloseClean, nil, nil
}

// CloseRequest is a pending decision about closing a dirty document. Its
// methods may be called from any goroutine, at any later time. Exactly one
// of them resolves the request; calls after that return ErrCloseResolved.
// A failed SaveThenClose does not resolve it, so the caller can retry or
// pick another branch.
type CloseRequest struct {
	m  *Manager
	id document.ID

	mu       sync.Mutex
	resolved bool
	busy     bool
}

// DocumentID returns the document the request is about.
func (r *CloseRequest) DocumentID() document.ID { return r.id }

// Resolved reports whether the request has been resolved.
func (r *CloseRequest) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

// SaveThenClose saves the document and closes it once the write succeeds.
// An empty locatorOverride saves to the current locator. If the save fails
// or is cancelled the document stays open, dirty, and the error is returned.
func (r *CloseRequest) SaveThenClose(ctx context.Context, locatorOverride string) error {
	if err := r.begin(); err != nil {
		return err
	}
	if err := r.m.Save(ctx, r.id, locatorOverride); err != nil {
		r.end(false)
		return err
	}
	r.end(true)
	return r.m.PerformClose(r.id)
}

// SaveNewThenClose is SaveThenClose into a new file. See Manager.SaveAsNew.
func (r *CloseRequest) SaveNewThenClose(ctx context.Context, parentLocator, name, mimeType string) error {
	if err := r.begin(); err != nil {
		return err
	}
	_, err := r.m.intoNewFile(ctx, parentLocator, name, mimeType, func(locator string) error {
		return r.m.Save(ctx, r.id, locator)
	})
	if err != nil {
		r.end(false)
		return err
	}
	r.end(true)
	return r.m.PerformClose(r.id)
}

// DiscardThenClose closes the document without saving.
func (r *CloseRequest) DiscardThenClose() error {
	if err := r.begin(); err != nil {
		return err
	}
	r.end(true)
	r.m.logger.WithDocument(r.id.String()).Info("unsaved changes discarded")
	return r.m.PerformClose(r.id)
}

// Cancel abandons the close. The document stays open and dirty.
func (r *CloseRequest) Cancel() error {
	if err := r.begin(); err != nil {
		return err
	}
	r.end(true)
	return nil
}

func (r *CloseRequest) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.resolved:
		return errors.NewDocumentError("close", errors.ErrCloseResolved).WithDocumentID(r.id.String())
	case r.busy:
		return errors.NewDocumentError("close", errors.ErrSaveInProgress).WithDocumentID(r.id.String())
	}
	r.busy = true
	return nil
}

func (r *CloseRequest) end(resolved bool) {
	r.mu.Lock()
	r.busy = false
	r.resolved = resolved
	r.mu.Unlock()
}
