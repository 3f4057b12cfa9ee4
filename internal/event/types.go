package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "document.saved").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type names.
const (
	TypeDocumentInserted = "document.inserted"
	TypeDocumentRemoved  = "document.removed"
	TypeActiveChanged    = "session.active_changed"
	TypeDocumentChanged  = "document.changed"
	TypeDocumentSaved    = "document.saved"
	TypeSaveFailed       = "document.save_failed"
	TypeExternalChange   = "document.external_change"
	TypeLocatorClaimed   = "locator.claimed"
	TypeLocatorReleased  = "locator.released"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session structure events
// -----------------------------------------------------------------------------

// DocumentInsertedEvent is emitted when a document is appended to the session.
type DocumentInsertedEvent struct {
	baseEvent
	DocumentID  string
	Index       int
	DisplayName string
}

// NewDocumentInsertedEvent creates a DocumentInsertedEvent.
func NewDocumentInsertedEvent(documentID string, index int, displayName string) DocumentInsertedEvent {
	return DocumentInsertedEvent{
		baseEvent:   newBaseEvent(TypeDocumentInserted),
		DocumentID:  documentID,
		Index:       index,
		DisplayName: displayName,
	}
}

// DocumentRemovedEvent is emitted when a document is closed. Index is the
// position it held before removal.
type DocumentRemovedEvent struct {
	baseEvent
	DocumentID string
	Index      int
}

// NewDocumentRemovedEvent creates a DocumentRemovedEvent.
func NewDocumentRemovedEvent(documentID string, index int) DocumentRemovedEvent {
	return DocumentRemovedEvent{
		baseEvent:  newBaseEvent(TypeDocumentRemoved),
		DocumentID: documentID,
		Index:      index,
	}
}

// ActiveChangedEvent is emitted when the active tab changes, including when
// the active document stays the same but its index shifts.
type ActiveChangedEvent struct {
	baseEvent
	DocumentID    string
	Index         int
	PreviousIndex int // -1 when there was no previous active document
}

// NewActiveChangedEvent creates an ActiveChangedEvent.
func NewActiveChangedEvent(documentID string, index, previousIndex int) ActiveChangedEvent {
	return ActiveChangedEvent{
		baseEvent:     newBaseEvent(TypeActiveChanged),
		DocumentID:    documentID,
		Index:         index,
		PreviousIndex: previousIndex,
	}
}

// -----------------------------------------------------------------------------
// Document state events
// -----------------------------------------------------------------------------

// DocumentChangedEvent is emitted when a clean document receives its first edit.
// Later edits on an already dirty document do not repeat it.
type DocumentChangedEvent struct {
	baseEvent
	DocumentID string
}

// NewDocumentChangedEvent creates a DocumentChangedEvent.
func NewDocumentChangedEvent(documentID string) DocumentChangedEvent {
	return DocumentChangedEvent{
		baseEvent:  newBaseEvent(TypeDocumentChanged),
		DocumentID: documentID,
	}
}

// DocumentSavedEvent is emitted after a successful write.
type DocumentSavedEvent struct {
	baseEvent
	DocumentID string
	Locator    string
	Dirty      bool // true when edits arrived while the write was in flight
}

// NewDocumentSavedEvent creates a DocumentSavedEvent.
func NewDocumentSavedEvent(documentID, locator string, dirty bool) DocumentSavedEvent {
	return DocumentSavedEvent{
		baseEvent:  newBaseEvent(TypeDocumentSaved),
		DocumentID: documentID,
		Locator:    locator,
		Dirty:      dirty,
	}
}

// SaveFailedEvent is emitted when a write fails or is cancelled.
type SaveFailedEvent struct {
	baseEvent
	DocumentID string
	Locator    string
	Error      string
	Cancelled  bool
}

// NewSaveFailedEvent creates a SaveFailedEvent.
func NewSaveFailedEvent(documentID, locator, errMsg string, cancelled bool) SaveFailedEvent {
	return SaveFailedEvent{
		baseEvent:  newBaseEvent(TypeSaveFailed),
		DocumentID: documentID,
		Locator:    locator,
		Error:      errMsg,
		Cancelled:  cancelled,
	}
}

// ExternalChangeEvent is emitted when the file behind an open document is
// modified by another program.
type ExternalChangeEvent struct {
	baseEvent
	DocumentID string
	Locator    string
}

// NewExternalChangeEvent creates an ExternalChangeEvent.
func NewExternalChangeEvent(documentID, locator string) ExternalChangeEvent {
	return ExternalChangeEvent{
		baseEvent:  newBaseEvent(TypeExternalChange),
		DocumentID: documentID,
		Locator:    locator,
	}
}

// -----------------------------------------------------------------------------
// Locator claim events
// -----------------------------------------------------------------------------

// LocatorClaimEvent is emitted when a document claims a locator for writing.
type LocatorClaimEvent struct {
	baseEvent
	DocumentID string
	Locator    string
}

// NewLocatorClaimEvent creates a LocatorClaimEvent.
func NewLocatorClaimEvent(documentID, locator string) LocatorClaimEvent {
	return LocatorClaimEvent{
		baseEvent:  newBaseEvent(TypeLocatorClaimed),
		DocumentID: documentID,
		Locator:    locator,
	}
}

// LocatorReleaseEvent is emitted when a claim is released.
type LocatorReleaseEvent struct {
	baseEvent
	DocumentID string
	Locator    string
}

// NewLocatorReleaseEvent creates a LocatorReleaseEvent.
func NewLocatorReleaseEvent(documentID, locator string) LocatorReleaseEvent {
	return LocatorReleaseEvent{
		baseEvent:  newBaseEvent(TypeLocatorReleased),
		DocumentID: documentID,
		Locator:    locator,
	}
}
