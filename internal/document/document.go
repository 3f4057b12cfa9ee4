// Package document defines the in-memory state of one open file: its locator,
// content, language, dirty flag and caret position.
//
// A Document is owned by exactly one session. The editing widget never holds a
// reference to it; it pushes content snapshots through ApplyChange and reads
// state back through Snapshot.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redcode-editor/redcode/internal/language"
)

// ID identifies a Document for its whole lifetime, independent of its locator.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// Untitled is the display name used when a locator has no usable segment.
const Untitled = "Untitled"

// Cursor is a zero-based caret position.
type Cursor struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Document is one open file. It is not safe for concurrent use; the session
// serializes access.
type Document struct {
	id        ID
	locator   string
	persisted bool
	content   string
	language  language.Language
	dirty     bool
	stale     bool
	cursor    Cursor
	revision  uint64
	savedAt   time.Time
}

// NewUntitled returns an empty, clean plain-text document whose locator is the
// synthetic tag name (e.g. "Untitled-3").
func NewUntitled(name string) *Document {
	return &Document{
		id:       NewID(),
		locator:  name,
		language: language.PlainText,
	}
}

// NewOpened returns a clean document for content that was read from locator.
// The language is classified from nameHint (usually the storage display name)
// and the content.
func NewOpened(locator, nameHint, content string) *Document {
	if nameHint == "" {
		nameHint = locator
	}
	return &Document{
		id:        NewID(),
		locator:   locator,
		persisted: true,
		content:   content,
		language:  language.Classify(nameHint, content),
	}
}

// ID returns the document id.
func (d *Document) ID() ID { return d.id }

// Locator returns the persisted location or the untitled tag.
func (d *Document) Locator() string { return d.locator }

// IsPersisted reports whether the locator names a real storage location that
// a plain save can write to.
func (d *Document) IsPersisted() bool { return d.persisted }

// Content returns the current content snapshot.
func (d *Document) Content() string { return d.content }

// Language returns the classification tag.
func (d *Document) Language() language.Language { return d.language }

// Dirty reports whether the content differs from what was last persisted.
func (d *Document) Dirty() bool { return d.dirty }

// Stale reports whether the file changed in storage after it was opened or
// last saved by this document.
func (d *Document) Stale() bool { return d.stale }

// Cursor returns the last known caret position.
func (d *Document) Cursor() Cursor { return d.cursor }

// Revision increases on every applied change. Saves use it to detect edits
// that arrived while a write was in flight.
func (d *Document) Revision() uint64 { return d.revision }

// DisplayName returns the trailing path segment of the locator.
func (d *Document) DisplayName() string {
	return DisplayName(d.locator)
}

// ApplyChange replaces the content with a snapshot pushed by the editing
// widget and marks the document dirty. It reports whether the document was
// clean before the call.
func (d *Document) ApplyChange(content string) (becameDirty bool) {
	becameDirty = !d.dirty
	d.content = content
	d.dirty = true
	d.revision++
	return becameDirty
}

// SetCursor records the caret position. Negative values are clamped to zero.
func (d *Document) SetCursor(line, column int) {
	d.cursor = Cursor{Line: max(line, 0), Column: max(column, 0)}
}

// MarkSaved records a successful write of the content at revision rev to
// locator. The document stays dirty if it changed after rev was taken.
func (d *Document) MarkSaved(locator string, rev uint64, at time.Time) {
	if locator != d.locator {
		d.locator = locator
		d.language = language.Classify(locator, d.content)
	}
	d.persisted = true
	d.stale = false
	d.savedAt = at
	if rev == d.revision {
		d.dirty = false
	}
}

// MarkStale flags that the underlying file changed outside this document.
func (d *Document) MarkStale() { d.stale = true }

// Revert replaces the content with what storage currently holds and leaves
// the document clean. The revision still advances so a save that started
// before the revert does not clear the dirty flag of later edits.
func (d *Document) Revert(content string, at time.Time) {
	d.content = content
	d.dirty = false
	d.stale = false
	d.revision++
	d.savedAt = at
}

// StatusLine returns the status bar text, e.g. "Line 3, Col 7 · Python".
// Positions are shown one-based.
func (d *Document) StatusLine() string {
	return d.Snapshot().StatusLine()
}

// Snapshot returns an immutable copy of the document's state for readers
// outside the session.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		ID:          d.id,
		Locator:     d.locator,
		DisplayName: d.DisplayName(),
		Persisted:   d.persisted,
		Content:     d.content,
		Language:    d.language,
		Dirty:       d.dirty,
		Stale:       d.stale,
		Cursor:      d.cursor,
		Revision:    d.revision,
		SavedAt:     d.savedAt,
	}
}

// Snapshot is a read-only view of a Document at one point in time.
type Snapshot struct {
	ID          ID
	Locator     string
	DisplayName string
	Persisted   bool
	Content     string
	Language    language.Language
	Dirty       bool
	Stale       bool
	Cursor      Cursor
	Revision    uint64
	SavedAt     time.Time
}

// StatusLine returns the status bar text for the snapshot.
func (s Snapshot) StatusLine() string {
	return fmt.Sprintf("Line %d, Col %d · %s", s.Cursor.Line+1, s.Cursor.Column+1, s.Language.DisplayName())
}

// Title returns the tab label: the display name with a dirty marker.
func (s Snapshot) Title() string {
	if s.Dirty {
		return s.DisplayName + " •"
	}
	return s.DisplayName
}

// DisplayName returns the trailing path segment of a locator (path, file://
// URI or provider reference), or "Untitled" if there is none.
func DisplayName(locator string) string {
	trimmed := strings.TrimRight(locator, `/\`)
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" || strings.HasSuffix(trimmed, ":") {
		return Untitled
	}
	return trimmed
}
