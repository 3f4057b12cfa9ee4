// Package session owns the ordered set of open documents and the active tab.
//
// A Manager is the single writer of session state. The presentation layer
// reads immutable snapshots, issues commands, and listens for change
// notifications on the event bus. Storage I/O runs outside the session lock,
// so a slow save never blocks enumeration or editing of other documents.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/event"
	"github.com/redcode-editor/redcode/internal/filelock"
	"github.com/redcode-editor/redcode/internal/logging"
	"github.com/redcode-editor/redcode/internal/storage"
)

// DefaultUntitledPrefix names new documents "Untitled-1", "Untitled-2", ...
const DefaultUntitledPrefix = "Untitled"

// suppressWindow is how long the watcher ignores a file after we write it.
const suppressWindow = time.Second

// ChangeWatcher is the part of storage.Watcher the manager drives.
type ChangeWatcher interface {
	Add(locator string) error
	Remove(locator string)
	Suppress(locator string, window time.Duration)
}

// Manager is the document-session manager.
type Manager struct {
	mu       sync.RWMutex
	docs     []*document.Document
	byID     map[document.ID]*document.Document
	active   int
	untitled int
	saving   map[document.ID]struct{}

	store    storage.Storage
	bus      *event.Bus
	registry *filelock.Registry
	logger   *logging.Logger
	watcher  ChangeWatcher
	state    *StateStore
	now      func() time.Time
	prefix   string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithBus sets the event bus notifications are published on.
func WithBus(b *event.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithRegistry sets the locator claim registry. Sharing one registry between
// managers serializes their writes to common files.
func WithRegistry(r *filelock.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithUntitledPrefix changes the synthetic name of new documents.
func WithUntitledPrefix(prefix string) Option {
	return func(m *Manager) { m.prefix = prefix }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithWatcher enables external change tracking for persisted documents.
func WithWatcher(w ChangeWatcher) Option {
	return func(m *Manager) { m.watcher = w }
}

// WithStateStore enables Restore and SaveState.
func WithStateStore(s *StateStore) Option {
	return func(m *Manager) { m.state = s }
}

// New creates a Manager backed by store. The session starts with one
// untitled document so it is never empty.
func New(store storage.Storage, opts ...Option) *Manager {
	m := &Manager{
		byID:   make(map[document.ID]*document.Document),
		saving: make(map[document.ID]struct{}),
		active: -1,
		store:  store,
		now:    time.Now,
		prefix: DefaultUntitledPrefix,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NopLogger()
	}
	if m.bus == nil {
		m.bus = event.NewBus(m.logger)
	}
	if m.registry == nil {
		m.registry = filelock.NewRegistry(m.bus, filelock.WithKeyFunc(locatorKey))
	}

	m.CreateNew()
	return m
}

// locatorKey collapses the spellings of one file to a single registry key.
func locatorKey(locator string) string {
	if p, err := storage.Path(locator); err == nil {
		return p
	}
	return locator
}

// Bus returns the event bus.
func (m *Manager) Bus() *event.Bus { return m.bus }

// Subscribe registers handler for eventType on the session's bus. Handlers
// run synchronously on the goroutine that caused the event, outside the
// session lock, so they may call back into the manager.
func (m *Manager) Subscribe(eventType string, handler event.Handler) string {
	return m.bus.Subscribe(eventType, handler)
}

// Unsubscribe removes a subscription made with Subscribe.
func (m *Manager) Unsubscribe(id string) bool {
	return m.bus.Unsubscribe(id)
}

// CreateNew appends an empty untitled document and activates it.
func (m *Manager) CreateNew() document.ID {
	m.mu.Lock()
	doc := m.newUntitledLocked()
	evs := m.insertLocked(doc)
	m.mu.Unlock()

	m.logger.WithDocument(doc.ID().String()).Debug("document created", "locator", doc.Locator())
	m.emit(evs)
	return doc.ID()
}

// Open appends a clean document for content already read from locator and
// activates it. The language is classified from displayNameHint and content.
// Opening a file that is already open yields a second, independent document.
func (m *Manager) Open(locator, displayNameHint, content string) document.ID {
	doc := document.NewOpened(locator, displayNameHint, content)

	m.mu.Lock()
	evs := m.insertLocked(doc)
	m.mu.Unlock()

	m.watch(doc.Locator())
	m.logger.WithDocument(doc.ID().String()).Info("document opened",
		"locator", locator,
		"language", doc.Language().String(),
	)
	m.emit(evs)
	return doc.ID()
}

// OpenFromStorage reads locator and opens it. A read failure leaves the
// session unchanged and returns a StorageError.
func (m *Manager) OpenFromStorage(ctx context.Context, locator string) (document.ID, error) {
	data, err := m.store.Read(ctx, locator)
	if err != nil {
		m.logger.Warn("open failed", "locator", locator, "error", err.Error())
		return "", asStorageError(errors.OpRead, locator, err)
	}
	text, err := storage.DecodeText(data)
	if err != nil {
		m.logger.Warn("open refused", "locator", locator, "error", err.Error())
		return "", decodeError(locator, err)
	}
	return m.Open(locator, m.store.ResolveDisplayName(locator), text), nil
}

// MarkDirty applies a content snapshot pushed by the editing widget.
// document.changed is published only when a clean document becomes dirty.
func (m *Manager) MarkDirty(id document.ID, content string) error {
	m.mu.Lock()
	doc, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return invalidID("mark dirty", id)
	}
	becameDirty := doc.ApplyChange(content)
	m.mu.Unlock()

	if becameDirty {
		m.bus.Publish(event.NewDocumentChangedEvent(id.String()))
	}
	return nil
}

// UpdateCursor records the caret position of a document.
func (m *Manager) UpdateCursor(id document.ID, line, column int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.byID[id]
	if !ok {
		return invalidID("update cursor", id)
	}
	doc.SetCursor(line, column)
	return nil
}

// Revert reloads a persisted document from storage, discarding local edits.
// Used to resolve an external change.
func (m *Manager) Revert(ctx context.Context, id document.ID) error {
	m.mu.RLock()
	doc, ok := m.byID[id]
	var locator string
	var persisted bool
	if ok {
		locator, persisted = doc.Locator(), doc.IsPersisted()
	}
	m.mu.RUnlock()

	if !ok {
		return invalidID("revert", id)
	}
	if !persisted {
		return errors.NewDocumentError("revert", errors.ErrNoLocator).WithDocumentID(id.String())
	}

	data, err := m.store.Read(ctx, locator)
	if err != nil {
		return asStorageError(errors.OpRead, locator, err)
	}
	text, err := storage.DecodeText(data)
	if err != nil {
		return decodeError(locator, err)
	}

	m.mu.Lock()
	doc, ok = m.byID[id]
	if ok {
		doc.Revert(text, m.now())
	}
	m.mu.Unlock()
	if !ok {
		return invalidID("revert", id)
	}
	m.logger.WithDocument(id.String()).Info("document reverted", "locator", locator)
	return nil
}

// PerformClose removes a document unconditionally. Closing the last
// document creates a fresh untitled one.
func (m *Manager) PerformClose(id document.ID) error {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return invalidID("close", id)
	}
	doc := m.docs[idx]
	evs := m.removeLocked(idx)
	m.mu.Unlock()

	if doc.IsPersisted() {
		m.unwatch(doc.Locator())
	}
	m.logger.WithDocument(id.String()).Info("document closed", "index", idx, "dirty", doc.Dirty())
	m.emit(evs)
	return nil
}

// HandleExternalChange marks every document backed by path as stale and
// publishes document.external_change for each. It is the storage.Watcher
// callback.
func (m *Manager) HandleExternalChange(path string) {
	var evs []event.Event

	m.mu.Lock()
	for _, doc := range m.docs {
		if !doc.IsPersisted() || locatorKey(doc.Locator()) != path {
			continue
		}
		doc.MarkStale()
		evs = append(evs, event.NewExternalChangeEvent(doc.ID().String(), doc.Locator()))
	}
	m.mu.Unlock()

	if len(evs) > 0 {
		m.logger.Info("file changed on disk", "path", path, "documents", len(evs))
	}
	m.emit(evs)
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

// Documents returns snapshots of all documents in tab order.
func (m *Manager) Documents() []document.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]document.Snapshot, len(m.docs))
	for i, d := range m.docs {
		out[i] = d.Snapshot()
	}
	return out
}

// Len returns the number of open documents. It is never zero.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Active returns the active document and its index.
func (m *Manager) Active() (document.Snapshot, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[m.active].Snapshot(), m.active
}

// ActiveIndex returns the active tab index.
func (m *Manager) ActiveIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// ActiveID returns the id of the active document.
func (m *Manager) ActiveID() document.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[m.active].ID()
}

// SetActive activates the document at index.
func (m *Manager) SetActive(index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.docs) {
		n := len(m.docs)
		m.mu.Unlock()
		return errors.NewDocumentError(fmt.Sprintf("set active (have %d documents)", n), errors.ErrInvalidIndex).WithIndex(index)
	}
	prev := m.active
	if prev == index {
		m.mu.Unlock()
		return nil
	}
	m.active = index
	ev := event.NewActiveChangedEvent(m.docs[index].ID().String(), index, prev)
	m.mu.Unlock()

	m.bus.Publish(ev)
	return nil
}

// Get returns a snapshot of the document with id.
func (m *Manager) Get(id document.ID) (document.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.byID[id]
	if !ok {
		return document.Snapshot{}, false
	}
	return doc.Snapshot(), true
}

// IndexOf returns the tab index of id, or -1.
func (m *Manager) IndexOf(id document.ID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexLocked(id)
}

// Saving reports whether a save of id is in flight.
func (m *Manager) Saving(id document.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.saving[id]
	return ok
}

// -----------------------------------------------------------------------------
// Internals. Methods ending in Locked require m.mu held for writing.
// -----------------------------------------------------------------------------

func (m *Manager) newUntitledLocked() *document.Document {
	m.untitled++
	return document.NewUntitled(fmt.Sprintf("%s-%d", m.prefix, m.untitled))
}

// insertLocked appends doc, activates it, and returns the events to publish.
func (m *Manager) insertLocked(doc *document.Document) []event.Event {
	prev := m.active
	m.docs = append(m.docs, doc)
	m.byID[doc.ID()] = doc
	m.active = len(m.docs) - 1

	id := doc.ID().String()
	return []event.Event{
		event.NewDocumentInsertedEvent(id, m.active, doc.DisplayName()),
		event.NewActiveChangedEvent(id, m.active, prev),
	}
}

// removeLocked deletes the document at idx and moves the active index:
// a tab left of the active one shifts it left, closing the active tab
// activates its right neighbour (or the new last tab), and a tab to the
// right leaves it alone.
func (m *Manager) removeLocked(idx int) []event.Event {
	doc := m.docs[idx]
	prev := m.active

	m.docs = slices.Delete(m.docs, idx, idx+1)
	delete(m.byID, doc.ID())
	evs := []event.Event{event.NewDocumentRemovedEvent(doc.ID().String(), idx)}

	if len(m.docs) == 0 {
		m.active = -1
		return append(evs, m.insertLocked(m.newUntitledLocked())...)
	}

	switch {
	case idx < prev:
		m.active = prev - 1
	case idx == prev:
		m.active = min(prev, len(m.docs)-1)
	default:
		return evs
	}
	return append(evs, event.NewActiveChangedEvent(m.docs[m.active].ID().String(), m.active, prev))
}

func (m *Manager) indexLocked(id document.ID) int {
	return slices.IndexFunc(m.docs, func(d *document.Document) bool { return d.ID() == id })
}

func (m *Manager) emit(evs []event.Event) {
	for _, e := range evs {
		m.bus.Publish(e)
	}
}

func (m *Manager) watch(locator string) {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Add(locator); err != nil {
		m.logger.Warn("cannot watch file", "locator", locator, "error", err.Error())
	}
}

func (m *Manager) unwatch(locator string) {
	if m.watcher != nil {
		m.watcher.Remove(locator)
	}
}

func invalidID(op string, id document.ID) error {
	return errors.NewDocumentError(op, errors.ErrInvalidIndex).WithDocumentID(id.String())
}

// decodeError reports bytes the editor will not open. The file itself is
// fine, so it is a warning rather than a failed read.
func decodeError(locator string, err error) error {
	e := errors.NewStorageError(errors.OpRead, locator, err)
	if errors.Is(err, errors.ErrNotText) {
		e = e.WithSeverity(errors.SeverityWarning)
	}
	return e
}

// asStorageError keeps a StorageError from the store as is and wraps
// anything else, so callers can always match the operation's sentinel.
func asStorageError(op errors.Op, locator string, err error) error {
	var se *errors.StorageError
	if errors.As(err, &se) {
		return err
	}
	return errors.NewStorageError(op, locator, err)
}
