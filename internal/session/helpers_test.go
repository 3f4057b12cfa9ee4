package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/event"
	"github.com/redcode-editor/redcode/internal/storage"
)

// gatedStorage wraps an in-memory FS. Writes can be held at a gate, made to
// fail, and are recorded.
type gatedStorage struct {
	*storage.FS

	mu      sync.Mutex
	gate    chan struct{}
	entered chan string
	failErr error
	writes  []recordedWrite
}

type recordedWrite struct {
	locator string
	data    string
}

func newGatedStorage() *gatedStorage {
	return &gatedStorage{FS: storage.NewMemFS()}
}

// hold makes subsequent writes block until the returned release func runs.
// entered receives each locator as its write reaches the gate.
func (g *gatedStorage) hold() (entered <-chan string, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	g.entered = make(chan string, 8)
	gate := g.gate
	var once sync.Once
	return g.entered, func() { once.Do(func() { close(gate) }) }
}

func (g *gatedStorage) fail(err error) {
	g.mu.Lock()
	g.failErr = err
	g.mu.Unlock()
}

func (g *gatedStorage) Write(ctx context.Context, locator string, data []byte) error {
	g.mu.Lock()
	gate, entered, failErr := g.gate, g.entered, g.failErr
	g.mu.Unlock()

	if entered != nil {
		entered <- locator
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failErr != nil {
		return failErr
	}

	g.mu.Lock()
	g.writes = append(g.writes, recordedWrite{locator: locator, data: string(data)})
	g.mu.Unlock()
	return g.FS.Write(ctx, locator, data)
}

func (g *gatedStorage) recorded() []recordedWrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]recordedWrite(nil), g.writes...)
}

// eventLog records every event published on a bus.
type eventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func recordEvents(m *Manager) *eventLog {
	l := &eventLog{}
	m.Bus().SubscribeAll(func(e event.Event) {
		l.mu.Lock()
		l.events = append(l.events, e)
		l.mu.Unlock()
	})
	return l
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.EventType()
	}
	return out
}

func (l *eventLog) count(eventType string) int {
	n := 0
	for _, t := range l.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func (l *eventLog) reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

// fakeWatcher records watch registrations.
type fakeWatcher struct {
	mu         sync.Mutex
	added      map[string]int
	suppressed []string
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{added: make(map[string]int)}
}

func (w *fakeWatcher) Add(locator string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.added[locator]++
	return nil
}

func (w *fakeWatcher) Remove(locator string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.added[locator]--
	if w.added[locator] <= 0 {
		delete(w.added, locator)
	}
}

func (w *fakeWatcher) Suppress(locator string, _ time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suppressed = append(w.suppressed, locator)
}

func (w *fakeWatcher) watching(locator string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.added[locator] > 0
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *gatedStorage) {
	t.Helper()
	store := newGatedStorage()
	return New(store, opts...), store
}

func mustGet(t *testing.T, m *Manager, id document.ID) document.Snapshot {
	t.Helper()
	snap, ok := m.Get(id)
	if !ok {
		t.Fatalf("document %s not in session", id)
	}
	return snap
}

func waitEntered(t *testing.T, entered <-chan string) string {
	t.Helper()
	select {
	case loc := <-entered:
		return loc
	case <-time.After(2 * time.Second):
		t.Fatal("write never reached storage")
		return ""
	}
}

func locators(m *Manager) []string {
	docs := m.Documents()
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Locator
	}
	return out
}
