package session

import (
	"context"
	"reflect"
	"testing"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/event"
	"github.com/redcode-editor/redcode/internal/language"
)

func TestNew_StartsWithUntitled(t *testing.T) {
	m, _ := newTestManager(t)

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	snap, idx := m.Active()
	if idx != 0 {
		t.Errorf("active index = %d, want 0", idx)
	}
	if snap.Locator != "Untitled-1" {
		t.Errorf("locator = %q, want Untitled-1", snap.Locator)
	}
	if snap.Dirty || snap.Persisted || snap.Content != "" {
		t.Errorf("initial document should be clean, empty and untitled: %+v", snap)
	}
	if snap.Language != language.PlainText {
		t.Errorf("language = %v, want plain-text", snap.Language)
	}
}

func TestCreateNew(t *testing.T) {
	m, _ := newTestManager(t, WithUntitledPrefix("Scratch"))
	log := recordEvents(m)

	id := m.CreateNew()

	if got := m.IndexOf(id); got != 1 {
		t.Errorf("IndexOf(new) = %d, want 1", got)
	}
	if m.ActiveID() != id {
		t.Error("new document should be active")
	}
	if got := mustGet(t, m, id).Locator; got != "Scratch-2" {
		t.Errorf("locator = %q, want Scratch-2", got)
	}
	want := []string{event.TypeDocumentInserted, event.TypeActiveChanged}
	if !reflect.DeepEqual(log.types(), want) {
		t.Errorf("events = %v, want %v", log.types(), want)
	}
}

func TestCreateNew_CounterNeverReused(t *testing.T) {
	m, _ := newTestManager(t)

	second := m.CreateNew()
	if err := m.PerformClose(second); err != nil {
		t.Fatal(err)
	}
	third := m.CreateNew()

	if got := mustGet(t, m, third).Locator; got != "Untitled-3" {
		t.Errorf("locator = %q, want Untitled-3", got)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		locator  string
		hint     string
		content  string
		wantLang language.Language
	}{
		{"extension wins", "/src/main.py", "main.py", "", language.Python},
		{"hint used over locator", "content://docs/42", "index.html", "", language.HTML},
		{"content fallback", "/tmp/page.unknown", "page.unknown", "<!DOCTYPE html><html>", language.HTML},
		{"shebang fallback", "/bin/tool", "tool", "#!/usr/bin/env python3\nprint(1)\n", language.Python},
		{"empty hint uses locator", "/a/b.css", "", "", language.CSS},
		{"degenerate empty content", "/x/README", "README", "", language.PlainText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			id := m.Open(tt.locator, tt.hint, tt.content)

			snap := mustGet(t, m, id)
			if snap.Language != tt.wantLang {
				t.Errorf("language = %v, want %v", snap.Language, tt.wantLang)
			}
			if snap.Dirty {
				t.Error("opened document must be clean")
			}
			if !snap.Persisted || snap.Locator != tt.locator {
				t.Errorf("locator = %q persisted=%v", snap.Locator, snap.Persisted)
			}
			if m.ActiveID() != id {
				t.Error("opened document should be active")
			}
		})
	}
}

func TestOpen_SameLocatorTwice(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.Open("/a.txt", "a.txt", "x")
	b := m.Open("/a.txt", "a.txt", "x")

	if a == b {
		t.Fatal("opening a file twice must yield two documents")
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	if err := m.MarkDirty(a, "changed"); err != nil {
		t.Fatal(err)
	}
	if mustGet(t, m, b).Dirty {
		t.Error("editing one copy must not affect the other")
	}
}

func TestOpenFromStorage(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	if err := store.FS.Write(ctx, "/docs/app.js", []byte("const x = 1;\n")); err != nil {
		t.Fatal(err)
	}

	id, err := m.OpenFromStorage(ctx, "/docs/app.js")
	if err != nil {
		t.Fatalf("OpenFromStorage failed: %v", err)
	}
	snap := mustGet(t, m, id)
	if snap.DisplayName != "app.js" || snap.Language != language.JavaScript || snap.Content != "const x = 1;\n" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestOpenFromStorage_FailureLeavesSessionUnchanged(t *testing.T) {
	m, _ := newTestManager(t)
	log := recordEvents(m)
	before := locators(m)

	_, err := m.OpenFromStorage(context.Background(), "/missing.txt")
	if !errors.Is(err, errors.ErrStorageRead) || !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want ErrStorageRead and ErrNotFound", err)
	}
	if !reflect.DeepEqual(locators(m), before) {
		t.Errorf("session changed: %v -> %v", before, locators(m))
	}
	if len(log.types()) != 0 {
		t.Errorf("no events expected, got %v", log.types())
	}
}

func TestMarkDirty(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.Open("/a.txt", "a.txt", "original")
	log := recordEvents(m)

	for _, content := range []string{"one", "two", "three"} {
		if err := m.MarkDirty(id, content); err != nil {
			t.Fatal(err)
		}
	}

	snap := mustGet(t, m, id)
	if !snap.Dirty || snap.Content != "three" {
		t.Errorf("dirty=%v content=%q, want dirty with latest content", snap.Dirty, snap.Content)
	}
	if n := log.count(event.TypeDocumentChanged); n != 1 {
		t.Errorf("document.changed published %d times, want 1", n)
	}
}

func TestUnknownIDs(t *testing.T) {
	m, _ := newTestManager(t)
	ghost := document.ID("no-such-document")

	checks := map[string]error{
		"MarkDirty":    m.MarkDirty(ghost, "x"),
		"UpdateCursor": m.UpdateCursor(ghost, 1, 1),
		"PerformClose": m.PerformClose(ghost),
		"Save":         m.Save(context.Background(), ghost, "/x"),
		"Revert":       m.Revert(context.Background(), ghost),
	}
	_, _, err := m.RequestClose(ghost)
	checks["RequestClose"] = err

	for name, err := range checks {
		if !errors.Is(err, errors.ErrInvalidIndex) {
			t.Errorf("%s error = %v, want ErrInvalidIndex", name, err)
			continue
		}
		var docErr *errors.DocumentError
		if !errors.As(err, &docErr) || docErr.DocumentID != string(ghost) {
			t.Errorf("%s should return a DocumentError for the id, got %v", name, err)
		}
		if errors.IsUserFacing(err) {
			t.Errorf("%s: stale ids are not user facing", name)
		}
	}
	if m.Len() != 1 {
		t.Errorf("session changed after invalid calls: Len() = %d", m.Len())
	}
}

func TestUpdateCursor(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.ActiveID()

	if err := m.UpdateCursor(id, 4, 10); err != nil {
		t.Fatal(err)
	}
	snap := mustGet(t, m, id)
	if snap.Cursor != (document.Cursor{Line: 4, Column: 10}) {
		t.Errorf("cursor = %+v", snap.Cursor)
	}
	if snap.Dirty {
		t.Error("cursor moves must not dirty the document")
	}
}

func TestSetActive(t *testing.T) {
	m, _ := newTestManager(t)
	m.CreateNew()
	m.CreateNew()
	log := recordEvents(m)

	if err := m.SetActive(0); err != nil {
		t.Fatal(err)
	}
	if m.ActiveIndex() != 0 {
		t.Errorf("ActiveIndex() = %d, want 0", m.ActiveIndex())
	}
	// Re-selecting the active tab is silent.
	if err := m.SetActive(0); err != nil {
		t.Fatal(err)
	}
	if n := log.count(event.TypeActiveChanged); n != 1 {
		t.Errorf("active_changed published %d times, want 1", n)
	}

	for _, bad := range []int{-1, 3, 100} {
		err := m.SetActive(bad)
		if !errors.Is(err, errors.ErrInvalidIndex) {
			t.Errorf("SetActive(%d) error = %v, want ErrInvalidIndex", bad, err)
		}
		var docErr *errors.DocumentError
		if errors.As(err, &docErr) && docErr.Index != bad {
			t.Errorf("SetActive(%d) error index = %d", bad, docErr.Index)
		}
	}
	if m.ActiveIndex() != 0 {
		t.Error("invalid SetActive must not move the active index")
	}
}

func TestPerformClose_ActiveIndexPolicy(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		active     int
		close      int
		wantActive int
	}{
		{"close left of active shifts left", 3, 1, 0, 0},
		{"close last while active", 3, 2, 2, 1},
		{"close active in middle keeps index", 3, 1, 1, 1},
		{"close right of active unchanged", 3, 0, 2, 0},
		{"close first while active", 3, 0, 0, 0},
		{"close left of last active", 4, 3, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			for m.Len() < tt.count {
				m.CreateNew()
			}
			if err := m.SetActive(tt.active); err != nil {
				t.Fatal(err)
			}
			ids := m.Documents()
			activeBefore := ids[tt.active].ID

			if err := m.PerformClose(ids[tt.close].ID); err != nil {
				t.Fatal(err)
			}

			if m.Len() != tt.count-1 {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.count-1)
			}
			if got := m.ActiveIndex(); got != tt.wantActive {
				t.Errorf("ActiveIndex() = %d, want %d", got, tt.wantActive)
			}
			if tt.close != tt.active && m.ActiveID() != activeBefore {
				t.Error("closing another tab must keep the same document active")
			}
		})
	}
}

func TestPerformClose_LastDocumentRecreatesUntitled(t *testing.T) {
	m, _ := newTestManager(t)
	only := m.ActiveID()
	log := recordEvents(m)

	if err := m.PerformClose(only); err != nil {
		t.Fatal(err)
	}

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	snap, idx := m.Active()
	if idx != 0 || snap.ID == only || snap.Locator != "Untitled-2" {
		t.Errorf("expected fresh Untitled-2 at index 0, got %+v at %d", snap, idx)
	}
	want := []string{event.TypeDocumentRemoved, event.TypeDocumentInserted, event.TypeActiveChanged}
	if !reflect.DeepEqual(log.types(), want) {
		t.Errorf("events = %v, want %v", log.types(), want)
	}
}

func TestSessionNeverEmpty(t *testing.T) {
	m, _ := newTestManager(t)

	// A fixed mix of creates, opens and closes from both ends.
	for i := range 60 {
		switch i % 5 {
		case 0:
			m.CreateNew()
		case 1:
			m.Open("/f.txt", "f.txt", "x")
		case 2, 3:
			docs := m.Documents()
			if err := m.PerformClose(docs[0].ID); err != nil {
				t.Fatal(err)
			}
		case 4:
			docs := m.Documents()
			if err := m.PerformClose(docs[len(docs)-1].ID); err != nil {
				t.Fatal(err)
			}
		}
		n := m.Len()
		if n == 0 {
			t.Fatalf("session empty after step %d", i)
		}
		if a := m.ActiveIndex(); a < 0 || a >= n {
			t.Fatalf("active index %d out of range [0,%d) after step %d", a, n, i)
		}
	}
}

func TestSubscribeHandlersMayReadSession(t *testing.T) {
	m, _ := newTestManager(t)

	var seen int
	m.Subscribe(event.TypeDocumentInserted, func(e event.Event) {
		// Would deadlock if events were published under the session lock.
		seen = m.Len()
	})
	m.CreateNew()

	if seen != 2 {
		t.Errorf("handler saw Len() = %d, want 2", seen)
	}
}

func TestWatcherRegistration(t *testing.T) {
	w := newFakeWatcher()
	m, _ := newTestManager(t, WithWatcher(w))

	id := m.Open("/a.txt", "a.txt", "")
	if !w.watching("/a.txt") {
		t.Error("opened file should be watched")
	}
	if w.watching("Untitled-1") {
		t.Error("untitled documents are not watched")
	}
	if err := m.PerformClose(id); err != nil {
		t.Fatal(err)
	}
	if w.watching("/a.txt") {
		t.Error("closed file should no longer be watched")
	}
}

func TestHandleExternalChange(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.Open("/p/a.txt", "a.txt", "")
	b := m.Open("file:///p/a.txt", "a.txt", "")
	other := m.Open("/p/b.txt", "b.txt", "")
	log := recordEvents(m)

	m.HandleExternalChange("/p/a.txt")

	if !mustGet(t, m, a).Stale || !mustGet(t, m, b).Stale {
		t.Error("both documents of the changed file should be stale")
	}
	if mustGet(t, m, other).Stale {
		t.Error("unrelated document should not be stale")
	}
	if n := log.count(event.TypeExternalChange); n != 2 {
		t.Errorf("external_change published %d times, want 2", n)
	}
}

func TestRevert(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	if err := store.FS.Write(ctx, "/a.txt", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	id, err := m.OpenFromStorage(ctx, "/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.MarkDirty(id, "local"); err != nil {
		t.Fatal(err)
	}
	if err := store.FS.Write(ctx, "/a.txt", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	m.HandleExternalChange("/a.txt")

	if err := m.Revert(ctx, id); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	snap := mustGet(t, m, id)
	if snap.Content != "v2" || snap.Dirty || snap.Stale {
		t.Errorf("after revert: %+v", snap)
	}

	untitled := m.CreateNew()
	if err := m.Revert(ctx, untitled); !errors.Is(err, errors.ErrNoLocator) {
		t.Errorf("Revert(untitled) error = %v, want ErrNoLocator", err)
	}
}
