package session

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/redcode-editor/redcode/internal/storage"
)

func TestStateStore_LoadMissing(t *testing.T) {
	s := NewStateStore(storage.NewMemFS(), "/state")

	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(st.Locators) != 0 || st.Active != -1 {
		t.Errorf("missing state should be empty, got %+v", st)
	}
}

func TestStateStore_RejectsGarbageAndNewerVersions(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewMemFS()
	s := NewStateStore(fs, "/state")

	for name, body := range map[string]string{
		"garbage": "{not json",
		"future":  `{"version": 99, "locators": [], "active": -1}`,
	} {
		if err := fs.Write(ctx, s.Locator(), []byte(body)); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Load(ctx); err == nil {
			t.Errorf("%s: Load should fail", name)
		}
	}
}

func TestSaveStateRestore(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewMemFS()
	for loc, body := range map[string]string{
		"/p/a.py":  "import os\n",
		"/p/b.css": "a { color: red; }",
		"/p/c.txt": "notes",
	} {
		if err := fs.Write(ctx, loc, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	first := New(fs, WithStateStore(NewStateStore(fs, "/state")), WithClock(func() time.Time { return fixed }))
	for _, loc := range []string{"/p/a.py", "/p/b.css", "/p/c.txt"} {
		if _, err := first.OpenFromStorage(ctx, loc); err != nil {
			t.Fatal(err)
		}
	}
	if err := first.SetActive(2); err != nil { // /p/b.css
		t.Fatal(err)
	}
	if err := first.SaveState(ctx); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	st, err := NewStateStore(fs, "/state").Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantLocators := []string{"/p/a.py", "/p/b.css", "/p/c.txt"}
	if !reflect.DeepEqual(st.Locators, wantLocators) || st.Active != 1 || !st.SavedAt.Equal(fixed) {
		t.Errorf("stored state = %+v", st)
	}

	// A file vanished between runs; it is skipped.
	if err := fs.Delete(ctx, "/p/c.txt"); err != nil {
		t.Fatal(err)
	}

	second := New(fs, WithStateStore(NewStateStore(fs, "/state")))
	n, err := second.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if n != 2 {
		t.Errorf("restored %d documents, want 2", n)
	}
	if got := locators(second); !reflect.DeepEqual(got, []string{"/p/a.py", "/p/b.css"}) {
		t.Errorf("session = %v, want the restored files without the placeholder", got)
	}
	if snap, _ := second.Active(); snap.Locator != "/p/b.css" {
		t.Errorf("active = %q, want /p/b.css", snap.Locator)
	}
}

func TestRestore_KeepsUserDocuments(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewMemFS()
	if err := fs.Write(ctx, "/a.txt", []byte("a")); err != nil {
		t.Fatal(err)
	}
	store := NewStateStore(fs, "/state")
	if err := store.Save(ctx, &State{Locators: []string{"/a.txt"}, Active: 0}); err != nil {
		t.Fatal(err)
	}

	m := New(fs, WithStateStore(store))
	if err := m.MarkDirty(m.ActiveID(), "typed before restore"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want the edited untitled document kept", m.Len())
	}
}

func TestRestore_WithoutStateStore(t *testing.T) {
	m := New(storage.NewMemFS())
	n, err := m.Restore(context.Background())
	if n != 0 || err != nil {
		t.Errorf("Restore() = %d, %v; want 0, nil", n, err)
	}
	if err := m.SaveState(context.Background()); err != nil {
		t.Errorf("SaveState() = %v, want nil", err)
	}
}
