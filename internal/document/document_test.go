package document

import (
	"testing"
	"time"

	"github.com/redcode-editor/redcode/internal/language"
)

func TestNewUntitled(t *testing.T) {
	d := NewUntitled("Untitled-1")

	if d.ID() == "" {
		t.Error("ID should be assigned")
	}
	if d.Locator() != "Untitled-1" {
		t.Errorf("Locator() = %q, want %q", d.Locator(), "Untitled-1")
	}
	if d.IsPersisted() {
		t.Error("untitled document should not be persisted")
	}
	if d.Dirty() {
		t.Error("new document should be clean")
	}
	if d.Language() != language.PlainText {
		t.Errorf("Language() = %q, want %q", d.Language(), language.PlainText)
	}
	if d.Content() != "" {
		t.Errorf("Content() = %q, want empty", d.Content())
	}
}

func TestNewOpened(t *testing.T) {
	d := NewOpened("/src/app/main.py", "main.py", "print(1)\n")

	if d.Dirty() {
		t.Error("opened document should be clean")
	}
	if !d.IsPersisted() {
		t.Error("opened document should be persisted")
	}
	if d.Language() != language.Python {
		t.Errorf("Language() = %q, want %q", d.Language(), language.Python)
	}
	if d.DisplayName() != "main.py" {
		t.Errorf("DisplayName() = %q, want %q", d.DisplayName(), "main.py")
	}
}

func TestNewOpened_HintFallsBackToLocator(t *testing.T) {
	d := NewOpened("/src/site.css", "", "")
	if d.Language() != language.CSS {
		t.Errorf("Language() = %q, want %q", d.Language(), language.CSS)
	}
}

func TestIDsAreUnique(t *testing.T) {
	a := NewOpened("/a.txt", "a.txt", "")
	b := NewOpened("/a.txt", "a.txt", "")
	if a.ID() == b.ID() {
		t.Error("two documents of the same locator must have distinct ids")
	}
}

func TestApplyChange(t *testing.T) {
	d := NewUntitled("Untitled-1")

	if !d.ApplyChange("a") {
		t.Error("first change should report a clean to dirty transition")
	}
	if d.ApplyChange("ab") {
		t.Error("second change should not report a transition")
	}
	if !d.Dirty() {
		t.Error("document should be dirty after a change")
	}
	if d.Content() != "ab" {
		t.Errorf("Content() = %q, want %q", d.Content(), "ab")
	}
	if d.Revision() != 2 {
		t.Errorf("Revision() = %d, want 2", d.Revision())
	}
}

func TestSetCursor(t *testing.T) {
	d := NewUntitled("Untitled-1")
	d.SetCursor(4, 9)
	if d.Cursor() != (Cursor{Line: 4, Column: 9}) {
		t.Errorf("Cursor() = %+v", d.Cursor())
	}
	if d.Dirty() {
		t.Error("cursor moves must not dirty the document")
	}

	d.SetCursor(-1, -5)
	if d.Cursor() != (Cursor{}) {
		t.Errorf("negative cursor not clamped: %+v", d.Cursor())
	}
}

func TestMarkSaved(t *testing.T) {
	t.Run("clears dirty and adopts locator", func(t *testing.T) {
		d := NewUntitled("Untitled-1")
		d.ApplyChange("import os\ndef f(): pass\n")
		now := time.Now()

		d.MarkSaved("/tmp/tool.py", d.Revision(), now)

		if d.Dirty() {
			t.Error("document should be clean after save")
		}
		if d.Locator() != "/tmp/tool.py" {
			t.Errorf("Locator() = %q", d.Locator())
		}
		if !d.IsPersisted() {
			t.Error("document should be persisted after save")
		}
		if d.Language() != language.Python {
			t.Errorf("Language() = %q, want %q", d.Language(), language.Python)
		}
		if !d.Snapshot().SavedAt.Equal(now) {
			t.Error("SavedAt not recorded")
		}
	})

	t.Run("stays dirty when edited during the write", func(t *testing.T) {
		d := NewOpened("/tmp/a.txt", "a.txt", "one")
		d.ApplyChange("two")
		rev := d.Revision()
		d.ApplyChange("three")

		d.MarkSaved("/tmp/a.txt", rev, time.Now())

		if !d.Dirty() {
			t.Error("document edited after the save snapshot must stay dirty")
		}
	})

	t.Run("clears stale flag", func(t *testing.T) {
		d := NewOpened("/tmp/a.txt", "a.txt", "one")
		d.MarkStale()
		if !d.Stale() {
			t.Fatal("MarkStale did not set the flag")
		}
		d.MarkSaved("/tmp/a.txt", d.Revision(), time.Now())
		if d.Stale() {
			t.Error("save should clear the stale flag")
		}
	})
}

func TestStatusLine(t *testing.T) {
	d := NewOpened("/x/app.js", "app.js", "")
	d.SetCursor(2, 6)
	if got, want := d.StatusLine(), "Line 3, Col 7 · JavaScript"; got != want {
		t.Errorf("StatusLine() = %q, want %q", got, want)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	d := NewOpened("/x/a.txt", "a.txt", "one")
	snap := d.Snapshot()
	d.ApplyChange("two")

	if snap.Content != "one" || snap.Dirty {
		t.Errorf("snapshot changed after mutation: %+v", snap)
	}
	if snap.Title() != "a.txt" {
		t.Errorf("Title() = %q", snap.Title())
	}
	if d.Snapshot().Title() != "a.txt •" {
		t.Errorf("dirty Title() = %q", d.Snapshot().Title())
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"/home/me/notes.md":                "notes.md",
		"file:///home/me/app.js":           "app.js",
		`C:\src\main.py`:                   "main.py",
		"Untitled-4":                       "Untitled-4",
		"/home/me/dir/":                    "dir",
		"":                                 Untitled,
		"/":                                Untitled,
		"content://provider/document/1234": "1234",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRevert(t *testing.T) {
	d := NewOpened("/a.txt", "", "disk")
	d.ApplyChange("local edit")
	d.MarkStale()
	rev := d.Revision()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d.Revert("disk v2", at)

	if d.Content() != "disk v2" || d.Dirty() || d.Stale() {
		t.Errorf("after Revert: content=%q dirty=%v stale=%v", d.Content(), d.Dirty(), d.Stale())
	}
	if d.Revision() <= rev {
		t.Error("Revert should advance the revision")
	}

	// A save that captured the pre-revert revision must not clear later edits.
	d.ApplyChange("new edit")
	d.MarkSaved("/a.txt", rev, at)
	if !d.Dirty() {
		t.Error("stale save revision should leave the document dirty")
	}
}
