package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "  ", ""},
		{"relative gets work dir", "notes.md", "/work/notes.md"},
		{"bare name kept", "Makefile", "/work/Makefile"},
		{"absolute kept", "/etc/hosts", "/etc/hosts"},
		{"cleaned", "/a/../b/./c.txt", "/b/c.txt"},
		{"home expansion", "~/x.py", filepath.Join(home, "x.py")},
		{"uri passes through", "file:///tmp/a", "file:///tmp/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolvePath(tt.input, "/work"); got != tt.want {
				t.Errorf("resolvePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFileTarget(t *testing.T) {
	tests := []struct {
		input      string
		wantParent string
		wantName   string
		wantOK     bool
	}{
		{"notes", "/work", "notes", true},
		{"docs/todo", "/work/docs", "todo", true},
		{"/tmp/scratch", "/tmp", "scratch", true},
		{"notes.md", "", "", false},
		{"file:///tmp/a", "", "", false},
		{"   ", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parent, name, ok := newFileTarget(tt.input, "/work")
			if ok != tt.wantOK || parent != tt.wantParent || name != tt.wantName {
				t.Errorf("newFileTarget(%q) = %q, %q, %v; want %q, %q, %v",
					tt.input, parent, name, ok, tt.wantParent, tt.wantName, tt.wantOK)
			}
		})
	}
}
