package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redcode-editor/redcode/internal/config"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/language"
	"github.com/redcode-editor/redcode/internal/session"
	"github.com/redcode-editor/redcode/internal/storage"
	"github.com/redcode-editor/redcode/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// isolateConfig points the config and state directories at a temp dir and
// resets viper so each test starts from defaults.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	viper.Reset()
	config.SetDefaults()
	t.Cleanup(viper.Reset)
	return dir
}

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Name() != "redcode" {
		t.Errorf("rootCmd.Name() = %q, want %q", rootCmd.Name(), "redcode")
	}

	expectedCmds := []string{"config", "detect", "logs"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}

	for _, flag := range []string{"no-restore", "theme"} {
		if rootCmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag --%s", flag)
		}
	}
}

func TestDetectCommand(t *testing.T) {
	isolateConfig(t)
	dir := testutil.SetupWorkspace(t, map[string]string{
		"main.py":   "print('hi')\n",
		"tool":      "#!/usr/bin/env python3\nimport sys\n",
		"style.css": "body { color: red; }\n",
	})

	output, err := executeCommand(rootCmd, "detect",
		filepath.Join(dir, "main.py"),
		filepath.Join(dir, "tool"),
		filepath.Join(dir, "style.css"),
	)
	if err != nil {
		t.Fatalf("detect failed: %v\n%s", err, output)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), output)
	}
	wants := []string{"Python", "Python", "CSS"}
	for i, want := range wants {
		if !strings.HasSuffix(strings.TrimSpace(lines[i]), want) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], want)
		}
	}
}

func TestDetectCommand_MIME(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "app.ts")
	testutil.WriteFile(t, path, "let x: number = 1\n")

	output, err := executeCommand(rootCmd, "detect", "--mime", path)
	_ = detectCmd.Flags().Set("mime", "false")
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !strings.Contains(output, language.TypeScript.MIMEType()) {
		t.Errorf("output %q should contain %q", output, language.TypeScript.MIMEType())
	}
}

func TestDetectCommand_MissingFileContinues(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "index.html")
	testutil.WriteFile(t, good, "<!DOCTYPE html>\n<html></html>\n")

	output, err := executeCommand(rootCmd, "detect", filepath.Join(dir, "missing.txt"), good)
	if err == nil {
		t.Fatal("expected an error for the missing file")
	}
	if !strings.Contains(output, "missing.txt") {
		t.Errorf("missing file should be reported:\n%s", output)
	}
	if !strings.Contains(output, "HTML") {
		t.Errorf("readable file should still be classified:\n%s", output)
	}
}

func TestConfigInitAndSet(t *testing.T) {
	isolateConfig(t)

	output, err := executeCommand(rootCmd, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, config.ConfigFile()) {
		t.Errorf("init output should name the file:\n%s", output)
	}

	// The generated file must load cleanly.
	viper.SetConfigFile(config.ConfigFile())
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if _, err := config.Load(); err != nil {
		t.Fatalf("generated config does not validate: %v", err)
	}

	if _, err := executeCommand(rootCmd, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	if _, err := executeCommand(rootCmd, "config", "set", "editor.tab_width", "2"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	data, err := os.ReadFile(config.ConfigFile())
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "tab_width: 2") {
		t.Errorf("config file should contain the new value:\n%s", data)
	}
}

func TestConfigSet_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "editor.word_wrap", "true"},
		{"not a bool", "watch.enabled", "sometimes"},
		{"not an int", "editor.tab_width", "wide"},
		{"out of range", "editor.tab_width", "0"},
		{"bad theme", "theme.mode", "sepia"},
		{"unknown mime", "editor.default_mime_type", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			if _, err := executeCommand(rootCmd, "config", "set", tt.key, tt.value); err == nil {
				t.Errorf("config set %s %s should fail", tt.key, tt.value)
			}
			if _, err := os.Stat(config.ConfigFile()); err == nil {
				t.Error("rejected value must not be written")
			}
			if _, err := config.Load(); err != nil {
				t.Errorf("viper left in an invalid state: %v", err)
			}
		})
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		key  string
		raw  string
		want any
	}{
		{"editor.show_line_numbers", "false", false},
		{"watch.debounce_ms", "120", 120},
		{"editor.untitled_prefix", "Scratch", "Scratch"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := parseConfigValue(tt.key, tt.raw)
			if err != nil {
				t.Fatalf("parseConfigValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseConfigValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConfigShowAndPath(t *testing.T) {
	isolateConfig(t)

	output, err := executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"untitled_prefix: Untitled", "mode: system", "debounce_ms: 50"} {
		if !strings.Contains(output, want) {
			t.Errorf("show output missing %q:\n%s", want, output)
		}
	}

	output, err = executeCommand(rootCmd, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(output, config.DefaultStateDir()) {
		t.Errorf("path output should include the state dir:\n%s", output)
	}
}

func TestLogFilter(t *testing.T) {
	now := time.Now()
	entry := &logEntry{
		Time:       now,
		Level:      "WARN",
		Msg:        "save failed",
		DocumentID: "3f2a9c1e-aaaa",
		Extra:      map[string]any{"locator": "/tmp/a.py"},
	}

	tests := []struct {
		name   string
		filter logFilter
		want   bool
	}{
		{"no filters", logFilter{minLevel: -1}, true},
		{"level below", logFilter{minLevel: levelPriority("error")}, false},
		{"level at", logFilter{minLevel: levelPriority("warn")}, true},
		{"since future", logFilter{minLevel: -1, since: now.Add(time.Minute)}, false},
		{"document prefix", logFilter{minLevel: -1, documentID: "3f2a"}, true},
		{"other document", logFilter{minLevel: -1, documentID: "beef"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.passes(entry); got != tt.want {
				t.Errorf("passes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogPrinter_Render(t *testing.T) {
	p := logPrinter{}

	line, ok := p.render(`{"time":"2026-01-02T03:04:05Z","level":"INFO","msg":"document saved","document_id":"abc","bytes":12}`, logFilter{minLevel: -1})
	if !ok {
		t.Fatal("entry should pass")
	}
	for _, want := range []string{"[INFO]", "document saved", "document_id=abc", "bytes=12"} {
		if !strings.Contains(line, want) {
			t.Errorf("rendered %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\033[") {
		t.Error("no color codes expected")
	}

	if raw, ok := p.render("not json", logFilter{minLevel: 3}); !ok || raw != "not json" {
		t.Errorf("raw lines pass through, got %q %v", raw, ok)
	}
}

func TestLogsCommand(t *testing.T) {
	dir := isolateConfig(t)
	stateDir := filepath.Join(dir, "state", "redcode")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, filepath.Join(stateDir, "redcode.log"),
		`{"time":"2026-01-02T03:04:05Z","level":"DEBUG","msg":"first"}`+"\n"+
			`{"time":"2026-01-02T03:04:06Z","level":"ERROR","msg":"second"}`+"\n")

	output, err := executeCommand(rootCmd, "logs", "--level", "warn")
	logsLevel = ""
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if strings.Contains(output, "first") || !strings.Contains(output, "second") {
		t.Errorf("level filter not applied:\n%s", output)
	}
}

func TestOpenArgs(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.py")
	testutil.WriteFile(t, existing, "x = 1\n")

	store := storage.NewOSFS()
	mgr := session.New(store)
	if err := openArgs(context.Background(), mgr, store, dir, []string{"a.py", "new.js"}); err != nil {
		t.Fatalf("openArgs() error = %v", err)
	}

	docs := mgr.Documents()
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2 (placeholder dropped)", len(docs))
	}
	if docs[0].Locator != existing || docs[0].Content != "x = 1\n" {
		t.Errorf("first doc = %q %q", docs[0].Locator, docs[0].Content)
	}
	if docs[1].Locator != filepath.Join(dir, "new.js") || docs[1].Content != "" {
		t.Errorf("missing file should open empty at its path, got %q", docs[1].Locator)
	}
	if docs[1].Language != language.JavaScript {
		t.Errorf("language = %q, want javascript", docs[1].Language)
	}
}

func TestOpenArgs_KeepsEditedPlaceholder(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "b.txt"), "b")

	store := storage.NewOSFS()
	mgr := session.New(store)
	id := mgr.ActiveID()
	if err := mgr.MarkDirty(id, "draft"); err != nil {
		t.Fatal(err)
	}

	if err := openArgs(context.Background(), mgr, store, dir, []string{"b.txt"}); err != nil {
		t.Fatalf("openArgs() error = %v", err)
	}
	if mgr.Len() != 2 {
		t.Errorf("edited placeholder must survive, Len() = %d", mgr.Len())
	}
}

func TestOpenArgs_Directory(t *testing.T) {
	dir := testutil.SetupWorkspace(t, map[string]string{
		"src/b.js":       "let b = 2\n",
		"src/a.py":       "a = 1\n",
		"src/logo.png":   "\x89PNG\r\n\x1a\n\xff",
		"src/nested/c.t": "skipped, not a direct child",
	})

	store := storage.NewOSFS()
	mgr := session.New(store)
	if err := openArgs(context.Background(), mgr, store, dir, []string{"src"}); err != nil {
		t.Fatalf("openArgs() error = %v", err)
	}

	docs := mgr.Documents()
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want the two text files", len(docs))
	}
	if docs[0].DisplayName != "a.py" || docs[1].DisplayName != "b.js" {
		t.Errorf("tabs = %q, %q; want sorted a.py, b.js", docs[0].DisplayName, docs[1].DisplayName)
	}
}

func TestOpenArgs_NamedBinaryFileFails(t *testing.T) {
	dir := testutil.SetupWorkspace(t, map[string]string{"logo.png": "\x89PNG\xff"})

	store := storage.NewOSFS()
	mgr := session.New(store)
	err := openArgs(context.Background(), mgr, store, dir, []string{"logo.png"})
	if !errors.Is(err, errors.ErrNotText) {
		t.Fatalf("openArgs() error = %v, want ErrNotText", err)
	}
	if mgr.Len() != 1 {
		t.Errorf("Len() = %d, only the starting tab should remain", mgr.Len())
	}
}
