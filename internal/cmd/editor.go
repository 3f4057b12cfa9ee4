package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redcode-editor/redcode/internal/config"
	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/logging"
	"github.com/redcode-editor/redcode/internal/session"
	"github.com/redcode-editor/redcode/internal/storage"
	"github.com/redcode-editor/redcode/internal/tui"
	"github.com/redcode-editor/redcode/internal/tui/keymap"
	"github.com/redcode-editor/redcode/internal/tui/styles"
)

// errNoTerminal is returned when the editor is started without a TTY.
var errNoTerminal = errors.New("redcode needs an interactive terminal (use 'redcode detect' in scripts)")

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runEditor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNoTerminal
	}

	stateDir := cfg.Session.ResolvedStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(stateDir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return err
		}
	}
	defer func() { _ = logger.Close() }()

	// Only one process owns the workspace state. A second editor still works,
	// it just neither restores nor records the open files.
	lock, err := session.AcquireLock(stateDir, logger)
	if err != nil {
		if !errors.Is(err, session.ErrWorkspaceLocked) {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "another redcode owns the workspace; open files will not be remembered")
		lock = nil
	}
	defer func() { _ = lock.Release() }()

	store := storage.NewOSFS()

	var mgr *session.Manager
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithUntitledPrefix(cfg.Editor.UntitledPrefix),
	}
	if lock != nil {
		sessionOpts = append(sessionOpts, session.WithStateStore(session.NewStateStore(store, stateDir)))
	}

	var watcher *storage.Watcher
	if cfg.Watch.Enabled {
		watcher, err = storage.NewWatcher(func(path string) {
			mgr.HandleExternalChange(path)
		}, cfg.Watch.Debounce(), logger)
		if err != nil {
			logger.Warn("file watching disabled", "error", err.Error())
			watcher = nil
		} else {
			sessionOpts = append(sessionOpts, session.WithWatcher(watcher))
		}
	}

	mgr = session.New(store, sessionOpts...)
	if watcher != nil {
		watcher.Start()
		defer watcher.Stop()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	noRestore, _ := cmd.Flags().GetBool("no-restore")
	if lock != nil && cfg.Session.RestoreOnStart && !noRestore {
		if _, err := mgr.Restore(ctx); err != nil {
			logger.Warn("workspace restore failed", "error", err.Error())
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get current directory")
	}
	if err := openArgs(ctx, mgr, store, cwd, args); err != nil {
		return err
	}

	opts := tui.Options{
		TabWidth:        cfg.Editor.TabWidth,
		ShowLineNumbers: cfg.Editor.ShowLineNumbers,
		DefaultMIMEType: cfg.Editor.DefaultMIMEType,
		WorkDir:         cwd,
		Styles:          styles.ForConfig(cfg.Theme.Mode),
		Keys:            keymap.Default(),
		Logger:          logger,
	}
	// Size the first frame before the program reports the window
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		opts.Width, opts.Height = w, h
	}
	runErr := tui.New(ctx, mgr, opts).Run()

	if lock != nil {
		if err := mgr.SaveState(context.Background()); err != nil {
			logger.Warn("failed to save workspace state", "error", err.Error())
		}
	}
	return runErr
}

// openArgs opens each named file in a tab. A missing file becomes an empty
// document bound to that path so the first save creates it. A directory opens
// every text file directly inside it; binary files there are skipped. When
// anything was opened, the untouched starting tab is dropped.
func openArgs(ctx context.Context, mgr *session.Manager, lister storage.Lister, cwd string, args []string) error {
	if len(args) == 0 {
		return nil
	}
	placeholder := pristineFirst(mgr)

	for _, arg := range args {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := openDir(ctx, mgr, lister, path); err != nil {
				return errors.Wrapf(err, "cannot open %s", arg)
			}
			continue
		}

		_, err := mgr.OpenFromStorage(ctx, path)
		if errors.Is(err, errors.ErrNotFound) {
			mgr.Open(path, filepath.Base(path), "")
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "cannot open %s", arg)
		}
	}

	if placeholder != "" && mgr.Len() > 1 {
		return mgr.PerformClose(placeholder)
	}
	return nil
}

func openDir(ctx context.Context, mgr *session.Manager, lister storage.Lister, dir string) error {
	entries, err := lister.List(ctx, dir)
	if err != nil {
		return err
	}
	for _, path := range entries {
		if _, err := mgr.OpenFromStorage(ctx, path); err != nil && !errors.Is(err, errors.ErrNotText) {
			return err
		}
	}
	return nil
}

// pristineFirst returns the id of the first document when it is an empty,
// unedited untitled tab.
func pristineFirst(mgr *session.Manager) document.ID {
	docs := mgr.Documents()
	if len(docs) == 0 {
		return ""
	}
	first := docs[0]
	if first.Persisted || first.Dirty || first.Content != "" {
		return ""
	}
	return first.ID
}
