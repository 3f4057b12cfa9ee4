// Package tui implements the terminal editor: a tab bar over a text area
// with a status bar, a path prompt and the unsaved-changes close prompt.
package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/redcode-editor/redcode/internal/session"
)

// App wraps the Bubbletea program
type App struct {
	program   *tea.Program
	model     Model
	forwarder *eventForwarder
}

// New creates a new TUI application over mgr. ctx bounds the saves and opens
// the UI starts.
func New(ctx context.Context, mgr *session.Manager, opts Options) *App {
	f := newEventForwarder(mgr.Bus())
	return &App{
		model:     NewModel(ctx, mgr, f.Events(), opts),
		forwarder: f,
	}
}

// Run starts the TUI application and blocks until it exits
func (a *App) Run() error {
	defer a.forwarder.Close()

	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Quit cleanly on termination so the caller can persist workspace state.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigChan:
			a.program.Send(tea.Quit())
		case <-done:
		}
	}()

	_, err := a.program.Run()

	signal.Stop(sigChan)

	return err
}
