package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/event"
	"github.com/redcode-editor/redcode/internal/session"
)

// sessionEventMsg carries a bus event into the update loop
type sessionEventMsg struct {
	event event.Event
}

// saveResultMsg is sent when a save started from the UI finishes
type saveResultMsg struct {
	id      document.ID
	locator string
	err     error
}

// saveAllResultMsg is sent when a save-all finishes
type saveAllResultMsg struct {
	err error
}

// openResultMsg is sent when opening a file finishes
type openResultMsg struct {
	locator string
	err     error
}

// closeResultMsg is sent when a save-then-close finishes
type closeResultMsg struct {
	id  document.ID
	err error
}

// revertResultMsg is sent when reloading a document from disk finishes
type revertResultMsg struct {
	id  document.ID
	err error
}

// Commands

func saveCmd(ctx context.Context, mgr *session.Manager, id document.ID, override string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Save(ctx, id, override)
		locator := override
		if snap, ok := mgr.Get(id); ok {
			locator = snap.Locator
		}
		return saveResultMsg{id: id, locator: locator, err: err}
	}
}

func saveAsNewCmd(ctx context.Context, mgr *session.Manager, id document.ID, parent, name, mimeType string) tea.Cmd {
	return func() tea.Msg {
		locator, err := mgr.SaveAsNew(ctx, id, parent, name, mimeType)
		return saveResultMsg{id: id, locator: locator, err: err}
	}
}

func saveAllCmd(ctx context.Context, mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return saveAllResultMsg{err: mgr.SaveAll(ctx)}
	}
}

func openCmd(ctx context.Context, mgr *session.Manager, locator string) tea.Cmd {
	return func() tea.Msg {
		_, err := mgr.OpenFromStorage(ctx, locator)
		return openResultMsg{locator: locator, err: err}
	}
}

func saveThenCloseCmd(ctx context.Context, req *session.CloseRequest, override string) tea.Cmd {
	return func() tea.Msg {
		return closeResultMsg{id: req.DocumentID(), err: req.SaveThenClose(ctx, override)}
	}
}

func saveNewThenCloseCmd(ctx context.Context, req *session.CloseRequest, parent, name, mimeType string) tea.Cmd {
	return func() tea.Msg {
		return closeResultMsg{id: req.DocumentID(), err: req.SaveNewThenClose(ctx, parent, name, mimeType)}
	}
}

func revertCmd(ctx context.Context, mgr *session.Manager, id document.ID) tea.Cmd {
	return func() tea.Msg {
		return revertResultMsg{id: id, err: mgr.Revert(ctx, id)}
	}
}

// waitForEvent blocks until the next bus event arrives. It returns nil once
// the channel is closed, which stops the listen loop.
func waitForEvent(events <-chan event.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}
