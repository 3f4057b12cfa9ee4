package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/event"
	"github.com/redcode-editor/redcode/internal/language"
	"github.com/redcode-editor/redcode/internal/logging"
	"github.com/redcode-editor/redcode/internal/session"
	"github.com/redcode-editor/redcode/internal/tui/keymap"
	"github.com/redcode-editor/redcode/internal/tui/styles"
	"github.com/redcode-editor/redcode/internal/util"
)

// mode is what the keyboard currently drives
type mode int

const (
	modeEdit mode = iota
	modePrompt
	modeConfirmClose
)

// promptPurpose says what the path prompt will do on enter
type promptPurpose int

const (
	promptSaveAs promptPurpose = iota
	promptOpen
	promptSaveAsThenClose
)

func (p promptPurpose) label() string {
	switch p {
	case promptOpen:
		return "Open: "
	default:
		return "Save as: "
	}
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusOK
	statusWarn
	statusError
)

// Chrome heights around the text area
const (
	tabBarHeight    = 2 // tabs plus bottom border
	statusBarHeight = 1
	bottomBarHeight = 1
)

// maxStatusPathWidth bounds file paths quoted in status messages
const maxStatusPathWidth = 48

// Options configures the editor model
type Options struct {
	// TabWidth is the number of spaces the indent key inserts
	TabWidth        int
	ShowLineNumbers bool
	// DefaultMIMEType types save-as names typed without an extension
	DefaultMIMEType string
	// WorkDir resolves relative paths typed into prompts
	WorkDir string
	// Width and Height size the first frame; the program's WindowSizeMsg
	// replaces them
	Width  int
	Height int
	Styles styles.Styles
	Keys   keymap.KeyMap
	Logger *logging.Logger
}

// Model is the bubbletea model for the editor. The session manager is the
// source of truth; the text area mirrors the active document and pushes every
// edit back through MarkDirty.
type Model struct {
	ctx    context.Context
	mgr    *session.Manager
	opts   Options
	logger *logging.Logger
	keys   keymap.KeyMap
	styles styles.Styles
	events <-chan event.Event

	editor textarea.Model
	input  textinput.Model
	help   help.Model

	// editingID is the document currently loaded into the text area
	editingID document.ID

	mode     mode
	purpose  promptPurpose
	closeReq *session.CloseRequest

	status      string
	level       statusLevel
	confirmQuit bool
	quitting    bool

	width  int
	height int
}

// NewModel creates the editor model. events may be nil when no bus events
// should reach the UI.
func NewModel(ctx context.Context, mgr *session.Manager, events <-chan event.Event, opts Options) Model {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	ed := textarea.New()
	ed.ShowLineNumbers = opts.ShowLineNumbers
	ed.Prompt = ""
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.Focus()

	in := textinput.New()

	h := help.New()
	h.Styles.ShortKey = opts.Styles.HelpKey
	h.Styles.ShortDesc = opts.Styles.HelpDesc
	h.Styles.FullKey = opts.Styles.HelpKey
	h.Styles.FullDesc = opts.Styles.HelpDesc

	m := Model{
		ctx:    ctx,
		mgr:    mgr,
		opts:   opts,
		logger: logger,
		keys:   opts.Keys,
		styles: opts.Styles,
		events: events,
		editor: ed,
		input:  in,
		help:   h,
		width:  opts.Width,
		height: opts.Height,
	}
	m.resize()
	m.loadActive()
	return m
}

// Init starts the cursor blink and the event listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionEventMsg:
		m.handleEvent(msg.event)
		return m, waitForEvent(m.events)

	case saveResultMsg:
		if msg.err != nil {
			m.setError("Save", msg.err)
			return m, nil
		}
		m.setStatus(statusOK, "Saved "+util.ShortenPath(msg.locator, maxStatusPathWidth))
		return m, nil

	case saveAllResultMsg:
		if msg.err != nil {
			m.setError("Save all", msg.err)
		} else {
			m.setStatus(statusOK, "All documents saved")
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.setError("Open", msg.err)
			return m, nil
		}
		m.syncEditor()
		m.setStatus(statusOK, "Opened "+util.ShortenPath(msg.locator, maxStatusPathWidth))
		return m, nil

	case closeResultMsg:
		return m.handleCloseResult(msg)

	case revertResultMsg:
		if msg.err != nil {
			m.setError("Reload", msg.err)
			return m, nil
		}
		if msg.id == m.editingID {
			m.loadActive()
		}
		m.setStatus(statusOK, "Reloaded from disk")
		return m, nil
	}

	var cmd tea.Cmd
	switch m.mode {
	case modePrompt:
		m.input, cmd = m.input.Update(msg)
	case modeEdit:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmClose:
		return m.handleConfirmKey(msg)
	case modePrompt:
		return m.handlePromptKey(msg)
	}

	if !key.Matches(msg, m.keys.Quit) {
		m.confirmQuit = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Save):
		snap, _ := m.mgr.Active()
		if !snap.Persisted {
			return m.openPrompt(promptSaveAs)
		}
		m.setStatus(statusInfo, "Saving "+snap.DisplayName+"…")
		return m, saveCmd(m.ctx, m.mgr, snap.ID, "")

	case key.Matches(msg, m.keys.SaveAs):
		return m.openPrompt(promptSaveAs)

	case key.Matches(msg, m.keys.SaveAll):
		m.setStatus(statusInfo, "Saving all…")
		return m, saveAllCmd(m.ctx, m.mgr)

	case key.Matches(msg, m.keys.Open):
		return m.openPrompt(promptOpen)

	case key.Matches(msg, m.keys.New):
		m.mgr.CreateNew()
		m.syncEditor()
		return m, nil

	case key.Matches(msg, m.keys.Close):
		return m.requestClose()

	case key.Matches(msg, m.keys.NextTab):
		m.cycleTab(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.cycleTab(-1)
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		snap, _ := m.mgr.Active()
		if !snap.Persisted {
			m.setStatus(statusWarn, snap.DisplayName+" has never been saved")
			return m, nil
		}
		return m, revertCmd(m.ctx, m.mgr, snap.ID)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Indent):
		prev := m.editor.Value()
		m.editor.InsertString(strings.Repeat(" ", m.opts.TabWidth))
		m.afterEdit(prev)
		return m, nil
	}

	prev := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.afterEdit(prev)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.input.Blur()
		if m.purpose == promptSaveAsThenClose {
			m.mode = modeConfirmClose
			return m, nil
		}
		m.mode = modeEdit
		m.editor.Focus()
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		locator := resolvePath(m.input.Value(), m.opts.WorkDir)
		if locator == "" {
			m.setStatus(statusWarn, "Enter a file name")
			return m, nil
		}
		m.input.Blur()

		if parent, name, ok := newFileTarget(m.input.Value(), m.opts.WorkDir); ok && m.purpose != promptOpen {
			m.setStatus(statusInfo, "Saving…")
			if m.purpose == promptSaveAsThenClose {
				m.mode = modeConfirmClose
				return m, saveNewThenCloseCmd(m.ctx, m.closeReq, parent, name, m.opts.DefaultMIMEType)
			}
			m.mode = modeEdit
			m.editor.Focus()
			return m, saveAsNewCmd(m.ctx, m.mgr, m.editingID, parent, name, m.opts.DefaultMIMEType)
		}

		switch m.purpose {
		case promptOpen:
			m.mode = modeEdit
			m.editor.Focus()
			return m, openCmd(m.ctx, m.mgr, locator)
		case promptSaveAsThenClose:
			m.mode = modeConfirmClose
			m.setStatus(statusInfo, "Saving…")
			return m, saveThenCloseCmd(m.ctx, m.closeReq, locator)
		default:
			m.mode = modeEdit
			m.editor.Focus()
			m.setStatus(statusInfo, "Saving…")
			return m, saveCmd(m.ctx, m.mgr, m.editingID, locator)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.closeReq
	if req == nil {
		m.mode = modeEdit
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Yes):
		snap, ok := m.mgr.Get(req.DocumentID())
		if ok && !snap.Persisted {
			return m.openPrompt(promptSaveAsThenClose)
		}
		m.setStatus(statusInfo, "Saving…")
		return m, saveThenCloseCmd(m.ctx, req, "")

	case key.Matches(msg, m.keys.No):
		if err := req.DiscardThenClose(); err != nil {
			m.setError("Close", err)
			return m, nil
		}
		m.finishClose()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if err := req.Cancel(); err != nil {
			m.setError("Close", err)
			return m, nil
		}
		m.finishClose()
		m.setStatus(statusInfo, "")
		return m, nil
	}
	return m, nil
}

func (m Model) handleCloseResult(msg closeResultMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		m.finishClose()
		m.setStatus(statusOK, "Saved and closed")
		return m, nil
	}
	// A failed save leaves the request open so the user can pick again.
	if m.closeReq != nil && m.closeReq.Resolved() {
		m.finishClose()
	}
	m.setError("Save", msg.err)
	return m, nil
}

func (m *Model) finishClose() {
	m.closeReq = nil
	m.mode = modeEdit
	m.editor.Focus()
	m.syncEditor()
}

func (m Model) requestClose() (tea.Model, tea.Cmd) {
	outcome, req, err := m.mgr.RequestClose(m.editingID)
	if err != nil {
		m.setError("Close", err)
		return m, nil
	}
	if outcome == session.CloseClean {
		m.syncEditor()
		return m, nil
	}
	m.closeReq = req
	m.mode = modeConfirmClose
	m.editor.Blur()
	return m, nil
}

func (m Model) openPrompt(purpose promptPurpose) (tea.Model, tea.Cmd) {
	m.purpose = purpose
	m.mode = modePrompt
	m.editor.Blur()

	m.input.Reset()
	m.input.Prompt = ""
	m.input.Placeholder = ""
	if purpose != promptOpen {
		snap, _ := m.mgr.Get(m.editingID)
		if snap.Persisted {
			m.input.SetValue(snap.Locator)
		} else {
			m.input.Placeholder = snap.DisplayName
			if l, ok := language.FromMIMEType(m.opts.DefaultMIMEType); ok {
				m.input.Placeholder += "." + l.Extension()
			}
		}
	}
	m.resize()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	dirty := 0
	for _, snap := range m.mgr.Documents() {
		if snap.Dirty {
			dirty++
		}
	}
	if dirty > 0 && !m.confirmQuit {
		m.confirmQuit = true
		m.setStatus(statusWarn, fmt.Sprintf("%d unsaved document(s). Press %s again to quit without saving.",
			dirty, m.keys.Quit.Help().Key))
		return m, nil
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) cycleTab(delta int) {
	n := m.mgr.Len()
	if n < 2 {
		return
	}
	next := (m.mgr.ActiveIndex() + delta + n) % n
	if err := m.mgr.SetActive(next); err != nil {
		m.setError("Switch tab", err)
		return
	}
	m.syncEditor()
}

func (m *Model) handleEvent(ev event.Event) {
	switch e := ev.(type) {
	case event.ActiveChangedEvent, event.DocumentRemovedEvent:
		m.syncEditor()
	case event.ExternalChangeEvent:
		if document.ID(e.DocumentID) == m.editingID {
			m.setStatus(statusWarn, fmt.Sprintf("%s changed on disk. Press %s to reload.",
				document.DisplayName(e.Locator), m.keys.Reload.Help().Key))
		}
	case event.SaveFailedEvent:
		m.logger.Warn("save failed", "document_id", e.DocumentID, "locator", e.Locator, "error", e.Error)
	}
}

// afterEdit pushes the text area state back into the session.
func (m *Model) afterEdit(prev string) {
	if v := m.editor.Value(); v != prev {
		if err := m.mgr.MarkDirty(m.editingID, v); err != nil {
			m.logger.Warn("edit for unknown document", "document_id", m.editingID.String(), "error", err)
			m.syncEditor()
			return
		}
	}
	line, col := m.cursor()
	_ = m.mgr.UpdateCursor(m.editingID, line, col)
}

// cursor returns the zero-based caret position in the logical text.
func (m *Model) cursor() (line, column int) {
	li := m.editor.LineInfo()
	return m.editor.Line(), li.StartColumn + li.ColumnOffset
}

// syncEditor reloads the text area when the active document changed.
func (m *Model) syncEditor() {
	if m.mgr.ActiveID() != m.editingID {
		m.loadActive()
	}
}

// loadActive replaces the text area content with the active document and
// restores its caret.
func (m *Model) loadActive() {
	snap, _ := m.mgr.Active()
	m.editingID = snap.ID
	m.editor.SetValue(snap.Content)

	steps := len(snap.Content) + 1
	for i := 0; m.editor.Line() > snap.Cursor.Line && i < steps; i++ {
		m.editor.CursorUp()
	}
	m.editor.SetCursor(snap.Cursor.Column)
}

func (m *Model) setStatus(level statusLevel, msg string) {
	m.level = level
	m.status = msg
}

// setError shows a failed action. Warnings and worse keep their colour,
// retryable failures say so, and errors not meant for users are logged with
// only the action shown.
func (m *Model) setError(action string, err error) {
	if errors.IsCancelled(err) {
		m.setStatus(statusWarn, action+" cancelled")
		return
	}
	level := statusError
	if errors.GetSeverity(err) <= errors.SeverityWarning {
		level = statusWarn
	}
	msg := action + " failed"
	if errors.IsRetryable(err) {
		msg += ", try again"
	}
	if errors.IsUserFacing(err) {
		msg += ": " + err.Error()
	} else {
		m.logger.Error(strings.ToLower(action)+" failed", "error", err.Error())
		msg += " (see redcode logs)"
	}
	m.setStatus(level, msg)
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	bottom := bottomBarHeight
	if m.mode == modeEdit && m.help.ShowAll {
		bottom = lipgloss.Height(m.help.View(m.keys))
	}
	m.editor.SetWidth(m.width)
	m.editor.SetHeight(max(1, m.height-tabBarHeight-statusBarHeight-bottom))
	m.help.Width = m.width
	m.input.Width = max(1, m.width-lipgloss.Width(m.purpose.label())-1)
}

// View renders the editor
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	tabs := renderTabBar(m.styles, m.mgr.Documents(), m.mgr.ActiveIndex(), m.width)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.TabBar.Width(m.width).Render(tabs),
		m.editor.View(),
		m.renderStatusBar(),
		m.renderBottomBar(),
	)
}

func (m Model) renderStatusBar() string {
	snap, _ := m.mgr.Get(m.editingID)

	info := snap.StatusLine()
	if m.mgr.Saving(snap.ID) {
		info = "saving… · " + info
	}
	if snap.Stale {
		info = "changed on disk · " + info
	}

	var msgStyle lipgloss.Style
	switch m.level {
	case statusOK:
		msgStyle = m.styles.StatusOK
	case statusWarn:
		msgStyle = m.styles.StatusWarn
	case statusError:
		msgStyle = m.styles.StatusError
	default:
		msgStyle = m.styles.StatusInfo
	}
	right := m.styles.StatusInfo.Render(info)
	// Padding(0, 1) on the bar takes two columns; keep one for the gap.
	left := msgStyle.Render(util.Fit(m.status, m.width-3-lipgloss.Width(right)))

	gap := max(1, m.width-2-lipgloss.Width(left)-lipgloss.Width(right))
	return m.styles.StatusBar.Width(m.width).Render(left + m.styles.StatusInfo.Render(strings.Repeat(" ", gap)) + right)
}

func (m Model) renderBottomBar() string {
	switch m.mode {
	case modePrompt:
		return m.styles.PromptLabel.Render(m.purpose.label()) + m.input.View()
	case modeConfirmClose:
		name := document.Untitled
		if m.closeReq != nil {
			if snap, ok := m.mgr.Get(m.closeReq.DocumentID()); ok {
				name = snap.DisplayName
			}
		}
		return m.styles.Confirm.Render(fmt.Sprintf("Save changes to %s?", name)) + " " +
			m.help.ShortHelpView(m.keys.ConfirmHelp())
	default:
		return m.help.View(m.keys)
	}
}
