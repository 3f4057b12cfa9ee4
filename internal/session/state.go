package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/storage"
)

// StateFileName is the workspace state file within the state directory.
const StateFileName = "workspace.json"

const stateVersion = 1

// State is the persisted shape of a session: the files that were open and
// which of them was active. Untitled documents are not persisted.
type State struct {
	Version  int       `json:"version"`
	Locators []string  `json:"locators"`
	Active   int       `json:"active"` // index into Locators, -1 if none
	SavedAt  time.Time `json:"saved_at"`
}

// StateStore reads and writes State through a Storage, so it gets the same
// atomic replace as document saves.
type StateStore struct {
	store   storage.Storage
	locator string
}

// NewStateStore keeps the state file in dir.
func NewStateStore(store storage.Storage, dir string) *StateStore {
	return &StateStore{store: store, locator: filepath.Join(dir, StateFileName)}
}

// Locator returns where the state is stored.
func (s *StateStore) Locator() string { return s.locator }

// Load returns the stored state. A missing file yields an empty state.
func (s *StateStore) Load(ctx context.Context) (*State, error) {
	data, err := s.store.Read(ctx, s.locator)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return &State{Version: stateVersion, Active: -1}, nil
		}
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse workspace state: %w", err)
	}
	if st.Version > stateVersion {
		return nil, fmt.Errorf("workspace state version %d is newer than supported version %d", st.Version, stateVersion)
	}
	if st.Active >= len(st.Locators) {
		st.Active = len(st.Locators) - 1
	}
	return &st, nil
}

// Save replaces the stored state.
func (s *StateStore) Save(ctx context.Context, st *State) error {
	st.Version = stateVersion
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspace state: %w", err)
	}
	return s.store.Write(ctx, s.locator, data)
}

// SaveState records the persisted documents and the active one.
func (m *Manager) SaveState(ctx context.Context) error {
	if m.state == nil {
		return nil
	}

	m.mu.RLock()
	st := &State{Active: -1, SavedAt: m.now()}
	for i, d := range m.docs {
		if !d.IsPersisted() {
			continue
		}
		if i == m.active {
			st.Active = len(st.Locators)
		}
		st.Locators = append(st.Locators, d.Locator())
	}
	m.mu.RUnlock()

	if err := m.state.Save(ctx, st); err != nil {
		m.logger.Warn("failed to save workspace state", "error", err.Error())
		return err
	}
	m.logger.Debug("workspace state saved", "documents", len(st.Locators))
	return nil
}

// Restore reopens the documents recorded by SaveState and returns how many
// were opened. Files that can no longer be read are skipped. If anything was
// opened, an untouched initial untitled document is dropped.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.state == nil {
		return 0, nil
	}
	st, err := m.state.Load(ctx)
	if err != nil {
		return 0, err
	}

	placeholder := m.pristinePlaceholder()

	opened := make([]document.ID, 0, len(st.Locators))
	activeID := document.ID("")
	for i, loc := range st.Locators {
		if err := ctx.Err(); err != nil {
			return len(opened), err
		}
		id, err := m.OpenFromStorage(ctx, loc)
		if err != nil {
			m.logger.Warn("skipping unreadable document", "locator", loc, "error", err.Error())
			continue
		}
		opened = append(opened, id)
		if i == st.Active {
			activeID = id
		}
	}

	if len(opened) == 0 {
		return 0, nil
	}
	if placeholder != "" {
		if err := m.PerformClose(placeholder); err != nil {
			return len(opened), err
		}
	}
	if activeID != "" {
		if idx := m.IndexOf(activeID); idx >= 0 {
			if err := m.SetActive(idx); err != nil {
				return len(opened), err
			}
		}
	}
	m.logger.Info("workspace restored", "documents", len(opened))
	return len(opened), nil
}

// pristinePlaceholder returns the id of the lone untouched untitled document
// a fresh session starts with, or "".
func (m *Manager) pristinePlaceholder() document.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.docs) != 1 {
		return ""
	}
	d := m.docs[0]
	if d.IsPersisted() || d.Dirty() || d.Content() != "" {
		return ""
	}
	return d.ID()
}
