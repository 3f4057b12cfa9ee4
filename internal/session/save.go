package session

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/event"
	"github.com/redcode-editor/redcode/internal/filelock"
	"github.com/redcode-editor/redcode/internal/storage"
)

// maxParallelSaves bounds SaveAll.
const maxParallelSaves = 4

// saveJob is the state captured when a save starts. The write uses this
// snapshot, never the live document.
type saveJob struct {
	id       document.ID
	target   string
	previous string
	content  string
	revision uint64
}

// Save writes a document to locatorOverride, or to its current locator when
// the override is empty. An untitled document needs an override.
//
// A second save of the same document, or of any document to the same
// locator, while one is in flight fails with ErrSaveInProgress. On failure
// or cancellation the document is left exactly as it was. On success the
// locator becomes the target and the document is clean unless it was edited
// while the write ran.
func (m *Manager) Save(ctx context.Context, id document.ID, locatorOverride string) error {
	job, err := m.beginSave(id, locatorOverride)
	if err != nil {
		return err
	}
	return m.runSave(ctx, job)
}

// SaveAsync starts a save and returns a channel that receives its result.
// The in-flight guard is taken before SaveAsync returns, so a second call
// for the same document sees ErrSaveInProgress immediately.
func (m *Manager) SaveAsync(ctx context.Context, id document.ID, locatorOverride string) <-chan error {
	ch := make(chan error, 1)
	job, err := m.beginSave(id, locatorOverride)
	if err != nil {
		ch <- err
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		ch <- m.runSave(ctx, job)
	}()
	return ch
}

// SaveAsNew saves a document into a new file called name under
// parentLocator and returns the locator written. Storage adds the extension
// of mimeType when name has none and picks a free name rather than overwrite
// an existing file. The new file is removed again if the save fails.
func (m *Manager) SaveAsNew(ctx context.Context, id document.ID, parentLocator, name, mimeType string) (string, error) {
	return m.intoNewFile(ctx, parentLocator, name, mimeType, func(locator string) error {
		return m.Save(ctx, id, locator)
	})
}

// SaveAll saves every dirty document that already has a storage location.
// Untitled documents are skipped. Errors from individual saves are joined.
func (m *Manager) SaveAll(ctx context.Context) error {
	m.mu.RLock()
	var ids []document.ID
	for _, d := range m.docs {
		if d.Dirty() && d.IsPersisted() {
			ids = append(ids, d.ID())
		}
	}
	m.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}

	p := pool.New().WithMaxGoroutines(maxParallelSaves).WithErrors()
	for _, id := range ids {
		p.Go(func() error {
			return m.Save(ctx, id, "")
		})
	}
	return p.Wait()
}

// beginSave validates the request and takes the document guard and the
// locator claim.
func (m *Manager) beginSave(id document.ID, override string) (*saveJob, error) {
	m.mu.Lock()
	doc, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return nil, invalidID("save", id)
	}
	target := override
	if target == "" {
		if !doc.IsPersisted() {
			m.mu.Unlock()
			return nil, errors.NewDocumentError("save", errors.ErrNoLocator).WithDocumentID(id.String())
		}
		target = doc.Locator()
	}
	if _, busy := m.saving[id]; busy {
		m.mu.Unlock()
		return nil, errors.NewDocumentError("save", errors.ErrSaveInProgress).WithDocumentID(id.String())
	}
	m.saving[id] = struct{}{}
	job := &saveJob{
		id:       id,
		target:   target,
		previous: doc.Locator(),
		content:  doc.Content(),
		revision: doc.Revision(),
	}
	m.mu.Unlock()

	// The registry publishes on the bus, so claim outside the session lock.
	if err := m.registry.Claim(id.String(), target); err != nil {
		m.clearSaving(id)
		if errors.Is(err, filelock.ErrAlreadyClaimed) {
			return nil, errors.NewDocumentError("save", errors.Join(errors.ErrSaveInProgress, err)).WithDocumentID(id.String())
		}
		return nil, errors.NewDocumentError("save", err).WithDocumentID(id.String())
	}
	return job, nil
}

func (m *Manager) runSave(ctx context.Context, job *saveJob) error {
	log := m.logger.WithDocument(job.id.String())
	if m.watcher != nil {
		m.watcher.Suppress(job.target, suppressWindow)
	}

	err := m.store.Write(ctx, job.target, storage.EncodeText(job.content))

	// Release before publishing so handlers of the result may save again.
	if relErr := m.registry.Release(job.id.String(), job.target); relErr != nil {
		log.Warn("release claim failed", "locator", job.target, "error", relErr.Error())
	}

	if err == nil {
		// A cancel that lands after the write completed is ignored: the
		// bytes are on disk, so the document must say so.
		return m.finishSave(job)
	}

	cancelled := ctx.Err() != nil
	if cancelled {
		err = errors.NewStorageError(errors.OpWrite, job.target, errors.Join(errors.ErrSaveCancelled, ctx.Err()))
		log.Info("save cancelled", "locator", job.target)
	} else {
		err = asStorageError(errors.OpWrite, job.target, err)
		log.Error("save failed", "locator", job.target, "error", err.Error())
	}
	m.clearSaving(job.id)
	m.bus.Publish(event.NewSaveFailedEvent(job.id.String(), job.target, err.Error(), cancelled))
	return err
}

func (m *Manager) finishSave(job *saveJob) error {
	m.mu.Lock()
	delete(m.saving, job.id)
	doc, ok := m.byID[job.id]
	if !ok {
		// Closed while the write ran; the file is written, nothing to update.
		m.mu.Unlock()
		return nil
	}
	wasPersisted := doc.IsPersisted()
	doc.MarkSaved(job.target, job.revision, m.now())
	dirty := doc.Dirty()
	m.mu.Unlock()

	if job.target != job.previous {
		if wasPersisted {
			m.unwatch(job.previous)
		}
		m.watch(job.target)
	}

	m.logger.WithDocument(job.id.String()).Info("document saved",
		"locator", job.target,
		"bytes", len(job.content),
		"dirty", dirty,
	)
	m.bus.Publish(event.NewDocumentSavedEvent(job.id.String(), job.target, dirty))
	return nil
}

// intoNewFile creates an empty file and runs save against its locator.
func (m *Manager) intoNewFile(ctx context.Context, parentLocator, name, mimeType string, save func(locator string) error) (string, error) {
	locator, err := m.store.Create(ctx, parentLocator, name, mimeType)
	if err != nil {
		m.logger.Warn("create failed", "parent", parentLocator, "name", name, "error", err.Error())
		return "", asStorageError(errors.OpCreate, parentLocator, err)
	}
	if err := save(locator); err != nil {
		// The file is still empty; only this save knew about it.
		if delErr := m.store.Delete(context.WithoutCancel(ctx), locator); delErr != nil {
			m.logger.Warn("failed to remove new file", "locator", locator, "error", delErr.Error())
		}
		return "", err
	}
	return locator, nil
}

func (m *Manager) clearSaving(id document.ID) {
	m.mu.Lock()
	delete(m.saving, id)
	m.mu.Unlock()
}
