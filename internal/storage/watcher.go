package storage

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/redcode-editor/redcode/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of events on one
// file to settle. Editors and our own atomic writes emit several per save.
const DefaultDebounce = 50 * time.Millisecond

// ChangeFunc receives the filesystem path of a watched file that changed
// outside the editor. It runs on the watcher goroutine.
type ChangeFunc func(path string)

// Watcher reports external modifications to the files of open documents.
// fsnotify only watches directories reliably across atomic renames, so the
// watcher adds each file's directory and filters events down to the files
// registered with Add.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	debounce time.Duration
	onChange ChangeFunc

	mu       sync.Mutex
	files    map[string]int       // path -> number of documents watching it
	dirs     map[string]int       // dir -> number of watched files in it
	suppress map[string]time.Time // path -> ignore events until

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a Watcher. Call Start to begin delivering events.
func NewWatcher(onChange ChangeFunc, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Watcher{
		watcher:  w,
		logger:   logger,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]int),
		dirs:     make(map[string]int),
		suppress: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}, nil
}

// Add starts watching the file at locator. Calls are reference counted so two
// documents of the same file can each Add and Remove independently.
func (w *Watcher) Add(locator string) error {
	path, err := Path(locator)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	if w.files[path] == 0 {
		w.dirs[dir]++
	}
	w.files[path]++
	return nil
}

// Remove drops one reference to locator.
func (w *Watcher) Remove(locator string) {
	path, err := Path(locator)
	if err != nil {
		return
	}
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[path] == 0 {
		return
	}
	w.files[path]--
	if w.files[path] > 0 {
		return
	}
	delete(w.files, path)
	delete(w.suppress, path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.watcher.Remove(dir)
	}
}

// Suppress ignores events for locator for the next window. The session calls
// it around its own writes so a save is not reported as an external change.
func (w *Watcher) Suppress(locator string, window time.Duration) {
	path, err := Path(locator)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.suppress[path] = time.Now().Add(window)
	w.mu.Unlock()
}

// Watching reports whether locator is currently watched.
func (w *Watcher) Watching(locator string) bool {
	path, err := Path(locator)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path] > 0
}

// Start begins processing events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends event processing and releases the fsnotify watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), tempPrefix) {
				continue
			}
			if !w.interested(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			for path := range pending {
				if w.suppressed(path) {
					continue
				}
				w.logger.Debug("external change detected", "path", path)
				if w.onChange != nil {
					w.onChange(path)
				}
			}
			pending = make(map[string]struct{})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) interested(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(path)] > 0
}

func (w *Watcher) suppressed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.suppress[path]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(w.suppress, path)
		return false
	}
	return true
}
