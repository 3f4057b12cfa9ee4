package filelock

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redcode-editor/redcode/internal/event"
)

// Registry tracks which document holds the write claim on each locator.
// A save claims its target before writing and releases it afterwards, so
// two writes to the same locator never interleave even when they come from
// two tabs of the same file.
type Registry struct {
	mu     sync.RWMutex
	claims map[string]Claim // key -> claim
	bus    *event.Bus
	now    func() time.Time
	key    func(string) string
}

// NewRegistry creates a Registry. Claim and release events go to bus when it
// is non-nil.
func NewRegistry(bus *event.Bus, opts ...Option) *Registry {
	r := &Registry{
		claims: make(map[string]Claim),
		bus:    bus,
		now:    time.Now,
		key:    func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Claim registers documentID as the writer of locator.
// Returns ErrAlreadyClaimed if another document holds it. Claiming a locator
// the document already holds is a no-op.
func (r *Registry) Claim(documentID, locator string) error {
	k := r.key(locator)

	r.mu.Lock()
	if existing, ok := r.claims[k]; ok {
		r.mu.Unlock()
		if existing.DocumentID == documentID {
			return nil
		}
		return fmt.Errorf("%w: %s holds %s", ErrAlreadyClaimed, existing.DocumentID, locator)
	}
	r.claims[k] = Claim{
		DocumentID: documentID,
		Locator:    locator,
		ClaimedAt:  r.now(),
	}
	r.mu.Unlock()

	r.publish(event.NewLocatorClaimEvent(documentID, locator))
	return nil
}

// Release relinquishes documentID's claim on locator.
func (r *Registry) Release(documentID, locator string) error {
	k := r.key(locator)

	r.mu.Lock()
	existing, ok := r.claims[k]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotClaimed, locator)
	}
	if existing.DocumentID != documentID {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s holds %s", ErrNotOwner, existing.DocumentID, locator)
	}
	delete(r.claims, k)
	r.mu.Unlock()

	r.publish(event.NewLocatorReleaseEvent(documentID, existing.Locator))
	return nil
}

// ReleaseAll drops every claim held by documentID. Used when a document is
// closed with a save still unwinding.
func (r *Registry) ReleaseAll(documentID string) {
	r.mu.Lock()
	var released []Claim
	for k, c := range r.claims {
		if c.DocumentID == documentID {
			released = append(released, c)
			delete(r.claims, k)
		}
	}
	r.mu.Unlock()

	sort.Slice(released, func(i, j int) bool { return released[i].Locator < released[j].Locator })
	for _, c := range released {
		r.publish(event.NewLocatorReleaseEvent(documentID, c.Locator))
	}
}

// Owner returns the document holding locator, or ("", false).
func (r *Registry) Owner(locator string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.claims[r.key(locator)]
	if !ok {
		return "", false
	}
	return c.DocumentID, true
}

// IsAvailable reports whether no document holds locator.
func (r *Registry) IsAvailable(locator string) bool {
	_, held := r.Owner(locator)
	return !held
}

// Claims returns the locators held by documentID, sorted.
func (r *Registry) Claims(documentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, c := range r.claims {
		if c.DocumentID == documentID {
			out = append(out, c.Locator)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) publish(e event.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
