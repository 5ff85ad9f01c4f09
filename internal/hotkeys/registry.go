// Package hotkeys manages system-wide hotkey registrations. While a native
// menu is tracking, every registration is parked so hotkey key equivalents
// cannot collide with menu key equivalents, then reissued when tracking
// ends.
package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"

	"menubard/internal/logging"
	"menubard/internal/platform"
)

// Hotkey is a key code plus modifier mask.
type Hotkey struct {
	KeyCode   uint32
	Modifiers uint32
}

type registration struct {
	id  uint32
	key Hotkey
	fn  func()
}

// Registry tracks hotkey registrations against a platform backend.
type Registry struct {
	mu        sync.Mutex
	backend   platform.HotkeyBackend
	nextID    uint32
	active    map[uint32]*registration
	pending   []*registration
	suspended bool
	cancel    func()
	log       *slog.Logger
}

// NewRegistry wires a registry to the backend and begins observing native
// menu tracking.
func NewRegistry(backend platform.HotkeyBackend) (*Registry, error) {
	r := &Registry{
		backend: backend,
		active:  make(map[uint32]*registration),
		log:     logging.ForComponent(logging.CompHotkey),
	}
	backend.SetHandler(r.dispatch)
	cancel, err := backend.ObserveMenuTracking(r.suspend, r.resume)
	if err != nil {
		return nil, fmt.Errorf("observe menu tracking: %w", err)
	}
	r.cancel = cancel
	return r, nil
}

// Register claims a global hotkey and returns its opaque id. The callback
// runs with no registry lock held. A zero id with an error means the key
// could not be claimed and the caller should surface that the hotkey was
// not set.
func (r *Registry) Register(key Hotkey, fn func()) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	reg := &registration{id: r.nextID, key: key, fn: fn}

	if r.suspended {
		// Menu tracking is active; the OS registration happens on
		// resume.
		r.pending = append(r.pending, reg)
		return reg.id, nil
	}
	if err := r.backend.Register(reg.id, key.KeyCode, key.Modifiers); err != nil {
		return 0, fmt.Errorf("register hotkey: %w", err)
	}
	r.active[reg.id] = reg
	return reg.id, nil
}

// Unregister releases a hotkey. Unknown ids are ignored.
func (r *Registry) Unregister(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[id]; ok {
		if err := r.backend.Unregister(id); err != nil {
			r.log.Warn("hotkey unregister failed", "id", id, "error", err)
		}
		delete(r.active, id)
		return
	}
	for i, reg := range r.pending {
		if reg.id == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// Close drops the menu tracking observer and releases all registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	for id := range r.active {
		if err := r.backend.Unregister(id); err != nil {
			r.log.Warn("hotkey unregister failed", "id", id, "error", err)
		}
		delete(r.active, id)
	}
	r.pending = nil
}

// suspend parks every active registration while a native menu tracks.
func (r *Registry) suspend() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspended {
		return
	}
	r.suspended = true
	for id, reg := range r.active {
		if err := r.backend.Unregister(id); err != nil {
			r.log.Warn("hotkey suspend failed", "id", id, "error", err)
		}
		r.pending = append(r.pending, reg)
		delete(r.active, id)
	}
}

// resume reissues parked registrations. A registration that fails to
// reissue is dropped rather than retried indefinitely: the key may now be
// claimed elsewhere.
func (r *Registry) resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.suspended {
		return
	}
	r.suspended = false
	for _, reg := range r.pending {
		if err := r.backend.Register(reg.id, reg.key.KeyCode, reg.key.Modifiers); err != nil {
			r.log.Error("hotkey reissue failed, dropping registration", "id", reg.id, "error", err)
			continue
		}
		r.active[reg.id] = reg
	}
	r.pending = nil
}

func (r *Registry) dispatch(id uint32) {
	r.mu.Lock()
	reg, ok := r.active[id]
	r.mu.Unlock()
	if ok {
		reg.fn()
	}
}
