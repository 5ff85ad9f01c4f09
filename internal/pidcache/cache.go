// Package pidcache resolves which foreign process owns a menu bar item
// window. The window server stopped exposing this mapping directly, so
// resolution matches the window's on-screen bounds against the frames of
// each candidate application's extras menu bar accessibility children.
//
// Accessibility calls are synchronous and can block on a frozen foreign
// process, which is why this package runs inside the dedicated worker
// process rather than the control daemon.
package pidcache

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/platform"
)

const (
	// stableBoundsAttempts bounds the re-query loop for settling windows.
	stableBoundsAttempts = 5

	// centerTolerance is the maximum distance in points between a
	// window's center and a matching accessibility child's center.
	// Overlapping elements within tolerance resolve to the first match
	// in candidate order; ties are a known limitation, not broken.
	centerTolerance = 1.0

	// defaultResponsivenessTimeout caps the per-process hang probe.
	defaultResponsivenessTimeout = 300 * time.Millisecond
)

// cachedApp is one candidate application plus its lazily created extras
// menu bar handle. A handle, once created, is retained for the life of the
// application to amortize the expensive accessibility-tree walk.
type cachedApp struct {
	info   platform.AppInfo
	handle platform.MenuBarHandle
}

// Cache owns the windowID to process-id map and the candidate application
// list. All mutable state is guarded by a single lock; the expensive
// accessibility polling runs outside it, with a singleflight group ensuring
// a window id is never resolved twice concurrently.
type Cache struct {
	ws     platform.WindowServer
	access platform.Accessibility
	apps   platform.Apps

	mu         sync.Mutex
	pids       map[model.WindowID]int
	candidates []*cachedApp
	started    bool
	cancel     func()

	group singleflight.Group
	log   *slog.Logger

	// sleep and responsivenessTimeout are swappable for tests.
	sleep                 func(time.Duration)
	responsivenessTimeout time.Duration
}

// New creates a cache. Call Start before Resolve.
func New(ws platform.WindowServer, access platform.Accessibility, apps platform.Apps) *Cache {
	return &Cache{
		ws:                    ws,
		access:                access,
		apps:                  apps,
		pids:                  make(map[model.WindowID]int),
		log:                   logging.ForComponent(logging.CompCache),
		sleep:                 time.Sleep,
		responsivenessTimeout: defaultResponsivenessTimeout,
	}
}

// Start seeds the candidate list and begins observing the running
// application set. It is idempotent.
func (c *Cache) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	c.rebuildCandidates()
	cancel, err := c.apps.Subscribe(c.rebuildCandidates)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return nil
}

// Close stops observing the running-application set.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.started = false
}

// Resolve returns the process id owning the window, or false if it cannot
// be determined right now. Failures are never cached: a later retry, after
// the running-application set changes, may succeed.
func (c *Cache) Resolve(win model.WindowInfo) (int, bool) {
	c.mu.Lock()
	if pid, ok := c.pids[win.ID]; ok {
		c.mu.Unlock()
		return pid, true
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(strconv.FormatUint(uint64(win.ID), 10), func() (interface{}, error) {
		return c.resolveSlow(win), nil
	})
	pid := v.(int)
	return pid, pid != 0
}

// resolveSlow runs the full geometry match. Returns 0 when unresolved.
func (c *Cache) resolveSlow(win model.WindowInfo) int {
	// A concurrent caller may have resolved it while we waited on the
	// singleflight group.
	c.mu.Lock()
	if pid, ok := c.pids[win.ID]; ok {
		c.mu.Unlock()
		return pid
	}
	candidates := c.partitionedCandidates()
	c.mu.Unlock()

	if !c.access.Trusted() {
		c.log.Warn("accessibility permission not granted, cannot resolve item owners")
		return 0
	}

	bounds, ok := c.stableBounds(win.ID)
	if !ok {
		// The window is actively resizing or closing. Do not guess.
		c.log.Debug("window bounds never settled", "window", win.ID)
		return 0
	}
	target := bounds.Center()

	for _, cand := range candidates {
		if !c.alive(cand.info.PID) {
			continue
		}
		handle := c.handleFor(cand.app, cand.info.PID)
		if handle == nil {
			continue
		}
		children, err := handle.Items()
		if err != nil {
			c.log.Debug("extras menu bar query failed", "pid", cand.info.PID, "error", err)
			continue
		}
		for _, child := range children {
			if !child.Enabled {
				continue
			}
			if child.Frame.Center().Distance(target) <= centerTolerance {
				c.mu.Lock()
				c.pids[win.ID] = cand.info.PID
				c.mu.Unlock()
				c.log.Debug("resolved item owner", "window", win.ID, "pid", cand.info.PID, "app", cand.info.Name)
				return cand.info.PID
			}
		}
	}
	return 0
}

// stableBounds re-queries the window's bounds until two consecutive reads
// match, sleeping with linearly increasing backoff between attempts. An
// unsettled window aborts resolution for this call.
func (c *Cache) stableBounds(id model.WindowID) (model.Rect, bool) {
	var prev model.Rect
	havePrev := false
	for attempt := 1; attempt <= stableBoundsAttempts; attempt++ {
		frame, err := c.ws.WindowFrame(id)
		if err != nil {
			return model.Rect{}, false
		}
		if havePrev && frame == prev {
			return frame, true
		}
		prev, havePrev = frame, true
		if attempt < stableBoundsAttempts {
			c.sleep(time.Duration(attempt) * time.Second / 100)
		}
	}
	return model.Rect{}, false
}

// alive gates accessibility calls into a foreign process: it must have
// finished launching, not be terminated, not be background-only, and must
// answer the responsiveness probe within the timeout.
func (c *Cache) alive(pid int) bool {
	state, ok := c.apps.State(pid)
	if !ok {
		return false
	}
	if !state.FinishedLaunching || state.Terminated || state.BackgroundOnly {
		return false
	}
	return c.apps.IsResponsive(pid, c.responsivenessTimeout)
}

// handleFor returns the app's extras menu bar handle, creating and caching
// it on first use.
func (c *Cache) handleFor(app *cachedApp, pid int) platform.MenuBarHandle {
	c.mu.Lock()
	if app.handle != nil {
		h := app.handle
		c.mu.Unlock()
		return h
	}
	c.mu.Unlock()

	handle, err := c.access.ExtrasMenuBar(pid)
	if err != nil {
		c.log.Debug("no extras menu bar handle", "pid", pid, "error", err)
		return nil
	}
	c.mu.Lock()
	app.handle = handle
	c.mu.Unlock()
	return handle
}

// candidate pairs a cachedApp with a copy of its AppInfo taken under the
// lock. rebuildCandidates rewrites cachedApp.info concurrently, so the slow
// path only ever reads the snapshot.
type candidate struct {
	info platform.AppInfo
	app  *cachedApp
}

// partitionedCandidates returns the candidate list with applications that
// already hold a handle first. This is a pure performance heuristic: it
// amortizes the first-time accessibility-tree creation cost and has no
// effect on correctness. Callers must hold c.mu.
func (c *Cache) partitionedCandidates() []candidate {
	out := make([]candidate, 0, len(c.candidates))
	for _, app := range c.candidates {
		if app.handle != nil {
			out = append(out, candidate{info: app.info, app: app})
		}
	}
	for _, app := range c.candidates {
		if app.handle == nil {
			out = append(out, candidate{info: app.info, app: app})
		}
	}
	return out
}

// rebuildCandidates diffs the running-application set against the current
// candidate list, reusing cached applications (and their handles) for
// processes that persist, and drops pid mappings for vanished processes.
func (c *Cache) rebuildCandidates() {
	running, err := c.apps.Running()
	if err != nil {
		c.log.Warn("running application query failed", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old := make(map[int]*cachedApp, len(c.candidates))
	for _, app := range c.candidates {
		old[app.info.PID] = app
	}

	next := make([]*cachedApp, 0, len(running))
	livePIDs := make(map[int]bool, len(running))
	for _, info := range running {
		livePIDs[info.PID] = true
		if existing, ok := old[info.PID]; ok {
			existing.info = info
			next = append(next, existing)
			continue
		}
		next = append(next, &cachedApp{info: info})
	}
	c.candidates = next

	for id, pid := range c.pids {
		if !livePIDs[pid] {
			delete(c.pids, id)
		}
	}
}
