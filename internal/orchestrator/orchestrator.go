// Package orchestrator translates raw mouse activity into section show,
// hide, and rehide decisions. It runs a set of independently start/stoppable
// monitors over the platform event source; every scheduled action re-checks
// its trigger condition when the debounce fires, so a stale timer becomes a
// no-op instead of acting on moved state.
package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"menubard/internal/bridge"
	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/platform"
)

// Monitor names.
const (
	MonitorHover  = "hover"
	MonitorClick  = "click"
	MonitorDrag   = "drag"
	MonitorRehide = "rehide"
	MonitorMenu   = "menu"
)

// Rehide strategies.
const (
	RehideSmart = "smart"
	RehideTimed = "timed"
)

// clickRevealDelay separates a reveal click from the mouse-up that would
// otherwise immediately trigger rehide logic.
const clickRevealDelay = 100 * time.Millisecond

// Sections is the slice of the section manager the orchestrator drives.
type Sections interface {
	IsHidden(name model.Section) bool
	Show(name model.Section)
	Hide(name model.Section)
	Toggle(name model.Section)
	ShowAll()
	AnchorPosition(name model.Section) (float64, bool)
}

// MenuHost pops up the right-click context menu.
type MenuHost interface {
	ShowMenu(entries []platform.MenuEntry) error
}

// Config are the behavior tunables, reloadable at runtime.
type Config struct {
	ShowOnHover    bool
	ShowOnClick    bool
	HoverDelay     time.Duration
	RehideStrategy string
	RehideInterval time.Duration
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Bridge   *bridge.Bridge
	Sections Sections
	Events   platform.EventSource
	Apps     platform.Apps
	Menu     MenuHost
}

type monitor struct {
	kinds   []platform.EventKind
	handle  func(platform.Event)
	remove  func()
	gen     uint64
	running bool
}

// Orchestrator owns the monitors and the shared interaction state.
type Orchestrator struct {
	deps Deps
	log  *slog.Logger

	mu            sync.Mutex
	cfg           Config
	monitors      map[string]*monitor
	interacting   bool
	dragging      bool
	hoverRevealed *model.Section
	rehideTimer   *time.Timer
}

// New builds an orchestrator. Call Start to install the monitors.
func New(deps Deps, cfg Config) *Orchestrator {
	o := &Orchestrator{
		deps:     deps,
		cfg:      cfg,
		log:      logging.ForComponent(logging.CompEvents),
		monitors: make(map[string]*monitor),
	}
	o.monitors[MonitorHover] = &monitor{
		kinds:  []platform.EventKind{platform.MouseMoved},
		handle: o.onMouseMoved,
	}
	o.monitors[MonitorClick] = &monitor{
		kinds:  []platform.EventKind{platform.LeftMouseDown},
		handle: o.onMouseDown,
	}
	o.monitors[MonitorDrag] = &monitor{
		kinds:  []platform.EventKind{platform.LeftMouseDragged},
		handle: o.onMouseDragged,
	}
	o.monitors[MonitorRehide] = &monitor{
		kinds:  []platform.EventKind{platform.LeftMouseUp},
		handle: o.onMouseUp,
	}
	o.monitors[MonitorMenu] = &monitor{
		kinds:  []platform.EventKind{platform.RightMouseDown},
		handle: o.onRightMouseDown,
	}
	return o
}

// Start installs every monitor the current configuration calls for.
func (o *Orchestrator) Start() error {
	names := []string{MonitorClick, MonitorDrag, MonitorRehide, MonitorMenu}
	o.mu.Lock()
	if o.cfg.ShowOnHover {
		names = append(names, MonitorHover)
	}
	o.mu.Unlock()
	for _, name := range names {
		if err := o.StartMonitor(name); err != nil {
			o.Stop()
			return err
		}
	}
	return nil
}

// Stop removes every monitor and suppresses pending debounced actions.
func (o *Orchestrator) Stop() {
	for name := range o.monitors {
		o.StopMonitor(name)
	}
	o.mu.Lock()
	if o.rehideTimer != nil {
		o.rehideTimer.Stop()
		o.rehideTimer = nil
	}
	o.mu.Unlock()
}

// StartMonitor installs one monitor. Starting a running monitor is a no-op.
func (o *Orchestrator) StartMonitor(name string) error {
	o.mu.Lock()
	m, ok := o.monitors[name]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("unknown monitor %q", name)
	}
	if m.running {
		o.mu.Unlock()
		return nil
	}
	m.running = true
	o.mu.Unlock()

	remove, err := o.deps.Events.AddMonitor(m.kinds, m.handle)
	if err != nil {
		o.mu.Lock()
		m.running = false
		o.mu.Unlock()
		return fmt.Errorf("install %s monitor: %w", name, err)
	}
	o.mu.Lock()
	m.remove = remove
	o.mu.Unlock()
	return nil
}

// StopMonitor removes one monitor. A debounce scheduled by the monitor
// before the stop will not fire its action.
func (o *Orchestrator) StopMonitor(name string) {
	o.mu.Lock()
	m, ok := o.monitors[name]
	if !ok || !m.running {
		o.mu.Unlock()
		return
	}
	m.running = false
	m.gen++
	remove := m.remove
	m.remove = nil
	o.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// SetConfig applies reloaded settings, starting or stopping the hover
// monitor as needed.
func (o *Orchestrator) SetConfig(cfg Config) error {
	o.mu.Lock()
	o.cfg = cfg
	hoverRunning := o.monitors[MonitorHover].running
	o.mu.Unlock()

	if cfg.ShowOnHover && !hoverRunning {
		return o.StartMonitor(MonitorHover)
	}
	if !cfg.ShowOnHover && hoverRunning {
		o.StopMonitor(MonitorHover)
	}
	return nil
}

// IsDragging reports whether a modifier-drag reveal is in progress, so
// appearance collaborators can suppress rendering during the drag.
func (o *Orchestrator) IsDragging() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dragging
}

// hiddenTarget picks the section a reveal gesture applies to: the hidden
// section when suppressed, otherwise the always-hidden section.
func (o *Orchestrator) hiddenTarget() (model.Section, bool) {
	if o.deps.Sections.IsHidden(model.SectionHidden) {
		return model.SectionHidden, true
	}
	if o.deps.Sections.IsHidden(model.SectionAlwaysHidden) {
		return model.SectionAlwaysHidden, true
	}
	return 0, false
}

// inMenuBar reports whether the point is inside the menu bar's band.
func (o *Orchestrator) inMenuBar(p model.Point) bool {
	frame, ok := o.deps.Bridge.MenuBarFrame()
	return ok && frame.Contains(p)
}

// inEmptySpace reports whether the point lies in the unoccupied menu bar
// region: right of the frontmost app's main menu content, left of the
// target section's anchor. The anchor position is a distance from the
// screen's trailing edge, so the anchor's on-screen X is the menu bar's
// right edge minus that distance.
func (o *Orchestrator) inEmptySpace(p model.Point, target model.Section) bool {
	frame, ok := o.deps.Bridge.MenuBarFrame()
	if !ok || !frame.Contains(p) {
		return false
	}
	menuMaxX, ok := o.deps.Bridge.MainMenuMaxX()
	if !ok {
		return false
	}
	pos, ok := o.deps.Sections.AnchorPosition(target)
	if !ok {
		return false
	}
	anchorX := frame.MaxX() - pos
	return p.X > menuMaxX && p.X < anchorX
}

// debounce schedules action after d, tied to the monitor's current
// generation: a monitor stop or restart in between turns the callback into
// a no-op, and verify re-checks the trigger condition at fire time.
func (o *Orchestrator) debounce(name string, d time.Duration, verify func() bool, action func()) {
	o.mu.Lock()
	m := o.monitors[name]
	gen := m.gen
	o.mu.Unlock()

	time.AfterFunc(d, func() {
		o.mu.Lock()
		live := m.running && m.gen == gen
		o.mu.Unlock()
		if !live || !verify() {
			return
		}
		action()
	})
}

// reveal shows the section and arms the timed-rehide timer when that
// strategy is active.
func (o *Orchestrator) reveal(target model.Section, byHover bool) {
	o.deps.Sections.Show(target)
	o.mu.Lock()
	if byHover {
		t := target
		o.hoverRevealed = &t
	}
	cfg := o.cfg
	if cfg.RehideStrategy == RehideTimed {
		if o.rehideTimer != nil {
			o.rehideTimer.Stop()
		}
		o.rehideTimer = time.AfterFunc(cfg.RehideInterval, o.rehideAll)
	}
	o.mu.Unlock()
	o.log.Debug("section revealed", "section", target.String())
}

// rehideAll suppresses both hideable sections.
func (o *Orchestrator) rehideAll() {
	o.mu.Lock()
	o.hoverRevealed = nil
	o.mu.Unlock()
	o.deps.Sections.Hide(model.SectionAlwaysHidden)
	o.deps.Sections.Hide(model.SectionHidden)
}

func (o *Orchestrator) onMouseMoved(ev platform.Event) {
	o.mu.Lock()
	cfg := o.cfg
	interacting := o.interacting
	revealed := o.hoverRevealed
	o.mu.Unlock()

	if !cfg.ShowOnHover || interacting {
		return
	}

	// Pointer left the menu bar band after a hover reveal: hide again,
	// debounced so a fast transit through the band edge does not flicker.
	if revealed != nil {
		if !o.inMenuBar(ev.Location) {
			target := *revealed
			o.debounce(MonitorHover, cfg.HoverDelay, func() bool {
				p, err := o.deps.Events.MouseLocation()
				return err == nil && !o.inMenuBar(p)
			}, func() {
				o.mu.Lock()
				o.hoverRevealed = nil
				o.mu.Unlock()
				o.deps.Sections.Hide(target)
			})
		}
		return
	}

	if o.deps.Bridge.ActiveSpaceIsFullscreen() {
		return
	}
	target, ok := o.hiddenTarget()
	if !ok || !o.inEmptySpace(ev.Location, target) {
		return
	}
	o.debounce(MonitorHover, cfg.HoverDelay, func() bool {
		p, err := o.deps.Events.MouseLocation()
		return err == nil && o.deps.Sections.IsHidden(target) && o.inEmptySpace(p, target)
	}, func() {
		o.reveal(target, true)
	})
}

func (o *Orchestrator) onMouseDown(ev platform.Event) {
	o.mu.Lock()
	o.interacting = true
	cfg := o.cfg
	o.mu.Unlock()

	if !cfg.ShowOnClick || o.deps.Bridge.ActiveSpaceIsFullscreen() {
		return
	}
	target, ok := o.hiddenTarget()
	if !ok || !o.inEmptySpace(ev.Location, target) {
		return
	}
	o.debounce(MonitorClick, clickRevealDelay, func() bool {
		return o.deps.Sections.IsHidden(target)
	}, func() {
		o.reveal(target, false)
	})
}

func (o *Orchestrator) onMouseDragged(ev platform.Event) {
	if ev.Modifiers&platform.ModCommand == 0 || !o.inMenuBar(ev.Location) {
		return
	}
	o.mu.Lock()
	already := o.dragging
	o.dragging = true
	o.mu.Unlock()
	if already {
		return
	}
	o.log.Debug("modifier drag reveal")
	o.deps.Sections.ShowAll()
}

func (o *Orchestrator) onMouseUp(ev platform.Event) {
	o.mu.Lock()
	o.interacting = false
	wasDragging := o.dragging
	o.dragging = false
	cfg := o.cfg
	o.mu.Unlock()

	if wasDragging {
		return
	}
	if cfg.RehideStrategy != RehideSmart {
		return
	}
	if o.inMenuBar(ev.Location) {
		return
	}
	if !o.deps.Sections.IsHidden(model.SectionHidden) && o.shouldSmartRehide(ev.Location) {
		o.rehideAll()
	}
}

// shouldSmartRehide inspects the topmost window under the pointer. Rehide
// happens only when the click landed in a regular foreground application's
// window; clicking a floating utility panel leaves the sections revealed.
// The Dock is exempt from that restriction.
func (o *Orchestrator) shouldSmartRehide(p model.Point) bool {
	info, ok := o.deps.Bridge.TopmostWindowAt(p)
	if !ok {
		return false
	}
	if info.OwnerName == "Dock" {
		return true
	}
	state, ok := o.deps.Apps.State(info.OwnerPID)
	if !ok {
		return false
	}
	return state.FinishedLaunching && !state.Terminated && !state.BackgroundOnly
}

func (o *Orchestrator) onRightMouseDown(ev platform.Event) {
	target, ok := o.hiddenTarget()
	if !ok || !o.inEmptySpace(ev.Location, target) {
		return
	}
	t := target
	entries := []platform.MenuEntry{{
		Title:  fmt.Sprintf("Show %s items", t.String()),
		Action: func() { o.deps.Sections.Toggle(t) },
	}}
	if err := o.deps.Menu.ShowMenu(entries); err != nil {
		o.log.Warn("context menu failed", "error", err)
	}
}
