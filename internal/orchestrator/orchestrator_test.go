package orchestrator

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubard/internal/bridge"
	"menubard/internal/model"
	"menubard/internal/platform"
)

// Geometry used throughout: a 1920-wide menu bar, main menu content ending
// at x=500, the hidden anchor 300pt from the trailing edge (x=1620).
var (
	menuBarFrame = model.Rect{X: 0, Y: 0, Width: 1920, Height: 24}
	emptyPoint   = model.Point{X: 1000, Y: 12}
	desktopPoint = model.Point{X: 800, Y: 500}
)

type fakeWindowServer struct {
	mu         sync.Mutex
	fullscreen bool
	onScreen   []model.WindowID
	infos      map[model.WindowID]model.WindowInfo
}

func (f *fakeWindowServer) WindowList() ([]model.WindowID, error) { return f.onScreen, nil }
func (f *fakeWindowServer) OnScreenWindowList() ([]model.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onScreen, nil
}
func (f *fakeWindowServer) MenuBarWindowList() ([]model.WindowID, error) { return nil, nil }
func (f *fakeWindowServer) WindowInfo(id model.WindowID) (model.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[id]
	if !ok {
		return model.WindowInfo{}, errors.New("no such window")
	}
	return info, nil
}
func (f *fakeWindowServer) WindowFrame(id model.WindowID) (model.Rect, error) {
	info, err := f.WindowInfo(id)
	return info.Frame, err
}
func (f *fakeWindowServer) ActiveSpaceID() (uint64, error)                   { return 1, nil }
func (f *fakeWindowServer) SpacesForWindow(model.WindowID) ([]uint64, error) { return []uint64{1}, nil }
func (f *fakeWindowServer) SpaceIsFullscreen(uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullscreen, nil
}
func (f *fakeWindowServer) MenuBarFrame() (model.Rect, error) { return menuBarFrame, nil }
func (f *fakeWindowServer) MainMenuMaxX() (float64, error)    { return 500, nil }
func (f *fakeWindowServer) CaptureWindows([]model.WindowID, model.Rect) (image.Image, error) {
	return nil, errors.New("unsupported")
}

type fakeSections struct {
	mu     sync.Mutex
	hidden map[model.Section]bool
	anchor map[model.Section]float64
	shows  int
}

func newFakeSections() *fakeSections {
	return &fakeSections{
		hidden: map[model.Section]bool{
			model.SectionHidden:       true,
			model.SectionAlwaysHidden: true,
		},
		anchor: map[model.Section]float64{
			model.SectionHidden:       300,
			model.SectionAlwaysHidden: 300,
		},
	}
}

func (s *fakeSections) IsHidden(name model.Section) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden[name]
}

func (s *fakeSections) Show(name model.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[name] = false
	s.shows++
}

func (s *fakeSections) Hide(name model.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[name] = true
}

func (s *fakeSections) Toggle(name model.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[name] = !s.hidden[name]
}

func (s *fakeSections) ShowAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.hidden {
		s.hidden[name] = false
	}
}

func (s *fakeSections) AnchorPosition(name model.Section) (float64, bool) {
	pos, ok := s.anchor[name]
	return pos, ok
}

func (s *fakeSections) showCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows
}

type installedMonitor struct {
	kinds   []platform.EventKind
	fn      func(platform.Event)
	removed bool
}

type fakeEvents struct {
	mu       sync.Mutex
	monitors []*installedMonitor
	loc      model.Point
}

func (f *fakeEvents) AddMonitor(kinds []platform.EventKind, fn func(platform.Event)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &installedMonitor{kinds: kinds, fn: fn}
	f.monitors = append(f.monitors, m)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		m.removed = true
	}, nil
}

func (f *fakeEvents) MouseLocation() (model.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loc, nil
}

func (f *fakeEvents) setLocation(p model.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loc = p
}

func (f *fakeEvents) emit(ev platform.Event) {
	f.mu.Lock()
	var targets []func(platform.Event)
	for _, m := range f.monitors {
		if m.removed {
			continue
		}
		for _, k := range m.kinds {
			if k == ev.Kind {
				targets = append(targets, m.fn)
				break
			}
		}
	}
	f.mu.Unlock()
	for _, fn := range targets {
		fn(ev)
	}
}

func (f *fakeEvents) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.monitors {
		if !m.removed {
			n++
		}
	}
	return n
}

type fakeApps struct {
	states map[int]platform.AppState
}

func (a *fakeApps) Running() ([]platform.AppInfo, error) { return nil, nil }
func (a *fakeApps) State(pid int) (platform.AppState, bool) {
	s, ok := a.states[pid]
	return s, ok
}
func (a *fakeApps) IsResponsive(int, time.Duration) bool { return true }
func (a *fakeApps) Subscribe(func()) (func(), error)     { return func() {}, nil }

type fakeMenu struct {
	mu      sync.Mutex
	entries [][]platform.MenuEntry
}

func (m *fakeMenu) ShowMenu(entries []platform.MenuEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries)
	return nil
}

type harness struct {
	o        *Orchestrator
	ws       *fakeWindowServer
	sections *fakeSections
	events   *fakeEvents
	apps     *fakeApps
	menu     *fakeMenu
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		ws:       &fakeWindowServer{infos: make(map[model.WindowID]model.WindowInfo)},
		sections: newFakeSections(),
		events:   &fakeEvents{loc: emptyPoint},
		apps:     &fakeApps{states: make(map[int]platform.AppState)},
		menu:     &fakeMenu{},
	}
	h.o = New(Deps{
		Bridge:   bridge.New(h.ws),
		Sections: h.sections,
		Events:   h.events,
		Apps:     h.apps,
		Menu:     h.menu,
	}, cfg)
	require.NoError(t, h.o.Start())
	t.Cleanup(h.o.Stop)
	return h
}

func hoverConfig() Config {
	return Config{
		ShowOnHover:    true,
		ShowOnClick:    true,
		HoverDelay:     5 * time.Millisecond,
		RehideStrategy: RehideSmart,
	}
}

func TestHover_RevealsAfterDebounce(t *testing.T) {
	h := newHarness(t, hoverConfig())

	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: emptyPoint})

	require.Eventually(t, func() bool {
		return !h.sections.IsHidden(model.SectionHidden)
	}, 2*time.Second, 5*time.Millisecond, "hover in empty space reveals the hidden section")
}

func TestHover_ReverifyCancelsStaleReveal(t *testing.T) {
	h := newHarness(t, hoverConfig())

	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: emptyPoint})
	// The pointer moves on before the debounce fires.
	h.events.setLocation(model.Point{X: 100, Y: 12})

	time.Sleep(100 * time.Millisecond)
	assert.True(t, h.sections.IsHidden(model.SectionHidden), "stale debounce must not reveal")
}

func TestHover_StopMonitorSuppressesPendingAction(t *testing.T) {
	h := newHarness(t, hoverConfig())

	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: emptyPoint})
	h.o.StopMonitor(MonitorHover)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
}

func TestHover_SuppressedDuringInteraction(t *testing.T) {
	h := newHarness(t, hoverConfig())

	// Mouse goes down on the desktop; hover reveal is suppressed until up.
	h.events.emit(platform.Event{Kind: platform.LeftMouseDown, Location: desktopPoint})
	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: emptyPoint})

	time.Sleep(100 * time.Millisecond)
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
}

func TestHover_PointerLeavingBandRehides(t *testing.T) {
	h := newHarness(t, hoverConfig())

	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: emptyPoint})
	require.Eventually(t, func() bool {
		return !h.sections.IsHidden(model.SectionHidden)
	}, 2*time.Second, 5*time.Millisecond)

	h.events.setLocation(desktopPoint)
	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: desktopPoint})

	require.Eventually(t, func() bool {
		return h.sections.IsHidden(model.SectionHidden)
	}, 2*time.Second, 5*time.Millisecond, "leaving the menu bar hides the section again")
}

func TestHover_FullscreenSpaceSuppressesReveal(t *testing.T) {
	h := newHarness(t, hoverConfig())
	h.ws.fullscreen = true

	h.events.emit(platform.Event{Kind: platform.MouseMoved, Location: emptyPoint})

	time.Sleep(100 * time.Millisecond)
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
}

func TestClick_RevealsInEmptySpace(t *testing.T) {
	h := newHarness(t, Config{ShowOnClick: true, RehideStrategy: RehideSmart})

	h.events.emit(platform.Event{Kind: platform.LeftMouseDown, Location: emptyPoint})

	require.Eventually(t, func() bool {
		return !h.sections.IsHidden(model.SectionHidden)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClick_DisabledDoesNothing(t *testing.T) {
	h := newHarness(t, Config{ShowOnClick: false, RehideStrategy: RehideSmart})

	h.events.emit(platform.Event{Kind: platform.LeftMouseDown, Location: emptyPoint})

	time.Sleep(200 * time.Millisecond)
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
}

func TestDrag_WithModifierRevealsAll(t *testing.T) {
	h := newHarness(t, hoverConfig())

	// Without the modifier nothing happens.
	h.events.emit(platform.Event{Kind: platform.LeftMouseDragged, Location: emptyPoint})
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
	assert.False(t, h.o.IsDragging())

	h.events.emit(platform.Event{
		Kind:      platform.LeftMouseDragged,
		Location:  emptyPoint,
		Modifiers: platform.ModCommand,
	})
	assert.False(t, h.sections.IsHidden(model.SectionHidden))
	assert.False(t, h.sections.IsHidden(model.SectionAlwaysHidden))
	assert.True(t, h.o.IsDragging())

	h.events.emit(platform.Event{Kind: platform.LeftMouseUp, Location: emptyPoint})
	assert.False(t, h.o.IsDragging())
}

func TestSmartRehide_RegularAppWindow(t *testing.T) {
	h := newHarness(t, hoverConfig())
	h.sections.Show(model.SectionHidden)

	h.ws.onScreen = []model.WindowID{1}
	h.ws.infos[1] = model.WindowInfo{
		ID:       1,
		Frame:    model.Rect{X: 500, Y: 400, Width: 800, Height: 600},
		OwnerPID: 42,
	}
	h.apps.states[42] = platform.AppState{FinishedLaunching: true}

	h.events.emit(platform.Event{Kind: platform.LeftMouseUp, Location: desktopPoint})
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
	assert.True(t, h.sections.IsHidden(model.SectionAlwaysHidden))
}

func TestSmartRehide_UtilityPanelLeavesRevealed(t *testing.T) {
	h := newHarness(t, hoverConfig())
	h.sections.Show(model.SectionHidden)

	h.ws.onScreen = []model.WindowID{1}
	h.ws.infos[1] = model.WindowInfo{
		ID:       1,
		Frame:    model.Rect{X: 500, Y: 400, Width: 800, Height: 600},
		OwnerPID: 42,
	}
	h.apps.states[42] = platform.AppState{FinishedLaunching: true, BackgroundOnly: true}

	h.events.emit(platform.Event{Kind: platform.LeftMouseUp, Location: desktopPoint})
	assert.False(t, h.sections.IsHidden(model.SectionHidden))
}

func TestSmartRehide_DockIsExempt(t *testing.T) {
	h := newHarness(t, hoverConfig())
	h.sections.Show(model.SectionHidden)

	h.ws.onScreen = []model.WindowID{1}
	h.ws.infos[1] = model.WindowInfo{
		ID:        1,
		Frame:     model.Rect{X: 0, Y: 1000, Width: 1920, Height: 80},
		OwnerPID:  7,
		OwnerName: "Dock",
	}

	h.events.emit(platform.Event{Kind: platform.LeftMouseUp, Location: model.Point{X: 800, Y: 1040}})
	assert.True(t, h.sections.IsHidden(model.SectionHidden))
}

func TestSmartRehide_PointerInMenuBarKeepsRevealed(t *testing.T) {
	h := newHarness(t, hoverConfig())
	h.sections.Show(model.SectionHidden)

	h.events.emit(platform.Event{Kind: platform.LeftMouseUp, Location: emptyPoint})
	assert.False(t, h.sections.IsHidden(model.SectionHidden))
}

func TestTimedRehide_HidesAfterInterval(t *testing.T) {
	h := newHarness(t, Config{
		ShowOnClick:    true,
		RehideStrategy: RehideTimed,
		RehideInterval: 20 * time.Millisecond,
	})

	h.events.emit(platform.Event{Kind: platform.LeftMouseDown, Location: emptyPoint})
	require.Eventually(t, func() bool {
		return !h.sections.IsHidden(model.SectionHidden)
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return h.sections.IsHidden(model.SectionHidden)
	}, 2*time.Second, 5*time.Millisecond, "timed strategy rehides after the interval")
}

func TestContextMenu_TogglesHiddenSection(t *testing.T) {
	h := newHarness(t, hoverConfig())

	h.events.emit(platform.Event{Kind: platform.RightMouseDown, Location: emptyPoint})

	h.menu.mu.Lock()
	require.Len(t, h.menu.entries, 1)
	entries := h.menu.entries[0]
	h.menu.mu.Unlock()
	require.Len(t, entries, 1)

	entries[0].Action()
	assert.False(t, h.sections.IsHidden(model.SectionHidden))
}

func TestContextMenu_IgnoredOutsideEmptySpace(t *testing.T) {
	h := newHarness(t, hoverConfig())

	h.events.emit(platform.Event{Kind: platform.RightMouseDown, Location: desktopPoint})

	h.menu.mu.Lock()
	defer h.menu.mu.Unlock()
	assert.Empty(t, h.menu.entries)
}

func TestStartMonitor_Idempotent(t *testing.T) {
	h := newHarness(t, hoverConfig())

	before := h.events.active()
	require.NoError(t, h.o.StartMonitor(MonitorHover))
	assert.Equal(t, before, h.events.active())
}

func TestSetConfig_TogglesHoverMonitor(t *testing.T) {
	h := newHarness(t, Config{ShowOnHover: false, ShowOnClick: true, RehideStrategy: RehideSmart})

	base := h.events.active()
	cfg := hoverConfig()
	require.NoError(t, h.o.SetConfig(cfg))
	assert.Equal(t, base+1, h.events.active(), "enabling hover installs its monitor")

	cfg.ShowOnHover = false
	require.NoError(t, h.o.SetConfig(cfg))
	assert.Equal(t, base, h.events.active(), "disabling hover removes its monitor")
}
