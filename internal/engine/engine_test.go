package engine

import (
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubard/internal/config"
	"menubard/internal/ipc"
	"menubard/internal/model"
	"menubard/internal/platform"
	"menubard/internal/section"
)

type fakeWindowServer struct {
	mu      sync.Mutex
	menuBar []model.WindowID
	infos   map[model.WindowID]model.WindowInfo
}

func (f *fakeWindowServer) WindowList() ([]model.WindowID, error)         { return f.menuBar, nil }
func (f *fakeWindowServer) OnScreenWindowList() ([]model.WindowID, error) { return f.menuBar, nil }
func (f *fakeWindowServer) MenuBarWindowList() ([]model.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.menuBar, nil
}
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
func (f *fakeWindowServer) SpaceIsFullscreen(uint64) (bool, error)           { return false, nil }
func (f *fakeWindowServer) MenuBarFrame() (model.Rect, error) {
	return model.Rect{X: 0, Y: 0, Width: 1920, Height: 24}, nil
}
func (f *fakeWindowServer) MainMenuMaxX() (float64, error) { return 500, nil }
func (f *fakeWindowServer) CaptureWindows([]model.WindowID, model.Rect) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

type fakeAccess struct{}

func (fakeAccess) Trusted() bool { return true }
func (fakeAccess) ExtrasMenuBar(int) (platform.MenuBarHandle, error) {
	return nil, platform.ErrNoExtrasMenuBar
}

type fakeApps struct {
	running []platform.AppInfo
}

func (a *fakeApps) Running() ([]platform.AppInfo, error) { return a.running, nil }
func (a *fakeApps) State(int) (platform.AppState, bool) {
	return platform.AppState{FinishedLaunching: true}, true
}
func (a *fakeApps) IsResponsive(int, time.Duration) bool { return true }
func (a *fakeApps) Subscribe(func()) (func(), error)     { return func() {}, nil }

type fakeHost struct {
	mu        sync.Mutex
	windowIDs map[string]model.WindowID
}

func (h *fakeHost) EnsureItem(string) error                 { return nil }
func (h *fakeHost) SetLength(string, float64) error         { return nil }
func (h *fakeHost) SetVisible(string, bool) error           { return nil }
func (h *fakeHost) SetIcon(string, platform.Icon) error     { return nil }
func (h *fakeHost) SetInteractionEnabled(string, bool) error { return nil }
func (h *fakeHost) SetOnClick(string, func()) error         { return nil }
func (h *fakeHost) Position(string) (float64, bool)         { return 300, true }
func (h *fakeHost) WindowID(autosave string) (model.WindowID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.windowIDs[autosave]
	return id, ok
}
func (h *fakeHost) ShowMenu([]platform.MenuEntry) error { return nil }

type fakeEvents struct{}

func (fakeEvents) AddMonitor([]platform.EventKind, func(platform.Event)) (func(), error) {
	return func() {}, nil
}
func (fakeEvents) MouseLocation() (model.Point, error) { return model.Point{}, nil }

type fakeHotkeyBackend struct {
	mu         sync.Mutex
	registered map[uint32]uint32 // id -> key code
	handler    func(uint32)
}

func (f *fakeHotkeyBackend) Register(id, keyCode, _ uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[id] = keyCode
	return nil
}
func (f *fakeHotkeyBackend) Unregister(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, id)
	return nil
}
func (f *fakeHotkeyBackend) SetHandler(fn func(uint32)) { f.handler = fn }
func (f *fakeHotkeyBackend) ObserveMenuTracking(func(), func()) (func(), error) {
	return func() {}, nil
}

func menuBarFixture() (*fakeWindowServer, *fakeHost) {
	// Left to right: item A, always-hidden anchor, item B, hidden anchor,
	// item C. Window 99 has no owner or title and must be skipped.
	ws := &fakeWindowServer{
		menuBar: []model.WindowID{10, 1, 11, 2, 12, 99},
		infos: map[model.WindowID]model.WindowInfo{
			10: {ID: 10, Frame: model.Rect{X: 50, Width: 24, Height: 24}, OwnerName: "AppA", Title: "ItemA", OnScreen: true},
			1:  {ID: 1, Frame: model.Rect{X: 100, Width: 24, Height: 24}, OwnerName: "menubard", OnScreen: true},
			11: {ID: 11, Frame: model.Rect{X: 150, Width: 24, Height: 24}, OwnerName: "AppB", Title: "ItemB", OnScreen: true},
			2:  {ID: 2, Frame: model.Rect{X: 200, Width: 24, Height: 24}, OwnerName: "menubard", OnScreen: true},
			12: {ID: 12, Frame: model.Rect{X: 300, Width: 24, Height: 24}, OwnerName: "AppC", Title: "ItemC", OnScreen: true},
			99: {ID: 99, Frame: model.Rect{X: 400, Width: 24, Height: 24}, OnScreen: true},
		},
	}
	host := &fakeHost{windowIDs: map[string]model.WindowID{
		model.ControlItemID(model.SectionAlwaysHidden).String(): 1,
		model.ControlItemID(model.SectionHidden).String():       2,
	}}
	return ws, host
}

func newEngine(t *testing.T, settings config.Settings, ws *fakeWindowServer, host *fakeHost) (*Engine, *fakeHotkeyBackend) {
	t.Helper()
	backend := &fakeHotkeyBackend{registered: make(map[uint32]uint32)}
	provider := &platform.Provider{
		WindowServer:  ws,
		Accessibility: fakeAccess{},
		Apps:          &fakeApps{running: []platform.AppInfo{{PID: 77, Name: "AppD", BundleID: "com.example.appd"}}},
		StatusItems:   host,
		Events:        fakeEvents{},
		Hotkeys:       backend,
	}
	e, err := New(provider, settings)
	require.NoError(t, err)
	return e, backend
}

func TestStart_HidesHideableSections(t *testing.T) {
	ws, host := menuBarFixture()
	e, _ := newEngine(t, config.Default(), ws, host)
	require.NoError(t, e.Start())
	defer e.Stop()

	assert.Equal(t, section.HideItems, e.SectionState(model.SectionHidden))
	assert.Equal(t, section.HideItems, e.SectionState(model.SectionAlwaysHidden))
	assert.Equal(t, section.ShowItems, e.SectionState(model.SectionVisible))
}

func TestCurrentConfiguration_BucketsByDelimiters(t *testing.T) {
	ws, host := menuBarFixture()
	e, _ := newEngine(t, config.Default(), ws, host)
	require.NoError(t, e.Start())
	defer e.Stop()

	cfg := e.CurrentConfiguration()
	assert.Equal(t, []model.ItemID{{Namespace: "AppC", Name: "ItemC"}}, cfg.Items(model.SectionVisible))
	assert.Equal(t,
		[]model.ItemID{{Namespace: "AppB", Name: "ItemB"}, model.NewItemsMarker},
		cfg.Items(model.SectionHidden))
	assert.Equal(t, []model.ItemID{{Namespace: "AppA", Name: "ItemA"}}, cfg.Items(model.SectionAlwaysHidden))
}

func TestToggleSection(t *testing.T) {
	ws, host := menuBarFixture()
	e, _ := newEngine(t, config.Default(), ws, host)
	require.NoError(t, e.Start())
	defer e.Stop()

	e.ToggleSection(model.SectionHidden)
	assert.Equal(t, section.ShowItems, e.SectionState(model.SectionHidden))
	e.ToggleSection(model.SectionHidden)
	assert.Equal(t, section.HideItems, e.SectionState(model.SectionHidden))
}

func TestResolveOwner_WindowServerFastPath(t *testing.T) {
	ws, host := menuBarFixture()
	ws.infos[10] = model.WindowInfo{ID: 10, OwnerPID: 77, OnScreen: true}
	e, _ := newEngine(t, config.Default(), ws, host)

	pid, ok := e.ResolveOwner(10)
	require.True(t, ok)
	assert.Equal(t, 77, pid)
	assert.Equal(t, "com.example.appd", e.OwnerLabel(10))
}

func TestResolveOwner_WorkerFallback(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "worker.sock")
	srv := ipc.NewServer(socket, stubResolver{pid: 321})
	require.NoError(t, srv.Listen())
	go srv.Serve()
	defer srv.Close()

	ws, host := menuBarFixture()
	ws.infos[99] = model.WindowInfo{ID: 99, OnScreen: true} // no owner pid
	settings := config.Default()
	settings.Socket = socket
	e, _ := newEngine(t, settings, ws, host)

	pid, ok := e.ResolveOwner(99)
	require.True(t, ok)
	assert.Equal(t, 321, pid)
}

func TestResolveOwner_NoWorkerReadsUnknown(t *testing.T) {
	ws, host := menuBarFixture()
	ws.infos[99] = model.WindowInfo{ID: 99, OnScreen: true}
	settings := config.Default()
	settings.Socket = filepath.Join(t.TempDir(), "absent.sock")
	e, _ := newEngine(t, settings, ws, host)

	_, ok := e.ResolveOwner(99)
	assert.False(t, ok)
	assert.Equal(t, "unknown", e.OwnerLabel(99))
}

type stubResolver struct{ pid int }

func (r stubResolver) Start() error                          { return nil }
func (r stubResolver) Resolve(model.WindowInfo) (int, bool)  { return r.pid, true }

func TestHotkeyBindingTogglesSection(t *testing.T) {
	ws, host := menuBarFixture()
	settings := config.Default()
	settings.Hotkeys.ToggleHidden = &config.Binding{KeyCode: 4, Modifiers: []string{"command"}}
	e, backend := newEngine(t, settings, ws, host)
	require.NoError(t, e.Start())
	defer e.Stop()

	backend.mu.Lock()
	require.Len(t, backend.registered, 1)
	var id uint32
	for registered := range backend.registered {
		id = registered
	}
	backend.mu.Unlock()

	backend.handler(id)
	assert.Equal(t, section.ShowItems, e.SectionState(model.SectionHidden))
}

func TestItemConfigurationPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	ws, host := menuBarFixture()
	settings := config.Default()
	settings.ItemsFile = path

	e, _ := newEngine(t, settings, ws, host)
	require.NoError(t, e.Start())
	e.Stop()

	// A fresh engine over an empty menu bar seeds from the persisted file.
	empty := &fakeWindowServer{infos: map[model.WindowID]model.WindowInfo{}}
	e2, _ := newEngine(t, settings, empty, &fakeHost{windowIDs: map[string]model.WindowID{}})
	require.NoError(t, e2.Start())
	defer e2.Stop()

	e2.mu.Lock()
	cfg := e2.cfgItems
	e2.mu.Unlock()
	assert.Equal(t, []model.ItemID{{Namespace: "AppB", Name: "ItemB"}, model.NewItemsMarker},
		cfg.Items(model.SectionHidden))
}

func TestReload_RebindsHotkeys(t *testing.T) {
	ws, host := menuBarFixture()
	settings := config.Default()
	settings.Hotkeys.ToggleHidden = &config.Binding{KeyCode: 4, Modifiers: []string{"command"}}
	e, backend := newEngine(t, settings, ws, host)
	require.NoError(t, e.Start())
	defer e.Stop()

	next := settings
	next.Hotkeys.ToggleHidden = &config.Binding{KeyCode: 9, Modifiers: []string{"option"}}
	require.NoError(t, e.Reload(next))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.registered, 1)
	for _, keyCode := range backend.registered {
		assert.Equal(t, uint32(9), keyCode)
	}
}
