// Package engine assembles the orchestration core: the window bridge, the
// section state machine, the item configuration, the event orchestrator,
// the hotkey registry, and the client side of the identity worker. External
// collaborators (CLI verbs, the MCP server) call only the methods on Engine.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"menubard/internal/bridge"
	"menubard/internal/config"
	"menubard/internal/hotkeys"
	"menubard/internal/ipc"
	"menubard/internal/items"
	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/orchestrator"
	"menubard/internal/platform"
	"menubard/internal/section"
)

// Engine owns the orchestration core for one daemon process.
type Engine struct {
	provider *platform.Provider
	bridge   *bridge.Bridge
	sections *section.Manager
	orch     *orchestrator.Orchestrator
	registry *hotkeys.Registry
	worker   *ipc.Client
	log      *slog.Logger

	mu        sync.Mutex
	settings  config.Settings
	cfgItems  *items.Configuration
	hotkeyIDs []uint32
	started   bool
}

// New wires the engine against a platform provider. Call Start to activate
// monitors, hotkeys, and the worker connection.
func New(provider *platform.Provider, settings config.Settings) (*Engine, error) {
	b := bridge.New(provider.WindowServer)
	sections, err := section.NewManager(provider.StatusItems)
	if err != nil {
		return nil, fmt.Errorf("create sections: %w", err)
	}
	registry, err := hotkeys.NewRegistry(provider.Hotkeys)
	if err != nil {
		return nil, fmt.Errorf("create hotkey registry: %w", err)
	}

	e := &Engine{
		provider: provider,
		bridge:   b,
		sections: sections,
		registry: registry,
		worker:   ipc.NewClient(settings.Socket),
		settings: settings,
		cfgItems: items.New(),
		log:      logging.ForComponent(logging.CompEngine),
	}
	e.orch = orchestrator.New(orchestrator.Deps{
		Bridge:   b,
		Sections: sections,
		Events:   provider.Events,
		Apps:     provider.Apps,
		Menu:     provider.StatusItems,
	}, orchConfig(settings))
	return e, nil
}

func orchConfig(s config.Settings) orchestrator.Config {
	return orchestrator.Config{
		ShowOnHover:    s.ShowOnHover,
		ShowOnClick:    s.ShowOnClick,
		HoverDelay:     time.Duration(s.HoverDelayMS) * time.Millisecond,
		RehideStrategy: s.Rehide.Strategy,
		RehideInterval: time.Duration(s.Rehide.IntervalSeconds) * time.Second,
	}
}

// Start brings the engine to its steady state: hidden sections suppressed,
// item configuration seeded, monitors installed, hotkeys bound, and the
// worker activated. A missing worker is not fatal; owner resolution falls
// back to unknown until it appears.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	e.sections.Hide(model.SectionHidden)
	e.sections.Hide(model.SectionAlwaysHidden)

	e.seedConfiguration()

	if err := e.worker.Start(); err != nil {
		e.log.Warn("identity worker unavailable, item owners resolve as unknown", "error", err)
	}
	if err := e.orch.Start(); err != nil {
		return fmt.Errorf("start event monitors: %w", err)
	}
	e.bindHotkeys()
	return nil
}

// Stop tears the engine down and persists the item configuration.
func (e *Engine) Stop() {
	e.orch.Stop()
	e.registry.Close()
	e.worker.Close()
	if err := e.persistItems(); err != nil {
		e.log.Warn("item configuration not persisted", "error", err)
	}
}

// Reload applies edited settings to the running engine: orchestrator
// tunables take effect immediately and hotkeys are rebound.
func (e *Engine) Reload(settings config.Settings) error {
	e.mu.Lock()
	e.settings = settings
	ids := e.hotkeyIDs
	e.hotkeyIDs = nil
	e.mu.Unlock()

	if err := e.orch.SetConfig(orchConfig(settings)); err != nil {
		return err
	}
	for _, id := range ids {
		e.registry.Unregister(id)
	}
	e.bindHotkeys()
	return nil
}

// seedConfiguration loads the persisted item configuration when one exists,
// otherwise builds it from the live window state.
func (e *Engine) seedConfiguration() {
	e.mu.Lock()
	path := e.settings.ItemsFile
	e.mu.Unlock()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var s items.Serialized
			if err := yaml.Unmarshal(data, &s); err == nil {
				cfg, err := items.FromSerialized(s)
				if err == nil {
					e.mu.Lock()
					e.cfgItems = cfg
					e.mu.Unlock()
					return
				}
				e.log.Warn("persisted item configuration invalid, rebuilding", "error", err)
			} else {
				e.log.Warn("persisted item configuration unreadable, rebuilding", "error", err)
			}
		}
	}
	e.RefreshConfiguration()
}

func (e *Engine) persistItems() error {
	e.mu.Lock()
	path := e.settings.ItemsFile
	cfg := e.cfgItems
	e.mu.Unlock()
	if path == "" || cfg == nil {
		return nil
	}
	data, err := yaml.Marshal(cfg.Serialize())
	if err != nil {
		return fmt.Errorf("marshal item configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write item configuration: %w", err)
	}
	return nil
}

// bindHotkeys registers the configured global shortcuts. A key that cannot
// be claimed is logged and skipped so the caller can see the hotkey was not
// set.
func (e *Engine) bindHotkeys() {
	e.mu.Lock()
	cfg := e.settings.Hotkeys
	e.mu.Unlock()

	bind := func(name string, b *config.Binding, target model.Section) {
		if b == nil {
			return
		}
		mask, err := b.Mask()
		if err != nil {
			e.log.Warn("hotkey binding invalid", "hotkey", name, "error", err)
			return
		}
		id, err := e.RegisterHotkey(hotkeys.Hotkey{KeyCode: b.KeyCode, Modifiers: mask}, func() {
			e.ToggleSection(target)
		})
		if err != nil {
			e.log.Warn("hotkey not set", "hotkey", name, "error", err)
			return
		}
		e.mu.Lock()
		e.hotkeyIDs = append(e.hotkeyIDs, id)
		e.mu.Unlock()
	}
	bind("toggle_hidden", cfg.ToggleHidden, model.SectionHidden)
	bind("toggle_always_hidden", cfg.ToggleAlwaysHidden, model.SectionAlwaysHidden)
}

// GetWindowList enumerates window IDs for collaborators.
func (e *Engine) GetWindowList(opts bridge.ListOptions) []model.WindowID {
	return e.bridge.WindowList(opts)
}

// ItemWindows returns snapshots of the current menu bar item windows.
func (e *Engine) ItemWindows() []model.WindowInfo {
	return e.bridge.MenuBarItemWindows(bridge.ListOptions{
		OnScreenOnly:    true,
		ActiveSpaceOnly: true,
		ItemsOnly:       true,
	})
}

// GetWindowFrame returns one window's bounds, or false.
func (e *Engine) GetWindowFrame(id model.WindowID) (model.Rect, bool) {
	return e.bridge.WindowFrame(id)
}

// CaptureWindow captures one window to encoded image bytes. Bounds are
// required.
func (e *Engine) CaptureWindow(id model.WindowID, bounds *model.Rect, opts platform.CaptureOptions) ([]byte, error) {
	return e.bridge.CaptureWindow(id, bounds, opts)
}

// CurrentConfiguration returns the authoritative item configuration,
// rebuilt from live window state when the control item windows are
// available.
func (e *Engine) CurrentConfiguration() *items.Configuration {
	e.RefreshConfiguration()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfgItems
}

// RefreshConfiguration rebuilds the item configuration from the live menu
// bar. Without both delimiter windows the previous configuration stays
// authoritative.
func (e *Engine) RefreshConfiguration() {
	delims, ok := e.sections.Delimiters()
	if !ok {
		e.log.Debug("control item windows unavailable, keeping configuration")
		return
	}
	cfg := items.Current(e.ItemWindows(), delims, e.identify)
	e.mu.Lock()
	e.cfgItems = cfg
	e.mu.Unlock()
}

// identify derives a stable item identifier from a window snapshot. The
// owner name comes from the window server when it still reports one, and
// from the identity worker otherwise.
func (e *Engine) identify(info model.WindowInfo) (model.ItemID, bool) {
	ns := info.OwnerName
	if ns == "" {
		pid, ok := e.ResolveOwner(info.ID)
		if ok {
			ns = e.appName(pid)
		}
	}
	if ns == "" || info.Title == "" {
		return model.ItemID{}, false
	}
	return model.ItemID{Namespace: ns, Name: info.Title}, true
}

func (e *Engine) appName(pid int) string {
	apps, err := e.provider.Apps.Running()
	if err != nil {
		return ""
	}
	for _, app := range apps {
		if app.PID == pid {
			if app.BundleID != "" {
				return app.BundleID
			}
			return app.Name
		}
	}
	return ""
}

// ItemRecord is the presentation form of one menu bar item window, built
// for the list verb and the MCP list tool.
type ItemRecord struct {
	WindowID model.WindowID `yaml:"window_id"       json:"window_id"`
	Frame    model.Rect     `yaml:"frame"           json:"frame"`
	Section  string         `yaml:"section"         json:"section"`
	Owner    string         `yaml:"owner"           json:"owner"`
	Title    string         `yaml:"title,omitempty" json:"title,omitempty"`
}

// ListItems returns the current menu bar items with their section
// assignment and resolved owner. Owners that cannot be resolved read as
// "unknown".
func (e *Engine) ListItems() []ItemRecord {
	windows := e.ItemWindows()
	delims, haveDelims := e.sections.Delimiters()

	var hiddenX, alwaysHiddenX float64
	hiddenFound, alwaysFound := false, false
	if haveDelims {
		for _, w := range windows {
			switch w.ID {
			case delims.Hidden:
				hiddenX, hiddenFound = w.Frame.X, true
			case delims.AlwaysHidden:
				alwaysHiddenX, alwaysFound = w.Frame.X, true
			}
		}
	}

	records := make([]ItemRecord, 0, len(windows))
	for _, w := range windows {
		if haveDelims && (w.ID == delims.Hidden || w.ID == delims.AlwaysHidden) {
			continue
		}
		sec := model.SectionVisible
		switch {
		case alwaysFound && w.Frame.X < alwaysHiddenX:
			sec = model.SectionAlwaysHidden
		case hiddenFound && w.Frame.X < hiddenX:
			sec = model.SectionHidden
		}
		owner := w.OwnerName
		if owner == "" {
			owner = e.OwnerLabel(w.ID)
		}
		records = append(records, ItemRecord{
			WindowID: w.ID,
			Frame:    w.Frame,
			Section:  sec.String(),
			Owner:    owner,
			Title:    w.Title,
		})
	}
	return records
}

// SectionState reports the named section's hiding state.
func (e *Engine) SectionState(name model.Section) section.HidingState {
	return e.sections.State(name)
}

// ToggleSection flips the named section.
func (e *Engine) ToggleSection(name model.Section) {
	e.sections.Toggle(name)
}

// ShowAllSections reveals everything.
func (e *Engine) ShowAllSections() {
	e.sections.ShowAll()
}

// RegisterHotkey claims a global hotkey on behalf of a collaborator.
func (e *Engine) RegisterHotkey(key hotkeys.Hotkey, fn func()) (uint32, error) {
	return e.registry.Register(key, fn)
}

// ResolveOwner resolves the process owning a window. The window server's
// own owner field is authoritative when present; otherwise the identity
// worker is consulted, and an unavailable worker reads as unknown.
func (e *Engine) ResolveOwner(id model.WindowID) (int, bool) {
	info, ok := e.bridge.WindowInfo(id)
	if !ok {
		return 0, false
	}
	if info.OwnerPID != 0 {
		return info.OwnerPID, true
	}
	return e.worker.SourcePID(info)
}

// OwnerLabel formats an owner for presentation: the application name, or
// "unknown" when resolution failed.
func (e *Engine) OwnerLabel(id model.WindowID) string {
	pid, ok := e.ResolveOwner(id)
	if !ok {
		return "unknown"
	}
	if name := e.appName(pid); name != "" {
		return name
	}
	return fmt.Sprintf("pid %d", pid)
}

// SectionNames lists the valid section names for CLI help text.
func SectionNames() string {
	names := make([]string, 0, len(model.Sections()))
	for _, s := range model.Sections() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}
