// Package platform defines the OS-facing interfaces the engine runs
// against. Real backends live in platform-specific subpackages and register
// themselves via init(); tests substitute deterministic fakes.
package platform

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"time"

	"menubard/internal/model"
)

// WindowServer is the low-level window-server introspection surface. Every
// call is a synchronous OS query with no delivery guarantee; callers treat
// failures as "currently unknowable", never as fatal.
type WindowServer interface {
	// WindowList returns all window IDs known to the window server.
	WindowList() ([]model.WindowID, error)

	// OnScreenWindowList returns window IDs ordered front to back.
	OnScreenWindowList() ([]model.WindowID, error)

	// MenuBarWindowList returns the IDs of menu-bar-level windows,
	// including the system's own menu bar backing window, ordered front
	// to back.
	MenuBarWindowList() ([]model.WindowID, error)

	// WindowInfo returns the full snapshot for one window.
	WindowInfo(id model.WindowID) (model.WindowInfo, error)

	// WindowFrame returns just the current bounds of one window.
	WindowFrame(id model.WindowID) (model.Rect, error)

	// ActiveSpaceID returns the identifier of the currently active space.
	ActiveSpaceID() (uint64, error)

	// SpacesForWindow returns the spaces a window belongs to.
	SpacesForWindow(id model.WindowID) ([]uint64, error)

	// SpaceIsFullscreen reports whether a space hosts a fullscreen app.
	SpaceIsFullscreen(space uint64) (bool, error)

	// MenuBarFrame returns the frame of the menu bar on the main screen.
	MenuBarFrame() (model.Rect, error)

	// MainMenuMaxX returns the trailing edge of the frontmost
	// application's main menu content. Everything to its right, up to the
	// first status item, is empty menu bar space.
	MainMenuMaxX() (float64, error)

	// CaptureWindows composites the given windows into a raster image
	// cropped to bounds. Bounds are required: capturing without explicit
	// bounds can stall for seconds against off-screen or zero-size
	// windows.
	CaptureWindows(ids []model.WindowID, bounds model.Rect) (image.Image, error)
}

// MenuBarHandle is a retained accessibility handle to one application's
// extras menu bar element. Creating a handle walks the application's
// accessibility tree and is expensive; holders keep it for the life of the
// application.
type MenuBarHandle interface {
	// Items returns the element's direct children, freshly queried.
	Items() ([]model.AXElement, error)
}

// Accessibility exposes the accessibility tree of foreign processes.
type Accessibility interface {
	// Trusted reports whether accessibility permission is granted.
	Trusted() bool

	// ExtrasMenuBar creates a handle to the extras menu bar element of
	// the given process. Returns ErrNoExtrasMenuBar if the application
	// exposes none.
	ExtrasMenuBar(pid int) (MenuBarHandle, error)
}

// AppInfo identifies one running application.
type AppInfo struct {
	PID      int
	Name     string
	BundleID string
}

// AppState is the liveness snapshot used to gate accessibility calls into a
// foreign process.
type AppState struct {
	FinishedLaunching bool
	Terminated        bool
	BackgroundOnly    bool
}

// Apps observes the set of running applications.
type Apps interface {
	// Running returns the current set of running applications.
	Running() ([]AppInfo, error)

	// State returns the liveness snapshot for a process, or false if the
	// process is not a running application.
	State(pid int) (AppState, bool)

	// IsResponsive probes whether the process services its event queue
	// within the timeout. A hung process must not block the caller
	// indefinitely.
	IsResponsive(pid int, timeout time.Duration) bool

	// Subscribe registers fn to run whenever the running-application set
	// changes. The returned cancel func removes the subscription.
	Subscribe(fn func()) (cancel func(), err error)
}

// Icon selects the image shown on a control item.
type Icon int

const (
	IconNone Icon = iota
	IconChevronLarge
	IconChevronSmall
	IconDot
)

// MenuEntry is one entry of a context menu shown at the pointer.
type MenuEntry struct {
	Title  string
	Action func()
}

// StatusItemHost manages this process's own synthetic status items. Items
// are addressed by their autosave name, the stable cross-launch key under
// which the OS remembers their position.
type StatusItemHost interface {
	// EnsureItem creates the status item if it does not exist yet.
	EnsureItem(autosave string) error

	// SetLength sets the item's on-screen width in points.
	SetLength(autosave string, length float64) error

	// SetVisible shows or hides the item entirely.
	SetVisible(autosave string, visible bool) error

	// SetIcon sets the item's image.
	SetIcon(autosave string, icon Icon) error

	// SetInteractionEnabled toggles click handling and highlight flashes.
	SetInteractionEnabled(autosave string, enabled bool) error

	// SetOnClick installs the item's primary click handler.
	SetOnClick(autosave string, fn func()) error

	// Position returns the distance from the item's leading edge to the
	// trailing edge of its screen, or false if the item has no window.
	Position(autosave string) (float64, bool)

	// WindowID returns the window backing the item, or false if none.
	WindowID(autosave string) (model.WindowID, bool)

	// ShowMenu pops up a context menu at the current pointer location.
	ShowMenu(entries []MenuEntry) error
}

// EventKind classifies raw input events.
type EventKind int

const (
	MouseMoved EventKind = iota
	LeftMouseDown
	LeftMouseUp
	LeftMouseDragged
	RightMouseDown
)

// Modifiers is a bitmask of held modifier keys.
type Modifiers uint32

const (
	ModCommand Modifiers = 1 << iota
	ModOption
	ModShift
	ModControl
)

// Event is one raw input event delivered to a monitor.
type Event struct {
	Kind      EventKind
	Location  model.Point
	Modifiers Modifiers
}

// EventSource delivers raw input events to registered monitors and answers
// pointer-location queries.
type EventSource interface {
	// AddMonitor registers fn for the given event kinds. The returned
	// remove func unregisters it; events already in flight may still be
	// delivered after removal.
	AddMonitor(kinds []EventKind, fn func(Event)) (remove func(), err error)

	// MouseLocation returns the current pointer position.
	MouseLocation() (model.Point, error)
}

// HotkeyBackend registers system-wide hotkeys with the OS.
type HotkeyBackend interface {
	// Register claims the key/modifier combination under the given id.
	Register(id uint32, keyCode uint32, modifiers uint32) error

	// Unregister releases a previously registered id.
	Unregister(id uint32) error

	// SetHandler installs the callback invoked with the id of a pressed
	// hotkey.
	SetHandler(fn func(id uint32))

	// ObserveMenuTracking registers callbacks for native menu tracking
	// begin/end notifications.
	ObserveMenuTracking(begin, end func()) (cancel func(), err error)
}

// Provider bundles all platform backends for the current OS.
type Provider struct {
	WindowServer  WindowServer
	Accessibility Accessibility
	Apps          Apps
	StatusItems   StatusItemHost
	Events        EventSource
	Hotkeys       HotkeyBackend
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("menubard is not supported on %s/%s; supported: darwin/amd64, darwin/arm64", runtime.GOOS, runtime.GOARCH)

// ErrNoPermission indicates a missing accessibility or screen recording
// grant. Collaborators surface it to the user once; the engine itself
// degrades to "unknown" results.
var ErrNoPermission = errors.New("insufficient permission")

// ErrNoExtrasMenuBar indicates an application without an extras menu bar
// accessibility element.
var ErrNoExtrasMenuBar = errors.New("application has no extras menu bar element")

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/darwin/init.go for the macOS registration.
var NewProviderFunc func() (*Provider, error)

// RequestPermissionsFunc is set by platform-specific packages via init().
// It triggers OS permission prompts (accessibility, screen recording).
var RequestPermissionsFunc func()

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
