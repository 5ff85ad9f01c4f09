// Package bridge is a thin, stateless façade over the window server. Every
// query is best-effort: on failure it logs and returns an empty result, and
// callers treat absence as "currently unknowable" rather than as an error.
package bridge

import (
	"log/slog"
	"slices"

	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/platform"
)

// ListOptions compose the window list filters.
type ListOptions struct {
	// OnScreenOnly restricts the list to windows currently on screen.
	OnScreenOnly bool

	// ActiveSpaceOnly restricts the list to windows on the active space.
	ActiveSpaceOnly bool

	// ItemsOnly excludes the system's own menu bar backing window,
	// leaving only status item windows.
	ItemsOnly bool
}

// Bridge wraps a platform.WindowServer with filtering and the best-effort
// failure policy.
type Bridge struct {
	ws  platform.WindowServer
	log *slog.Logger
}

// New returns a Bridge over the given window server client.
func New(ws platform.WindowServer) *Bridge {
	return &Bridge{ws: ws, log: logging.ForComponent(logging.CompBridge)}
}

// WindowList returns window IDs matching the options, front to back.
func (b *Bridge) WindowList(opts ListOptions) []model.WindowID {
	var (
		ids []model.WindowID
		err error
	)
	if opts.OnScreenOnly {
		ids, err = b.ws.OnScreenWindowList()
	} else {
		ids, err = b.ws.WindowList()
	}
	if err != nil {
		b.log.Warn("window list query failed", "error", err)
		return nil
	}
	if opts.ActiveSpaceOnly {
		ids = b.filterActiveSpace(ids)
	}
	return ids
}

// MenuBarItemWindows returns snapshots of menu-bar-level windows matching
// the options, front to back.
func (b *Bridge) MenuBarItemWindows(opts ListOptions) []model.WindowInfo {
	ids, err := b.ws.MenuBarWindowList()
	if err != nil {
		b.log.Warn("menu bar window list query failed", "error", err)
		return nil
	}
	if opts.ActiveSpaceOnly {
		ids = b.filterActiveSpace(ids)
	}
	infos := make([]model.WindowInfo, 0, len(ids))
	for _, id := range ids {
		info, err := b.ws.WindowInfo(id)
		if err != nil {
			b.log.Debug("window info query failed", "window", id, "error", err)
			continue
		}
		if opts.OnScreenOnly && !info.OnScreen {
			continue
		}
		if opts.ItemsOnly && isMenuBarBacking(info) {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// isMenuBarBacking identifies the system's menu bar backing window, which
// sits at menu bar level but is not a status item.
func isMenuBarBacking(info model.WindowInfo) bool {
	return info.Title == "Menubar" || info.OwnerName == "Window Server"
}

// WindowInfo returns the snapshot for one window, or false on failure.
func (b *Bridge) WindowInfo(id model.WindowID) (model.WindowInfo, bool) {
	info, err := b.ws.WindowInfo(id)
	if err != nil {
		b.log.Debug("window info query failed", "window", id, "error", err)
		return model.WindowInfo{}, false
	}
	return info, true
}

// WindowFrame returns the current bounds of one window, or false on failure.
func (b *Bridge) WindowFrame(id model.WindowID) (model.Rect, bool) {
	frame, err := b.ws.WindowFrame(id)
	if err != nil {
		b.log.Debug("window frame query failed", "window", id, "error", err)
		return model.Rect{}, false
	}
	return frame, true
}

// MenuBarFrame returns the menu bar frame, or false on failure.
func (b *Bridge) MenuBarFrame() (model.Rect, bool) {
	frame, err := b.ws.MenuBarFrame()
	if err != nil {
		b.log.Warn("menu bar frame query failed", "error", err)
		return model.Rect{}, false
	}
	return frame, true
}

// MainMenuMaxX returns the trailing edge of the frontmost app's main menu
// content, or false on failure.
func (b *Bridge) MainMenuMaxX() (float64, bool) {
	x, err := b.ws.MainMenuMaxX()
	if err != nil {
		b.log.Debug("main menu query failed", "error", err)
		return 0, false
	}
	return x, true
}

// ActiveSpaceIsFullscreen reports whether the active space hosts a
// fullscreen application. Unknown reads as false.
func (b *Bridge) ActiveSpaceIsFullscreen() bool {
	space, err := b.ws.ActiveSpaceID()
	if err != nil {
		b.log.Debug("active space query failed", "error", err)
		return false
	}
	full, err := b.ws.SpaceIsFullscreen(space)
	if err != nil {
		b.log.Debug("space fullscreen query failed", "space", space, "error", err)
		return false
	}
	return full
}

// TopmostWindowAt returns the frontmost on-screen window containing the
// point, or false if none could be determined.
func (b *Bridge) TopmostWindowAt(p model.Point) (model.WindowInfo, bool) {
	ids, err := b.ws.OnScreenWindowList()
	if err != nil {
		b.log.Debug("on-screen window list query failed", "error", err)
		return model.WindowInfo{}, false
	}
	for _, id := range ids {
		info, err := b.ws.WindowInfo(id)
		if err != nil {
			continue
		}
		if info.Frame.Contains(p) {
			return info, true
		}
	}
	return model.WindowInfo{}, false
}

func (b *Bridge) filterActiveSpace(ids []model.WindowID) []model.WindowID {
	active, err := b.ws.ActiveSpaceID()
	if err != nil {
		b.log.Debug("active space query failed", "error", err)
		return ids
	}
	filtered := ids[:0:0]
	for _, id := range ids {
		spaces, err := b.ws.SpacesForWindow(id)
		if err != nil {
			b.log.Debug("space membership query failed", "window", id, "error", err)
			continue
		}
		if slices.Contains(spaces, active) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
