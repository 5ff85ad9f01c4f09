//go:build darwin && cgo

package darwin

// Callbacks exported to the ObjC side. A cgo file whose preamble defines
// functions cannot also export Go functions, so they all live here, routed
// through package-level registries set when each backend is constructed.

/*
#include <stdint.h>
*/
import "C"
import (
	"sync"

	"menubard/internal/model"
	"menubard/internal/platform"
)

var (
	backendMu          sync.RWMutex
	currentApps        *apps
	currentStatusItems *statusItems
	currentEvents      *eventSource
	currentHotkeys     *hotkeys
)

func registerAppsBackend(a *apps) {
	backendMu.Lock()
	currentApps = a
	backendMu.Unlock()
}

func registerStatusItemHost(s *statusItems) {
	backendMu.Lock()
	currentStatusItems = s
	backendMu.Unlock()
}

func registerEventSource(s *eventSource) {
	backendMu.Lock()
	currentEvents = s
	backendMu.Unlock()
}

func registerHotkeyBackend(h *hotkeys) {
	backendMu.Lock()
	currentHotkeys = h
	backendMu.Unlock()
}

//export menubardAppsChanged
func menubardAppsChanged() {
	backendMu.RLock()
	a := currentApps
	backendMu.RUnlock()
	if a != nil {
		a.notify()
	}
}

//export menubardStatusItemClicked
func menubardStatusItemClicked(autosave *C.char) {
	backendMu.RLock()
	s := currentStatusItems
	backendMu.RUnlock()
	if s != nil {
		s.clicked(C.GoString(autosave))
	}
}

//export menubardMenuEntryClicked
func menubardMenuEntryClicked(index C.int) {
	backendMu.RLock()
	s := currentStatusItems
	backendMu.RUnlock()
	if s != nil {
		s.menuEntryClicked(int(index))
	}
}

//export menubardInputEvent
func menubardInputEvent(kind C.int, x, y C.double, flags C.ulonglong) {
	backendMu.RLock()
	s := currentEvents
	backendMu.RUnlock()
	if s == nil {
		return
	}
	var k platform.EventKind
	switch kind {
	case 0:
		k = platform.MouseMoved
	case 1:
		k = platform.LeftMouseDown
	case 2:
		k = platform.LeftMouseUp
	case 3:
		k = platform.LeftMouseDragged
	case 4:
		k = platform.RightMouseDown
	default:
		return
	}
	s.deliver(platform.Event{
		Kind:      k,
		Location:  model.Point{X: float64(x), Y: float64(y)},
		Modifiers: modifiersFromFlags(uint64(flags)),
	})
}

//export menubardHotkeyPressed
func menubardHotkeyPressed(id C.uint32_t) {
	backendMu.RLock()
	h := currentHotkeys
	backendMu.RUnlock()
	if h != nil {
		h.pressed(uint32(id))
	}
}

//export menubardMenuTracking
func menubardMenuTracking(began C.int) {
	backendMu.RLock()
	h := currentHotkeys
	backendMu.RUnlock()
	if h != nil {
		h.menuTracking(began != 0)
	}
}
