//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#include <AppKit/AppKit.h>

// Forward declaration for the Go-exported callback in exports.go.
void menubardInputEvent(int kind, double x, double y, unsigned long long flags);

enum {
    EV_MOUSE_MOVED = 0,
    EV_LEFT_DOWN = 1,
    EV_LEFT_UP = 2,
    EV_LEFT_DRAGGED = 3,
    EV_RIGHT_DOWN = 4,
};

static id globalMonitor = nil;
static id localMonitor = nil;

static int ev_kind_for(NSEventType type) {
    switch (type) {
    case NSEventTypeMouseMoved:        return EV_MOUSE_MOVED;
    case NSEventTypeLeftMouseDown:     return EV_LEFT_DOWN;
    case NSEventTypeLeftMouseUp:       return EV_LEFT_UP;
    case NSEventTypeLeftMouseDragged:  return EV_LEFT_DRAGGED;
    case NSEventTypeRightMouseDown:    return EV_RIGHT_DOWN;
    default:                           return -1;
    }
}

// Screen coordinates arrive bottom-left; every consumer works in the window
// server's top-left space, so flip against the main screen here.
static double ev_flip_y(double y) {
    NSScreen *screen = [NSScreen screens].firstObject;
    if (screen == nil) return y;
    return NSMaxY(screen.frame) - y;
}

static void ev_forward(NSEvent *event) {
    int kind = ev_kind_for(event.type);
    if (kind < 0) return;
    NSPoint loc = [NSEvent mouseLocation];
    menubardInputEvent(kind, loc.x, ev_flip_y(loc.y), (unsigned long long)event.modifierFlags);
}

// ev_start installs one global/local monitor pair covering every mouse
// event the orchestrator cares about. Fan-out per registration happens on
// the Go side.
static int ev_start(void) {
    __block int ok = 0;
    void (^install)(void) = ^{
        if (globalMonitor != nil) {
            ok = 1;
            return;
        }
        NSEventMask mask = NSEventMaskMouseMoved | NSEventMaskLeftMouseDown |
            NSEventMaskLeftMouseUp | NSEventMaskLeftMouseDragged | NSEventMaskRightMouseDown;
        globalMonitor = [NSEvent addGlobalMonitorForEventsMatchingMask:mask
                                                               handler:^(NSEvent *event) {
            ev_forward(event);
        }];
        localMonitor = [NSEvent addLocalMonitorForEventsMatchingMask:mask
                                                             handler:^NSEvent *(NSEvent *event) {
            ev_forward(event);
            return event;
        }];
        ok = (globalMonitor != nil);
    };
    if ([NSThread isMainThread]) {
        install();
    } else {
        dispatch_sync(dispatch_get_main_queue(), install);
    }
    return ok;
}

static void ev_mouse_location(double *outX, double *outY) {
    NSPoint loc = [NSEvent mouseLocation];
    *outX = loc.x;
    *outY = ev_flip_y(loc.y);
}
*/
import "C"
import (
	"fmt"
	"sync"

	"menubard/internal/model"
	"menubard/internal/platform"
)

// eventSource implements platform.EventSource over NSEvent monitors. One
// shared global/local monitor pair feeds every registration.
type eventSource struct {
	mu       sync.Mutex
	monitors map[int]*eventMonitor
	nextID   int
}

type eventMonitor struct {
	kinds map[platform.EventKind]bool
	fn    func(platform.Event)
}

func newEventSource() *eventSource {
	s := &eventSource{monitors: make(map[int]*eventMonitor)}
	registerEventSource(s)
	return s
}

func (s *eventSource) AddMonitor(kinds []platform.EventKind, fn func(platform.Event)) (func(), error) {
	if C.ev_start() == 0 {
		return nil, fmt.Errorf("event monitor install failed")
	}
	m := &eventMonitor{kinds: make(map[platform.EventKind]bool), fn: fn}
	for _, k := range kinds {
		m.kinds[k] = true
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.monitors[id] = m
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.monitors, id)
		s.mu.Unlock()
	}, nil
}

func (s *eventSource) MouseLocation() (model.Point, error) {
	var x, y C.double
	C.ev_mouse_location(&x, &y)
	return model.Point{X: float64(x), Y: float64(y)}, nil
}

// deliver fans one raw event out to every monitor registered for its kind.
func (s *eventSource) deliver(ev platform.Event) {
	s.mu.Lock()
	fns := make([]func(platform.Event), 0, len(s.monitors))
	for _, m := range s.monitors {
		if m.kinds[ev.Kind] {
			fns = append(fns, m.fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// NSEventModifierFlags bit positions.
const (
	nsFlagShift   = 1 << 17
	nsFlagControl = 1 << 18
	nsFlagOption  = 1 << 19
	nsFlagCommand = 1 << 20
)

func modifiersFromFlags(flags uint64) platform.Modifiers {
	var mods platform.Modifiers
	if flags&nsFlagCommand != 0 {
		mods |= platform.ModCommand
	}
	if flags&nsFlagOption != 0 {
		mods |= platform.ModOption
	}
	if flags&nsFlagShift != 0 {
		mods |= platform.ModShift
	}
	if flags&nsFlagControl != 0 {
		mods |= platform.ModControl
	}
	return mods
}
