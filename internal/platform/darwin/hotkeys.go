//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Carbon -framework AppKit -framework Foundation
#include <Carbon/Carbon.h>
#include <AppKit/AppKit.h>

// Forward declarations for the Go-exported callbacks in exports.go.
void menubardHotkeyPressed(uint32_t id);
void menubardMenuTracking(int began);

#define HK_MAX 64

typedef struct {
    uint32_t id;
    EventHotKeyRef ref;
} hk_entry;

static hk_entry hotkeyTable[HK_MAX];
static int hotkeyHandlerInstalled = 0;

static OSStatus hk_event_handler(EventHandlerCallRef next, EventRef event, void *data) {
    EventHotKeyID hkID;
    if (GetEventParameter(event, kEventParamDirectObject, typeEventHotKeyID, NULL,
                          sizeof(hkID), NULL, &hkID) == noErr) {
        menubardHotkeyPressed(hkID.id);
    }
    return noErr;
}

static int hk_install_handler(void) {
    if (hotkeyHandlerInstalled) return 0;
    EventTypeSpec spec = { .eventClass = kEventClassKeyboard, .eventKind = kEventHotKeyPressed };
    if (InstallApplicationEventHandler(&hk_event_handler, 1, &spec, NULL, NULL) != noErr) {
        return -1;
    }
    hotkeyHandlerInstalled = 1;
    return 0;
}

static int hk_register(uint32_t id, uint32_t keyCode, uint32_t carbonMods) {
    if (hk_install_handler() != 0) return -1;
    int slot = -1;
    for (int i = 0; i < HK_MAX; i++) {
        if (hotkeyTable[i].ref == NULL && slot < 0) slot = i;
        if (hotkeyTable[i].ref != NULL && hotkeyTable[i].id == id) return -1;
    }
    if (slot < 0) return -1;

    EventHotKeyID hkID = { .signature = 'mbar', .id = id };
    EventHotKeyRef ref = NULL;
    if (RegisterEventHotKey(keyCode, carbonMods, hkID, GetApplicationEventTarget(), 0, &ref) != noErr) {
        return -1;
    }
    hotkeyTable[slot].id = id;
    hotkeyTable[slot].ref = ref;
    return 0;
}

static int hk_unregister(uint32_t id) {
    for (int i = 0; i < HK_MAX; i++) {
        if (hotkeyTable[i].ref != NULL && hotkeyTable[i].id == id) {
            UnregisterEventHotKey(hotkeyTable[i].ref);
            hotkeyTable[i].ref = NULL;
            return 0;
        }
    }
    return -1;
}

@interface MenubardMenuTrackingObserver : NSObject
- (void)menuBeganTracking:(NSNotification *)note;
- (void)menuEndedTracking:(NSNotification *)note;
@end

@implementation MenubardMenuTrackingObserver
- (void)menuBeganTracking:(NSNotification *)note {
    menubardMenuTracking(1);
}
- (void)menuEndedTracking:(NSNotification *)note {
    menubardMenuTracking(0);
}
@end

static MenubardMenuTrackingObserver *trackingObserver = nil;

static void hk_observe_menu_tracking(void) {
    @autoreleasepool {
        if (trackingObserver != nil) return;
        trackingObserver = [[MenubardMenuTrackingObserver alloc] init];
        NSNotificationCenter *center = [NSNotificationCenter defaultCenter];
        [center addObserver:trackingObserver
                   selector:@selector(menuBeganTracking:)
                       name:NSMenuDidBeginTrackingNotification
                     object:nil];
        [center addObserver:trackingObserver
                   selector:@selector(menuEndedTracking:)
                       name:NSMenuDidEndTrackingNotification
                     object:nil];
    }
}
*/
import "C"
import (
	"fmt"
	"sync"

	"menubard/internal/platform"
)

// Carbon modifier masks for RegisterEventHotKey.
const (
	carbonCmdKey     = 1 << 8
	carbonShiftKey   = 1 << 9
	carbonOptionKey  = 1 << 11
	carbonControlKey = 1 << 12
)

// hotkeys implements platform.HotkeyBackend over the Carbon hotkey API,
// still the only system-wide registration path that needs no event tap.
type hotkeys struct {
	mu       sync.Mutex
	handler  func(id uint32)
	tracking struct {
		begin func()
		end   func()
	}
}

func newHotkeys() *hotkeys {
	h := &hotkeys{}
	registerHotkeyBackend(h)
	return h
}

func (h *hotkeys) Register(id uint32, keyCode uint32, modifiers uint32) error {
	if C.hk_register(C.uint32_t(id), C.uint32_t(keyCode), C.uint32_t(carbonModifiers(modifiers))) != 0 {
		return fmt.Errorf("hotkey %d: registration rejected", id)
	}
	return nil
}

func (h *hotkeys) Unregister(id uint32) error {
	if C.hk_unregister(C.uint32_t(id)) != 0 {
		return fmt.Errorf("hotkey %d: not registered", id)
	}
	return nil
}

func (h *hotkeys) SetHandler(fn func(id uint32)) {
	h.mu.Lock()
	h.handler = fn
	h.mu.Unlock()
}

func (h *hotkeys) ObserveMenuTracking(begin, end func()) (func(), error) {
	h.mu.Lock()
	h.tracking.begin = begin
	h.tracking.end = end
	h.mu.Unlock()
	C.hk_observe_menu_tracking()
	return func() {
		h.mu.Lock()
		h.tracking.begin = nil
		h.tracking.end = nil
		h.mu.Unlock()
	}, nil
}

func (h *hotkeys) pressed(id uint32) {
	h.mu.Lock()
	fn := h.handler
	h.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func (h *hotkeys) menuTracking(began bool) {
	h.mu.Lock()
	var fn func()
	if began {
		fn = h.tracking.begin
	} else {
		fn = h.tracking.end
	}
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func carbonModifiers(mods uint32) uint32 {
	var out uint32
	m := platform.Modifiers(mods)
	if m&platform.ModCommand != 0 {
		out |= carbonCmdKey
	}
	if m&platform.ModShift != 0 {
		out |= carbonShiftKey
	}
	if m&platform.ModOption != 0 {
		out |= carbonOptionKey
	}
	if m&platform.ModControl != 0 {
		out |= carbonControlKey
	}
	return out
}
