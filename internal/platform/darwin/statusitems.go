//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#include <AppKit/AppKit.h>
#include <stdlib.h>

// Forward declarations for the Go-exported callbacks in exports.go.
void menubardStatusItemClicked(char *autosave);
void menubardMenuEntryClicked(int index);

// AppKit is main-thread-only. Every entry point below funnels through here.
static void si_on_main(void (^block)(void)) {
    if ([NSThread isMainThread]) {
        block();
    } else {
        dispatch_sync(dispatch_get_main_queue(), block);
    }
}

@interface MenubardStatusItemTarget : NSObject
@property (nonatomic, copy) NSString *autosave;
- (void)clicked:(id)sender;
- (void)menuEntryClicked:(NSMenuItem *)sender;
@end

@implementation MenubardStatusItemTarget
- (void)clicked:(id)sender {
    menubardStatusItemClicked((char *)[self.autosave UTF8String]);
}
- (void)menuEntryClicked:(NSMenuItem *)sender {
    menubardMenuEntryClicked((int)sender.tag);
}
@end

static NSMutableDictionary<NSString *, NSStatusItem *> *statusItems = nil;
static NSMutableDictionary<NSString *, MenubardStatusItemTarget *> *statusTargets = nil;
static MenubardStatusItemTarget *menuTarget = nil;

static NSStatusItem *si_lookup(const char *autosave) {
    if (statusItems == nil) return nil;
    return statusItems[[NSString stringWithUTF8String:autosave]];
}

static int si_ensure(const char *autosave) {
    __block int ok = 0;
    si_on_main(^{
        @autoreleasepool {
            if (statusItems == nil) {
                statusItems = [NSMutableDictionary dictionary];
                statusTargets = [NSMutableDictionary dictionary];
            }
            NSString *key = [NSString stringWithUTF8String:autosave];
            if (statusItems[key] != nil) {
                ok = 1;
                return;
            }
            NSStatusItem *item = [[NSStatusBar systemStatusBar] statusItemWithLength:NSVariableStatusItemLength];
            if (item == nil) return;
            item.autosaveName = key;
            item.button.imagePosition = NSImageOnly;

            MenubardStatusItemTarget *target = [[MenubardStatusItemTarget alloc] init];
            target.autosave = key;
            item.button.target = target;
            item.button.action = @selector(clicked:);
            [item.button sendActionOn:NSEventMaskLeftMouseDown];

            statusItems[key] = item;
            statusTargets[key] = target;
            ok = 1;
        }
    });
    return ok;
}

static int si_set_length(const char *autosave, double length) {
    __block int ok = 0;
    si_on_main(^{
        NSStatusItem *item = si_lookup(autosave);
        if (item == nil) return;
        item.length = length;
        ok = 1;
    });
    return ok;
}

static int si_set_visible(const char *autosave, int visible) {
    __block int ok = 0;
    si_on_main(^{
        NSStatusItem *item = si_lookup(autosave);
        if (item == nil) return;
        item.visible = visible ? YES : NO;
        ok = 1;
    });
    return ok;
}

static int si_set_icon(const char *autosave, const char *symbolName) {
    __block int ok = 0;
    si_on_main(^{
        @autoreleasepool {
            NSStatusItem *item = si_lookup(autosave);
            if (item == nil) return;
            if (symbolName == NULL || symbolName[0] == '\0') {
                item.button.image = nil;
                ok = 1;
                return;
            }
            NSImage *image = [NSImage imageWithSystemSymbolName:[NSString stringWithUTF8String:symbolName]
                                       accessibilityDescription:nil];
            image.template = YES;
            item.button.image = image;
            ok = 1;
        }
    });
    return ok;
}

static int si_set_interaction_enabled(const char *autosave, int enabled) {
    __block int ok = 0;
    si_on_main(^{
        NSStatusItem *item = si_lookup(autosave);
        if (item == nil) return;
        item.button.enabled = enabled ? YES : NO;
        (void)[item.button.cell setHighlighted:NO];
        ok = 1;
    });
    return ok;
}

// si_position reports the distance from the item's leading edge to the
// trailing edge of its screen, the ordering key the engine sorts controls by.
static int si_position(const char *autosave, double *outPosition) {
    __block int ok = 0;
    __block double position = 0;
    si_on_main(^{
        NSStatusItem *item = si_lookup(autosave);
        NSWindow *window = item.button.window;
        if (window == nil || window.screen == nil) return;
        position = NSMaxX(window.screen.frame) - window.frame.origin.x;
        ok = 1;
    });
    *outPosition = position;
    return ok;
}

static int si_window_id(const char *autosave, uint32_t *outWindowID) {
    __block int ok = 0;
    __block uint32_t wid = 0;
    si_on_main(^{
        NSStatusItem *item = si_lookup(autosave);
        NSWindow *window = item.button.window;
        if (window == nil) return;
        wid = (uint32_t)window.windowNumber;
        ok = 1;
    });
    *outWindowID = wid;
    return ok;
}

// si_show_menu pops up a menu at the pointer. Entry selection arrives via
// menubardMenuEntryClicked with the entry's index.
static int si_show_menu(char **titles, int count) {
    __block int ok = 0;
    si_on_main(^{
        @autoreleasepool {
            if (menuTarget == nil) {
                menuTarget = [[MenubardStatusItemTarget alloc] init];
            }
            NSMenu *menu = [[NSMenu alloc] init];
            for (int i = 0; i < count; i++) {
                if (titles[i][0] == '\0') {
                    [menu addItem:[NSMenuItem separatorItem]];
                    continue;
                }
                NSMenuItem *entry = [[NSMenuItem alloc] initWithTitle:[NSString stringWithUTF8String:titles[i]]
                                                               action:@selector(menuEntryClicked:)
                                                        keyEquivalent:@""];
                entry.tag = i;
                entry.target = menuTarget;
                [menu addItem:entry];
            }
            [menu popUpMenuPositioningItem:nil atLocation:[NSEvent mouseLocation] inView:nil];
            ok = 1;
        }
    });
    return ok;
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"

	"menubard/internal/model"
	"menubard/internal/platform"
)

// statusItems implements platform.StatusItemHost over NSStatusBar. Items are
// keyed by autosave name, the key under which AppKit persists their
// positions across launches.
type statusItems struct {
	mu      sync.Mutex
	onClick map[string]func()
	menu    []platform.MenuEntry
}

func newStatusItems() *statusItems {
	s := &statusItems{onClick: make(map[string]func())}
	registerStatusItemHost(s)
	return s
}

func (s *statusItems) EnsureItem(autosave string) error {
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	if C.si_ensure(cName) == 0 {
		return fmt.Errorf("status item %q: create failed", autosave)
	}
	return nil
}

func (s *statusItems) SetLength(autosave string, length float64) error {
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	if C.si_set_length(cName, C.double(length)) == 0 {
		return fmt.Errorf("status item %q: not created", autosave)
	}
	return nil
}

func (s *statusItems) SetVisible(autosave string, visible bool) error {
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	if C.si_set_visible(cName, cBool(visible)) == 0 {
		return fmt.Errorf("status item %q: not created", autosave)
	}
	return nil
}

func (s *statusItems) SetIcon(autosave string, icon platform.Icon) error {
	var symbol string
	switch icon {
	case platform.IconChevronLarge:
		symbol = "chevron.left"
	case platform.IconChevronSmall:
		symbol = "chevron.left.2"
	case platform.IconDot:
		symbol = "circle.fill"
	}
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	cSymbol := C.CString(symbol)
	defer C.free(unsafe.Pointer(cSymbol))
	if C.si_set_icon(cName, cSymbol) == 0 {
		return fmt.Errorf("status item %q: not created", autosave)
	}
	return nil
}

func (s *statusItems) SetInteractionEnabled(autosave string, enabled bool) error {
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	if C.si_set_interaction_enabled(cName, cBool(enabled)) == 0 {
		return fmt.Errorf("status item %q: not created", autosave)
	}
	return nil
}

func (s *statusItems) SetOnClick(autosave string, fn func()) error {
	s.mu.Lock()
	s.onClick[autosave] = fn
	s.mu.Unlock()
	return nil
}

func (s *statusItems) Position(autosave string) (float64, bool) {
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	var position C.double
	if C.si_position(cName, &position) == 0 {
		return 0, false
	}
	return float64(position), true
}

func (s *statusItems) WindowID(autosave string) (model.WindowID, bool) {
	cName := C.CString(autosave)
	defer C.free(unsafe.Pointer(cName))
	var wid C.uint32_t
	if C.si_window_id(cName, &wid) == 0 {
		return 0, false
	}
	return model.WindowID(wid), true
}

func (s *statusItems) ShowMenu(entries []platform.MenuEntry) error {
	s.mu.Lock()
	s.menu = append([]platform.MenuEntry(nil), entries...)
	s.mu.Unlock()

	cTitles := make([]*C.char, len(entries))
	for i, e := range entries {
		cTitles[i] = C.CString(e.Title)
	}
	defer func() {
		for _, t := range cTitles {
			C.free(unsafe.Pointer(t))
		}
	}()
	var titlesPtr **C.char
	if len(cTitles) > 0 {
		titlesPtr = &cTitles[0]
	}
	if C.si_show_menu(titlesPtr, C.int(len(cTitles))) == 0 {
		return fmt.Errorf("menu popup failed")
	}
	return nil
}

// clicked routes a button action back to the registered handler.
func (s *statusItems) clicked(autosave string) {
	s.mu.Lock()
	fn := s.onClick[autosave]
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// menuEntryClicked routes a context menu selection back to its action.
func (s *statusItems) menuEntryClicked(index int) {
	s.mu.Lock()
	var fn func()
	if index >= 0 && index < len(s.menu) {
		fn = s.menu[index].Action
	}
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
