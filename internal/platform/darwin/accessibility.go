//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>
#include <string.h>

static int ax_is_trusted(void) {
    return AXIsProcessTrusted();
}

// ax_extras_menu_bar returns a retained AXUIElementRef for the process's
// extras menu bar, or NULL if the application exposes none. Caller releases.
static AXUIElementRef ax_extras_menu_bar(int pid) {
    AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
    if (app == NULL) return NULL;

    CFTypeRef extras = NULL;
    AXError err = AXUIElementCopyAttributeValue(app, kAXExtrasMenuBarAttribute, &extras);
    CFRelease(app);
    if (err != kAXErrorSuccess || extras == NULL) {
        return NULL;
    }
    return (AXUIElementRef)extras;
}

typedef struct {
    CGRect frame;
    int enabled;
    char *role;
} ax_item;

static char *ax_copy_role(AXUIElementRef el) {
    CFTypeRef role = NULL;
    if (AXUIElementCopyAttributeValue(el, kAXRoleAttribute, &role) != kAXErrorSuccess || role == NULL) {
        return NULL;
    }
    CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(role), kCFStringEncodingUTF8) + 1;
    char *buf = malloc(max);
    if (buf != NULL && !CFStringGetCString(role, buf, max, kCFStringEncodingUTF8)) {
        free(buf);
        buf = NULL;
    }
    CFRelease(role);
    return buf;
}

// ax_menu_bar_items queries the element's direct children. Returns a
// malloc'd array; caller passes it to ax_free_items.
static int ax_menu_bar_items(AXUIElementRef menuBar, ax_item **outItems, int *outCount) {
    CFTypeRef children = NULL;
    if (AXUIElementCopyAttributeValue(menuBar, kAXChildrenAttribute, &children) != kAXErrorSuccess) {
        return -1;
    }
    CFIndex count = CFArrayGetCount((CFArrayRef)children);
    if (count == 0) {
        CFRelease(children);
        *outItems = NULL;
        *outCount = 0;
        return 0;
    }
    ax_item *items = calloc(count, sizeof(ax_item));
    if (items == NULL) {
        CFRelease(children);
        return -1;
    }
    for (CFIndex i = 0; i < count; i++) {
        AXUIElementRef el = (AXUIElementRef)CFArrayGetValueAtIndex((CFArrayRef)children, i);

        CFTypeRef posValue = NULL, sizeValue = NULL;
        CGPoint pos = CGPointZero;
        CGSize size = CGSizeZero;
        if (AXUIElementCopyAttributeValue(el, kAXPositionAttribute, &posValue) == kAXErrorSuccess) {
            AXValueGetValue(posValue, kAXValueTypeCGPoint, &pos);
            CFRelease(posValue);
        }
        if (AXUIElementCopyAttributeValue(el, kAXSizeAttribute, &sizeValue) == kAXErrorSuccess) {
            AXValueGetValue(sizeValue, kAXValueTypeCGSize, &size);
            CFRelease(sizeValue);
        }
        items[i].frame = CGRectMake(pos.x, pos.y, size.width, size.height);

        CFTypeRef enabled = NULL;
        items[i].enabled = 1;
        if (AXUIElementCopyAttributeValue(el, kAXEnabledAttribute, &enabled) == kAXErrorSuccess && enabled != NULL) {
            items[i].enabled = CFBooleanGetValue((CFBooleanRef)enabled) ? 1 : 0;
            CFRelease(enabled);
        }
        items[i].role = ax_copy_role(el);
    }
    CFRelease(children);
    *outItems = items;
    *outCount = (int)count;
    return 0;
}

static void ax_free_items(ax_item *items, int count) {
    if (items == NULL) return;
    for (int i = 0; i < count; i++) {
        free(items[i].role);
    }
    free(items);
}

static void ax_release(AXUIElementRef el) {
    if (el != NULL) CFRelease(el);
}
*/
import "C"
import (
	"fmt"
	"runtime"
	"unsafe"

	"menubard/internal/model"
	"menubard/internal/platform"
)

// accessibility implements platform.Accessibility over the AX API.
type accessibility struct{}

func newAccessibility() *accessibility {
	return &accessibility{}
}

func (a *accessibility) Trusted() bool {
	return C.ax_is_trusted() != 0
}

func (a *accessibility) ExtrasMenuBar(pid int) (platform.MenuBarHandle, error) {
	if !a.Trusted() {
		return nil, platform.ErrNoPermission
	}
	ref := C.ax_extras_menu_bar(C.int(pid))
	if ref == nil {
		return nil, platform.ErrNoExtrasMenuBar
	}
	h := &menuBarHandle{ref: ref}
	runtime.SetFinalizer(h, (*menuBarHandle).release)
	return h, nil
}

// menuBarHandle retains one application's extras menu bar element for the
// life of the application.
type menuBarHandle struct {
	ref C.AXUIElementRef
}

func (h *menuBarHandle) Items() ([]model.AXElement, error) {
	var cItems *C.ax_item
	var cCount C.int
	if C.ax_menu_bar_items(h.ref, &cItems, &cCount) != 0 {
		return nil, fmt.Errorf("menu bar children query failed")
	}
	defer C.ax_free_items(cItems, cCount)
	if cItems == nil {
		return nil, nil
	}

	raw := unsafe.Slice(cItems, int(cCount))
	items := make([]model.AXElement, len(raw))
	for i, it := range raw {
		items[i] = model.AXElement{
			Frame:   rectFromCG(it.frame),
			Enabled: it.enabled != 0,
		}
		if it.role != nil {
			items[i].Role = C.GoString(it.role)
		}
	}
	return items, nil
}

func (h *menuBarHandle) release() {
	C.ax_release(h.ref)
	h.ref = nil
}
