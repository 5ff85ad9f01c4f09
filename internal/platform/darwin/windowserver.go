//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices
#include <AppKit/AppKit.h>
#include <CoreGraphics/CoreGraphics.h>
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>
#include <string.h>

// Private window server (SkyLight) interface. These calls have been stable
// across macOS releases; the public CGWindowList API cannot enumerate
// menu-bar-level windows across spaces.
typedef int CGSConnectionID;
typedef uint64_t CGSSpaceID;
typedef uint32_t CGSSpaceMask;

extern CGSConnectionID CGSMainConnectionID(void);
extern CGError CGSGetWindowCount(CGSConnectionID cid, CGSConnectionID targetCID, int *outCount);
extern CGError CGSGetWindowList(CGSConnectionID cid, CGSConnectionID targetCID, int count, CGWindowID *list, int *outCount);
extern CGError CGSGetOnScreenWindowCount(CGSConnectionID cid, CGSConnectionID targetCID, int *outCount);
extern CGError CGSGetOnScreenWindowList(CGSConnectionID cid, CGSConnectionID targetCID, int count, CGWindowID *list, int *outCount);
extern CGError CGSGetProcessMenuBarWindowList(CGSConnectionID cid, CGSConnectionID targetCID, int count, CGWindowID *list, int *outCount);
extern CGError CGSGetScreenRectForWindow(CGSConnectionID cid, CGWindowID wid, CGRect *outRect);
extern CGSSpaceID CGSGetActiveSpace(CGSConnectionID cid);
extern CFArrayRef CGSCopySpacesForWindows(CGSConnectionID cid, CGSSpaceMask mask, CFArrayRef windowIDs);
extern int CGSSpaceGetType(CGSConnectionID cid, CGSSpaceID space);

// kCGSSpaceIncludesCurrent | kCGSSpaceIncludesOthers | kCGSSpaceIncludesUser
#define WS_ALL_SPACES_MASK 7
// CGSSpaceGetType returns 4 for fullscreen application spaces.
#define WS_SPACE_TYPE_FULLSCREEN 4

typedef enum {
    WS_LIST_ALL = 0,
    WS_LIST_ONSCREEN = 1,
    WS_LIST_MENUBAR = 2,
} ws_list_kind;

// ws_window_list returns a malloc'd CGWindowID array; caller frees.
static int ws_window_list(ws_list_kind kind, CGWindowID **outList, int *outCount) {
    CGSConnectionID cid = CGSMainConnectionID();
    int count = 0;
    if (kind == WS_LIST_ONSCREEN) {
        if (CGSGetOnScreenWindowCount(cid, 0, &count) != kCGErrorSuccess) return -1;
    } else {
        if (CGSGetWindowCount(cid, 0, &count) != kCGErrorSuccess) return -1;
    }
    if (count <= 0) {
        *outList = NULL;
        *outCount = 0;
        return 0;
    }
    CGWindowID *list = malloc(sizeof(CGWindowID) * count);
    if (list == NULL) return -1;
    int actual = 0;
    CGError err;
    switch (kind) {
    case WS_LIST_ONSCREEN:
        err = CGSGetOnScreenWindowList(cid, 0, count, list, &actual);
        break;
    case WS_LIST_MENUBAR:
        err = CGSGetProcessMenuBarWindowList(cid, 0, count, list, &actual);
        break;
    default:
        err = CGSGetWindowList(cid, 0, count, list, &actual);
        break;
    }
    if (err != kCGErrorSuccess) {
        free(list);
        return -1;
    }
    *outList = list;
    *outCount = actual;
    return 0;
}

static int ws_window_frame(CGWindowID wid, CGRect *outRect) {
    if (CGSGetScreenRectForWindow(CGSMainConnectionID(), wid, outRect) != kCGErrorSuccess) {
        return -1;
    }
    return 0;
}

typedef struct {
    CGRect frame;
    int layer;
    int ownerPID;
    char *ownerName;
    char *title;
    int onScreen;
} ws_window_info;

static char *ws_copy_string(CFStringRef s) {
    if (s == NULL) return NULL;
    CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
    char *buf = malloc(max);
    if (buf == NULL) return NULL;
    if (!CFStringGetCString(s, buf, max, kCFStringEncodingUTF8)) {
        free(buf);
        return NULL;
    }
    return buf;
}

static int ws_copy_window_info(CGWindowID wid, ws_window_info *out) {
    CFArrayRef arr = CGWindowListCopyWindowInfo(kCGWindowListOptionIncludingWindow, wid);
    if (arr == NULL || CFArrayGetCount(arr) == 0) {
        if (arr != NULL) CFRelease(arr);
        return -1;
    }
    CFDictionaryRef dict = CFArrayGetValueAtIndex(arr, 0);
    memset(out, 0, sizeof(*out));

    CFDictionaryRef boundsDict = CFDictionaryGetValue(dict, kCGWindowBounds);
    if (boundsDict != NULL) {
        CGRectMakeWithDictionaryRepresentation(boundsDict, &out->frame);
    }
    CFNumberRef layer = CFDictionaryGetValue(dict, kCGWindowLayer);
    if (layer != NULL) CFNumberGetValue(layer, kCFNumberIntType, &out->layer);
    CFNumberRef pid = CFDictionaryGetValue(dict, kCGWindowOwnerPID);
    if (pid != NULL) CFNumberGetValue(pid, kCFNumberIntType, &out->ownerPID);
    out->ownerName = ws_copy_string(CFDictionaryGetValue(dict, kCGWindowOwnerName));
    out->title = ws_copy_string(CFDictionaryGetValue(dict, kCGWindowName));
    CFBooleanRef onScreen = CFDictionaryGetValue(dict, kCGWindowIsOnscreen);
    out->onScreen = (onScreen != NULL && CFBooleanGetValue(onScreen)) ? 1 : 0;

    CFRelease(arr);
    return 0;
}

static uint64_t ws_active_space(void) {
    return CGSGetActiveSpace(CGSMainConnectionID());
}

// ws_spaces_for_window returns a malloc'd space-ID array; caller frees.
static int ws_spaces_for_window(CGWindowID wid, uint64_t **outSpaces, int *outCount) {
    CFNumberRef num = CFNumberCreate(NULL, kCFNumberSInt32Type, &wid);
    CFArrayRef wids = CFArrayCreate(NULL, (const void **)&num, 1, &kCFTypeArrayCallBacks);
    CFRelease(num);
    CFArrayRef spaces = CGSCopySpacesForWindows(CGSMainConnectionID(), WS_ALL_SPACES_MASK, wids);
    CFRelease(wids);
    if (spaces == NULL) return -1;

    CFIndex count = CFArrayGetCount(spaces);
    uint64_t *list = NULL;
    if (count > 0) {
        list = malloc(sizeof(uint64_t) * count);
        if (list == NULL) {
            CFRelease(spaces);
            return -1;
        }
        for (CFIndex i = 0; i < count; i++) {
            CFNumberRef sid = CFArrayGetValueAtIndex(spaces, i);
            CFNumberGetValue(sid, kCFNumberSInt64Type, &list[i]);
        }
    }
    CFRelease(spaces);
    *outSpaces = list;
    *outCount = (int)count;
    return 0;
}

static int ws_space_is_fullscreen(uint64_t space) {
    return CGSSpaceGetType(CGSMainConnectionID(), (CGSSpaceID)space) == WS_SPACE_TYPE_FULLSCREEN;
}

// ws_menu_bar_frame reports the main screen's menu bar in top-left
// coordinates, the coordinate space of every other rect in this file.
static CGRect ws_menu_bar_frame(void) {
    @autoreleasepool {
        NSScreen *screen = [NSScreen screens].firstObject;
        if (screen == nil) {
            return CGRectZero;
        }
        CGFloat height = NSMaxY(screen.frame) - NSMaxY(screen.visibleFrame);
        if (height <= 0) {
            height = [NSStatusBar systemStatusBar].thickness;
        }
        return CGRectMake(0, 0, screen.frame.size.width, height);
    }
}

// ws_main_menu_max_x walks the frontmost application's menu bar via the
// accessibility API and reports the trailing edge of its last menu title.
static double ws_main_menu_max_x(void) {
    @autoreleasepool {
        NSRunningApplication *front = [NSWorkspace sharedWorkspace].frontmostApplication;
        if (front == nil) return -1;

        AXUIElementRef app = AXUIElementCreateApplication(front.processIdentifier);
        if (app == NULL) return -1;

        double maxX = -1;
        CFTypeRef menuBar = NULL;
        if (AXUIElementCopyAttributeValue(app, kAXMenuBarAttribute, &menuBar) == kAXErrorSuccess) {
            CFTypeRef children = NULL;
            if (AXUIElementCopyAttributeValue(menuBar, kAXChildrenAttribute, &children) == kAXErrorSuccess) {
                CFIndex count = CFArrayGetCount(children);
                if (count > 0) {
                    AXUIElementRef last = (AXUIElementRef)CFArrayGetValueAtIndex(children, count - 1);
                    CFTypeRef posValue = NULL, sizeValue = NULL;
                    CGPoint pos = CGPointZero;
                    CGSize size = CGSizeZero;
                    if (AXUIElementCopyAttributeValue(last, kAXPositionAttribute, &posValue) == kAXErrorSuccess &&
                        AXUIElementCopyAttributeValue(last, kAXSizeAttribute, &sizeValue) == kAXErrorSuccess) {
                        AXValueGetValue(posValue, kAXValueTypeCGPoint, &pos);
                        AXValueGetValue(sizeValue, kAXValueTypeCGSize, &size);
                        maxX = pos.x + size.width;
                    }
                    if (posValue != NULL) CFRelease(posValue);
                    if (sizeValue != NULL) CFRelease(sizeValue);
                }
                CFRelease(children);
            }
            CFRelease(menuBar);
        }
        CFRelease(app);
        return maxX;
    }
}

// ws_capture composites the given windows into an RGBA buffer cropped to
// bounds. Returns a malloc'd buffer of outW*outH*4 bytes; caller frees.
static unsigned char *ws_capture(CGWindowID *wids, int count, CGRect bounds, double scale, int *outW, int *outH) {
    CFMutableArrayRef arr = CFArrayCreateMutable(NULL, count, NULL);
    if (arr == NULL) return NULL;
    for (int i = 0; i < count; i++) {
        CFArrayAppendValue(arr, (const void *)(uintptr_t)wids[i]);
    }
    CGImageRef image = CGWindowListCreateImageFromArray(bounds, arr,
        kCGWindowImageBestResolution | kCGWindowImageBoundsIgnoreFraming);
    CFRelease(arr);
    if (image == NULL) return NULL;

    int w = (int)(CGImageGetWidth(image) * scale);
    int h = (int)(CGImageGetHeight(image) * scale);
    if (w <= 0 || h <= 0) {
        CGImageRelease(image);
        return NULL;
    }
    unsigned char *buf = calloc((size_t)w * (size_t)h * 4, 1);
    if (buf == NULL) {
        CGImageRelease(image);
        return NULL;
    }
    CGColorSpaceRef space = CGColorSpaceCreateDeviceRGB();
    CGContextRef ctx = CGBitmapContextCreate(buf, w, h, 8, (size_t)w * 4, space,
        kCGImageAlphaPremultipliedLast | kCGBitmapByteOrder32Big);
    CGColorSpaceRelease(space);
    if (ctx == NULL) {
        free(buf);
        CGImageRelease(image);
        return NULL;
    }
    CGContextDrawImage(ctx, CGRectMake(0, 0, w, h), image);
    CGContextRelease(ctx);
    CGImageRelease(image);
    *outW = w;
    *outH = h;
    return buf;
}
*/
import "C"
import (
	"fmt"
	"image"
	"unsafe"

	"menubard/internal/model"
)

// windowServer implements platform.WindowServer on top of the window
// server's private connection plus the public CGWindowList API.
type windowServer struct{}

func newWindowServer() *windowServer {
	return &windowServer{}
}

func (s *windowServer) WindowList() ([]model.WindowID, error) {
	return windowList(C.WS_LIST_ALL)
}

func (s *windowServer) OnScreenWindowList() ([]model.WindowID, error) {
	return windowList(C.WS_LIST_ONSCREEN)
}

func (s *windowServer) MenuBarWindowList() ([]model.WindowID, error) {
	return windowList(C.WS_LIST_MENUBAR)
}

func windowList(kind C.ws_list_kind) ([]model.WindowID, error) {
	var cList *C.CGWindowID
	var cCount C.int
	if C.ws_window_list(kind, &cList, &cCount) != 0 {
		return nil, fmt.Errorf("window server list query failed")
	}
	if cList == nil {
		return nil, nil
	}
	defer C.free(unsafe.Pointer(cList))

	raw := unsafe.Slice(cList, int(cCount))
	ids := make([]model.WindowID, len(raw))
	for i, wid := range raw {
		ids[i] = model.WindowID(wid)
	}
	return ids, nil
}

func (s *windowServer) WindowInfo(id model.WindowID) (model.WindowInfo, error) {
	var cInfo C.ws_window_info
	if C.ws_copy_window_info(C.CGWindowID(id), &cInfo) != 0 {
		return model.WindowInfo{}, fmt.Errorf("window %d: no window server record", id)
	}
	defer func() {
		C.free(unsafe.Pointer(cInfo.ownerName))
		C.free(unsafe.Pointer(cInfo.title))
	}()

	info := model.WindowInfo{
		ID:       id,
		Frame:    rectFromCG(cInfo.frame),
		Layer:    int(cInfo.layer),
		OwnerPID: int(cInfo.ownerPID),
		OnScreen: cInfo.onScreen != 0,
	}
	if cInfo.ownerName != nil {
		info.OwnerName = C.GoString(cInfo.ownerName)
	}
	if cInfo.title != nil {
		info.Title = C.GoString(cInfo.title)
	}
	if spaces, err := s.SpacesForWindow(id); err == nil && len(spaces) == 1 {
		info.SpaceID = spaces[0]
	}
	return info, nil
}

func (s *windowServer) WindowFrame(id model.WindowID) (model.Rect, error) {
	var cRect C.CGRect
	if C.ws_window_frame(C.CGWindowID(id), &cRect) != 0 {
		return model.Rect{}, fmt.Errorf("window %d: no frame", id)
	}
	return rectFromCG(cRect), nil
}

func (s *windowServer) ActiveSpaceID() (uint64, error) {
	return uint64(C.ws_active_space()), nil
}

func (s *windowServer) SpacesForWindow(id model.WindowID) ([]uint64, error) {
	var cSpaces *C.uint64_t
	var cCount C.int
	if C.ws_spaces_for_window(C.CGWindowID(id), &cSpaces, &cCount) != 0 {
		return nil, fmt.Errorf("window %d: space query failed", id)
	}
	if cSpaces == nil {
		return nil, nil
	}
	defer C.free(unsafe.Pointer(cSpaces))

	raw := unsafe.Slice(cSpaces, int(cCount))
	spaces := make([]uint64, len(raw))
	for i, sid := range raw {
		spaces[i] = uint64(sid)
	}
	return spaces, nil
}

func (s *windowServer) SpaceIsFullscreen(space uint64) (bool, error) {
	return C.ws_space_is_fullscreen(C.uint64_t(space)) != 0, nil
}

func (s *windowServer) MenuBarFrame() (model.Rect, error) {
	frame := rectFromCG(C.ws_menu_bar_frame())
	if frame.IsEmpty() {
		return model.Rect{}, fmt.Errorf("no main screen")
	}
	return frame, nil
}

func (s *windowServer) MainMenuMaxX() (float64, error) {
	maxX := float64(C.ws_main_menu_max_x())
	if maxX < 0 {
		return 0, fmt.Errorf("frontmost application's menu bar is not readable")
	}
	return maxX, nil
}

func (s *windowServer) CaptureWindows(ids []model.WindowID, bounds model.Rect) (image.Image, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no windows to capture")
	}
	if bounds.IsEmpty() {
		return nil, fmt.Errorf("capture bounds are required")
	}
	cIDs := make([]C.CGWindowID, len(ids))
	for i, id := range ids {
		cIDs[i] = C.CGWindowID(id)
	}

	var cW, cH C.int
	buf := C.ws_capture(&cIDs[0], C.int(len(cIDs)), rectToCG(bounds), 1.0, &cW, &cH)
	if buf == nil {
		return nil, fmt.Errorf("window capture failed; check screen recording permission")
	}
	defer C.free(unsafe.Pointer(buf))

	w, h := int(cW), int(cH)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, unsafe.Slice((*byte)(unsafe.Pointer(buf)), w*h*4))
	return img, nil
}

func rectFromCG(r C.CGRect) model.Rect {
	return model.Rect{
		X:      float64(r.origin.x),
		Y:      float64(r.origin.y),
		Width:  float64(r.size.width),
		Height: float64(r.size.height),
	}
}

func rectToCG(r model.Rect) C.CGRect {
	return C.CGRectMake(C.CGFloat(r.X), C.CGFloat(r.Y), C.CGFloat(r.Width), C.CGFloat(r.Height))
}
