//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation -framework ApplicationServices
#include <AppKit/AppKit.h>
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>
#include <string.h>

typedef int CGSConnectionID;
extern CGSConnectionID CGSMainConnectionID(void);
extern bool CGSEventIsAppUnresponsive(CGSConnectionID cid, const ProcessSerialNumber *psn);

typedef struct {
    int pid;
    char *name;
    char *bundleID;
} apps_info;

static char *apps_copy_nsstring(NSString *s) {
    if (s == nil) return NULL;
    return strdup([s UTF8String]);
}

// apps_running returns a malloc'd snapshot; caller passes it to apps_free.
static apps_info *apps_running(int *outCount) {
    @autoreleasepool {
        NSArray<NSRunningApplication *> *running = [NSWorkspace sharedWorkspace].runningApplications;
        NSUInteger count = running.count;
        apps_info *list = calloc(count, sizeof(apps_info));
        if (list == NULL) {
            *outCount = 0;
            return NULL;
        }
        for (NSUInteger i = 0; i < count; i++) {
            NSRunningApplication *app = running[i];
            list[i].pid = app.processIdentifier;
            list[i].name = apps_copy_nsstring(app.localizedName);
            list[i].bundleID = apps_copy_nsstring(app.bundleIdentifier);
        }
        *outCount = (int)count;
        return list;
    }
}

static void apps_free(apps_info *list, int count) {
    if (list == NULL) return;
    for (int i = 0; i < count; i++) {
        free(list[i].name);
        free(list[i].bundleID);
    }
    free(list);
}

static int apps_state(int pid, int *finishedLaunching, int *terminated, int *backgroundOnly) {
    @autoreleasepool {
        NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:(pid_t)pid];
        if (app == nil) return 0;
        *finishedLaunching = app.finishedLaunching ? 1 : 0;
        *terminated = app.terminated ? 1 : 0;
        *backgroundOnly = (app.activationPolicy == NSApplicationActivationPolicyProhibited) ? 1 : 0;
        return 1;
    }
}

static int apps_is_unresponsive(int pid) {
    ProcessSerialNumber psn;
    if (GetProcessForPID((pid_t)pid, &psn) != noErr) {
        return 1;
    }
    return CGSEventIsAppUnresponsive(CGSMainConnectionID(), &psn) ? 1 : 0;
}

// Forward declaration for the Go-exported callback in exports.go.
void menubardAppsChanged(void);

@interface MenubardAppObserver : NSObject
- (void)appsChanged:(NSNotification *)note;
@end

@implementation MenubardAppObserver
- (void)appsChanged:(NSNotification *)note {
    menubardAppsChanged();
}
@end

static MenubardAppObserver *appsObserver = nil;

static void apps_observe(void) {
    @autoreleasepool {
        if (appsObserver != nil) return;
        appsObserver = [[MenubardAppObserver alloc] init];
        NSNotificationCenter *center = [NSWorkspace sharedWorkspace].notificationCenter;
        [center addObserver:appsObserver
                   selector:@selector(appsChanged:)
                       name:NSWorkspaceDidLaunchApplicationNotification
                     object:nil];
        [center addObserver:appsObserver
                   selector:@selector(appsChanged:)
                       name:NSWorkspaceDidTerminateApplicationNotification
                     object:nil];
    }
}
*/
import "C"
import (
	"sync"
	"time"
	"unsafe"

	"menubard/internal/platform"
)

// apps implements platform.Apps over NSWorkspace.
type apps struct {
	mu          sync.Mutex
	subscribers map[int]func()
	nextSubID   int
}

func newApps() *apps {
	a := &apps{subscribers: make(map[int]func())}
	registerAppsBackend(a)
	return a
}

func (a *apps) Running() ([]platform.AppInfo, error) {
	var cCount C.int
	cList := C.apps_running(&cCount)
	if cList == nil {
		return nil, nil
	}
	defer C.apps_free(cList, cCount)

	raw := unsafe.Slice(cList, int(cCount))
	infos := make([]platform.AppInfo, 0, len(raw))
	for _, app := range raw {
		info := platform.AppInfo{PID: int(app.pid)}
		if app.name != nil {
			info.Name = C.GoString(app.name)
		}
		if app.bundleID != nil {
			info.BundleID = C.GoString(app.bundleID)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (a *apps) State(pid int) (platform.AppState, bool) {
	var finished, terminated, background C.int
	if C.apps_state(C.int(pid), &finished, &terminated, &background) == 0 {
		return platform.AppState{}, false
	}
	return platform.AppState{
		FinishedLaunching: finished != 0,
		Terminated:        terminated != 0,
		BackgroundOnly:    background != 0,
	}, true
}

// IsResponsive runs the window server's unresponsiveness probe off the
// caller's goroutine. The probe itself can block against a hung process, so
// a timeout here means unresponsive.
func (a *apps) IsResponsive(pid int, timeout time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		done <- C.apps_is_unresponsive(C.int(pid)) == 0
	}()
	select {
	case responsive := <-done:
		return responsive
	case <-time.After(timeout):
		return false
	}
}

func (a *apps) Subscribe(fn func()) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.subscribers) == 0 {
		C.apps_observe()
	}
	id := a.nextSubID
	a.nextSubID++
	a.subscribers[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subscribers, id)
	}, nil
}

// notify fans one workspace notification out to every subscriber.
func (a *apps) notify() {
	a.mu.Lock()
	fns := make([]func(), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
