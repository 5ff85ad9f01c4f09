//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>
#include <Foundation/Foundation.h>

static int perm_accessibility_trusted(void) {
    return AXIsProcessTrusted();
}

static int perm_request_accessibility(void) {
    @autoreleasepool {
        NSDictionary *options = @{ (__bridge NSString *)kAXTrustedCheckOptionPrompt: @YES };
        return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options);
    }
}

static int perm_screen_recording(void) {
    return CGPreflightScreenCaptureAccess();
}

static int perm_request_screen_recording(void) {
    return CGRequestScreenCaptureAccess();
}
*/
import "C"
import "fmt"

// CheckAccessibilityPermission checks if the process has macOS accessibility
// permission. Returns an error with instructions if permission is not granted.
func CheckAccessibilityPermission() error {
	if C.perm_accessibility_trusted() == 0 {
		return fmt.Errorf(
			"accessibility permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Accessibility\n" +
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// CheckScreenRecordingPermission checks if the process has macOS screen
// recording permission, needed for window capture.
func CheckScreenRecordingPermission() error {
	if C.perm_screen_recording() == 0 {
		return fmt.Errorf(
			"screen recording permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Screen Recording\n" +
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// RequestPermissions triggers the OS permission prompts for any grant the
// process is still missing. The prompts are asynchronous; a denied grant
// surfaces later as degraded results, not as an error here.
func RequestPermissions() {
	if C.perm_accessibility_trusted() == 0 {
		C.perm_request_accessibility()
	}
	if C.perm_screen_recording() == 0 {
		C.perm_request_screen_recording()
	}
}
