// Package darwin implements the platform backends for macOS.
//
// The window server backend speaks the private SkyLight connection for
// window enumeration, frames, and spaces, and the public CGWindowList API
// for snapshots and capture. Status items, input monitors, and running
// application state go through AppKit; system-wide hotkeys through Carbon.
//
// Importing this package registers the backend constructor with the
// platform package:
//
//	import _ "menubard/internal/platform/darwin"
package darwin
