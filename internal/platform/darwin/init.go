//go:build darwin && cgo

package darwin

import "menubard/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			WindowServer:  newWindowServer(),
			Accessibility: newAccessibility(),
			Apps:          newApps(),
			StatusItems:   newStatusItems(),
			Events:        newEventSource(),
			Hotkeys:       newHotkeys(),
		}, nil
	}
	platform.RequestPermissionsFunc = RequestPermissions
}
