// Package config holds the daemon's yaml settings file: orchestrator
// behavior, hotkey bindings, the worker socket path, and logging options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"menubard/internal/platform"
)

// Rehide strategies.
const (
	RehideSmart = "smart"
	RehideTimed = "timed"
)

// Settings is the full settings file.
type Settings struct {
	ShowOnHover  bool `yaml:"show_on_hover"`
	ShowOnClick  bool `yaml:"show_on_click"`
	HoverDelayMS int  `yaml:"hover_delay_ms"`

	Rehide  Rehide  `yaml:"rehide"`
	Hotkeys Hotkeys `yaml:"hotkeys"`

	// Socket is the identity worker's unix socket path.
	Socket string `yaml:"socket"`

	// ItemsFile persists the section assignment between runs.
	ItemsFile string `yaml:"items_file"`

	Logging Logging `yaml:"logging"`
}

// Rehide selects when revealed sections hide again.
type Rehide struct {
	// Strategy is "smart" (hide when focus moves to another app's
	// window) or "timed" (hide a fixed interval after reveal).
	Strategy        string `yaml:"strategy"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// Hotkeys binds global shortcuts to section toggles.
type Hotkeys struct {
	ToggleHidden       *Binding `yaml:"toggle_hidden"`
	ToggleAlwaysHidden *Binding `yaml:"toggle_always_hidden"`
}

// Binding is one global shortcut: a hardware key code plus modifier names.
type Binding struct {
	KeyCode   uint32   `yaml:"key_code"`
	Modifiers []string `yaml:"modifiers"`
}

// Logging mirrors the logging package's configuration.
type Logging struct {
	Dir    string `yaml:"dir"`
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when the file is absent or a key is
// not set.
func Default() Settings {
	return Settings{
		ShowOnHover:  false,
		ShowOnClick:  true,
		HoverDelayMS: 100,
		Rehide: Rehide{
			Strategy:        RehideSmart,
			IntervalSeconds: 15,
		},
		Socket: DefaultSocketPath(),
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects settings the engine cannot act on.
func (s Settings) Validate() error {
	if s.HoverDelayMS < 0 {
		return fmt.Errorf("hover_delay_ms must not be negative: %d", s.HoverDelayMS)
	}
	switch s.Rehide.Strategy {
	case RehideSmart, RehideTimed:
	default:
		return fmt.Errorf("unknown rehide strategy %q", s.Rehide.Strategy)
	}
	if s.Rehide.Strategy == RehideTimed && s.Rehide.IntervalSeconds <= 0 {
		return fmt.Errorf("timed rehide needs a positive interval_seconds, got %d", s.Rehide.IntervalSeconds)
	}
	for name, b := range map[string]*Binding{
		"toggle_hidden":        s.Hotkeys.ToggleHidden,
		"toggle_always_hidden": s.Hotkeys.ToggleAlwaysHidden,
	} {
		if b == nil {
			continue
		}
		if _, err := b.Mask(); err != nil {
			return fmt.Errorf("hotkey %s: %w", name, err)
		}
	}
	return nil
}

// Mask folds the modifier names into the platform bitmask.
func (b Binding) Mask() (uint32, error) {
	var mask platform.Modifiers
	for _, name := range b.Modifiers {
		switch name {
		case "command":
			mask |= platform.ModCommand
		case "option":
			mask |= platform.ModOption
		case "shift":
			mask |= platform.ModShift
		case "control":
			mask |= platform.ModControl
		default:
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
	}
	return uint32(mask), nil
}

// DefaultPath is the settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "menubard", "config.yaml")
}

// DefaultSocketPath is the worker socket location.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("menubard-%d.sock", os.Getuid()))
}
