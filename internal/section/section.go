// Package section implements the hide/show state machine for menu bar
// sections. Each section owns exactly one control item, a synthetic status
// item acting as its boundary and toggle. Hiding a section expands its
// control item to a sentinel width that consumes all remaining menu bar
// space, pushing everything to its left off screen without touching any
// foreign item directly.
package section

import (
	"fmt"
	"log/slog"
	"sync"

	"menubard/internal/items"
	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/platform"
)

// Control item lengths in points. ExpandedLength is deliberately larger
// than any physical display so the expanded anchor always consumes the
// remaining menu bar width.
const (
	StandardLength = 25.0
	ExpandedLength = 10_000.0
)

// HidingState is the state of one section's items.
type HidingState int

const (
	// ShowItems means the section's foreign items are visible.
	ShowItems HidingState = iota
	// HideItems means the section's foreign items are visually suppressed.
	HideItems
)

func (s HidingState) String() string {
	if s == HideItems {
		return "hide-items"
	}
	return "show-items"
}

// ControlItem is this process's own status item bounding one section.
type ControlItem struct {
	autosaveName string
	section      model.Section
	host         platform.StatusItemHost
	state        HidingState
	isExpanded   bool
	log          *slog.Logger
}

func newControlItem(section model.Section, host platform.StatusItemHost) (*ControlItem, error) {
	c := &ControlItem{
		autosaveName: model.ControlItemID(section).String(),
		section:      section,
		host:         host,
		state:        ShowItems,
		log:          logging.ForComponent(logging.CompSection),
	}
	if err := host.EnsureItem(c.autosaveName); err != nil {
		return nil, fmt.Errorf("create control item for %s: %w", section, err)
	}
	if err := host.SetLength(c.autosaveName, StandardLength); err != nil {
		return nil, fmt.Errorf("size control item for %s: %w", section, err)
	}
	c.publishIcon()
	return c, nil
}

// AutosaveName returns the stable cross-launch key of the item.
func (c *ControlItem) AutosaveName() string { return c.autosaveName }

// HidingState returns the current state.
func (c *ControlItem) HidingState() HidingState { return c.state }

// IsExpanded reports whether the item currently consumes the remaining
// menu bar width.
func (c *ControlItem) IsExpanded() bool { return c.isExpanded }

// Position returns the distance from the item's leading edge to the
// trailing edge of its screen, derived from the live frame. False means the
// item has no backing window right now.
func (c *ControlItem) Position() (float64, bool) {
	return c.host.Position(c.autosaveName)
}

// WindowID returns the item's backing window.
func (c *ControlItem) WindowID() (model.WindowID, bool) {
	return c.host.WindowID(c.autosaveName)
}

// setState drives the expansion trick. Re-entering the current state is a
// no-op apart from republishing the icon, so external icon-style changes
// take effect without a state transition.
func (c *ControlItem) setState(state HidingState) {
	if c.state == state {
		c.publishIcon()
		return
	}
	c.state = state

	switch state {
	case HideItems:
		// The first section's control item never expands: there is
		// nothing to its left for it to hide.
		if c.section.IsFirst() {
			break
		}
		c.isExpanded = true
		c.apply(c.host.SetLength(c.autosaveName, ExpandedLength), "expand")
		c.apply(c.host.SetInteractionEnabled(c.autosaveName, false), "disable interaction")
	case ShowItems:
		c.isExpanded = false
		c.apply(c.host.SetLength(c.autosaveName, StandardLength), "restore length")
		c.apply(c.host.SetInteractionEnabled(c.autosaveName, true), "enable interaction")
	}
	c.publishIcon()
}

// publishIcon pushes the icon for the current section/state pair. While
// expanded the anchor shows no image at all.
func (c *ControlItem) publishIcon() {
	icon := platform.IconNone
	if !c.isExpanded {
		switch {
		case c.section.IsFirst():
			icon = platform.IconChevronLarge
		case c.section == model.SectionAlwaysHidden:
			icon = platform.IconDot
		default:
			icon = platform.IconChevronSmall
		}
	}
	c.apply(c.host.SetIcon(c.autosaveName, icon), "set icon")
}

func (c *ControlItem) apply(err error, op string) {
	if err != nil {
		c.log.Warn("control item update failed", "item", c.autosaveName, "op", op, "error", err)
	}
}

// Section pairs a section name with its control item.
type Section struct {
	name    model.Section
	control *ControlItem
}

// Name returns the section's name.
func (s *Section) Name() model.Section { return s.name }

// ControlItem returns the section's control item.
func (s *Section) ControlItem() *ControlItem { return s.control }

// IsHidden reports whether the section's items are currently suppressed.
func (s *Section) IsHidden() bool { return s.control.state == HideItems }

// Manager owns the three sections and serializes their transitions.
type Manager struct {
	mu       sync.Mutex
	host     platform.StatusItemHost
	sections map[model.Section]*Section
	log      *slog.Logger

	// OnChange, when set, runs after every completed transition with the
	// section that changed.
	OnChange func(model.Section, HidingState)
}

// NewManager creates the control items for all three sections. The visible
// section's control item doubles as the app's main icon; clicking it
// toggles the hidden section, clicking another section's control item
// toggles that section.
func NewManager(host platform.StatusItemHost) (*Manager, error) {
	m := &Manager{
		host:     host,
		sections: make(map[model.Section]*Section),
		log:      logging.ForComponent(logging.CompSection),
	}
	for _, name := range model.Sections() {
		control, err := newControlItem(name, host)
		if err != nil {
			return nil, err
		}
		m.sections[name] = &Section{name: name, control: control}
	}

	if err := host.SetOnClick(model.ControlItemID(model.SectionVisible).String(), func() {
		m.Toggle(model.SectionHidden)
	}); err != nil {
		return nil, fmt.Errorf("install visible control click handler: %w", err)
	}
	for _, name := range []model.Section{model.SectionHidden, model.SectionAlwaysHidden} {
		name := name
		if err := host.SetOnClick(model.ControlItemID(name).String(), func() {
			m.Toggle(name)
		}); err != nil {
			return nil, fmt.Errorf("install %s control click handler: %w", name, err)
		}
	}
	return m, nil
}

// Section returns the named section.
func (m *Manager) Section(name model.Section) *Section {
	return m.sections[name]
}

// State returns the named section's current hiding state.
func (m *Manager) State(name model.Section) HidingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sections[name].control.state
}

// IsHidden reports whether the named section's items are suppressed.
func (m *Manager) IsHidden(name model.Section) bool {
	return m.State(name) == HideItems
}

// AnchorPosition returns the named section's control item position: the
// distance from its leading edge to the trailing edge of its screen. False
// means the item has no backing window right now.
func (m *Manager) AnchorPosition(name model.Section) (float64, bool) {
	m.mu.Lock()
	s, ok := m.sections[name]
	m.mu.Unlock()
	if !ok {
		return 0, false
	}
	return s.control.Position()
}

// Hide suppresses the named section's items.
func (m *Manager) Hide(name model.Section) {
	m.transition(name, HideItems)
}

// Show reveals the named section's items.
func (m *Manager) Show(name model.Section) {
	m.transition(name, ShowItems)
}

// Toggle flips the named section.
func (m *Manager) Toggle(name model.Section) {
	m.mu.Lock()
	target := HideItems
	if m.sections[name].control.state == HideItems {
		target = ShowItems
	}
	m.mu.Unlock()
	m.transition(name, target)
}

// ShowAll reveals every section.
func (m *Manager) ShowAll() {
	for _, name := range model.Sections() {
		m.transition(name, ShowItems)
	}
}

// Delimiters returns the window IDs of the two hidden-section control
// items, for live item bucketing. False if either item has no window.
func (m *Manager) Delimiters() (items.Delimiters, bool) {
	hidden, ok1 := m.sections[model.SectionHidden].control.WindowID()
	always, ok2 := m.sections[model.SectionAlwaysHidden].control.WindowID()
	return items.Delimiters{Hidden: hidden, AlwaysHidden: always}, ok1 && ok2
}

func (m *Manager) transition(name model.Section, target HidingState) {
	// The visible section is never hidden.
	if name.IsFirst() && target == HideItems {
		return
	}
	m.mu.Lock()
	s, ok := m.sections[name]
	if !ok {
		m.mu.Unlock()
		return
	}
	changed := s.control.state != target
	s.control.setState(target)
	onChange := m.OnChange
	m.mu.Unlock()

	if changed {
		m.log.Debug("section transition", "section", name.String(), "state", target.String())
		if onChange != nil {
			onChange(name, target)
		}
	}
}
