package section

import (
	"testing"

	"menubard/internal/model"
	"menubard/internal/platform"
)

// fakeHost records status item mutations.
type fakeHost struct {
	lengths     map[string]float64
	icons       map[string]platform.Icon
	iconSets    map[string]int
	interaction map[string]bool
	clicks      map[string]func()
	windowIDs   map[string]model.WindowID
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		lengths:     make(map[string]float64),
		icons:       make(map[string]platform.Icon),
		iconSets:    make(map[string]int),
		interaction: make(map[string]bool),
		clicks:      make(map[string]func()),
		windowIDs:   make(map[string]model.WindowID),
	}
}

func (f *fakeHost) EnsureItem(name string) error { return nil }

func (f *fakeHost) SetLength(name string, length float64) error {
	f.lengths[name] = length
	return nil
}

func (f *fakeHost) SetVisible(name string, visible bool) error { return nil }

func (f *fakeHost) SetIcon(name string, icon platform.Icon) error {
	f.icons[name] = icon
	f.iconSets[name]++
	return nil
}

func (f *fakeHost) SetInteractionEnabled(name string, enabled bool) error {
	f.interaction[name] = enabled
	return nil
}

func (f *fakeHost) SetOnClick(name string, fn func()) error {
	f.clicks[name] = fn
	return nil
}

func (f *fakeHost) Position(name string) (float64, bool) { return 0, false }

func (f *fakeHost) WindowID(name string) (model.WindowID, bool) {
	id, ok := f.windowIDs[name]
	return id, ok
}

func (f *fakeHost) ShowMenu(entries []platform.MenuEntry) error { return nil }

func hiddenKey() string {
	return model.ControlItemID(model.SectionHidden).String()
}

func TestHide_ExpandsNonFirstSection(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Hide(model.SectionHidden)

	control := m.Section(model.SectionHidden).ControlItem()
	if !control.IsExpanded() {
		t.Error("expected control item expanded")
	}
	if got := host.lengths[hiddenKey()]; got != ExpandedLength {
		t.Errorf("expected sentinel length %v, got %v", ExpandedLength, got)
	}
	if host.interaction[hiddenKey()] {
		t.Error("expected interaction disabled while expanded")
	}
	if host.icons[hiddenKey()] != platform.IconNone {
		t.Error("expected icon cleared while expanded")
	}

	m.Show(model.SectionHidden)
	if control.IsExpanded() {
		t.Error("expected control item collapsed after show")
	}
	if got := host.lengths[hiddenKey()]; got != StandardLength {
		t.Errorf("expected standard length %v, got %v", StandardLength, got)
	}
	if !host.interaction[hiddenKey()] {
		t.Error("expected interaction restored after show")
	}
}

func TestHide_IdempotentButRepublishesIcon(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Hide(model.SectionHidden)
	sets := host.iconSets[hiddenKey()]
	state := m.State(model.SectionHidden)

	m.Hide(model.SectionHidden)

	if got := m.State(model.SectionHidden); got != state {
		t.Errorf("state changed on repeated hide: %v", got)
	}
	if host.iconSets[hiddenKey()] != sets+1 {
		t.Error("expected icon republished on repeated hide")
	}
	if got := host.lengths[hiddenKey()]; got != ExpandedLength {
		t.Errorf("length disturbed on repeated hide: %v", got)
	}
}

func TestVisibleSection_NeverHides(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Hide(model.SectionVisible)

	if m.State(model.SectionVisible) != ShowItems {
		t.Error("visible section must never hide")
	}
	if m.Section(model.SectionVisible).ControlItem().IsExpanded() {
		t.Error("first section's control item must never expand")
	}
}

func TestToggle_FlipsState(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Toggle(model.SectionHidden)
	if m.State(model.SectionHidden) != HideItems {
		t.Fatal("expected hidden after first toggle")
	}
	m.Toggle(model.SectionHidden)
	if m.State(model.SectionHidden) != ShowItems {
		t.Fatal("expected shown after second toggle")
	}
}

func TestControlItemClick_TogglesSection(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Clicking the visible control item toggles the hidden section.
	host.clicks[model.ControlItemID(model.SectionVisible).String()]()
	if m.State(model.SectionHidden) != HideItems {
		t.Error("expected hidden section toggled by visible control click")
	}
}

func TestOnChange_FiresOnlyOnTransition(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fired []HidingState
	m.OnChange = func(name model.Section, state HidingState) {
		if name == model.SectionHidden {
			fired = append(fired, state)
		}
	}

	m.Hide(model.SectionHidden)
	m.Hide(model.SectionHidden)
	m.Show(model.SectionHidden)

	if len(fired) != 2 || fired[0] != HideItems || fired[1] != ShowItems {
		t.Errorf("unexpected change notifications: %v", fired)
	}
}

func TestDelimiters(t *testing.T) {
	host := newFakeHost()
	m, err := NewManager(host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := m.Delimiters(); ok {
		t.Fatal("expected no delimiters before items have windows")
	}

	host.windowIDs[model.ControlItemID(model.SectionHidden).String()] = 42
	host.windowIDs[model.ControlItemID(model.SectionAlwaysHidden).String()] = 43
	d, ok := m.Delimiters()
	if !ok || d.Hidden != 42 || d.AlwaysHidden != 43 {
		t.Errorf("unexpected delimiters: %+v ok=%v", d, ok)
	}
}
