package items

import (
	"reflect"
	"testing"

	"menubard/internal/model"
)

func foreign(name string) model.ItemID {
	return model.ItemID{Namespace: "com.example." + name, Name: name}
}

func TestValidate_MarkerExactlyOnce(t *testing.T) {
	c := &Configuration{sections: map[model.Section][]model.ItemID{
		model.SectionVisible: {foreign("a")},
	}}
	c.Validate()

	hidden := c.Items(model.SectionHidden)
	if len(hidden) != 1 || hidden[0] != model.NewItemsMarker {
		t.Fatalf("expected marker appended to hidden, got %v", hidden)
	}

	// A duplicate marker in a later section is pruned.
	c.SetItems(model.SectionAlwaysHidden, []model.ItemID{model.NewItemsMarker})
	c.Validate()
	markers := 0
	for _, s := range model.Sections() {
		for _, id := range c.Items(s) {
			if id == model.NewItemsMarker {
				markers++
			}
		}
	}
	if markers != 1 {
		t.Errorf("expected exactly one marker, got %d", markers)
	}
}

func TestValidate_UniquenessFirstOccurrenceWins(t *testing.T) {
	a := foreign("a")
	c := New()
	c.SetItems(model.SectionVisible, []model.ItemID{a})
	c.SetItems(model.SectionAlwaysHidden, []model.ItemID{a})
	c.Validate()

	if got := c.Items(model.SectionVisible); len(got) != 1 || got[0] != a {
		t.Errorf("expected item kept in visible, got %v", got)
	}
	if got := c.Items(model.SectionAlwaysHidden); len(got) != 0 {
		t.Errorf("expected duplicate pruned from always-hidden, got %v", got)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	a, b := foreign("a"), foreign("b")
	c := New()
	c.SetItems(model.SectionVisible, []model.ItemID{a, b})
	c.SetItems(model.SectionHidden, []model.ItemID{b, model.NewItemsMarker})
	c.Validate()

	snapshot := func() map[model.Section][]model.ItemID {
		out := make(map[model.Section][]model.ItemID)
		for _, s := range model.Sections() {
			out[s] = c.Items(s)
		}
		return out
	}
	first := snapshot()
	c.Validate()
	if !reflect.DeepEqual(first, snapshot()) {
		t.Error("validate should be idempotent")
	}
}

func TestAddItem_InsertsBeforeMarker(t *testing.T) {
	a, b, cID, d := foreign("a"), foreign("b"), foreign("c"), foreign("d")
	c := New()
	c.SetItems(model.SectionVisible, []model.ItemID{a, b})
	c.SetItems(model.SectionHidden, []model.ItemID{cID, model.NewItemsMarker})
	c.Validate()

	c.AddItem(d)

	want := []model.ItemID{cID, d, model.NewItemsMarker}
	if got := c.Items(model.SectionHidden); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAddItem_NoOpOnDuplicate(t *testing.T) {
	a := foreign("a")
	c := New()
	c.SetItems(model.SectionVisible, []model.ItemID{a})
	c.Validate()

	before := map[model.Section][]model.ItemID{}
	for _, s := range model.Sections() {
		before[s] = c.Items(s)
	}
	c.AddItem(a)
	for _, s := range model.Sections() {
		if !reflect.DeepEqual(before[s], c.Items(s)) {
			t.Errorf("section %v changed on duplicate add", s)
		}
	}
}

func TestAddItem_NoOpOnNonHideable(t *testing.T) {
	clock := model.ItemID{Namespace: "com.apple.controlcenter", Name: "Clock"}
	c := New()
	c.AddItem(clock)
	if _, ok := c.SectionOf(clock); ok {
		t.Error("non-hideable item should not be added")
	}
}

func TestDelimited_SynthesizesControlItems(t *testing.T) {
	a := foreign("a")
	c := New()
	c.SetItems(model.SectionHidden, []model.ItemID{a, model.NewItemsMarker})

	got := c.Delimited(model.SectionHidden)
	if len(got) != 3 || got[0] != model.ControlItemID(model.SectionHidden) {
		t.Fatalf("expected leading control item, got %v", got)
	}
	if got := c.Delimited(model.SectionVisible); len(got) != 0 {
		t.Errorf("first section has no delimiter, got %v", got)
	}
}

func TestCurrent_BucketsByDelimiterPosition(t *testing.T) {
	// Menu bar runs right to left: visible | hidden-delim | hidden |
	// always-hidden-delim | always hidden.
	win := func(id model.WindowID, x float64, owner string) model.WindowInfo {
		return model.WindowInfo{
			ID:        id,
			Frame:     model.Rect{X: x, Y: 0, Width: 24, Height: 24},
			OwnerName: owner,
			OnScreen:  true,
		}
	}
	windows := []model.WindowInfo{
		win(1, 1480, "VisibleApp"),
		win(2, 1450, "menubard"), // hidden delimiter
		win(3, 1420, "HiddenApp"),
		win(4, 1390, "menubard"), // always-hidden delimiter
		win(5, 1360, "BuriedApp"),
		win(6, 1330, "Mystery"), // unidentifiable, skipped
	}
	identify := func(w model.WindowInfo) (model.ItemID, bool) {
		if w.OwnerName == "Mystery" {
			return model.ItemID{}, false
		}
		return model.ItemID{Namespace: "com.example." + w.OwnerName, Name: w.OwnerName}, true
	}

	c := Current(windows, Delimiters{Hidden: 2, AlwaysHidden: 4}, identify)

	if got := c.Items(model.SectionVisible); len(got) != 1 || got[0].Name != "VisibleApp" {
		t.Errorf("unexpected visible section: %v", got)
	}
	hidden := c.Items(model.SectionHidden)
	if len(hidden) != 2 || hidden[0].Name != "HiddenApp" || hidden[1] != model.NewItemsMarker {
		t.Errorf("unexpected hidden section: %v", hidden)
	}
	if got := c.Items(model.SectionAlwaysHidden); len(got) != 1 || got[0].Name != "BuriedApp" {
		t.Errorf("unexpected always-hidden section: %v", got)
	}
}

func TestSerialize_Roundtrip(t *testing.T) {
	a, b := foreign("a"), foreign("b")
	c := New()
	c.SetItems(model.SectionVisible, []model.ItemID{a})
	c.SetItems(model.SectionHidden, []model.ItemID{b, model.NewItemsMarker})
	c.Validate()

	loaded, err := FromSerialized(c.Serialize())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range model.Sections() {
		if !reflect.DeepEqual(c.Items(s), loaded.Items(s)) {
			t.Errorf("section %v mismatch: %v vs %v", s, c.Items(s), loaded.Items(s))
		}
	}
}

func TestFromSerialized_Invalid(t *testing.T) {
	if _, err := FromSerialized(Serialized{"bogus": nil}); err == nil {
		t.Error("expected error for unknown section name")
	}
	if _, err := FromSerialized(Serialized{"visible": {"no-slash"}}); err == nil {
		t.Error("expected error for malformed item id")
	}
}
