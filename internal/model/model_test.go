package model

import "testing"

func TestParseItemID_Roundtrip(t *testing.T) {
	id := ItemID{Namespace: "com.example.app", Name: "Item-1"}
	parsed, err := ParseItemID(id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("expected %v, got %v", id, parsed)
	}
}

func TestParseItemID_Invalid(t *testing.T) {
	for _, s := range []string{"", "no-slash", "/leading", "trailing/"} {
		if _, err := ParseItemID(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestItemID_Special(t *testing.T) {
	if !NewItemsMarker.IsSpecial() {
		t.Error("new-items marker should be special")
	}
	if NewItemsMarker.IsControlItem() {
		t.Error("new-items marker is not a control item")
	}
	ci := ControlItemID(SectionHidden)
	if !ci.IsSpecial() || !ci.IsControlItem() {
		t.Errorf("control item %v should be special and a control item", ci)
	}
	foreign := ItemID{Namespace: "com.example.app", Name: "status"}
	if foreign.IsSpecial() {
		t.Error("foreign item should not be special")
	}
}

func TestParseSection_Roundtrip(t *testing.T) {
	for _, s := range Sections() {
		parsed, err := ParseSection(s.String())
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", s, err)
		}
		if parsed != s {
			t.Errorf("expected %v, got %v", s, parsed)
		}
	}
}

func TestSection_IsFirst(t *testing.T) {
	if !SectionVisible.IsFirst() {
		t.Error("visible is the first section")
	}
	if SectionHidden.IsFirst() || SectionAlwaysHidden.IsFirst() {
		t.Error("hidden sections are not first")
	}
}

func TestRect_CenterContains(t *testing.T) {
	r := Rect{X: 10, Y: 0, Width: 20, Height: 22}
	c := r.Center()
	if c.X != 20 || c.Y != 11 {
		t.Errorf("unexpected center: %+v", c)
	}
	if !r.Contains(c) {
		t.Error("rect should contain its center")
	}
	if r.Contains(Point{X: 30, Y: 11}) {
		t.Error("max edge is exclusive")
	}
}
