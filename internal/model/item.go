package model

import (
	"fmt"
	"strings"
)

// SpecialNamespace is the namespace reserved for synthetic item identifiers
// owned by menubard itself (control items, the new-items insertion marker).
// Foreign items carry a namespace derived from their owning process.
const SpecialNamespace = "menubard"

// ItemID is the stable key for a menu bar item: an owning namespace plus a
// per-namespace name. It deliberately carries no geometry, so two sightings
// of the same item at different positions compare equal.
type ItemID struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Name      string `yaml:"name"      json:"name"`
}

// NewItemsMarker is the insertion point that newly discovered items are
// placed before. Exactly one section holds it after validation.
var NewItemsMarker = ItemID{Namespace: SpecialNamespace, Name: "new-items"}

// ControlItemID returns the synthetic identifier of a section's control item.
func ControlItemID(s Section) ItemID {
	return ItemID{Namespace: SpecialNamespace, Name: "control-" + s.String()}
}

// IsSpecial reports whether the identifier is one of menubard's own
// synthetic items rather than a foreign status item.
func (id ItemID) IsSpecial() bool {
	return id.Namespace == SpecialNamespace
}

// IsControlItem reports whether the identifier names a section control item.
func (id ItemID) IsControlItem() bool {
	return id.Namespace == SpecialNamespace && strings.HasPrefix(id.Name, "control-")
}

func (id ItemID) String() string {
	return id.Namespace + "/" + id.Name
}

// ParseItemID parses the "namespace/name" form produced by String.
func ParseItemID(s string) (ItemID, error) {
	ns, name, ok := strings.Cut(s, "/")
	if !ok || ns == "" || name == "" {
		return ItemID{}, fmt.Errorf("invalid item identifier %q: expected namespace/name", s)
	}
	return ItemID{Namespace: ns, Name: name}, nil
}
