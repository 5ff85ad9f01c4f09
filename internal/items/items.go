// Package items holds the authoritative grouping of menu bar item
// identifiers into sections. The configuration is plain data: callers
// (the engine) serialize access to it.
package items

import (
	"log/slog"
	"slices"

	"menubard/internal/logging"
	"menubard/internal/model"
)

var log *slog.Logger = logging.ForComponent(logging.CompItems)

// nonHideable lists items the OS pins in place; hiding them is futile, so
// AddItem refuses to manage them.
var nonHideable = map[model.ItemID]bool{
	{Namespace: "com.apple.controlcenter", Name: "Clock"}:    true,
	{Namespace: "com.apple.controlcenter", Name: "BentoBox"}: true,
	{Namespace: "com.apple.Siri", Name: "Siri"}:              true,
}

// Configuration maps each section to its ordered item list. Order is
// meaningful: index zero is the leftmost item on screen.
type Configuration struct {
	sections map[model.Section][]model.ItemID
}

// New returns an empty configuration with the new-items marker seeded into
// the hidden section.
func New() *Configuration {
	c := &Configuration{sections: make(map[model.Section][]model.ItemID)}
	c.sections[model.SectionHidden] = []model.ItemID{model.NewItemsMarker}
	return c
}

// Items returns a copy of the ordered item list for a section.
func (c *Configuration) Items(s model.Section) []model.ItemID {
	return slices.Clone(c.sections[s])
}

// SetItems replaces a section's ordered item list. No validation happens
// here; run Validate after external mutations before trusting the
// configuration.
func (c *Configuration) SetItems(s model.Section, ids []model.ItemID) {
	c.sections[s] = slices.Clone(ids)
}

// SectionOf returns the section currently holding the item, or false.
func (c *Configuration) SectionOf(id model.ItemID) (model.Section, bool) {
	for _, s := range model.Sections() {
		if slices.Contains(c.sections[s], id) {
			return s, true
		}
	}
	return 0, false
}

// AddItem inserts a newly discovered item immediately before the new-items
// marker, so new items default into the hidden section just above the
// insertion point. It is a no-op if the item is already present anywhere or
// is on the non-hideable allowlist.
func (c *Configuration) AddItem(id model.ItemID) {
	if nonHideable[id] {
		log.Debug("refusing to manage non-hideable item", "item", id.String())
		return
	}
	if _, ok := c.SectionOf(id); ok {
		return
	}
	for _, s := range model.Sections() {
		list := c.sections[s]
		if i := slices.Index(list, model.NewItemsMarker); i >= 0 {
			c.sections[s] = slices.Insert(list, i, id)
			return
		}
	}
	// No marker yet; Validate has not run. Seed it alongside the item.
	c.sections[model.SectionHidden] = append(c.sections[model.SectionHidden], id, model.NewItemsMarker)
}

// Validate enforces the configuration invariants: every identifier appears
// in at most one section (first occurrence in section precedence order
// wins), and the new-items marker exists exactly once (appended to hidden
// if missing). Validate is idempotent and must run after any external
// mutation before the configuration is considered authoritative.
func (c *Configuration) Validate() {
	seen := make(map[model.ItemID]bool)
	markerFound := false
	for _, s := range model.Sections() {
		list := c.sections[s]
		kept := list[:0:0]
		for _, id := range list {
			if id == model.NewItemsMarker {
				if markerFound {
					log.Debug("pruning duplicate new-items marker", "section", s.String())
					continue
				}
				markerFound = true
				kept = append(kept, id)
				continue
			}
			if seen[id] {
				log.Debug("pruning duplicate item", "item", id.String(), "section", s.String())
				continue
			}
			seen[id] = true
			kept = append(kept, id)
		}
		c.sections[s] = kept
	}
	if !markerFound {
		c.sections[model.SectionHidden] = append(c.sections[model.SectionHidden], model.NewItemsMarker)
	}
}

// Delimited returns a section's item list with its control item delimiter
// synthesized at the leading edge. Control items are never stored as
// ordinary members; they only appear in this view.
func (c *Configuration) Delimited(s model.Section) []model.ItemID {
	list := c.Items(s)
	if s.IsFirst() {
		return list
	}
	return append([]model.ItemID{model.ControlItemID(s)}, list...)
}
