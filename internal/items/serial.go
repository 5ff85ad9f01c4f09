package items

import (
	"fmt"

	"menubard/internal/model"
)

// Serialized is the persisted form of a configuration: section name to
// ordered "namespace/name" item strings. Persistence itself is a consumer
// concern; this type only defines the surface.
type Serialized map[string][]string

// Serialize produces the persisted form of the configuration.
func (c *Configuration) Serialize() Serialized {
	out := make(Serialized, len(model.Sections()))
	for _, s := range model.Sections() {
		list := c.sections[s]
		strs := make([]string, 0, len(list))
		for _, id := range list {
			strs = append(strs, id.String())
		}
		out[s.String()] = strs
	}
	return out
}

// FromSerialized reconstructs a configuration from its persisted form and
// validates it, so loaded state is authoritative immediately.
func FromSerialized(s Serialized) (*Configuration, error) {
	c := &Configuration{sections: make(map[model.Section][]model.ItemID)}
	for name, strs := range s {
		section, err := model.ParseSection(name)
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		var list []model.ItemID
		for _, raw := range strs {
			id, err := model.ParseItemID(raw)
			if err != nil {
				return nil, fmt.Errorf("load configuration section %s: %w", name, err)
			}
			list = append(list, id)
		}
		c.sections[section] = list
	}
	c.Validate()
	return c, nil
}
