package model

import "fmt"

// Section is one of the three ordered buckets that menu bar items are
// grouped into. The order is a precedence: Visible is never hidden, Hidden
// is suppressed before AlwaysHidden in hide order.
type Section int

const (
	SectionVisible Section = iota
	SectionHidden
	SectionAlwaysHidden
)

// Sections returns all sections in precedence order.
func Sections() []Section {
	return []Section{SectionVisible, SectionHidden, SectionAlwaysHidden}
}

func (s Section) String() string {
	switch s {
	case SectionVisible:
		return "visible"
	case SectionHidden:
		return "hidden"
	case SectionAlwaysHidden:
		return "always-hidden"
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// ParseSection converts the String form back to a Section.
func ParseSection(s string) (Section, error) {
	switch s {
	case "visible":
		return SectionVisible, nil
	case "hidden":
		return SectionHidden, nil
	case "always-hidden":
		return SectionAlwaysHidden, nil
	}
	return 0, fmt.Errorf("unknown section %q (expected visible, hidden, or always-hidden)", s)
}

// IsFirst reports whether this is the first (never hidden) section. The
// first section's control item never expands: there is nothing to its
// right for it to hide.
func (s Section) IsFirst() bool {
	return s == SectionVisible
}

// MarshalYAML implements yaml.Marshaler using the String form.
func (s Section) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler using the String form.
func (s *Section) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseSection(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
