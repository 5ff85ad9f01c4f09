package model

// AXElement is a typed snapshot of one node in an application's
// accessibility tree. Identity resolution only ever walks the children of an
// application's extras menu bar element, but the shape is a general tree so
// deeper traversals stay possible.
type AXElement struct {
	Role     string      `json:"role,omitempty"`
	Frame    Rect        `json:"frame"`
	Enabled  bool        `json:"enabled"`
	Children []AXElement `json:"children,omitempty"`
}
