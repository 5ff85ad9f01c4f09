package model

// WindowID is the window server's opaque per-window identifier. IDs are
// unique for the lifetime of a window and are not reused while it exists.
type WindowID uint32

// WindowInfo is an ephemeral snapshot of one window-server window. It is
// re-queried per orchestration pass and never cached outside the identity
// cache.
type WindowInfo struct {
	ID        WindowID `yaml:"id"                 json:"id"`
	Frame     Rect     `yaml:"frame"              json:"frame"`
	Layer     int      `yaml:"layer"              json:"layer"`
	OwnerPID  int      `yaml:"owner_pid"          json:"owner_pid"`
	OwnerName string   `yaml:"owner,omitempty"    json:"owner,omitempty"`
	Title     string   `yaml:"title,omitempty"    json:"title,omitempty"`
	OnScreen  bool     `yaml:"on_screen"          json:"on_screen"`
	SpaceID   uint64   `yaml:"space_id,omitempty" json:"space_id,omitempty"`
}
