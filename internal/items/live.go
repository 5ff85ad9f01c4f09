package items

import (
	"sort"

	"menubard/internal/model"
)

// Delimiters names the windows backing the two control items that bound the
// hidden sections on screen.
type Delimiters struct {
	Hidden       model.WindowID
	AlwaysHidden model.WindowID
}

// Identify maps an item window to its stable identifier. Windows that
// cannot be identified (no valid accessibility handle, missing owner) return
// false and are skipped with a diagnostic; partial success is the norm.
type Identify func(model.WindowInfo) (model.ItemID, bool)

// Current builds a configuration from a live snapshot of menu bar item
// windows. It locates the two control item delimiter windows and buckets
// every remaining eligible item by its position relative to them: right of
// the hidden delimiter is visible, between the delimiters is hidden, left of
// the always-hidden delimiter is always hidden.
func Current(windows []model.WindowInfo, delims Delimiters, identify Identify) *Configuration {
	var hiddenX, alwaysHiddenX float64
	hiddenFound, alwaysFound := false, false
	for _, w := range windows {
		switch w.ID {
		case delims.Hidden:
			hiddenX, hiddenFound = w.Frame.X, true
		case delims.AlwaysHidden:
			alwaysHiddenX, alwaysFound = w.Frame.X, true
		}
	}

	// Scan from the trailing edge of the screen toward the leading edge.
	sorted := make([]model.WindowInfo, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Frame.X > sorted[j].Frame.X })

	c := New()
	buckets := make(map[model.Section][]model.ItemID)
	for _, w := range sorted {
		if w.ID == delims.Hidden || w.ID == delims.AlwaysHidden {
			continue
		}
		id, ok := identify(w)
		if !ok {
			log.Debug("skipping unidentifiable item window", "window", w.ID, "owner", w.OwnerName)
			continue
		}
		section := model.SectionVisible
		switch {
		case alwaysFound && w.Frame.X < alwaysHiddenX:
			section = model.SectionAlwaysHidden
		case hiddenFound && w.Frame.X < hiddenX:
			section = model.SectionHidden
		}
		buckets[section] = append(buckets[section], id)
	}

	// Buckets were collected right-to-left; stored order is left-to-right.
	for s, list := range buckets {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
		if s == model.SectionHidden {
			list = append(list, model.NewItemsMarker)
			c.sections[s] = list
			continue
		}
		c.sections[s] = list
	}
	c.Validate()
	return c
}
