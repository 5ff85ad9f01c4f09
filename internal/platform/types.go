package platform

import (
	"fmt"
	"strconv"
	"strings"

	"menubard/internal/model"
)

// CaptureOptions configures how a captured window image is encoded.
type CaptureOptions struct {
	Format  string  // "png" or "jpg"
	Quality int     // JPEG quality 1-100 (ignored for PNG)
	Scale   float64 // Scale factor 0.1-1.0 (default 1.0)
}

// ParseBBox parses a "x,y,w,h" string into a model.Rect.
func ParseBBox(s string) (*model.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bbox %q: expected x,y,w,h", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		vals[i] = v
	}
	return &model.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
