package bridge

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"menubard/internal/model"
	"menubard/internal/platform"
)

// CaptureWindow captures one window to encoded image bytes. Bounds are
// required: capturing without explicit bounds risks a multi-second stall
// against off-screen or zero-size windows.
func (b *Bridge) CaptureWindow(id model.WindowID, bounds *model.Rect, opts platform.CaptureOptions) ([]byte, error) {
	return b.CaptureComposite([]model.WindowID{id}, bounds, opts)
}

// CaptureComposite captures a composited set of windows to encoded image
// bytes, cropped to bounds.
func (b *Bridge) CaptureComposite(ids []model.WindowID, bounds *model.Rect, opts platform.CaptureOptions) ([]byte, error) {
	if bounds == nil || bounds.IsEmpty() {
		return nil, fmt.Errorf("capture requires explicit non-empty bounds")
	}
	img, err := b.ws.CaptureWindows(ids, *bounds)
	if err != nil {
		b.log.Warn("window capture failed", "windows", ids, "error", err)
		return nil, fmt.Errorf("capture windows: %w", err)
	}
	return encode(img, opts)
}

func encode(img image.Image, opts platform.CaptureOptions) ([]byte, error) {
	if opts.Scale > 0 && opts.Scale < 1.0 {
		img = downscale(img, opts.Scale)
	}

	var buf bytes.Buffer
	switch opts.Format {
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png encode: %w", err)
		}
	case "jpg", "jpeg":
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported capture format: %s (use png or jpg)", opts.Format)
	}
	return buf.Bytes(), nil
}

func downscale(img image.Image, scale float64) image.Image {
	src := img.Bounds()
	w := int(float64(src.Dx()) * scale)
	h := int(float64(src.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}
