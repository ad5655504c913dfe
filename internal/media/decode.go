// Package media decodes encoded images into the interleaved RGB layout staged
// by the projector. It covers formats the engine's own loader may reject.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned for zero-length input.
var ErrEmpty = errors.New("media: empty input")

// RGB is a decoded image, 3 bytes per pixel, rows top to bottom.
type RGB struct {
	Width  uint32
	Height uint32
	Pix    []byte
	// Format is the name the image package registered the decoder under.
	Format string
}

// DefaultMaxPixels caps width*height of decoded images when no limit is set.
const DefaultMaxPixels = 64 << 20

// ErrTooLarge is returned when the header declares more pixels than allowed.
var ErrTooLarge = errors.New("media: image too large")

// DecodeRGB decodes data and converts it to RGB. Images whose header declares
// more than maxPixels pixels (DefaultMaxPixels when maxPixels <= 0) are
// rejected before any pixel buffer is allocated. When maxSide > 0 the image is
// downscaled so that neither side exceeds it, keeping the aspect ratio.
func DecodeRGB(data []byte, maxSide, maxPixels int) (*RGB, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("media: %s image has no pixels", format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %s %dx%d exceeds %d pixels", ErrTooLarge, format, cfg.Width, cfg.Height, maxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode: %w", err)
	}
	img = fit(img, maxSide)
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("media: %s image has no pixels", format)
	}
	return &RGB{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Pix:    toRGB(img),
		Format: format,
	}, nil
}

// Dimensions returns the target size for a w x h image bounded by maxSide.
func Dimensions(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}

func fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	nw, nh := Dimensions(b.Dx(), b.Dy(), maxSide)
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func toRGB(img image.Image) []byte {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}
