// Package render - Proposal visualization helpers.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-rpn/boxes"
)

// Options configures proposal overlays.
type Options struct {
	// Color is the outline color. The zero value draws opaque red.
	Color color.RGBA
	// Thickness is the outline width in pixels. Values below one draw a
	// single pixel outline.
	Thickness int
	// MaxDim, when positive, downscales the result so neither side exceeds
	// it.
	MaxDim int
}

// Overlay draws proposal outlines onto a copy of the base image.
//
// Proposal coordinates are normalized to [0, 1] and scaled to the image
// bounds. Degenerate boxes, including the zero padding rows of a proposal
// buffer, are skipped.
//
// Arguments:
//   - base: The image to draw over. It is not modified.
//   - props: Proposal boxes in normalized coordinates.
//   - opts: Outline color, thickness and output size limit.
//
// Returns:
//   - The annotated image.
func Overlay(base image.Image, props []boxes.Box, opts Options) image.Image {
	bounds := base.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)

	col := opts.Color
	if col == (color.RGBA{}) {
		col = color.RGBA{R: 255, A: 255}
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	w := float32(bounds.Dx())
	h := float32(bounds.Dy())
	for _, b := range props {
		if b.Empty() {
			continue
		}
		r := image.Rect(
			bounds.Min.X+int(b.X1*w),
			bounds.Min.Y+int(b.Y1*h),
			bounds.Min.X+int(b.X2*w),
			bounds.Min.Y+int(b.Y2*h),
		).Canon()
		drawOutline(out, r.Intersect(bounds), col, thickness)
	}

	if opts.MaxDim > 0 && (bounds.Dx() > opts.MaxDim || bounds.Dy() > opts.MaxDim) {
		return resize.Thumbnail(uint(opts.MaxDim), uint(opts.MaxDim), out, resize.Lanczos3)
	}
	return out
}

// drawOutline draws a rectangle outline, shrinking inward per thickness
// step so the outline never escapes the rectangle.
func drawOutline(img *image.RGBA, r image.Rectangle, col color.RGBA, thickness int) {
	if r.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		top := r.Min.Y + t
		bottom := r.Max.Y - 1 - t
		left := r.Min.X + t
		right := r.Max.X - 1 - t
		if top > bottom || left > right {
			return
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, top, col)
			img.SetRGBA(x, bottom, col)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(left, y, col)
			img.SetRGBA(right, y, col)
		}
	}
}

// SavePNG writes the image to path in PNG format.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create overlay file %s", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode overlay %s", path)
	}
	return errors.Wrapf(f.Close(), "close overlay %s", path)
}
