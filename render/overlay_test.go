package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-rpn/boxes"
)

func whiteBase(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func TestOverlayDrawsOutline(t *testing.T) {
	base := whiteBase(100, 100)
	red := color.RGBA{R: 255, A: 255}

	out := Overlay(base, []boxes.Box{{Y1: 0.1, X1: 0.2, Y2: 0.5, X2: 0.6}}, Options{})
	rgba, ok := out.(*image.RGBA)
	require.True(t, ok)

	// The box maps to pixel rect (20, 10) to (60, 50).
	assert.Equal(t, red, rgba.RGBAAt(20, 10), "top left corner should be outlined")
	assert.Equal(t, red, rgba.RGBAAt(59, 10), "top right corner should be outlined")
	assert.Equal(t, red, rgba.RGBAAt(20, 49), "bottom left corner should be outlined")
	assert.Equal(t, red, rgba.RGBAAt(40, 10), "top edge should be outlined")
	assert.Equal(t, red, rgba.RGBAAt(20, 30), "left edge should be outlined")

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, rgba.RGBAAt(40, 30), "the interior should be untouched")
	assert.Equal(t, white, rgba.RGBAAt(5, 5), "pixels outside the box should be untouched")
}

func TestOverlayDoesNotModifyBase(t *testing.T) {
	base := whiteBase(50, 50)
	Overlay(base, []boxes.Box{{Y1: 0, X1: 0, Y2: 1, X2: 1}}, Options{})

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, base.RGBAAt(0, 0), "the base image must stay pristine")
}

func TestOverlaySkipsDegenerateBoxes(t *testing.T) {
	base := whiteBase(50, 50)

	// Zero padding rows and inverted boxes must leave the image untouched.
	out := Overlay(base, []boxes.Box{
		{},
		{Y1: 0.8, X1: 0.8, Y2: 0.2, X2: 0.2},
	}, Options{})
	rgba := out.(*image.RGBA)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, p := range []image.Point{{0, 0}, {10, 40}, {25, 25}, {49, 49}} {
		assert.Equal(t, white, rgba.RGBAAt(p.X, p.Y), "pixel %v", p)
	}
}

func TestOverlayCustomColorAndThickness(t *testing.T) {
	base := whiteBase(100, 100)
	green := color.RGBA{G: 255, A: 255}

	out := Overlay(base, []boxes.Box{{Y1: 0.1, X1: 0.1, Y2: 0.9, X2: 0.9}}, Options{
		Color:     green,
		Thickness: 3,
	})
	rgba := out.(*image.RGBA)

	assert.Equal(t, green, rgba.RGBAAt(50, 10), "outer outline row")
	assert.Equal(t, green, rgba.RGBAAt(50, 12), "third outline row")
	assert.NotEqual(t, green, rgba.RGBAAt(50, 13), "rows past the thickness stay untouched")
}

func TestOverlayDownscales(t *testing.T) {
	base := whiteBase(200, 100)

	out := Overlay(base, nil, Options{MaxDim: 50})
	bounds := out.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 50)
	assert.LessOrEqual(t, bounds.Dy(), 50)

	// Already small images pass through at full size.
	out = Overlay(whiteBase(40, 30), nil, Options{MaxDim: 50})
	assert.Equal(t, 40, out.Bounds().Dx())
}

func TestSavePNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.png")

	out := Overlay(whiteBase(20, 20), []boxes.Box{{Y1: 0.2, X1: 0.2, Y2: 0.8, X2: 0.8}}, Options{})
	require.NoError(t, SavePNG(path, out))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, out.Bounds(), decoded.Bounds())
}

func TestSavePNGFailsOnMissingDirectory(t *testing.T) {
	err := SavePNG(filepath.Join(t.TempDir(), "missing", "overlay.png"), whiteBase(4, 4))
	assert.Error(t, err)
}
