package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestLongestSide(t *testing.T) {
	cases := []struct {
		name         string
		w, h, size   int
		wantW, wantH int
	}{
		{"landscape", 200, 100, 50, 50, 25},
		{"portrait", 100, 400, 64, 16, 64},
		{"square", 80, 80, 40, 40, 40},
		{"upscale", 10, 5, 20, 20, 10},
		{"sliver", 1000, 1, 10, 10, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := LongestSide(tc.w, tc.h, tc.size)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestFitInto(t *testing.T) {
	w, h := FitInto(400, 200, 100, 100)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h = FitInto(200, 400, 100, 100)
	assert.Equal(t, 50, w)
	assert.Equal(t, 100, h)

	w, h = FitInto(200, 400, 0, 100)
	assert.Equal(t, 200, w)
	assert.Equal(t, 400, h)
}

func TestThumbnailPadsAndOutlines(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	thumb, err := Thumbnail(solid(40, 20, red), 20, DrawScaler{Interpolator: draw.NearestNeighbor})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 20, 20), thumb.Bounds())
	// Scaled content is 20x10 centred vertically: rows 5..14.
	assert.Equal(t, red, thumb.RGBAAt(10, 10))
	assert.Equal(t, canvasColor, thumb.RGBAAt(10, 2))
	assert.Equal(t, canvasColor, thumb.RGBAAt(10, 17))
	// Top and left edges carry the border; bottom and right are clipped.
	assert.Equal(t, BorderColor, thumb.RGBAAt(10, 0))
	assert.Equal(t, BorderColor, thumb.RGBAAt(0, 10))
	assert.Equal(t, red, thumb.RGBAAt(19, 10))
}

func TestThumbnailRejectsBadSize(t *testing.T) {
	_, err := Thumbnail(solid(4, 4, color.RGBA{A: 255}), 0, nil)
	var sizeErr *SizeError
	assert.ErrorAs(t, err, &sizeErr)
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder(8)
	assert.Equal(t, image.Rect(0, 0, 8, 8), p.Bounds())
	assert.Equal(t, BorderColor, p.RGBAAt(0, 0))
	assert.Equal(t, BorderColor, p.RGBAAt(7, 0))
	assert.Equal(t, canvasColor, p.RGBAAt(4, 4))
}

func TestGridRowMajor(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	cells := []image.Image{solid(4, 4, red), solid(4, 4, green), solid(4, 4, blue)}

	out := Grid(cells, 2, 2, 4)
	require.Equal(t, image.Rect(0, 0, 8, 8), out.Bounds())
	assert.Equal(t, red, out.RGBAAt(1, 1))
	assert.Equal(t, green, out.RGBAAt(5, 1))
	assert.Equal(t, blue, out.RGBAAt(1, 5))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(5, 5))
}

func TestCloneIsIndependent(t *testing.T) {
	src := solid(2, 2, color.RGBA{R: 1, A: 255})
	dup := Clone(src)
	dup.SetRGBA(0, 0, color.RGBA{G: 9, A: 255})
	assert.Equal(t, color.RGBA{R: 1, A: 255}, src.RGBAAt(0, 0))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(3, 2, color.RGBA{A: 255})))
	require.NoError(t, f.Close())

	img, format, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, img.Bounds().Dx())

	garbage := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, _, err = Open(garbage)
	assert.Error(t, err)

	_, _, err = Open(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("a/B.PNG", ".png", ".jpg"))
	assert.True(t, HasExtension("x.jpg", ".png", ".jpg"))
	assert.False(t, HasExtension("x.jpeg", ".png", ".jpg"))
	assert.False(t, HasExtension("noext", ".png"))
}
