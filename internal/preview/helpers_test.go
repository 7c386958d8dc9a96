package preview

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"trainview/internal/imaging"
	"trainview/internal/logger"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA, mtime time.Time) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func writeGarbage(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n partial"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newTestCache() *Cache {
	return NewCache(logger.Nop(), WithScaler(imaging.DrawScaler{Interpolator: draw.NearestNeighbor}))
}

func thumbs(n, size int) ([]*image.RGBA, []string) {
	out := make([]*image.RGBA, n)
	names := make([]string, n)
	for i := range out {
		out[i] = image.NewRGBA(image.Rect(0, 0, size, size))
		out[i].SetRGBA(size/2, size/2, color.RGBA{R: uint8(i + 1), A: 255})
		names[i] = filepath.Join("dir", string(rune('a'+i))+".png")
	}
	return out, names
}
