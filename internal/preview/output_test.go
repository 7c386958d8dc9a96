package preview

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainview/internal/logger"
)

var region = Region{Width: 40, Height: 20}

const thumbSize = 10

func newTestOutput(messages *[]string) *OutputPreview {
	return NewOutputPreview(newTestCache(), logger.Nop(), WithNotifier(func(msg string) {
		if messages != nil {
			*messages = append(*messages, msg)
		}
	}))
}

func TestLoadLatestRequiresOutputPath(t *testing.T) {
	o := newTestOutput(nil)
	assert.ErrorIs(t, o.LoadLatest(thumbSize, region), ErrNoOutputPath)
}

func TestLoadLatestBuildsFrame(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.png", "b.png", "c.jpg"} {
		writePNG(t, filepath.Join(dir, name), 30, 20, color.RGBA{R: 200, A: 255}, base.Add(time.Duration(i)*time.Second))
	}

	o := newTestOutput(nil)
	o.SetOutputPath(dir, false)
	require.NoError(t, o.LoadLatest(thumbSize, region))

	frame := o.Current()
	require.NotNil(t, frame)
	assert.Equal(t, 40, frame.Image.Bounds().Dx())
	assert.Equal(t, 20, frame.Image.Bounds().Dy())
	assert.NotSame(t, frame.Image, frame.Display)
	assert.Equal(t, frame.Image.Pix, frame.Display.Pix)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.jpg"),
	}, o.Cache().Filenames())
}

func TestLoadLatestSingleNonTransientFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.RGBA{A: 255}, base)

	o := newTestOutput(nil)
	o.SetOutputPath(dir, false)
	require.NoError(t, o.LoadLatest(thumbSize, region))
	assert.Nil(t, o.Current())
	_, ok := o.Cache().Watermark()
	assert.False(t, ok)
}

func TestLoadLatestTransientFileIsExclusiveAndConsumed(t *testing.T) {
	dir := t.TempDir()
	transient := filepath.Join(dir, TransientName)
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, filepath.Join(dir, "b.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, transient, 16, 8, color.RGBA{G: 255, A: 255}, base.Add(3e9))

	o := newTestOutput(nil)
	o.SetOutputPath(dir, false)
	require.NoError(t, o.LoadLatest(thumbSize, region))

	assert.Equal(t, []string{transient}, o.Cache().Filenames())
	assert.NoFileExists(t, transient)
	assert.FileExists(t, filepath.Join(dir, "a.png"))
	require.NotNil(t, o.Current())
}

func TestLoadLatestFailedTransientIsRetried(t *testing.T) {
	dir := t.TempDir()
	transient := filepath.Join(dir, TransientName)
	writeGarbage(t, transient, base)

	var messages []string
	o := newTestOutput(&messages)
	o.SetOutputPath(dir, false)

	require.NoError(t, o.LoadLatest(thumbSize, region))
	assert.FileExists(t, transient)
	_, ok := o.Cache().Watermark()
	assert.False(t, ok, "watermark must be rewound so the frame is picked up again")
	assert.Nil(t, o.Current())

	// The worker finishes writing the same file without touching its mtime.
	writePNG(t, transient, 8, 8, color.RGBA{B: 255, A: 255}, base)
	require.NoError(t, o.LoadLatest(thumbSize, region))
	assert.NotNil(t, o.Current())
	assert.NoFileExists(t, transient)
	assert.Empty(t, messages)
}

func TestLoadLatestDropsTransientAfterRepeatedFailures(t *testing.T) {
	dir := t.TempDir()
	transient := filepath.Join(dir, TransientName)
	writeGarbage(t, transient, base)

	var messages []string
	o := newTestOutput(&messages)
	o.SetOutputPath(dir, false)

	for i := 1; i < MaxPreviewRetries; i++ {
		require.NoError(t, o.LoadLatest(thumbSize, region))
		require.FileExists(t, transient, "attempt %d", i)
	}
	require.NoError(t, o.LoadLatest(thumbSize, region))
	assert.NoFileExists(t, transient)
	require.Len(t, messages, 1)
}

func TestLoadLatestFailedRefreshKeepsPreviousFrame(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.RGBA{R: 9, A: 255}, base)
	writePNG(t, filepath.Join(dir, "b.png"), 8, 8, color.RGBA{R: 9, A: 255}, base)

	o := newTestOutput(nil)
	o.SetOutputPath(dir, false)
	require.NoError(t, o.LoadLatest(thumbSize, region))
	before := o.Current()
	require.NotNil(t, before)

	writeGarbage(t, filepath.Join(dir, "c.png"), base.Add(4e9))
	require.NoError(t, o.LoadLatest(thumbSize, region))

	assert.Same(t, before, o.Current())
	assert.Equal(t, 2, o.Cache().Len())
}

func TestLoadLatestZeroCapacity(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, filepath.Join(dir, "b.png"), 8, 8, color.RGBA{A: 255}, base)

	o := newTestOutput(nil)
	o.SetOutputPath(dir, false)
	require.NoError(t, o.LoadLatest(thumbSize, Region{Width: 5, Height: 5}))
	assert.Nil(t, o.Current())
	assert.Zero(t, o.Cache().Len())
}

func TestLoadLatestBatchModeUsesNewestFolder(t *testing.T) {
	root := t.TempDir()
	older := filepath.Join(root, "older")
	newer := filepath.Join(root, "newer")
	writePNG(t, filepath.Join(older, "a.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, filepath.Join(older, "b.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, filepath.Join(newer, "c.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, filepath.Join(newer, "d.png"), 8, 8, color.RGBA{A: 255}, base)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(1e9), base.Add(1e9)))

	o := newTestOutput(nil)
	o.SetOutputPath(root, true)
	require.NoError(t, o.LoadLatest(thumbSize, region))

	assert.Equal(t, []string{filepath.Join(newer, "c.png"), filepath.Join(newer, "d.png")}, o.Cache().Filenames())
}

func TestNewestFolderFallsBackToRoot(t *testing.T) {
	root := t.TempDir()
	got, err := NewestFolder(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	missing := filepath.Join(root, "missing")
	got, err = NewestFolder(missing)
	require.NoError(t, err)
	assert.Equal(t, missing, got)
}

func TestSetOutputPathClearsOnChange(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.RGBA{A: 255}, base)
	writePNG(t, filepath.Join(dir, "b.png"), 8, 8, color.RGBA{A: 255}, base)

	o := newTestOutput(nil)
	o.SetOutputPath(dir, false)
	require.NoError(t, o.LoadLatest(thumbSize, region))
	require.NotNil(t, o.Current())

	o.SetOutputPath(dir, false)
	assert.NotNil(t, o.Current(), "same source keeps the cache")

	o.SetOutputPath(dir, true)
	assert.Nil(t, o.Current())
	assert.Zero(t, o.Cache().Len())

	o.Reset()
	path, batch := o.OutputPath()
	assert.Empty(t, path)
	assert.False(t, batch)
}

func TestRemoveTrainingPreviews(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "icon.png")
	drop := filepath.Join(dir, ".gui_training_preview_a.jpg")
	writePNG(t, keep, 2, 2, color.RGBA{A: 255}, base)
	writePNG(t, drop, 2, 2, color.RGBA{A: 255}, base)

	require.NoError(t, RemoveTrainingPreviews(dir, logger.Nop()))
	assert.FileExists(t, keep)
	assert.NoFileExists(t, drop)

	assert.NoError(t, RemoveTrainingPreviews(filepath.Join(dir, "missing"), logger.Nop()))
}

func TestRemoveTransient(t *testing.T) {
	dir := t.TempDir()
	transient := filepath.Join(dir, TransientName)
	o := newTestOutput(nil)
	imgs, _ := thumbs(1, 4)
	o.Cache().AppendAndTrim(imgs, []string{transient}, 1)

	writePNG(t, transient, 2, 2, color.RGBA{A: 255}, base)
	o.RemoveTransient()
	assert.NoFileExists(t, transient)

	assert.NotPanics(t, o.RemoveTransient)
}
