package app

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainview/internal/logger"
	"trainview/internal/preview"
	"trainview/internal/trigger"
)

func newTestApplication(t *testing.T, opts Options) *Application {
	t.Helper()
	fyneApp := test.NewTempApp(t)
	if opts.CacheDir == "" {
		opts.CacheDir = t.TempDir()
	}
	a, err := newApplication(fyneApp, opts, logger.Nop())
	require.NoError(t, err)
	return a
}

func TestNewContextCreatesCacheTree(t *testing.T) {
	root := t.TempDir()
	ctx, err := NewContext(ContextOptions{CacheDir: root}, logger.Nop())
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, "preview"))
	assert.DirExists(t, filepath.Join(root, "icons"))
	assert.Equal(t, 1.0, ctx.Config.ScalingFactor())
}

func TestNewContextRequiresCacheDir(t *testing.T) {
	_, err := NewContext(ContextOptions{}, logger.Nop())
	assert.Error(t, err)
}

func TestResetPreviews(t *testing.T) {
	test.NewTempApp(t)
	root := t.TempDir()
	ctx, err := NewContext(ContextOptions{CacheDir: root}, logger.Nop())
	require.NoError(t, err)

	stale := filepath.Join(ctx.Config.PreviewDir(), ".gui_training_preview_swap.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, ctx.Trigger.Set(trigger.Update))
	require.NoError(t, ctx.Trigger.Set(trigger.MaskToggle))
	ctx.Images.SetOutputPath(filepath.Join(root, "out"), true)

	ctx.ResetPreviews()
	assert.NoFileExists(t, stale)
	assert.False(t, ctx.Trigger.IsSet(trigger.Update))
	assert.False(t, ctx.Trigger.IsSet(trigger.MaskToggle))
	path, batch := ctx.Images.Output().OutputPath()
	assert.Empty(t, path)
	assert.False(t, batch)
}

func TestApplicationWiring(t *testing.T) {
	out := t.TempDir()
	a := newTestApplication(t, Options{OutputDir: out, BatchMode: true})

	assert.Equal(t, Options{CacheDir: a.Context().Config.CacheDir(), OutputDir: out, BatchMode: true}, a.opts)
	assert.Equal(t, "Trainview", a.window.Title())

	training, err := a.Context().Config.Vars().IsTraining.Get()
	require.NoError(t, err)
	assert.False(t, training)
}

func TestStartTaskReportsResult(t *testing.T) {
	a := newTestApplication(t, Options{})
	vars := a.Context().Config.Vars()

	var got atomic.Value
	release := make(chan struct{})
	a.lifecycle.StartTask("sum", func() (interface{}, error) {
		<-release
		return 3, nil
	}, func(v interface{}) { got.Store(v) })

	running, _ := vars.RunningTask.Get()
	assert.True(t, running)
	assert.True(t, a.guiManager.StatusBar().Busy())

	close(release)
	assert.Eventually(t, func() bool { return got.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		running, _ := vars.RunningTask.Get()
		return !running && !a.guiManager.StatusBar().Busy()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartTaskErrorSkipsCallback(t *testing.T) {
	a := newTestApplication(t, Options{})

	var called atomic.Bool
	tk := a.lifecycle.StartTask("fail", func() (interface{}, error) {
		return nil, errors.New("worker missing")
	}, func(interface{}) { called.Store(true) })

	<-tk.Done()
	assert.Eventually(t, func() bool { return !a.guiManager.StatusBar().Busy() }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, called.Load())
}

func TestTaskTerminatedClearsPreviews(t *testing.T) {
	a := newTestApplication(t, Options{Training: true})
	ctx := a.Context()
	require.NoError(t, ctx.Trigger.Set(trigger.Update))

	a.lifecycle.TaskTerminated()
	assert.False(t, ctx.Trigger.IsSet(trigger.Update))
	training, _ := ctx.Config.Vars().IsTraining.Get()
	assert.False(t, training)
	assert.Nil(t, ctx.Images.PreviewOutput())
	assert.Empty(t, ctx.Images.Training().Labels())
	assert.ErrorIs(t, ctx.Images.LoadLatestPreview(64, preview.Region{Width: 64, Height: 64}), preview.ErrNoOutputPath)
}

func TestStartupKeepsOutputFolder(t *testing.T) {
	out := t.TempDir()
	writeTestPNG(t, filepath.Join(out, "face_0.png"))
	writeTestPNG(t, filepath.Join(out, "face_1.png"))
	a := newTestApplication(t, Options{OutputDir: out})
	ctx := a.Context()

	stale := filepath.Join(ctx.Config.PreviewDir(), ".gui_training_preview_swap.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	var started atomic.Bool
	tk := a.startPreviews(context.Background(), func() {
		path, _ := ctx.Images.Output().OutputPath()
		started.Store(path == out)
	})
	<-tk.Done()
	require.Eventually(t, started.Load, 2*time.Second, 10*time.Millisecond, "output folder set before polling starts")
	assert.NoFileExists(t, stale)

	require.NoError(t, ctx.Images.LoadLatestPreview(32, preview.Region{Width: 128, Height: 64}))
	frame := ctx.Images.PreviewOutput()
	require.NotNil(t, frame)
	assert.Equal(t, image.Rect(0, 0, 128, 64), frame.Display.Bounds())

	panel := a.guiManager.PreviewPanel()
	panel.Refresh()
	assert.NotNil(t, panel.OutputImage())
}

func TestStartupSkipsPollingAfterShutdown(t *testing.T) {
	out := t.TempDir()
	a := newTestApplication(t, Options{OutputDir: out})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var started atomic.Bool
	tk := a.startPreviews(ctx, func() { started.Store(true) })
	<-tk.Done()

	assert.Eventually(t, func() bool {
		path, _ := a.Context().Images.Output().OutputPath()
		return path == out
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, started.Load())
}

func TestSaveSettingsStoresGeometry(t *testing.T) {
	config := t.TempDir()
	a := newTestApplication(t, Options{ConfigDir: config})
	a.window.Resize(fyne.NewSize(900, 700))

	a.saveSettings()

	settingsPath := a.Context().Config.SettingsPath()
	assert.Equal(t, filepath.Join(config, "trainview.yaml"), settingsPath)
	assert.FileExists(t, settingsPath)
	assert.False(t, a.Context().Config.Settings().Fullscreen)
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}
