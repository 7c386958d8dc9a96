package preview

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"trainview/internal/imaging"
	"trainview/internal/logger"
)

const (
	// TransientName is written by the worker when a single preview frame is
	// ready. The GUI removes it once loaded, which tells the worker it may
	// write the next one.
	TransientName = ".gui_preview.jpg"

	// MaxPreviewRetries is the number of consecutive failed reads tolerated
	// for one preview stream before it is dropped.
	MaxPreviewRetries = 10

	trainingPrefix = ".gui_training_preview"
)

// ErrNoOutputPath is returned by LoadLatest before SetOutputPath is called.
var ErrNoOutputPath = errors.New("preview: output path not set")

// Frame is one composed preview. Display is a private copy for the renderer
// so the composed buffer is never shared with the UI toolkit.
type Frame struct {
	Image   *image.RGBA
	Display *image.RGBA
}

// OutputPreview follows the output folder of an extract or convert task.
type OutputPreview struct {
	cache      *Cache
	outputPath string
	batchMode  bool
	current    *Frame
	retries    int

	log    logger.Logger
	notify func(string)
}

type OutputOption func(*OutputPreview)

// WithNotifier receives user-facing messages, such as a preview stream being
// dropped after repeated read failures.
func WithNotifier(fn func(string)) OutputOption {
	return func(o *OutputPreview) {
		if fn != nil {
			o.notify = fn
		}
	}
}

func NewOutputPreview(cache *Cache, log logger.Logger, opts ...OutputOption) *OutputPreview {
	if log == nil {
		log = logger.Nop()
	}
	o := &OutputPreview{
		cache:  cache,
		log:    log,
		notify: func(string) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetOutputPath points the preview at a task's output folder. Changing the
// folder or the batch flag discards everything cached for the old source.
func (o *OutputPreview) SetOutputPath(location string, batchMode bool) {
	if location != o.outputPath || batchMode != o.batchMode {
		o.Clear()
	}
	o.outputPath = location
	o.batchMode = batchMode
	o.log.Debug(component, "output path set", map[string]interface{}{
		"location":   location,
		"batch_mode": batchMode,
	})
}

// OutputPath returns the folder being followed and whether it is a batch root.
func (o *OutputPreview) OutputPath() (string, bool) {
	return o.outputPath, o.batchMode
}

// Current returns the last composed frame, or nil.
func (o *OutputPreview) Current() *Frame {
	return o.current
}

// Cache exposes the underlying thumbnail cache.
func (o *OutputPreview) Cache() *Cache {
	return o.cache
}

// Reset forgets the output folder as well as the cached state.
func (o *OutputPreview) Reset() {
	o.Clear()
	o.outputPath = ""
	o.batchMode = false
}

// Clear drops all cached state for the current source.
func (o *OutputPreview) Clear() {
	o.cache.Clear()
	o.current = nil
	o.retries = 0
}

// LoadLatest picks up images written since the previous call and recomposes
// the preview grid for the given thumbnail size and region. A refresh that
// produces no usable thumbnail leaves the current frame untouched.
func (o *OutputPreview) LoadLatest(thumbnailSize int, region Region) error {
	if o.outputPath == "" {
		return ErrNoOutputPath
	}
	o.log.Debug(component, "loading preview image", map[string]interface{}{
		"thumbnail_size": thumbnailSize,
		"width":          region.Width,
		"height":         region.Height,
	})

	imagePath := o.outputPath
	if o.batchMode {
		newestDir, err := NewestFolder(o.outputPath)
		if err != nil {
			return err
		}
		imagePath = newestDir
	}

	files, err := ListImages(imagePath)
	if err != nil {
		return err
	}

	transient := filepath.Join(o.outputPath, TransientName)
	hasTransient := slices.Contains(files, transient)
	if len(files) == 0 || (len(files) == 1 && !hasTransient) {
		o.log.Debug(component, "no preview to display", nil)
		return nil
	}
	if hasTransient {
		files = []string{transient}
	}

	files, err = o.cache.FilterNewer(files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	capacity := Capacity(region, thumbnailSize)
	if capacity == 0 {
		o.log.Debug(component, "display region holds no thumbnails", nil)
		if hasTransient {
			o.cache.ResetWatermark()
		}
		return nil
	}

	thumbs, names := o.cache.LoadAndResize(newest(files, capacity), thumbnailSize)
	if len(thumbs) == 0 {
		o.log.Debug(component, "failed to load any preview images", nil)
		if hasTransient {
			o.transientFailed(transient)
		}
		return nil
	}
	o.cache.AppendAndTrim(thumbs, names, capacity)

	if hasTransient {
		o.retries = 0
		o.log.Debug(component, "deleting preview image", map[string]interface{}{"file": transient})
		if err := os.Remove(transient); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove transient preview: %w", err)
		}
	}

	grid := o.cache.ComposeGrid(region, thumbnailSize)
	if grid == nil {
		o.current = nil
		return nil
	}
	o.log.Debug(component, "displaying preview", map[string]interface{}{
		"files": o.cache.Filenames(),
	})
	o.current = &Frame{Image: grid, Display: imaging.Clone(grid)}
	return nil
}

// transientFailed rewinds the watermark so the same frame is retried on the
// next poll. After MaxPreviewRetries consecutive failures the frame is
// discarded so the worker can write a fresh one.
func (o *OutputPreview) transientFailed(path string) {
	o.cache.ResetWatermark()
	o.retries++
	if o.retries < MaxPreviewRetries {
		o.log.Debug(component, "transient preview not readable yet", map[string]interface{}{
			"file":    path,
			"attempt": o.retries,
		})
		return
	}

	o.retries = 0
	o.log.Warning(component, "discarding unreadable preview frame", map[string]interface{}{
		"file":     path,
		"attempts": MaxPreviewRetries,
	})
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		o.log.Error(component, err, map[string]interface{}{"file": path})
	}
	o.notify(fmt.Sprintf("Unable to read the preview image after %d attempts", MaxPreviewRetries))
}

// RemoveTransient deletes any transient preview file still referenced by the
// cache.
func (o *OutputPreview) RemoveTransient() {
	for _, fname := range o.cache.Filenames() {
		if filepath.Base(fname) != TransientName {
			continue
		}
		o.log.Debug(component, "deleting", map[string]interface{}{"file": fname})
		if err := os.Remove(fname); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				o.log.Debug(component, "file does not exist", map[string]interface{}{"file": fname})
				continue
			}
			o.log.Error(component, err, map[string]interface{}{"file": fname})
		}
	}
}

// RemoveTrainingPreviews deletes the training preview images the worker left
// in dir. A missing folder is not an error.
func RemoveTrainingPreviews(dir string, log logger.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list preview folder: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, trainingPrefix) || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		full := filepath.Join(dir, name)
		log.Debug(component, "deleting", map[string]interface{}{"file": full})
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove training preview: %w", err)
		}
	}
	return nil
}
