package preview

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"trainview/internal/imaging"
	"trainview/internal/logger"
)

// ErrUnknownPreview is returned when resizing a label that was never loaded.
var ErrUnknownPreview = errors.New("preview: unknown training preview")

// TrainingImage is one training preview: the decoded file, the copy scaled
// for the current frame, and the file's modification time.
type TrainingImage struct {
	Source   image.Image
	Display  image.Image
	Modified time.Time
}

// TrainingPreview follows the preview images a training run writes to the
// GUI cache folder, one image per label.
type TrainingPreview struct {
	dir      string
	images   map[string]*TrainingImage
	errCount int
	scaler   imaging.Scaler

	log    logger.Logger
	notify func(string)
}

func NewTrainingPreview(dir string, log logger.Logger, notify func(string)) *TrainingPreview {
	if log == nil {
		log = logger.Nop()
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &TrainingPreview{
		dir:    dir,
		images: make(map[string]*TrainingImage),
		scaler: imaging.DrawScaler{Interpolator: draw.CatmullRom},
		log:    log,
		notify: notify,
	}
}

// Dir is the folder being followed.
func (t *TrainingPreview) Dir() string {
	return t.dir
}

// Label derives the display label of a training preview file: the part of
// the base name after the last underscore, title cased.
func Label(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = name[strings.LastIndex(name, "_")+1:]
	return cases.Title(language.Und).String(name)
}

// Load reads every preview image in the folder. An image that fails to
// decode is most likely still being written, so the previous copy is kept;
// only after MaxPreviewRetries consecutive failures is that label dropped.
func (t *TrainingPreview) Load() error {
	t.log.Debug(component, "loading training preview images", nil)
	files, err := ListImages(t.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		t.log.Debug(component, "no preview to display", nil)
		t.images = make(map[string]*TrainingImage)
		return nil
	}

	for _, fname := range files {
		label := Label(fname)
		frame := t.currentSize(label)

		info, statErr := os.Stat(fname)
		img, _, err := imaging.Open(fname)
		if err == nil && statErr != nil {
			err = statErr
		}
		if err != nil {
			t.readFailed(label, fname, err)
			continue
		}

		t.images[label] = &TrainingImage{Source: img, Display: img, Modified: info.ModTime()}
		if err := t.Resize(label, frame); err != nil {
			return err
		}
		t.errCount = 0
	}
	return nil
}

func (t *TrainingPreview) readFailed(label, fname string, err error) {
	if t.errCount < MaxPreviewRetries {
		t.errCount++
		t.log.Warning(component, "unable to display preview", map[string]interface{}{
			"image":   fname,
			"attempt": t.errCount,
			"error":   err.Error(),
		})
		return
	}
	t.log.Error(component, fmt.Errorf("error reading the preview file for %q: %w", label, err), nil)
	t.notify(fmt.Sprintf("Error reading the preview file for %s", label))
	delete(t.images, label)
}

func (t *TrainingPreview) currentSize(label string) *Region {
	img, ok := t.images[label]
	if !ok || img.Display == nil {
		return nil
	}
	b := img.Display.Bounds()
	return &Region{Width: b.Dx(), Height: b.Dy()}
}

// Resize rescales the display copy of label to fit frame. A nil frame
// displays the source unscaled.
func (t *TrainingPreview) Resize(label string, frame *Region) error {
	img, ok := t.images[label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreview, label)
	}
	if frame == nil {
		img.Display = img.Source
		return nil
	}

	b := img.Source.Bounds()
	w, h := imaging.FitInto(b.Dx(), b.Dy(), frame.Width, frame.Height)
	t.log.Debug(component, "scaling training preview", map[string]interface{}{
		"label":  label,
		"width":  w,
		"height": h,
	})
	scaled, err := t.scaler.Scale(img.Source, w, h)
	if err != nil {
		return fmt.Errorf("resize training preview %s: %w", label, err)
	}
	img.Display = scaled
	return nil
}

// Images returns the loaded previews keyed by label.
func (t *TrainingPreview) Images() map[string]*TrainingImage {
	out := make(map[string]*TrainingImage, len(t.images))
	for k, v := range t.images {
		out[k] = v
	}
	return out
}

// Labels returns the loaded labels in sorted order.
func (t *TrainingPreview) Labels() []string {
	labels := make([]string, 0, len(t.images))
	for k := range t.images {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

// Clear forgets every loaded preview.
func (t *TrainingPreview) Clear() {
	t.images = make(map[string]*TrainingImage)
	t.errCount = 0
}
