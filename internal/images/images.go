// Package images is the GUI's image repository: the icon set and both
// preview sources (extract/convert output and training previews).
package images

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"trainview/internal/imaging"
	"trainview/internal/logger"
	"trainview/internal/preview"
)

const component = "Images"

// Provider supplies the locations and sizing the repository needs.
type Provider interface {
	IconDir() string
	PreviewDir() string
	IconSize() int
}

type Images struct {
	provider Provider
	icons    map[string]image.Image
	output   *preview.OutputPreview
	training *preview.TrainingPreview
	log      logger.Logger
}

// New loads the icon set and prepares empty preview sources. notify receives
// messages meant for the user; it may be nil.
func New(p Provider, log logger.Logger, notify func(string)) (*Images, error) {
	if log == nil {
		log = logger.Nop()
	}
	icons, err := LoadIcons(p.IconDir(), p.IconSize(), log)
	if err != nil {
		return nil, err
	}
	cache := preview.NewCache(log)
	return &Images{
		provider: p,
		icons:    icons,
		output:   preview.NewOutputPreview(cache, log, preview.WithNotifier(notify)),
		training: preview.NewTrainingPreview(p.PreviewDir(), log, notify),
		log:      log,
	}, nil
}

// LoadIcons reads every PNG in dir and resizes it to a size x size square.
// Other files are ignored and unreadable icons are skipped.
func LoadIcons(dir string, size int, log logger.Logger) (map[string]image.Image, error) {
	icons := make(map[string]image.Image)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warning(component, "icon folder not found", map[string]interface{}{"dir": dir})
			return icons, nil
		}
		return nil, fmt.Errorf("list icon folder: %w", err)
	}
	if size < 1 {
		size = 1
	}

	scaler := imaging.DrawScaler{Interpolator: draw.CatmullRom}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || ext != ".png" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		img, _, err := imaging.Open(path)
		if err != nil {
			log.Warning(component, "skipping icon", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
			continue
		}
		scaled, err := scaler.Scale(img, size, size)
		if err != nil {
			log.Warning(component, "skipping icon", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
			continue
		}
		icons[strings.TrimSuffix(entry.Name(), ext)] = scaled
	}
	log.Debug(component, "icons loaded", map[string]interface{}{
		"count": len(icons),
		"size":  size,
	})
	return icons, nil
}

// Icon returns the icon loaded from <name>.png in the icon folder.
func (i *Images) Icon(name string) (image.Image, bool) {
	img, ok := i.icons[name]
	return img, ok
}

func (i *Images) Output() *preview.OutputPreview {
	return i.output
}

func (i *Images) Training() *preview.TrainingPreview {
	return i.training
}

// PreviewOutput is the latest extract/convert preview, or nil.
func (i *Images) PreviewOutput() *preview.Frame {
	return i.output.Current()
}

// PreviewTrain returns the loaded training previews keyed by label.
func (i *Images) PreviewTrain() map[string]*preview.TrainingImage {
	return i.training.Images()
}

// SetOutputPath sets the folder an extract or convert task writes into.
func (i *Images) SetOutputPath(location string, batchMode bool) {
	i.output.SetOutputPath(location, batchMode)
}

func (i *Images) LoadLatestPreview(thumbnailSize int, region preview.Region) error {
	return i.output.LoadLatest(thumbnailSize, region)
}

func (i *Images) LoadTrainingPreview() error {
	return i.training.Load()
}

// DeletePreview removes preview files left by the worker and resets every
// cached preview. Called when a task stops and at start-up and exit.
func (i *Images) DeletePreview() {
	i.log.Debug(component, "deleting previews", nil)
	if err := preview.RemoveTrainingPreviews(i.provider.PreviewDir(), i.log); err != nil {
		i.log.Error(component, err, map[string]interface{}{"dir": i.provider.PreviewDir()})
	}
	i.output.RemoveTransient()
	i.output.Reset()
	i.training.Clear()
}

// Shutdown deletes previews on exit.
func (i *Images) Shutdown() {
	i.DeletePreview()
}
