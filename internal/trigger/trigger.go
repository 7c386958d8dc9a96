// Package trigger signals the worker process through marker files in the GUI
// cache folder. The worker polls for the files and deletes them once acted on.
package trigger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"trainview/internal/logger"
)

// Kind names a signal understood by the worker.
type Kind string

const (
	// Update requests a full preview refresh.
	Update Kind = "update"
	// MaskToggle toggles the mask overlay in the preview.
	MaskToggle Kind = "mask_toggle"
)

var ErrUnknownTrigger = errors.New("trigger: unknown trigger kind")

var fileNames = map[Kind]string{
	Update:     ".preview_trigger",
	MaskToggle: ".preview_mask_toggle",
}

type Trigger struct {
	files map[Kind]string
	log   logger.Logger
}

func New(cacheDir string, log logger.Logger) *Trigger {
	if log == nil {
		log = logger.Nop()
	}
	files := make(map[Kind]string, len(fileNames))
	for kind, name := range fileNames {
		files[kind] = filepath.Join(cacheDir, name)
	}
	log.Debug("PreviewTrigger", "trigger files configured", map[string]interface{}{
		"update":      files[Update],
		"mask_toggle": files[MaskToggle],
	})
	return &Trigger{files: files, log: log}
}

// Path returns the marker file used for kind.
func (t *Trigger) Path(kind Kind) (string, error) {
	path, ok := t.files[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, kind)
	}
	return path, nil
}

// Set places the marker for kind. Setting an already set trigger is a no-op.
func (t *Trigger) Set(kind Kind) error {
	path, err := t.Path(kind)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("set trigger %s: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("set trigger %s: %w", kind, err)
	}
	t.log.Debug("PreviewTrigger", "set preview trigger", map[string]interface{}{"file": path})
	return nil
}

// Clear removes the markers for kinds, or for every kind when none is given.
// Missing markers are ignored.
func (t *Trigger) Clear(kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = t.kinds()
	}
	var errs []error
	for _, kind := range kinds {
		path, err := t.Path(kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("clear trigger %s: %w", kind, err))
			}
			continue
		}
		t.log.Debug("PreviewTrigger", "removed preview trigger", map[string]interface{}{"file": path})
	}
	return errors.Join(errs...)
}

// IsSet reports whether the marker for kind is present.
func (t *Trigger) IsSet(kind Kind) bool {
	path, err := t.Path(kind)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (t *Trigger) kinds() []Kind {
	kinds := make([]Kind, 0, len(t.files))
	for kind := range t.files {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Shutdown clears every trigger so a stale marker is not picked up by the
// next run.
func (t *Trigger) Shutdown() {
	if err := t.Clear(); err != nil {
		t.log.Error("PreviewTrigger", err, nil)
	}
}
