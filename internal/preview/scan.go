package preview

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Extensions recognised when scanning a folder for preview images.
var Extensions = []string{".png", ".jpg"}

// ListImages returns the preview images directly inside dir. A folder that
// does not exist yet yields no files and no error.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list preview folder: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isPreviewImage(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// NewestFolder returns the most recently modified sub-folder of root, or root
// itself when it has none.
func NewestFolder(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return root, nil
		}
		return "", fmt.Errorf("list output folder: %w", err)
	}

	newest := root
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == root || info.ModTime().After(newestTime) {
			newest = filepath.Join(root, entry.Name())
			newestTime = info.ModTime()
		}
	}
	return newest, nil
}

type stampedFile struct {
	path    string
	modTime time.Time
}

// stat returns the modification times of files. Files removed since they were
// listed are skipped.
func stat(files []string) ([]stampedFile, error) {
	out := make([]stampedFile, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat preview image: %w", err)
		}
		out = append(out, stampedFile{path: f, modTime: info.ModTime()})
	}
	return out, nil
}

// newest keeps the n most recently modified files, ordered oldest first.
func newest(files []string, n int) []string {
	stamped, err := stat(files)
	if err != nil {
		stamped = make([]stampedFile, 0, len(files))
		for _, f := range files {
			stamped = append(stamped, stampedFile{path: f})
		}
	}
	sort.SliceStable(stamped, func(i, j int) bool {
		return stamped[i].modTime.Before(stamped[j].modTime)
	})
	if len(stamped) > n {
		stamped = stamped[len(stamped)-n:]
	}

	out := make([]string, len(stamped))
	for i, s := range stamped {
		out[i] = s.path
	}
	return out
}
