// Package preview turns the images a worker process writes to disk into
// thumbnail grids sized for a display panel.
//
// The worker and the GUI never talk directly. The worker writes image files;
// the GUI polls the folder, keeping a modification-time watermark so that each
// poll only picks up files written since the last one. Files caught mid-write
// fail to decode and are dropped until a later poll sees them complete.
//
// Nothing in this package locks. A Cache, OutputPreview or TrainingPreview
// must only be touched from one goroutine, normally the UI goroutine.
package preview

import (
	"image"
	"time"

	"trainview/internal/imaging"
	"trainview/internal/logger"
)

const component = "PreviewCache"

// Region is the pixel size of the panel a grid is composed for.
type Region struct {
	Width  int
	Height int
}

// Cols is the number of whole thumbnails that fit across the region.
func (r Region) Cols(size int) int {
	if size <= 0 || r.Width <= 0 {
		return 0
	}
	return r.Width / size
}

// Rows is the number of whole thumbnails that fit down the region.
func (r Region) Rows(size int) int {
	if size <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Height / size
}

// Capacity is the number of grid cells of the given size that fit in region.
// Zero means nothing can be displayed.
func Capacity(region Region, size int) int {
	return region.Cols(size) * region.Rows(size)
}

// Cache keeps the most recent thumbnails for a preview source together with
// the file each one came from. thumbnails and filenames always have equal
// length.
type Cache struct {
	thumbnails  []*image.RGBA
	filenames   []string
	modified    time.Time
	hasModified bool
	placeholder *image.RGBA

	scaler imaging.Scaler
	open   func(string) (image.Image, string, error)
	log    logger.Logger
}

type CacheOption func(*Cache)

// WithScaler overrides the scaler used to build thumbnails.
func WithScaler(s imaging.Scaler) CacheOption {
	return func(c *Cache) {
		c.scaler = s
	}
}

// WithOpener overrides how preview files are read and decoded.
func WithOpener(open func(path string) (image.Image, string, error)) CacheOption {
	return func(c *Cache) {
		if open != nil {
			c.open = open
		}
	}
}

func NewCache(log logger.Logger, opts ...CacheOption) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	c := &Cache{
		scaler: imaging.DefaultScaler(),
		open:   imaging.Open,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len is the number of cached thumbnails.
func (c *Cache) Len() int {
	return len(c.thumbnails)
}

// Filenames returns the cached source files, oldest first.
func (c *Cache) Filenames() []string {
	out := make([]string, len(c.filenames))
	copy(out, c.filenames)
	return out
}

// Watermark returns the newest modification time seen so far. ok is false
// until a scan has returned files.
func (c *Cache) Watermark() (t time.Time, ok bool) {
	return c.modified, c.hasModified
}

// ResetWatermark forgets the watermark so the next scan returns every file.
func (c *Cache) ResetWatermark() {
	c.modified = time.Time{}
	c.hasModified = false
}

// Clear drops all thumbnails, the watermark and the placeholder.
func (c *Cache) Clear() {
	c.log.Debug(component, "clearing image cache", nil)
	c.thumbnails = nil
	c.filenames = nil
	c.placeholder = nil
	c.ResetWatermark()
}

// ScanNew lists the preview images in dir and returns those modified after
// the watermark.
func (c *Cache) ScanNew(dir string) ([]string, error) {
	files, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	return c.FilterNewer(files)
}

// FilterNewer returns the files modified strictly after the watermark, or all
// of them when no watermark is set. When anything is returned the watermark
// moves to the newest modification time among them.
func (c *Cache) FilterNewer(files []string) ([]string, error) {
	stamped, err := stat(files)
	if err != nil {
		return nil, err
	}

	var (
		out    []string
		newest time.Time
	)
	for _, f := range stamped {
		if c.hasModified && !f.modTime.After(c.modified) {
			continue
		}
		out = append(out, f.path)
		if f.modTime.After(newest) {
			newest = f.modTime
		}
	}

	if len(out) == 0 {
		c.log.Debug(component, "no new images in output folder", nil)
		return nil, nil
	}

	c.modified = newest
	c.hasModified = true
	c.log.Debug(component, "new images found", map[string]interface{}{
		"count":         len(out),
		"last_modified": newest,
	})
	return out, nil
}

// LoadAndResize builds a thumbnail for each file. Files that cannot be read
// or decoded are skipped; the returned filenames match the returned
// thumbnails one to one.
func (c *Cache) LoadAndResize(files []string, size int) ([]*image.RGBA, []string) {
	thumbs := make([]*image.RGBA, 0, len(files))
	names := make([]string, 0, len(files))

	for _, fname := range files {
		img, _, err := c.open(fname)
		if err != nil {
			// Partially written files are routine while the worker is saving.
			c.log.Debug(component, "error opening preview file", map[string]interface{}{
				"file":  fname,
				"error": err.Error(),
			})
			continue
		}

		thumb, err := imaging.Thumbnail(img, size, c.scaler)
		if err != nil {
			c.log.Debug(component, "error resizing preview image", map[string]interface{}{
				"file":  fname,
				"error": err.Error(),
			})
			continue
		}

		thumbs = append(thumbs, thumb)
		names = append(names, fname)
	}
	return thumbs, names
}

// AppendAndTrim adds thumbnails to the end of the cache and evicts the oldest
// entries beyond capacity. Unpaired trailing entries are dropped.
func (c *Cache) AppendAndTrim(thumbs []*image.RGBA, names []string, capacity int) {
	if len(thumbs) != len(names) {
		n := min(len(thumbs), len(names))
		c.log.Debug(component, "thumbnails and filenames differ in length", map[string]interface{}{
			"thumbnails": len(thumbs),
			"filenames":  len(names),
			"kept":       n,
		})
		thumbs, names = thumbs[:n], names[:n]
	}
	c.thumbnails = append(c.thumbnails, thumbs...)
	c.filenames = append(c.filenames, names...)

	if capacity < 0 {
		capacity = 0
	}
	if excess := len(c.thumbnails) - capacity; excess > 0 {
		c.thumbnails = append([]*image.RGBA(nil), c.thumbnails[excess:]...)
		c.filenames = append([]string(nil), c.filenames[excess:]...)
	}
	c.log.Debug(component, "cache updated", map[string]interface{}{
		"cached":   len(c.thumbnails),
		"capacity": capacity,
	})
}

// ComposeGrid lays the cached thumbnails out to fill region, padding unused
// cells with the placeholder. It returns nil when there is nothing to show.
func (c *Cache) ComposeGrid(region Region, size int) *image.RGBA {
	if len(c.thumbnails) == 0 {
		c.log.Debug(component, "no images in cache", nil)
		return nil
	}

	cols, rows := region.Cols(size), region.Rows(size)
	if cols == 0 || rows == 0 {
		c.log.Debug(component, "cols or rows is zero, no items to display", map[string]interface{}{
			"cols": cols,
			"rows": rows,
		})
		return nil
	}

	if c.placeholder == nil || c.placeholder.Bounds().Dx() != size {
		c.log.Debug(component, "creating placeholder", map[string]interface{}{"size": size})
		c.placeholder = imaging.Placeholder(size)
	}

	thumbs := c.thumbnails
	if len(thumbs) > cols*rows {
		thumbs = thumbs[len(thumbs)-cols*rows:]
	}

	cells := make([]image.Image, 0, cols*rows)
	for _, t := range thumbs {
		cells = append(cells, t)
	}
	for len(cells) < cols*rows {
		cells = append(cells, c.placeholder)
	}

	return imaging.Grid(cells, cols, rows, size)
}

func isPreviewImage(name string) bool {
	return imaging.HasExtension(name, Extensions...)
}
