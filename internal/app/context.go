package app

import (
	"fmt"
	"os"

	"trainview/internal/config"
	"trainview/internal/images"
	"trainview/internal/logger"
	"trainview/internal/trigger"
)

// Context owns the session state every part of the GUI shares. It is built
// once at start-up and passed down.
type Context struct {
	Config  *config.Config
	Images  *images.Images
	Trigger *trigger.Trigger
	Log     logger.Logger
}

type ContextOptions struct {
	CacheDir  string
	ConfigDir string
	DPI       float64
	// Notify receives messages for the user. It may be nil.
	Notify func(string)
}

// NewContext creates the cache folders if needed and loads configuration,
// icons and the preview trigger.
func NewContext(opts ContextOptions, log logger.Logger) (*Context, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.CacheDir == "" {
		return nil, fmt.Errorf("cache folder not set")
	}

	cfg, err := config.New(config.Options{
		DPI:       opts.DPI,
		CacheDir:  opts.CacheDir,
		ConfigDir: opts.ConfigDir,
	}, log)
	if err != nil {
		// Bad user settings fall back to defaults.
		log.Warning("Context", "using default settings", map[string]interface{}{"error": err.Error()})
	}

	for _, dir := range []string{cfg.PreviewDir(), cfg.IconDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache folder: %w", err)
		}
	}

	imgs, err := images.New(cfg, log, opts.Notify)
	if err != nil {
		return nil, err
	}

	return &Context{
		Config:  cfg,
		Images:  imgs,
		Trigger: trigger.New(opts.CacheDir, log),
		Log:     log,
	}, nil
}

// ResetPreviews deletes preview files and clears both triggers. Called when
// a task ends and when the session starts or stops.
func (c *Context) ResetPreviews() {
	c.Images.DeletePreview()
	if err := c.Trigger.Clear(); err != nil {
		c.Log.Error("Context", err, nil)
	}
	_ = c.Config.Vars().UpdatePreview.Set(false)
}
