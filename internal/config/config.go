// Package config holds the session-wide state shared by every part of the
// GUI: display scaling, the cache location, user settings, bound runtime
// variables and hooks into the window and command notebook.
package config

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/theme"

	"trainview/internal/logger"
)

// AppTitle prefixes the main window title.
const AppTitle = "Trainview"

// ErrNoNotebook is returned by notebook operations before SetCommandNotebook.
var ErrNoNotebook = errors.New("config: command notebook not set")

// Window is the part of the main window the config drives.
type Window interface {
	SetTitle(string)
	Resize(fyne.Size)
	SetFullScreen(bool)
}

// Busy shows or clears the busy indicator.
type Busy interface {
	SetCursorBusy()
	SetCursorDefault()
}

// Notebook is the command notebook with its nested tools notebook.
type Notebook interface {
	TabNames() map[string]int
	ToolsTabNames() map[string]int
	Select(id int)
	SelectTools(id int)
	ModifiedVars() map[string]binding.Bool
}

type Options struct {
	// DPI of the display the window opens on. Zero means 72.
	DPI       float64
	CacheDir  string
	ConfigDir string
}

type Config struct {
	mu sync.RWMutex

	scaling   float64
	cacheDir  string
	configDir string
	settings  Settings

	vars           *Vars
	window         Window
	busy           Busy
	notebook       Notebook
	defaultOptions map[string]map[string]interface{}

	log logger.Logger
}

func New(opts Options, log logger.Logger) (*Config, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Config{
		scaling:   ScalingFactor(opts.DPI),
		cacheDir:  opts.CacheDir,
		configDir: opts.ConfigDir,
		vars:      newVars(),
		log:       log,
	}
	if c.configDir == "" {
		c.configDir = c.cacheDir
	}
	if err := c.Refresh(); err != nil {
		return c, err
	}
	c.log.Debug("Config", "config initialized", map[string]interface{}{
		"scaling":   c.scaling,
		"cache_dir": c.cacheDir,
		"settings":  c.SettingsPath(),
	})
	return c, nil
}

// ScalingFactor converts a display DPI to a factor relative to 72 DPI.
func ScalingFactor(dpi float64) float64 {
	if dpi <= 0 || math.IsNaN(dpi) || math.IsInf(dpi, 0) {
		return 1
	}
	return dpi / 72.0
}

func (c *Config) ScalingFactor() float64 { return c.scaling }
func (c *Config) CacheDir() string       { return c.cacheDir }
func (c *Config) Vars() *Vars            { return c.vars }

// PreviewDir is the folder the worker writes training previews into.
func (c *Config) PreviewDir() string {
	return filepath.Join(c.cacheDir, "preview")
}

func (c *Config) IconDir() string {
	return filepath.Join(c.cacheDir, "icons")
}

func (c *Config) SettingsPath() string {
	return filepath.Join(c.configDir, SettingsFile)
}

func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Refresh reloads the user settings from disk. On error the defaults stay
// in effect.
func (c *Config) Refresh() error {
	settings, err := LoadSettings(c.SettingsPath())
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	if err != nil {
		c.log.Error("Config", err, map[string]interface{}{"path": c.SettingsPath()})
	}
	return err
}

// IconSize is the configured icon size adjusted for display scaling.
func (c *Config) IconSize() int {
	return int(math.Round(float64(c.Settings().IconSize) * c.scaling))
}

// DefaultFont returns the configured font name and size, resolving
// "default" to the theme's text font.
func (c *Config) DefaultFont() (string, int) {
	s := c.Settings()
	font := s.Font
	if font == "default" {
		font = theme.DefaultTheme().Font(fyne.TextStyle{}).Name()
	}
	return font, s.FontSize
}

func (c *Config) SetWindow(w Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = w
}

func (c *Config) SetBusySurface(b Busy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = b
}

func (c *Config) SetCursorBusy() {
	c.log.Debug("Config", "setting cursor to busy", nil)
	if b := c.busySurface(); b != nil {
		b.SetCursorBusy()
	}
}

func (c *Config) SetCursorDefault() {
	c.log.Debug("Config", "setting cursor to default", nil)
	if b := c.busySurface(); b != nil {
		b.SetCursorDefault()
	}
}

func (c *Config) busySurface() Busy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}

func (c *Config) SetCommandNotebook(nb Notebook) {
	c.mu.Lock()
	c.notebook = nb
	c.mu.Unlock()
	c.log.Debug("Config", "command notebook set", nil)
}

func (c *Config) commandNotebook() Notebook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notebook
}

// SetActiveTabByName selects the command tab called name, or the tools tab
// of that name inside the tools command tab. Unknown names select the first
// command tab.
func (c *Config) SetActiveTabByName(name string) error {
	nb := c.commandNotebook()
	if nb == nil {
		return ErrNoNotebook
	}
	name = strings.ToLower(name)

	commandTabs := nb.TabNames()
	if id, ok := commandTabs[name]; ok {
		c.log.Debug("Config", "setting active tab", map[string]interface{}{"name": name, "id": id})
		nb.Select(id)
		return nil
	}
	if id, ok := nb.ToolsTabNames()[name]; ok {
		nb.Select(commandTabs["tools"])
		c.log.Debug("Config", "setting active tools tab", map[string]interface{}{"name": name, "id": id})
		nb.SelectTools(id)
		return nil
	}
	c.log.Debug("Config", "tab not found, selecting first tab", map[string]interface{}{"name": name})
	nb.Select(0)
	return nil
}

// SetModifiedTrue flags command as having unsaved changes.
func (c *Config) SetModifiedTrue(command string) error {
	nb := c.commandNotebook()
	if nb == nil {
		return ErrNoNotebook
	}
	v, ok := nb.ModifiedVars()[command]
	if !ok || v == nil {
		c.log.Debug("Config", "no modified var for command", map[string]interface{}{"command": command})
		return nil
	}
	return v.Set(true)
}

// SetDefaultOptions stores a copy of the option values the session started with.
func (c *Config) SetDefaultOptions(opts map[string]map[string]interface{}) {
	snapshot := make(map[string]map[string]interface{}, len(opts))
	for command, values := range opts {
		inner := make(map[string]interface{}, len(values))
		for k, v := range values {
			inner[k] = v
		}
		snapshot[command] = inner
	}
	c.mu.Lock()
	c.defaultOptions = snapshot
	c.mu.Unlock()
}

func (c *Config) DefaultOptions() map[string]map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultOptions
}

// RootTitle builds the window title for text.
func RootTitle(text string) string {
	if text == "" {
		return AppTitle
	}
	return AppTitle + " - " + text
}

func (c *Config) SetRootTitle(text string) {
	c.mu.RLock()
	w := c.window
	c.mu.RUnlock()
	if w != nil {
		w.SetTitle(RootTitle(text))
	}
}

// SetGeometry sizes the window to width x height before scaling, or makes
// it full screen.
func (c *Config) SetGeometry(width, height int, fullscreen bool) fyne.Size {
	c.mu.RLock()
	w := c.window
	c.mu.RUnlock()

	size := fyne.NewSize(
		float32(math.Round(float64(width)*c.scaling)),
		float32(math.Round(float64(height)*c.scaling)),
	)
	if w != nil {
		if fullscreen {
			w.SetFullScreen(true)
		} else {
			w.SetFullScreen(false)
			w.Resize(size)
		}
	}
	c.log.Debug("Config", "geometry set", map[string]interface{}{
		"width":      size.Width,
		"height":     size.Height,
		"fullscreen": fullscreen,
	})
	return size
}

// SaveGeometry records the window size, given in scaled units, and writes
// the settings file so the next session opens the same way.
func (c *Config) SaveGeometry(size fyne.Size, fullscreen bool) error {
	c.mu.Lock()
	c.settings.Fullscreen = fullscreen
	if !fullscreen && size.Width >= 1 && size.Height >= 1 {
		c.settings.Window.Width = int(math.Round(float64(size.Width) / c.scaling))
		c.settings.Window.Height = int(math.Round(float64(size.Height) / c.scaling))
	}
	settings := c.settings
	c.mu.Unlock()

	if err := SaveSettings(c.SettingsPath(), settings); err != nil {
		return err
	}
	c.log.Debug("Config", "settings saved", map[string]interface{}{
		"path":   c.SettingsPath(),
		"width":  settings.Window.Width,
		"height": settings.Window.Height,
	})
	return nil
}
