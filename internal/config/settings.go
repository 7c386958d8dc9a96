package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the user settings file name inside the config folder.
const SettingsFile = "trainview.yaml"

// Settings are the user preferences persisted between sessions.
type Settings struct {
	IconSize   int            `yaml:"icon_size"`
	Font       string         `yaml:"font"`
	FontSize   int            `yaml:"font_size"`
	Fullscreen bool           `yaml:"fullscreen"`
	Window     WindowSettings `yaml:"window"`
}

type WindowSettings struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func DefaultSettings() Settings {
	return Settings{
		IconSize: 16,
		Font:     "default",
		FontSize: 9,
		Window: WindowSettings{
			Width:  1200,
			Height: 640,
		},
	}
}

// LoadSettings reads path over the defaults. A missing file yields the
// defaults; keys absent from the file keep their default value.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parsing YAML: %w", err)
	}
	settings.normalize()
	return settings, nil
}

// SaveSettings writes settings to path, creating the folder if needed.
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings folder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func (s *Settings) normalize() {
	def := DefaultSettings()
	if s.IconSize <= 0 {
		s.IconSize = def.IconSize
	}
	if s.Font == "" {
		s.Font = def.Font
	}
	if s.FontSize <= 0 {
		s.FontSize = def.FontSize
	}
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		s.Window = def.Window
	}
}
