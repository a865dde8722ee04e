// Package prefs persists reviewdeck user preferences.
// Preferences are stored in ~/.config/reviewdeck/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/reviewdeck/internal/config"
)

// Prefs holds user preferences that survive restarts.
type Prefs struct {
	Theme string `toml:"theme"`
	// Clock24h selects a 24 hour clock for the timestamp column.
	Clock24h bool `toml:"clock_24h"`
}

const (
	defaultPrefsPath = "~/.config/reviewdeck/prefs.toml"
	defaultTheme     = "Nightfall"
)

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, Clock24h: true}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. A missing, unreadable or malformed
// file yields defaults; preferences never block startup.
func Load(path string) (Prefs, error) {
	prefs := Defaults()
	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Defaults(), nil
	}
	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	return prefs, nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
