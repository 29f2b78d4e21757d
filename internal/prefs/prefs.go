// Package prefs persists statekit browser preferences in
// ~/.config/statekit/prefs.toml. Preferences never block startup: any
// problem reading them yields the defaults.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds UI choices that survive restarts.
type Prefs struct {
	Theme        string `toml:"theme"`
	ShowActivity bool   `toml:"show_activity"`
}

const (
	defaultPrefsPath = "~/.config/statekit/prefs.toml"
	defaultTheme     = "Dracula"
)

// Default returns the preferences used on first run.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, ShowActivity: true}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path, or the default path when empty.
func Load(path string) Prefs {
	p := Default()
	resolved, err := resolvePath(path)
	if err != nil {
		return p
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}

	var raw struct {
		Theme        string `toml:"theme"`
		ShowActivity *bool  `toml:"show_activity"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return p
	}
	if theme := strings.TrimSpace(raw.Theme); theme != "" {
		p.Theme = theme
	}
	if raw.ShowActivity != nil {
		p.ShowActivity = *raw.ShowActivity
	}
	return p
}

// Save writes p to path through a temp file and rename, so a crash never
// leaves a truncated file behind.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
