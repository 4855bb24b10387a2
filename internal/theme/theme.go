// Package theme persists the light/dark UI preference. It is independent of
// the authentication state.
package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brizzai/aqua-scheduler/internal/config"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"

	Default = Dark
)

func (t Theme) Valid() bool {
	return t == Light || t == Dark
}

// Opposite returns the theme Toggle switches to
func (t Theme) Opposite() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Palette holds the colors views draw with
type Palette struct {
	Primary     string
	PrimaryDark string
	Accent      string
	Neutral     string
	Background  string
	Success     string
	Danger      string
}

var palettes = map[Theme]Palette{
	Light: {
		Primary:     "#4A90E2",
		PrimaryDark: "#2A6DBA",
		Accent:      "#50E3C2",
		Neutral:     "#333333",
		Background:  "#FFFFFF",
		Success:     "#22C55E",
		Danger:      "#EF4444",
	},
	Dark: {
		Primary:     "#8E44AD",
		PrimaryDark: "#6D2F8C",
		Accent:      "#F39C12",
		Neutral:     "#F5F5F5",
		Background:  "#121212",
		Success:     "#22C55E",
		Danger:      "#EF4444",
	},
}

// Palette returns the colors of t, falling back to the default theme
func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[Default]
}

type file struct {
	Theme Theme `yaml:"theme"`
}

// Store keeps the current theme, persisted as YAML when a path is set
type Store struct {
	mu      sync.Mutex
	path    string
	current Theme
}

// Open loads the theme stored at path. A missing or unreadable file yields the
// default theme; an empty path keeps the preference in memory only.
func Open(path string) *Store {
	s := &Store{path: path, current: Default}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to read theme file", zap.String("path", path), zap.Error(err))
		}
		return s
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil || !f.Theme.Valid() {
		logger.Warn("Ignoring invalid theme file", zap.String("path", path), zap.Error(err))
		return s
	}
	s.current = f.Theme
	return s
}

func (s *Store) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set switches to t and persists it. The switch holds even when saving fails.
func (s *Store) Set(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("invalid theme %q", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
	return s.save()
}

// Toggle flips between light and dark and returns the new theme
func (s *Store) Toggle() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.Opposite()
	return s.current, s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(file{Theme: s.current})
	if err != nil {
		return fmt.Errorf("failed to marshal theme: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create theme directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// Module provides the theme store configured by theme.file
var Module = fx.Module("theme",
	fx.Provide(func(cfg *config.Config) *Store {
		return Open(cfg.Theme.File)
	}),
)
