package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Theme
	}{
		{name: "light", content: "theme: light\n", want: Light},
		{name: "dark", content: "theme: dark\n", want: Dark},
		{name: "unknown value", content: "theme: sepia\n", want: Default},
		{name: "garbage", content: "theme: [", want: Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "theme.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			assert.Equal(t, tt.want, Open(path).Current())
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	assert.Equal(t, Dark, Open(filepath.Join(t.TempDir(), "none.yaml")).Current())
	assert.Equal(t, Dark, Open("").Current())
}

func TestToggle_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "theme.yaml")
	s := Open(path)

	got, err := s.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Light, got)
	assert.Equal(t, Light, Open(path).Current(), "a new store reads the saved theme")

	got, err = s.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Dark, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme: dark\n", string(data))
}

func TestSet(t *testing.T) {
	s := Open("")
	require.NoError(t, s.Set(Light))
	assert.Equal(t, Light, s.Current())
	assert.Error(t, s.Set("sepia"))
	assert.Equal(t, Light, s.Current())
}

func TestToggle_SaveFailureStillSwitches(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	s := Open(filepath.Join(blocker, "theme.yaml"))
	got, err := s.Toggle()
	assert.Error(t, err)
	assert.Equal(t, Light, got)
	assert.Equal(t, Light, s.Current())
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "#4A90E2", Light.Palette().Primary)
	assert.Equal(t, "#8E44AD", Dark.Palette().Primary)
	assert.Equal(t, Dark.Palette(), Theme("sepia").Palette())
	assert.Equal(t, Dark, Light.Opposite())
	assert.Equal(t, Light, Dark.Opposite())
}
