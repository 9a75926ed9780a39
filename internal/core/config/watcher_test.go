package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_reloads_on_write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "theme: tokyo-night")

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, OnReload(func(c *Config) { reloaded <- c }))
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	require.NoError(t, os.WriteFile(path, []byte("theme: gruvbox"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "gruvbox", cfg.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_reports_invalid_config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "theme: tokyo-night")

	errs := make(chan error, 4)
	w, err := NewWatcher(path, OnError(func(err error) { errs <- err }))
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	require.NoError(t, os.WriteFile(path, []byte("theme: neon"), 0o644))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "unknown theme")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for error")
	}
}

func TestWatcher_ignores_other_files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "theme: tokyo-night")

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, OnReload(func(c *Config) { reloaded <- c }))
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_debounces_bursts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "theme: tokyo-night")

	reloaded := make(chan *Config, 16)
	w, err := NewWatcher(path, OnReload(func(c *Config) { reloaded <- c }))
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	for _, theme := range []string{"gruvbox", "catppuccin", "onedark"} {
		require.NoError(t, os.WriteFile(path, []byte("theme: "+theme), 0o644))
	}

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "onedark", cfg.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	time.Sleep(3 * watchDebounce)
	assert.Empty(t, reloaded, "a burst of writes produces one reload")
}

func TestNewWatcher_missing_directory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	assert.Error(t, err)
}
