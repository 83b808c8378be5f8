package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func startTestWatcher(t *testing.T, path string) chan *Config {
	t.Helper()

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(NewLoader(path), func(cfg *Config) {
		reloaded <- cfg
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { w.Stop() })
	return reloaded
}

func TestWatcherFollowsNonDefaultPath(t *testing.T) {
	// The daemon may be started with --config pointing anywhere; the watcher
	// must follow that file, not the default location.
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":4100}}`), 0644))

	reloaded := startTestWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":4200}}`), 0644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Server.Port == 4200 {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	reloaded := startTestWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644))

	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(500 * time.Millisecond):
	}
}
