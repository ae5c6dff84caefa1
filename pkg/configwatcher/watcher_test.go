package configwatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sports_academy_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, port string) {
	t.Helper()
	content := []byte(
		"server:\n  port: \"" + port + "\"\n  mode: debug\n" +
			"jwt:\n  secret: test-secret\n  expire_hours: 1\n" +
			"storage:\n  type: none\n")
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestWatchConfigFiresReloaderOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "8080")

	reloaded := make(chan interface{}, 1)
	go WatchConfig(path, nil, func(cfg interface{}) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	// Give the watcher time to register before touching the file.
	time.Sleep(300 * time.Millisecond)
	writeConfig(t, path, "9090")

	select {
	case got := <-reloaded:
		cfg, ok := got.(*config.Config)
		require.True(t, ok)
		assert.Equal(t, "9090", cfg.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("reloader did not fire after config write")
	}
}

func TestWatchConfigDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "8080")

	fired := make(chan struct{}, 16)
	go WatchConfig(path, nil, func(interface{}) {
		fired <- struct{}{}
	})

	time.Sleep(300 * time.Millisecond)
	for i := 0; i < 5; i++ {
		writeConfig(t, path, "9090")
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("reloader did not fire after config writes")
	}

	// The burst above collapses into one reload.
	select {
	case <-fired:
		t.Fatal("burst of writes produced more than one reload")
	case <-time.After(1500 * time.Millisecond):
	}
}
