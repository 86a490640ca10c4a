package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const watchedConfig = `
device:
  vendor_id: 0x1234
  product_id: 0x5678
tui:
  command: "first"
`

func TestWatcherReloads(t *testing.T) {
	configPath := writeConfig(t, watchedConfig)

	w, err := NewWatcher(configPath)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.Get().TUI.Command != "first" {
		t.Fatalf("initial Command = %q", w.Get().TUI.Command)
	}

	reloaded := make(chan *Config, 4)
	w.OnReload(func(cfg *Config) { reloaded <- cfg })
	w.Start()

	updated := strings.Replace(watchedConfig, "first", "second", 1)
	if err := os.WriteFile(configPath, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.TUI.Command != "second" {
			t.Errorf("reloaded Command = %q, want second", cfg.TUI.Command)
		}
		if w.Get() != cfg {
			t.Error("Get() does not return the reloaded config")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcherKeepsConfigOnInvalidReload(t *testing.T) {
	configPath := writeConfig(t, watchedConfig)

	w, err := NewWatcher(configPath)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	before := w.Get()
	if err := os.WriteFile(configPath, []byte("device: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w.reload()

	if w.Get() != before {
		t.Error("invalid config replaced the current one")
	}
}

func TestWatcherStopTwice(t *testing.T) {
	w, err := NewWatcher(writeConfig(t, watchedConfig))
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	w.Stop()
	w.Stop()
}

func TestNewWatcherInvalidConfig(t *testing.T) {
	if _, err := NewWatcher(writeConfig(t, "tui: {}\n")); err == nil {
		t.Error("NewWatcher() accepted an invalid config")
	}
}
