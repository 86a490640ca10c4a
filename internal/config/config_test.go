package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pleimann/camel-arbiter/internal/gesture"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return configPath
}

func TestLoad(t *testing.T) {
	content := `
device:
  vendor_id: 0x1234
  product_id: 0x5678
  poll_interval_ms: 20

timing:
  multi_tap_delay_ms: 250
  use_default_multi_tap_delay: true
  tap_time_ms: 150
  hold_threshold_ms: 400
  frame_interval_ms: 10

tui:
  command: "test-app"
  args: ["--flag", "value"]
  working_dir: "/tmp"
  key_delay_ms: 5

controls:
  - button: 0
    path: "<Mouse>/leftButton"
  - button: 3
    path: "<Pad>/button3"

schemes:
  - type: measurement
    category: tools
    enabled: false
    actions:
      - name: measure
        bindings:
          - path: "<Pad>/button3"
            interactions: "Hold(duration=0.8)"
        claim_priority: true
        ui_pointer_check: true
      - name: pick
        bindings:
          - path: "<Mouse>/leftButton"
            interactions: "MultiTap"
        keys: ["ctrl+p"]
        toggle_category: controller

display:
  width: 128
  height: 64
  update_interval_ms: 50
  regions:
    - name: status
      x: 0
      y: 0
      width: 128
      height: 32
      source: priority

monitor:
  listen: "127.0.0.1:7070"
`

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.VendorID != 0x1234 {
		t.Errorf("VendorID = 0x%04X, want 0x1234", cfg.Device.VendorID)
	}
	if cfg.Device.ProductID != 0x5678 {
		t.Errorf("ProductID = 0x%04X, want 0x5678", cfg.Device.ProductID)
	}
	if cfg.Device.PollIntervalMs != 20 {
		t.Errorf("PollIntervalMs = %d, want 20", cfg.Device.PollIntervalMs)
	}

	if cfg.Timing.MultiTapDelay() != 250*time.Millisecond {
		t.Errorf("MultiTapDelay() = %v, want 250ms", cfg.Timing.MultiTapDelay())
	}
	if !cfg.Timing.UseDefaultMultiTapDelay {
		t.Error("UseDefaultMultiTapDelay = false, want true")
	}
	if cfg.Timing.FrameInterval() != 10*time.Millisecond {
		t.Errorf("FrameInterval() = %v, want 10ms", cfg.Timing.FrameInterval())
	}
	wantTimings := gesture.Defaults{
		TapTime:       150 * time.Millisecond,
		TapDelay:      250 * time.Millisecond,
		HoldThreshold: 400 * time.Millisecond,
	}
	if cfg.Timing.Gesture() != wantTimings {
		t.Errorf("Gesture() = %+v, want %+v", cfg.Timing.Gesture(), wantTimings)
	}

	if cfg.TUI.Command != "test-app" {
		t.Errorf("Command = %q, want %q", cfg.TUI.Command, "test-app")
	}
	if len(cfg.TUI.Args) != 2 || cfg.TUI.Args[0] != "--flag" {
		t.Errorf("Args = %v, want [--flag value]", cfg.TUI.Args)
	}
	if cfg.TUI.KeyDelayMs != 5 {
		t.Errorf("KeyDelayMs = %d, want 5", cfg.TUI.KeyDelayMs)
	}

	if got := cfg.ControlPath(3); got != "<Pad>/button3" {
		t.Errorf("ControlPath(3) = %q", got)
	}
	if got := cfg.ControlPath(7); got != "" {
		t.Errorf("ControlPath(7) = %q, want empty", got)
	}

	if len(cfg.Schemes) != 1 {
		t.Fatalf("len(Schemes) = %d, want 1", len(cfg.Schemes))
	}
	sc := cfg.Schemes[0]
	if sc.Type != "measurement" || sc.Category != "tools" || sc.IsEnabled() {
		t.Errorf("Scheme = {%s %s %v}, want {measurement tools false}", sc.Type, sc.Category, sc.IsEnabled())
	}
	if len(sc.Actions) != 2 {
		t.Fatalf("len(Actions) = %d, want 2", len(sc.Actions))
	}
	measure := sc.Actions[0]
	if !measure.ClaimPriority || !measure.UIPointerCheck || measure.UISelectionCheck {
		t.Errorf("measure flags = %+v", measure)
	}
	if measure.Bindings[0].Interactions != "Hold(duration=0.8)" {
		t.Errorf("measure interactions = %q", measure.Bindings[0].Interactions)
	}
	pick := sc.Actions[1]
	if len(pick.Keys) != 1 || pick.Keys[0] != "ctrl+p" || pick.ToggleCategory != "controller" {
		t.Errorf("pick = %+v", pick)
	}

	if len(cfg.Display.Regions) != 1 || cfg.Display.Regions[0].Source != SourcePriority {
		t.Errorf("Display.Regions = %+v", cfg.Display.Regions)
	}
	if cfg.Monitor.Listen != "127.0.0.1:7070" || cfg.Monitor.Path != "/events" {
		t.Errorf("Monitor = %+v", cfg.Monitor)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
device:
  vendor_id: 0x1234
  product_id: 0x5678

tui:
  command: "test-app"

schemes:
  - actions:
      - name: go
        bindings:
          - path: "<Pad>/button0"
`

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"PollIntervalMs", cfg.Device.PollIntervalMs, 10},
		{"MultiTapDelayMs", cfg.Timing.MultiTapDelayMs, 300},
		{"TapTimeMs", cfg.Timing.TapTimeMs, 200},
		{"HoldThresholdMs", cfg.Timing.HoldThresholdMs, 500},
		{"FrameIntervalMs", cfg.Timing.FrameIntervalMs, 16},
		{"Display.Width", cfg.Display.Width, 128},
		{"Display.Height", cfg.Display.Height, 64},
		{"Display.UpdateIntervalMs", cfg.Display.UpdateIntervalMs, 100},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want default %d", tt.name, tt.got, tt.want)
		}
	}

	sc := cfg.Schemes[0]
	if sc.Type != "other" || sc.Category != "controller" || !sc.IsEnabled() {
		t.Errorf("scheme defaults = {%s %s %v}, want {other controller true}", sc.Type, sc.Category, sc.IsEnabled())
	}
	if cfg.Monitor.Listen != "" {
		t.Errorf("Monitor.Listen = %q, want disabled", cfg.Monitor.Listen)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	const base = `
device:
  vendor_id: 0x1234
  product_id: 0x5678
tui:
  command: "test"
`

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing vendor_id",
			content: `
device:
  product_id: 0x5678
tui:
  command: "test"
`,
			wantErr: "vendor_id",
		},
		{
			name: "zero product_id",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0
tui:
  command: "test"
`,
			wantErr: "product_id is required",
		},
		{
			name: "missing tui",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
`,
			wantErr: "tui",
		},
		{
			name: "empty tui command",
			content: `
device:
  vendor_id: 0x1234
  product_id: 0x5678
tui:
  command: ""
`,
			wantErr: "command is required",
		},
		{
			name:    "unknown top-level key",
			content: base + "buttons: []\n",
			wantErr: "does not match schema",
		},
		{
			name: "duplicate control button",
			content: base + `
controls:
  - button: 0
    path: "<Pad>/button0"
  - button: 0
    path: "<Pad>/button1"
`,
			wantErr: "duplicate control button",
		},
		{
			name: "control button out of range",
			content: base + `
controls:
  - button: 16
    path: "<Pad>/button16"
`,
			wantErr: "does not match schema",
		},
		{
			name: "malformed binding path",
			content: base + `
schemes:
  - actions:
      - name: a
        bindings:
          - path: "button0"
`,
			wantErr: "does not match schema",
		},
		{
			name: "duplicate scheme type",
			content: base + `
schemes:
  - type: walk_mode
    actions: []
  - type: walk_mode
    actions: []
`,
			wantErr: "duplicate scheme type",
		},
		{
			name: "duplicate action name",
			content: base + `
schemes:
  - actions:
      - name: a
        bindings: [{path: "<Pad>/button0"}]
      - name: a
        bindings: [{path: "<Pad>/button1"}]
`,
			wantErr: `duplicate action "a"`,
		},
		{
			name: "require_held on own binding",
			content: base + `
schemes:
  - actions:
      - name: a
        bindings: [{path: "<Pad>/button1"}]
        require_held: "<Pad>/button1"
`,
			wantErr: "one of its own bindings",
		},
		{
			name: "action without bindings",
			content: base + `
schemes:
  - actions:
      - name: a
        bindings: []
`,
			wantErr: "does not match schema",
		},
		{
			name: "bad interaction",
			content: base + `
schemes:
  - actions:
      - name: a
        bindings:
          - path: "<Pad>/button0"
            interactions: "Wiggle"
`,
			wantErr: "unknown interaction",
		},
		{
			name: "unknown category",
			content: base + `
schemes:
  - category: cameras
    actions: []
`,
			wantErr: "does not match schema",
		},
		{
			name: "unknown region source",
			content: base + `
display:
  regions:
    - name: r
      source: weather
`,
			wantErr: "does not match schema",
		},
		{
			name:    "empty document",
			content: "",
			wantErr: "does not match schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file, got nil")
	}
}

func TestSchemaIsEmbedded(t *testing.T) {
	if !strings.Contains(Schema(), `"schemes"`) {
		t.Error("Schema() does not describe schemes")
	}
}

func TestUpdateDeviceIDs(t *testing.T) {
	content := `# Test config
device:
  vendor_id: 0x1234
  product_id: 0x5678
  poll_interval_ms: 10

tui:
  command: "test"
`
	configPath := writeConfig(t, content)

	if err := UpdateDeviceIDs(configPath, 0xABCD, 0xEF01); err != nil {
		t.Fatalf("UpdateDeviceIDs() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "vendor_id: 0xABCD") {
		t.Errorf("vendor_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "product_id: 0xEF01") {
		t.Errorf("product_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "# Test config") {
		t.Errorf("comment not preserved in: %s", result)
	}
}

func TestUpdateDeviceIDsDecimal(t *testing.T) {
	content := `device:
  vendor_id: 4660
  product_id: 22136

tui:
  command: "test"
`
	configPath := writeConfig(t, content)

	if err := UpdateDeviceIDs(configPath, 0x1111, 0x2222); err != nil {
		t.Fatalf("UpdateDeviceIDs() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() after update error = %v", err)
	}
	if cfg.Device.VendorID != 0x1111 || cfg.Device.ProductID != 0x2222 {
		t.Errorf("IDs = 0x%04X:0x%04X, want 0x1111:0x2222", cfg.Device.VendorID, cfg.Device.ProductID)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "new-config.yaml")

	if err := CreateDefaultConfig(configPath, 0x1234, 0x5678); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	if !Exists(configPath) {
		t.Fatal("Config file was not created")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load created config: %v", err)
	}

	if cfg.Device.VendorID != 0x1234 {
		t.Errorf("VendorID = 0x%04X, want 0x1234", cfg.Device.VendorID)
	}
	if cfg.Device.ProductID != 0x5678 {
		t.Errorf("ProductID = 0x%04X, want 0x5678", cfg.Device.ProductID)
	}
	if len(cfg.Schemes) == 0 || len(cfg.Controls) == 0 {
		t.Error("default config has no schemes or controls")
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(filepath.Join(tmpDir, "nonexistent.yaml")) {
		t.Error("Exists() = true for non-existent file")
	}

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	os.WriteFile(existingPath, []byte("test"), 0644)

	if !Exists(existingPath) {
		t.Error("Exists() = false for existing file")
	}
}
