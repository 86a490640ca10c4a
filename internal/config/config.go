package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pleimann/camel-arbiter/internal/gesture"
	"github.com/pleimann/camel-arbiter/internal/input"
)

// MaxButtons is the number of buttons a device report can carry
const MaxButtons = 16

// Display region sources
const (
	SourceStatic     = "static"
	SourcePriority   = "priority"
	SourceCategories = "categories"
	SourceLastEvent  = "last_event"
)

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Timing   TimingConfig   `yaml:"timing"`
	TUI      TUIConfig      `yaml:"tui"`
	Controls []Control      `yaml:"controls"`
	Schemes  []SchemeConfig `yaml:"schemes"`
	Display  DisplayConfig  `yaml:"display"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

type DeviceConfig struct {
	VendorID       uint16 `yaml:"vendor_id"`
	ProductID      uint16 `yaml:"product_id"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

type TimingConfig struct {
	MultiTapDelayMs         int  `yaml:"multi_tap_delay_ms"`
	UseDefaultMultiTapDelay bool `yaml:"use_default_multi_tap_delay"`
	TapTimeMs               int  `yaml:"tap_time_ms"`
	HoldThresholdMs         int  `yaml:"hold_threshold_ms"`
	FrameIntervalMs         int  `yaml:"frame_interval_ms"`
}

type TUIConfig struct {
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	WorkingDir string   `yaml:"working_dir,omitempty"`
	KeyDelayMs int      `yaml:"key_delay_ms"`
}

// Control maps a device button to the control path actions bind to
type Control struct {
	Button int    `yaml:"button"`
	Path   string `yaml:"path"`
}

type SchemeConfig struct {
	Type     string         `yaml:"type"`
	Category string         `yaml:"category"`
	Enabled  *bool          `yaml:"enabled,omitempty"`
	Actions  []ActionConfig `yaml:"actions"`
}

type ActionConfig struct {
	Name             string          `yaml:"name"`
	Bindings         []BindingConfig `yaml:"bindings"`
	UIPointerCheck   bool            `yaml:"ui_pointer_check"`
	UISelectionCheck bool            `yaml:"ui_selection_check"`
	Keys             []string        `yaml:"keys,omitempty"`
	ClaimPriority    bool            `yaml:"claim_priority"`
	ToggleCategory   string          `yaml:"toggle_category,omitempty"`
	// RequireHeld is a control that must be down for the action to start
	// or perform.
	RequireHeld string `yaml:"require_held,omitempty"`
}

type BindingConfig struct {
	Path         string `yaml:"path"`
	Interactions string `yaml:"interactions,omitempty"`
	Composite    bool   `yaml:"composite,omitempty"`
}

type DisplayConfig struct {
	Width            int             `yaml:"width"`
	Height           int             `yaml:"height"`
	UpdateIntervalMs int             `yaml:"update_interval_ms"`
	Regions          []DisplayRegion `yaml:"regions,omitempty"`
}

type DisplayRegion struct {
	Name    string `yaml:"name"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Source  string `yaml:"source"`
	Content string `yaml:"content,omitempty"`
	Border  bool   `yaml:"border,omitempty"`
}

// MonitorConfig configures the websocket event stream. An empty Listen
// address disables it.
type MonitorConfig struct {
	Listen string `yaml:"listen,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML document
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Device.VendorID == 0 {
		return fmt.Errorf("device.vendor_id is required")
	}
	if c.Device.ProductID == 0 {
		return fmt.Errorf("device.product_id is required")
	}
	if c.TUI.Command == "" {
		return fmt.Errorf("tui.command is required")
	}

	buttons := make(map[int]bool)
	paths := make(map[string]bool)
	for _, ctl := range c.Controls {
		if ctl.Button < 0 || ctl.Button >= MaxButtons {
			return fmt.Errorf("control button %d out of range", ctl.Button)
		}
		if buttons[ctl.Button] {
			return fmt.Errorf("duplicate control button: %d", ctl.Button)
		}
		if paths[ctl.Path] {
			return fmt.Errorf("duplicate control path: %s", ctl.Path)
		}
		buttons[ctl.Button] = true
		paths[ctl.Path] = true
	}

	types := make(map[input.SchemeType]bool)
	for i, sc := range c.Schemes {
		st, err := input.ParseSchemeType(sc.Type)
		if err != nil {
			return fmt.Errorf("schemes[%d]: %w", i, err)
		}
		// Schemes other than "other" are singletons in the manager.
		if st != input.SchemeOther && types[st] {
			return fmt.Errorf("schemes[%d]: duplicate scheme type %s", i, sc.Type)
		}
		types[st] = true

		if _, err := input.ParseSchemeCategory(sc.Category); err != nil {
			return fmt.Errorf("schemes[%d]: %w", i, err)
		}

		names := make(map[string]bool)
		for _, ac := range sc.Actions {
			if names[ac.Name] {
				return fmt.Errorf("schemes[%d]: duplicate action %q", i, ac.Name)
			}
			names[ac.Name] = true

			if len(ac.Bindings) == 0 {
				return fmt.Errorf("schemes[%d].%s: at least one binding is required", i, ac.Name)
			}
			for _, b := range ac.Bindings {
				if _, err := gesture.Parse(b.Interactions, gesture.DefaultTimings); err != nil {
					return fmt.Errorf("schemes[%d].%s: binding %s: %w", i, ac.Name, b.Path, err)
				}
			}
			for _, b := range ac.Bindings {
				if b.Path == ac.RequireHeld {
					return fmt.Errorf("schemes[%d].%s: require_held %s is one of its own bindings", i, ac.Name, b.Path)
				}
			}
			if ac.ToggleCategory != "" {
				if _, err := input.ParseSchemeCategory(ac.ToggleCategory); err != nil {
					return fmt.Errorf("schemes[%d].%s: %w", i, ac.Name, err)
				}
			}
		}
	}

	for _, r := range c.Display.Regions {
		switch r.Source {
		case SourceStatic, SourcePriority, SourceCategories, SourceLastEvent:
		default:
			return fmt.Errorf("display region %s: unknown source %q", r.Name, r.Source)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Device.PollIntervalMs == 0 {
		c.Device.PollIntervalMs = 10
	}
	if c.Timing.MultiTapDelayMs == 0 {
		c.Timing.MultiTapDelayMs = 300
	}
	if c.Timing.TapTimeMs == 0 {
		c.Timing.TapTimeMs = 200
	}
	if c.Timing.HoldThresholdMs == 0 {
		c.Timing.HoldThresholdMs = 500
	}
	if c.Timing.FrameIntervalMs == 0 {
		c.Timing.FrameIntervalMs = 16
	}
	for i := range c.Schemes {
		if c.Schemes[i].Type == "" {
			c.Schemes[i].Type = input.SchemeOther.String()
		}
		if c.Schemes[i].Category == "" {
			c.Schemes[i].Category = input.CategoryController.String()
		}
	}
	if c.Display.Width == 0 {
		c.Display.Width = 128
	}
	if c.Display.Height == 0 {
		c.Display.Height = 64
	}
	if c.Display.UpdateIntervalMs == 0 {
		c.Display.UpdateIntervalMs = 100
	}
	if c.Monitor.Path == "" {
		c.Monitor.Path = "/events"
	}
}

// MultiTapDelay is the tap window of the click and touch detectors
func (t TimingConfig) MultiTapDelay() time.Duration {
	return time.Duration(t.MultiTapDelayMs) * time.Millisecond
}

// FrameInterval is the period of the input frame loop
func (t TimingConfig) FrameInterval() time.Duration {
	return time.Duration(t.FrameIntervalMs) * time.Millisecond
}

// Gesture returns the fallback timings for interaction strings
func (t TimingConfig) Gesture() gesture.Defaults {
	return gesture.Defaults{
		TapTime:       time.Duration(t.TapTimeMs) * time.Millisecond,
		TapDelay:      t.MultiTapDelay(),
		HoldThreshold: time.Duration(t.HoldThresholdMs) * time.Millisecond,
	}
}

// IsEnabled reports whether the scheme starts enabled. Unset means enabled.
func (s SchemeConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ControlPath returns the control path of a button, or "" if unmapped
func (c *Config) ControlPath(button int) string {
	for _, ctl := range c.Controls {
		if ctl.Button == button {
			return ctl.Path
		}
	}
	return ""
}

// UpdateDeviceIDs updates the vendor_id and product_id in a config file
// while preserving the rest of the file structure and comments
func UpdateDeviceIDs(path string, vendorID, productID uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)

	vendorRegex := regexp.MustCompile(`(?m)^(\s*vendor_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = vendorRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", vendorID))

	productRegex := regexp.MustCompile(`(?m)^(\s*product_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = productRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", productID))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a new config file with a starter control
// layout and the specified device
func CreateDefaultConfig(path string, vendorID, productID uint16) error {
	content := fmt.Sprintf(`# Camel Arbiter configuration

device:
  vendor_id: 0x%04X
  product_id: 0x%04X
  poll_interval_ms: 10

timing:
  multi_tap_delay_ms: 300
  tap_time_ms: 200
  hold_threshold_ms: 500
  frame_interval_ms: 16

tui:
  command: "your-tui-app"
  args: []

# Button 0 is the primary "click" control shared by single and double taps.
controls:
  - button: 0
    path: "<Mouse>/leftButton"
  - button: 1
    path: "<Pad>/button1"

schemes:
  - type: object_selection
    category: tools
    actions:
      - name: select
        bindings:
          - path: "<Mouse>/leftButton"
        keys: ["enter"]
      - name: open
        bindings:
          - path: "<Mouse>/leftButton"
            interactions: "MultiTap"
        keys: ["o"]
  - type: walk_mode
    category: controller
    actions:
      - name: next
        bindings:
          - path: "<Pad>/button1"
        keys: ["down"]
        ui_selection_check: true

display:
  width: 128
  height: 64
  update_interval_ms: 100
  regions:
    - name: priority
      x: 0
      y: 0
      width: 128
      height: 16
      source: priority
    - name: last
      x: 0
      y: 16
      width: 128
      height: 16
      source: last_event
`, vendorID, productID)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
