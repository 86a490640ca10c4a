package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pleimann/camel-arbiter/internal/action"
	"github.com/pleimann/camel-arbiter/internal/config"
	"github.com/pleimann/camel-arbiter/internal/hid"
	"github.com/pleimann/camel-arbiter/internal/input"
	"github.com/pleimann/camel-arbiter/internal/rawinput"
	"github.com/pleimann/camel-arbiter/internal/ui"
)

const Version = "0.2.0"

func main() {
	ui.DetectTerminal(os.Stdout)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list-devices":
			runListDevices()
			return
		case "set-device", "select-device":
			runSetDevice(os.Args[2:])
			return
		case "schemes":
			runSchemes(os.Args[2:])
			return
		case "help", "-h", "--help":
			ui.PrintUsage(os.Stdout, Version)
			return
		}
	}

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() { ui.PrintUsage(os.Stderr, Version) }
	flag.Parse()

	if *version {
		ui.PrintVersion(os.Stdout, Version)
		return
	}

	watcher, err := config.NewWatcher(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := watcher.Get()

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.Default()
		logger.Printf("Loaded configuration from %s", *configPath)
		logger.Printf("Device: VendorID=0x%04X, ProductID=0x%04X", cfg.Device.VendorID, cfg.Device.ProductID)
		logger.Printf("TUI command: %s %v", cfg.TUI.Command, cfg.TUI.Args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, watcher, logger)
	if err != nil {
		watcher.Stop()
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Application error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// newCore builds the raw input system and the scheme manager for cfg
func newCore(cfg *config.Config, opts ...input.Option) (*rawinput.System, *input.Manager) {
	system := rawinput.NewSystem(rawinput.WithTimings(cfg.Timing.Gesture()))

	if cfg.Timing.UseDefaultMultiTapDelay {
		opts = append(opts, input.WithPlatformMultiTapDelay())
	} else {
		opts = append(opts, input.WithMultiTapDelay(cfg.Timing.MultiTapDelay()))
	}
	return system, input.NewManager(system, opts...)
}

func runListDevices() {
	devices, err := hid.ListDevices()
	if err != nil {
		ui.PrintFatalError(os.Stderr, "Failed to list devices", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceList(os.Stdout, devices)
}

func runSchemes(args []string) {
	fs := flag.NewFlagSet("schemes", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.PrintFatalError(os.Stderr, "Failed to load config", err.Error())
		os.Exit(1)
	}

	system, manager := newCore(cfg)
	defer manager.Close()

	binder := action.NewBinder(manager, system, nil)
	if err := binder.Build(cfg); err != nil {
		ui.PrintFatalError(os.Stderr, "Failed to build schemes", err.Error())
		os.Exit(1)
	}
	defer binder.Close()

	ui.PrintSchemes(os.Stdout, binder.Schemes(), cfg.Controls, manager.Unifier().TapDelay().String())
}

func runSetDevice(args []string) {
	fs := flag.NewFlagSet("set-device", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	fs.Usage = func() { ui.PrintSetDeviceUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var vendorID, productID uint16
	switch remaining := fs.Args(); len(remaining) {
	case 0:
		device, err := selectDevice()
		if err != nil {
			ui.PrintFatalError(os.Stderr, "Device selection failed", err.Error())
			os.Exit(1)
		}
		if device == nil {
			fmt.Println(ui.Muted("No device selected"))
			return
		}
		vendorID, productID = device.VendorID, device.ProductID
	case 1:
		ui.PrintFatalError(os.Stderr, "Invalid arguments", "Both vendor_id and product_id must be provided, or neither")
		os.Exit(1)
	default:
		var err error
		if vendorID, err = parseID(remaining[0]); err != nil {
			ui.PrintFatalError(os.Stderr, "Invalid vendor_id", fmt.Sprintf("%q: %v", remaining[0], err))
			os.Exit(1)
		}
		if productID, err = parseID(remaining[1]); err != nil {
			ui.PrintFatalError(os.Stderr, "Invalid product_id", fmt.Sprintf("%q: %v", remaining[1], err))
			os.Exit(1)
		}
		if info, _ := hid.FindDevice(vendorID, productID); info == nil {
			fmt.Println(ui.Warning(fmt.Sprintf("0x%04X:0x%04X is not connected right now", vendorID, productID)))
		}
	}

	created := !config.Exists(*configPath)
	if created {
		if err := config.CreateDefaultConfig(*configPath, vendorID, productID); err != nil {
			ui.PrintFatalError(os.Stderr, "Failed to create config", err.Error())
			os.Exit(1)
		}
	} else if err := config.UpdateDeviceIDs(*configPath, vendorID, productID); err != nil {
		ui.PrintFatalError(os.Stderr, "Failed to update config", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceSaved(os.Stdout, *configPath, created, vendorID, productID)
}

// parseID parses a vendor or product ID, hex with a 0x prefix or decimal
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s, base = s[2:], 16
	}

	val, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}

func selectDevice() (*hid.DeviceInfo, error) {
	devices, err := hid.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var identified []hid.DeviceInfo
	for _, d := range devices {
		if d.VendorID != 0 || d.ProductID != 0 {
			identified = append(identified, d)
		}
	}

	unique := hid.Unique(identified)
	if len(unique) == 0 {
		return nil, fmt.Errorf("no identifiable HID devices found")
	}
	return ui.SelectDevice(unique)
}
