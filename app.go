package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pleimann/camel-arbiter/internal/action"
	"github.com/pleimann/camel-arbiter/internal/config"
	"github.com/pleimann/camel-arbiter/internal/display"
	"github.com/pleimann/camel-arbiter/internal/hid"
	"github.com/pleimann/camel-arbiter/internal/input"
	"github.com/pleimann/camel-arbiter/internal/monitor"
	"github.com/pleimann/camel-arbiter/internal/pty"
	"github.com/pleimann/camel-arbiter/internal/rawinput"
	"github.com/pleimann/camel-arbiter/internal/uistate"
)

const reconnectInterval = time.Second

// Size of the TUI's pseudo terminal
const (
	tuiRows = 40
	tuiCols = 120
)

// App owns the input loop. Everything that touches the rawinput system,
// the manager or the binder runs on the Run goroutine.
type App struct {
	cfg     *config.Config
	log     *log.Logger
	watcher *config.Watcher
	reloads chan *config.Config

	device  *hid.Device
	system  *rawinput.System
	manager *input.Manager
	binder  *action.Binder
	tui     *pty.Manager
	uiState *uistate.Tracker

	display    *display.Manager
	hub        *monitor.Hub
	monitorSrv *monitor.Server

	mask      uint16
	lastEvent string
}

func newApp(cfg *config.Config, watcher *config.Watcher, logger *log.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		log:     logger,
		watcher: watcher,
		reloads: make(chan *config.Config, 1),
		uiState: uistate.New(),
	}

	device, err := hid.NewDevice(cfg.Device.VendorID, cfg.Device.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to open HID device: %w", err)
	}
	a.device = device

	a.tui, err = pty.NewManager(cfg.TUI.Command, cfg.TUI.Args, cfg.TUI.WorkingDir,
		pty.WithEnv("CAMEL_ARBITER_UI_MARKERS=1"),
		pty.WithLineHandler(func(line string) {
			if a.uiState.Feed(line) {
				a.log.Printf("ui: %s", line)
			}
		}),
	)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("failed to create PTY manager: %w", err)
	}

	a.system, a.manager = newCore(cfg,
		input.WithHitTester(a.uiState),
		input.WithLogger(logger),
	)

	if cfg.Monitor.Listen != "" {
		a.hub = monitor.NewHub(log.Default())
		a.monitorSrv, err = monitor.Listen(cfg.Monitor.Listen, cfg.Monitor.Path, a.hub)
		if err != nil {
			a.manager.Close()
			device.Close()
			return nil, fmt.Errorf("failed to start monitor: %w", err)
		}
		logger.Printf("Monitor listening on ws://%s%s", a.monitorSrv.Addr(), cfg.Monitor.Path)
	}

	keyDelay := time.Duration(cfg.TUI.KeyDelayMs) * time.Millisecond
	a.binder = action.NewBinder(a.manager, a.system,
		action.NewExecutor(pty.NewWriter(a.tui, keyDelay)),
		action.WithLogger(log.Default()),
		action.WithEventSink(action.EventSinkFunc(a.onEvent)),
	)
	if err := a.binder.Build(cfg); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to build schemes: %w", err)
	}

	if len(cfg.Display.Regions) > 0 {
		a.display = display.NewManager(cfg.Display, device, log.Default())
	}

	watcher.OnReload(a.queueReload)
	return a, nil
}

// Run drives the frame loop until ctx is done, the TUI exits or the
// device goes away for good
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.tui.Start(ctx); err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}
	if err := a.tui.Resize(tuiRows, tuiCols); err != nil {
		a.log.Printf("PTY resize failed: %v", err)
	}
	if a.display != nil {
		a.display.Start(ctx)
	}
	a.watcher.Start()

	events := make(chan hid.Event, 64)
	go a.readDevice(ctx, events)

	ticker := time.NewTicker(a.cfg.Timing.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.tui.Done():
			a.log.Printf("Last TUI output:\n%s", a.tui.RecentOutput())
			return fmt.Errorf("TUI exited: %v", a.tui.Err())
		case ev := <-events:
			a.handleButtons(ev)
		case cfg := <-a.reloads:
			a.applyConfig(cfg)
		case <-ticker.C:
			a.frame(ctx)
		}
	}
}

func (a *App) handleButtons(ev hid.Event) {
	for _, tr := range ev.Changed(a.mask) {
		path, ok := a.binder.ControlPath(tr.Button)
		if !ok {
			a.log.Printf("button %d is not mapped", tr.Button)
			continue
		}
		if tr.Down {
			a.system.Press(path)
		} else {
			a.system.Release(path)
		}
	}
	a.mask = ev.ButtonMask
}

// releaseAll lifts every held button, used before the control map changes
// and when the device drops out
func (a *App) releaseAll() {
	a.handleButtons(hid.Event{Type: hid.Release})
}

func (a *App) frame(ctx context.Context) {
	a.system.Update()
	a.manager.SetUIFocused(a.uiState.Focused())
	if err := a.manager.Update(ctx); err != nil {
		log.Printf("Scheme update failed: %v", err)
	}
	a.publishStatus()
}

func (a *App) onEvent(e action.Event) {
	a.lastEvent = fmt.Sprintf("%s/%s %s", e.Scheme, e.Action, e.Phase)
	a.log.Printf("event: %s (%s)", a.lastEvent, e.Control)
	if a.hub != nil {
		a.hub.ActionEvent(e)
	}
}

func (a *App) publishStatus() {
	if a.display == nil {
		return
	}
	status := display.Status{LastEvent: a.lastEvent}
	if p := a.manager.PriorityScheme(); p != nil {
		status.Priority = p.Type().String()
	}
	for _, c := range a.manager.DisabledCategories() {
		status.DisabledCategories = append(status.DisabledCategories, c.String())
	}
	a.display.SetStatus(status)
}

// queueReload runs on the watcher goroutine. Only the newest config is kept.
func (a *App) queueReload(cfg *config.Config) {
	for {
		select {
		case a.reloads <- cfg:
			return
		default:
			select {
			case <-a.reloads:
			default:
			}
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	if cfg.Timing != a.cfg.Timing || cfg.Device != a.cfg.Device {
		log.Printf("Timing and device changes take effect after a restart")
	}

	a.releaseAll()
	if err := a.binder.Rebuild(cfg); err != nil {
		log.Printf("Config reload rejected, keeping the previous schemes: %v", err)
		return
	}
	a.cfg = cfg
	a.log.Printf("Config reloaded: %d scheme(s)", len(a.binder.Schemes()))
}

// readDevice forwards button reports and reconnects when the device drops
func (a *App) readDevice(ctx context.Context, events chan<- hid.Event) {
	for {
		err := a.device.ReadEvents(ctx, events)
		if ctx.Err() != nil {
			return
		}
		log.Printf("HID read error: %v, waiting for the device", err)

		select {
		case events <- hid.Event{Type: hid.Release}:
		case <-ctx.Done():
			return
		}

		if err := a.device.WaitForDevice(ctx, reconnectInterval); err != nil {
			return
		}
		log.Printf("HID device reconnected")
		if a.display != nil {
			a.display.ForceRefresh()
		}
	}
}

func (a *App) close() {
	a.log.Println("Shutting down...")
	a.watcher.Stop()
	if a.display != nil {
		a.display.Stop()
	}
	if a.monitorSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = a.monitorSrv.Shutdown(ctx)
		cancel()
	}
	if a.binder != nil {
		a.binder.Close()
	}
	a.manager.Close()
	a.tui.Stop()
	a.device.Close()
}
