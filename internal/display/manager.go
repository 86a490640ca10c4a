package display

import (
	"context"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pleimann/camel-arbiter/internal/config"
	"github.com/pleimann/camel-arbiter/internal/hid"
)

// DeviceWriter is the interface for sending frames to the device
type DeviceWriter interface {
	SendFrame(frame *hid.DisplayFrame) error
}

// Status is the arbitration state shown on the display
type Status struct {
	Priority           string
	DisabledCategories []string
	LastEvent          string
}

// Manager keeps the OLED regions in sync with the arbitration status.
// Only regions whose text changed are redrawn and sent.
type Manager struct {
	config   config.DisplayConfig
	device   DeviceWriter
	renderer *Renderer
	encoder  *FrameEncoder
	log      *log.Logger

	mu      sync.Mutex
	regions []*regionState
	full    bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type regionState struct {
	config  config.DisplayRegion
	content string
	dirty   bool
}

func (r *regionState) rect() image.Rectangle {
	c := r.config
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// NewManager creates a display manager. A nil logger uses log.Default.
func NewManager(cfg config.DisplayConfig, device DeviceWriter, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		config:   cfg,
		device:   device,
		renderer: NewRenderer(cfg.Width, cfg.Height),
		encoder:  NewFrameEncoder(cfg.Width, cfg.Height),
		log:      logger,
	}

	for _, rc := range cfg.Regions {
		r := &regionState{config: rc, dirty: true}
		if rc.Source == config.SourceStatic {
			r.content = rc.Content
		}
		m.regions = append(m.regions, r)
	}
	m.SetStatus(Status{})

	return m
}

// SetStatus updates the status-driven regions and marks the changed ones dirty
func (m *Manager) SetStatus(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regions {
		var content string
		switch r.config.Source {
		case config.SourcePriority:
			content = "prio: none"
			if s.Priority != "" {
				content = "prio: " + s.Priority
			}
		case config.SourceCategories:
			content = "off: none"
			if len(s.DisabledCategories) > 0 {
				content = "off: " + strings.Join(s.DisabledCategories, ",")
			}
		case config.SourceLastEvent:
			content = s.LastEvent
		default:
			continue
		}
		if r.content != content {
			r.content = content
			r.dirty = true
		}
	}
}

// Flush redraws the dirty regions and sends them as partial frames. After
// ForceRefresh the whole canvas is sent instead.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var frames []*hid.DisplayFrame
	if m.full {
		m.renderer.Clear()
		for _, r := range m.regions {
			m.draw(r)
		}
		frames = m.encoder.ChunkFrame(m.renderer.FrameBuffer())
		m.full = false
	} else {
		for _, r := range m.regions {
			if !r.dirty {
				continue
			}
			rect := m.draw(r)
			frames = append(frames, m.encoder.ChunkRect(rect, m.renderer.Pack(rect))...)
		}
	}

	for _, frame := range frames {
		if err := m.device.SendFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) draw(r *regionState) image.Rectangle {
	rect := r.rect().Intersect(m.renderer.Bounds())
	m.renderer.ClearRect(rect)

	text := rect
	if r.config.Border && rect.Dx() > 4 && rect.Dy() > 4 {
		m.renderer.DrawRect(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		text = rect.Inset(2)
	}
	m.renderer.DrawTextIn(text, r.content)
	r.dirty = false
	return rect
}

// ForceRefresh makes the next Flush resend the whole display, for when the
// device lost its contents
func (m *Manager) ForceRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.full = true
}

// Start flushes on the configured interval until ctx is done or Stop is called
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	interval := time.Duration(m.config.UpdateIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)

	go func() {
		defer close(m.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Flush(); err != nil {
					m.log.Printf("display update failed: %v", err)
				}
			}
		}
	}()
}

// Stop ends the update loop and clears the display
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
		m.cancel = nil
	}
	if err := m.device.SendFrame(m.encoder.EncodeClear()); err != nil {
		m.log.Printf("display clear failed: %v", err)
	}
}
