package display

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pleimann/camel-arbiter/internal/config"
	"github.com/pleimann/camel-arbiter/internal/hid"
)

type mockDevice struct {
	mu     sync.Mutex
	frames []*hid.DisplayFrame
	err    error
}

func (d *mockDevice) SendFrame(f *hid.DisplayFrame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.frames = append(d.frames, f)
	return nil
}

func (d *mockDevice) take() []*hid.DisplayFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.frames
	d.frames = nil
	return out
}

func testDisplayConfig() config.DisplayConfig {
	return config.DisplayConfig{
		Width:            128,
		Height:           64,
		UpdateIntervalMs: 5,
		Regions: []config.DisplayRegion{
			{Name: "title", X: 0, Y: 0, Width: 128, Height: 16, Source: config.SourceStatic, Content: "camel"},
			{Name: "priority", X: 0, Y: 16, Width: 128, Height: 16, Source: config.SourcePriority},
			{Name: "categories", X: 0, Y: 32, Width: 128, Height: 16, Source: config.SourceCategories},
			{Name: "event", X: 0, Y: 48, Width: 128, Height: 16, Source: config.SourceLastEvent},
		},
	}
}

func TestManagerInitialFlushSendsEveryRegion(t *testing.T) {
	dev := &mockDevice{}
	m := NewManager(testDisplayConfig(), dev, nil)

	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}
	// Each 128x16 region is 16 bytes per row, 3 rows per report.
	if got := len(dev.take()); got != 4*6 {
		t.Errorf("initial flush sent %d frames, want 24", got)
	}

	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := len(dev.take()); got != 0 {
		t.Errorf("clean flush sent %d frames, want 0", got)
	}
}

func TestManagerSetStatusMarksChangedRegions(t *testing.T) {
	dev := &mockDevice{}
	m := NewManager(testDisplayConfig(), dev, nil)
	_ = m.Flush()
	dev.take()

	m.SetStatus(Status{})
	_ = m.Flush()
	if got := len(dev.take()); got != 0 {
		t.Errorf("unchanged status sent %d frames", got)
	}

	m.SetStatus(Status{Priority: "measurement"})
	_ = m.Flush()
	frames := dev.take()
	if len(frames) != 6 {
		t.Fatalf("priority change sent %d frames, want 6", len(frames))
	}
	for _, f := range frames {
		if f.Y < 16 || f.Y >= 32 {
			t.Errorf("frame at y=%d outside the priority region", f.Y)
		}
	}

	m.SetStatus(Status{Priority: "measurement", DisabledCategories: []string{"controller"}, LastEvent: "walk_mode/next performed"})
	_ = m.Flush()
	if got := len(dev.take()); got != 12 {
		t.Errorf("categories and event change sent %d frames, want 12", got)
	}
}

func TestManagerRegionContent(t *testing.T) {
	m := NewManager(testDisplayConfig(), &mockDevice{}, nil)
	m.SetStatus(Status{DisabledCategories: []string{"controller", "tools"}, LastEvent: "x"})

	want := map[string]string{
		"title":      "camel",
		"priority":   "prio: none",
		"categories": "off: controller,tools",
		"event":      "x",
	}
	for _, r := range m.regions {
		if r.content != want[r.config.Name] {
			t.Errorf("region %s = %q, want %q", r.config.Name, r.content, want[r.config.Name])
		}
	}
}

func TestManagerForceRefresh(t *testing.T) {
	dev := &mockDevice{}
	m := NewManager(testDisplayConfig(), dev, nil)
	_ = m.Flush()
	dev.take()

	m.SetStatus(Status{LastEvent: "pending"})
	m.ForceRefresh()
	_ = m.Flush()
	// The full canvas is 16 bytes per row, 64 rows, 3 rows per report.
	frames := dev.take()
	if len(frames) != 22 {
		t.Errorf("ForceRefresh flush sent %d frames, want 22", len(frames))
	}
	if frames[0].Y != 0 || frames[0].Width != 128 {
		t.Errorf("first frame at y=%d width=%d", frames[0].Y, frames[0].Width)
	}

	_ = m.Flush()
	if got := len(dev.take()); got != 0 {
		t.Errorf("flush after refresh sent %d frames, want 0", got)
	}
}

func TestManagerRegionBorder(t *testing.T) {
	cfg := config.DisplayConfig{
		Width:  32,
		Height: 16,
		Regions: []config.DisplayRegion{
			{Name: "box", Width: 32, Height: 16, Source: config.SourceStatic, Border: true},
		},
	}
	m := NewManager(cfg, &mockDevice{}, nil)
	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}

	buf := m.renderer.FrameBuffer()
	if buf[0] != 0xFF || buf[3] != 0xFF {
		t.Errorf("top edge = % X, want solid", buf[:4])
	}
	if buf[4] != 0x80 || buf[7] != 0x01 {
		t.Errorf("second row = % X, want side edges only", buf[4:8])
	}
}

func TestManagerFlushError(t *testing.T) {
	dev := &mockDevice{err: errors.New("device gone")}
	m := NewManager(testDisplayConfig(), dev, nil)

	if err := m.Flush(); err == nil {
		t.Error("Flush() error = nil, want device error")
	}
}

func TestManagerStartStop(t *testing.T) {
	dev := &mockDevice{}
	var buf bytes.Buffer
	m := NewManager(testDisplayConfig(), dev, log.New(&buf, "", 0))

	m.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for {
		dev.mu.Lock()
		n := len(dev.frames)
		dev.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("update loop never flushed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()

	frames := dev.take()
	if last := frames[len(frames)-1]; last.Command != hid.DisplayCmdClear {
		t.Errorf("last frame command = 0x%02X, want clear", last.Command)
	}
}
