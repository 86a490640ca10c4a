package hid

import (
	"encoding/binary"
	"fmt"
)

// Report IDs
const (
	ReportIDButtonEvent byte = 0x01
	ReportIDDisplay     byte = 0x02
)

// Event types for button reports
const (
	EventTypePress   byte = 0x01
	EventTypeRelease byte = 0x02
)

// MaxButtons is the width of the button bitmask
const MaxButtons = 16

const buttonReportSize = 8

// EventType says whether a report was sent for a press or a release
type EventType byte

const (
	Press   EventType = EventType(EventTypePress)
	Release EventType = EventType(EventTypeRelease)
)

func (e EventType) String() string {
	switch e {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// Event is a button report. ButtonMask holds every button that is down
// after the report, not only the one that changed.
type Event struct {
	Type       EventType
	ButtonMask uint16
	Timestamp  uint32
}

// ParseEvent parses a raw button report.
//
//	Byte 0:   Report ID (0x01)
//	Byte 1:   Event type (0x01=press, 0x02=release)
//	Byte 2-3: Button bitmask, little-endian
//	Byte 4-7: Timestamp in ms since boot, little-endian
func ParseEvent(data []byte) (*Event, error) {
	if len(data) < buttonReportSize {
		return nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}
	if data[0] != ReportIDButtonEvent {
		return nil, fmt.Errorf("unexpected report ID: 0x%02X", data[0])
	}

	eventType := data[1]
	if eventType != EventTypePress && eventType != EventTypeRelease {
		return nil, fmt.Errorf("unknown event type: 0x%02X", eventType)
	}

	return &Event{
		Type:       EventType(eventType),
		ButtonMask: binary.LittleEndian.Uint16(data[2:4]),
		Timestamp:  binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// Encode serializes the event as the device would send it
func (e Event) Encode() []byte {
	buf := make([]byte, buttonReportSize)
	buf[0] = ReportIDButtonEvent
	buf[1] = byte(e.Type)
	binary.LittleEndian.PutUint16(buf[2:4], e.ButtonMask)
	binary.LittleEndian.PutUint32(buf[4:8], e.Timestamp)
	return buf
}

// PressedButtons returns the indices of the buttons that are down
func (e Event) PressedButtons() []int {
	var buttons []int
	for i := 0; i < MaxButtons; i++ {
		if e.ButtonMask&(1<<i) != 0 {
			buttons = append(buttons, i)
		}
	}
	return buttons
}

// Transition is a single button going down or up
type Transition struct {
	Button int
	Down   bool
}

// Changed compares the mask with the previous one and returns one
// transition per button that changed, releases first, each group in
// ascending button order.
func (e Event) Changed(prev uint16) []Transition {
	diff := e.ButtonMask ^ prev
	if diff == 0 {
		return nil
	}

	var out []Transition
	for i := 0; i < MaxButtons; i++ {
		if diff&(1<<i) != 0 && e.ButtonMask&(1<<i) == 0 {
			out = append(out, Transition{Button: i})
		}
	}
	for i := 0; i < MaxButtons; i++ {
		if diff&(1<<i) != 0 && e.ButtonMask&(1<<i) != 0 {
			out = append(out, Transition{Button: i, Down: true})
		}
	}
	return out
}
