// Package uistate tracks what the TUI reports about its own interface.
//
// The TUI announces state changes by printing marker lines:
//
//	UI:FOCUS=1      a text field or menu has keyboard focus
//	UI:POINTER=1    the pointer is over an interactive element
//
// A value of 0 clears the flag. Anything else on the line is ignored.
package uistate

import (
	"strings"
	"sync/atomic"
)

const markerPrefix = "UI:"

// Tracker holds the latest UI flags. Feed may run on a different goroutine
// than the readers.
type Tracker struct {
	focused atomic.Bool
	pointer atomic.Bool
}

func New() *Tracker {
	return &Tracker{}
}

// Feed consumes one output line and reports whether it was a marker
func (t *Tracker) Feed(line string) bool {
	i := strings.Index(line, markerPrefix)
	if i < 0 {
		return false
	}
	key, value, ok := strings.Cut(strings.TrimSpace(line[i+len(markerPrefix):]), "=")
	if !ok {
		return false
	}

	var on bool
	switch strings.TrimSpace(value) {
	case "1":
		on = true
	case "0":
	default:
		return false
	}

	switch key {
	case "FOCUS":
		t.focused.Store(on)
	case "POINTER":
		t.pointer.Store(on)
	default:
		return false
	}
	return true
}

// Focused reports whether the TUI last said it had keyboard focus
func (t *Tracker) Focused() bool { return t.focused.Load() }

// IsPointerOverUI reports whether the TUI last said the pointer was over it
func (t *Tracker) IsPointerOverUI() bool { return t.pointer.Load() }
