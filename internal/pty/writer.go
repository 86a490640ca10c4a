package pty

import (
	"time"

	"github.com/pleimann/camel-arbiter/internal/action"
)

// KeySender is what a Writer paces keys into
type KeySender interface {
	WriteKey(key action.KeyPress) error
}

// Writer paces key presses for TUIs that drop keys sent back to back
type Writer struct {
	target   KeySender
	keyDelay time.Duration
	sleep    func(time.Duration)
}

// NewWriter creates a new PTY writer
func NewWriter(target KeySender, keyDelay time.Duration) *Writer {
	return &Writer{
		target:   target,
		keyDelay: keyDelay,
		sleep:    time.Sleep,
	}
}

// WriteKey writes a single key press and waits the key delay
func (w *Writer) WriteKey(key action.KeyPress) error {
	if err := w.target.WriteKey(key); err != nil {
		return err
	}
	if w.keyDelay > 0 {
		w.sleep(w.keyDelay)
	}
	return nil
}
