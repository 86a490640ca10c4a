package action

import (
	"fmt"
)

// KeyWriter is the interface for writing key sequences
type KeyWriter interface {
	WriteKey(key KeyPress) error
}

// Executor sends key sequences to a KeyWriter
type Executor struct {
	writer KeyWriter
}

// NewExecutor creates a new executor
func NewExecutor(writer KeyWriter) *Executor {
	return &Executor{writer: writer}
}

// Execute parses and sends a sequence of key strings
func (e *Executor) Execute(keys []string) error {
	seq, err := ParseKeys(keys)
	if err != nil {
		return err
	}
	return e.Send(seq)
}

// Send writes already parsed keys in order, stopping at the first failure
func (e *Executor) Send(seq []KeyPress) error {
	for _, key := range seq {
		if err := e.writer.WriteKey(key); err != nil {
			return fmt.Errorf("failed to write key %q: %w", key, err)
		}
	}
	return nil
}
