package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/pleimann/camel-arbiter/internal/action"
)

// stopTimeout is how long Stop waits after the interrupt before killing
const stopTimeout = 2 * time.Second

// ErrNotStarted is returned when writing before Start
var ErrNotStarted = errors.New("PTY not started")

// LineHandler receives each non-empty output line of the TUI with escape
// sequences stripped. It runs on the reader goroutine.
type LineHandler func(line string)

// Option configures a Manager
type Option func(*Manager)

// WithLineHandler registers a handler for TUI output lines
func WithLineHandler(h LineHandler) Option {
	return func(m *Manager) { m.handlers = append(m.handlers, h) }
}

// WithEnv appends variables to the TUI environment
func WithEnv(env ...string) Option {
	return func(m *Manager) { m.env = append(m.env, env...) }
}

// Manager runs the TUI process in a PTY
type Manager struct {
	command    string
	args       []string
	workingDir string
	env        []string
	handlers   []LineHandler

	mu   sync.Mutex
	ptmx *os.File
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	outputMu sync.RWMutex
	output   *RingBuffer
}

// NewManager creates a new PTY manager
func NewManager(command string, args []string, workingDir string, opts ...Option) (*Manager, error) {
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}

	m := &Manager{
		command:    command,
		args:       args,
		workingDir: workingDir,
		output:     NewRingBuffer(4096),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start starts the TUI process in a PTY
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		return fmt.Errorf("PTY already started")
	}

	cmd := exec.CommandContext(ctx, m.command, m.args...)
	if m.workingDir != "" {
		cmd.Dir = m.workingDir
	}
	cmd.Env = append(os.Environ(), m.env...)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	m.ptmx = ptmx
	m.cmd = cmd
	m.done = make(chan struct{})

	go m.readOutput(ptmx)
	go func() {
		err := cmd.Wait()
		m.mu.Lock()
		m.err = err
		m.mu.Unlock()
		close(m.done)
	}()

	return nil
}

// Done is closed when the TUI process exits. It is nil before Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Err returns the exit error of the TUI process once Done is closed
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Stop interrupts the TUI process and closes the PTY
func (m *Manager) Stop() {
	m.mu.Lock()
	cmd, done, ptmx := m.cmd, m.done, m.ptmx
	m.ptmx = nil
	m.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(stopTimeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}
	if ptmx != nil {
		ptmx.Close()
	}
}

func (m *Manager) readOutput(r io.Reader) {
	lines := &lineSplitter{emit: func(line string) {
		for _, h := range m.handlers {
			h(line)
		}
	}}

	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.outputMu.Lock()
			m.output.Write(buf[:n])
			m.outputMu.Unlock()
			lines.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// WriteKey writes a key press to the PTY
func (m *Manager) WriteKey(key action.KeyPress) error {
	data := key.ToBytes()
	if data == nil {
		return fmt.Errorf("could not convert key %q to bytes", key)
	}
	return m.write(data)
}

// WriteString writes a string to the PTY
func (m *Manager) WriteString(s string) error {
	return m.write([]byte(s))
}

func (m *Manager) write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptmx == nil {
		return ErrNotStarted
	}
	_, err := m.ptmx.Write(data)
	return err
}

// RecentOutput returns the last few KB of raw TUI output
func (m *Manager) RecentOutput() string {
	m.outputMu.RLock()
	defer m.outputMu.RUnlock()
	return m.output.String()
}

// Resize resizes the PTY window
func (m *Manager) Resize(rows, cols uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptmx == nil {
		return ErrNotStarted
	}

	return pty.Setsize(m.ptmx, &pty.Winsize{
		Rows: rows,
		Cols: cols,
	})
}

// IsRunning returns whether the TUI process is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
