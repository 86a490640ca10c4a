package rawinput

import (
	"log"
	"strings"
	"time"

	"github.com/pleimann/camel-arbiter/internal/gesture"
	"github.com/pleimann/camel-arbiter/internal/input"
)

// DefaultPointerPrefixes are the device prefixes whose controls count as a
// pointer press
var DefaultPointerPrefixes = []string{"<Mouse>/", "<Pen>/", "<Touchscreen>/", "<Pointer>/"}

// Option configures a System
type Option func(*System)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *System) { s.now = now }
}

// WithTimings sets the fallback interaction timings
func WithTimings(d gesture.Defaults) Option {
	return func(s *System) { s.timings = d }
}

// WithPointerPrefixes sets which control paths count as pointer controls
func WithPointerPrefixes(prefixes ...string) Option {
	return func(s *System) { s.pointerPrefixes = prefixes }
}

// WithLogger sets the logger used for malformed interaction strings
func WithLogger(l *log.Logger) Option {
	return func(s *System) { s.log = l }
}

// System is an in-process input platform: it tracks which controls are down
// and drives the interactions of every registered action. It is not safe for
// concurrent use; feed it from the input loop goroutine.
type System struct {
	now             func() time.Time
	timings         gesture.Defaults
	pointerPrefixes []string
	log             *log.Logger

	actions []*Action
	pressed map[string]bool
}

// NewSystem creates an empty input system
func NewSystem(opts ...Option) *System {
	s := &System{
		now:             time.Now,
		timings:         gesture.DefaultTimings,
		pointerPrefixes: DefaultPointerPrefixes,
		log:             log.Default(),
		pressed:         make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAction registers a new, disabled action
func (s *System) NewAction(name string, bindings ...input.Binding) input.RawAction {
	return s.CreateAction(name, bindings...)
}

// CreateAction is NewAction returning the concrete type
func (s *System) CreateAction(name string, bindings ...input.Binding) *Action {
	a := &Action{
		system:   s,
		name:     name,
		bindings: append([]input.Binding(nil), bindings...),
	}
	for _, b := range a.bindings {
		ia, err := gesture.Parse(b.Interactions, s.timings)
		if err != nil {
			s.log.Printf("rawinput: action %s binding %s: %v; using press", name, b.Path, err)
			ia = &gesture.Press{}
		}
		a.interactions = append(a.interactions, ia)
	}
	s.actions = append(s.actions, a)
	return a
}

// DefaultMultiTapDelay returns the fallback tap window
func (s *System) DefaultMultiTapDelay() time.Duration {
	return s.timings.TapDelay
}

// PointerPressed reports whether any pointer control is currently down
func (s *System) PointerPressed() bool {
	for path, down := range s.pressed {
		if down && s.isPointer(path) {
			return true
		}
	}
	return false
}

// IsPressed reports whether the control at path is down
func (s *System) IsPressed(path string) bool {
	return s.pressed[path]
}

// Press marks the control at path as down and feeds every bound action
func (s *System) Press(path string) {
	if s.pressed[path] {
		return
	}
	// Windows that lapsed since the last frame close while the control is
	// still up, so a finished tap resolves as released.
	now := s.now()
	for _, a := range s.snapshot() {
		a.expire(path, now)
	}
	s.pressed[path] = true
	s.route(path, true)
}

// Release marks the control at path as up and feeds every bound action
func (s *System) Release(path string) {
	if !s.pressed[path] {
		return
	}
	delete(s.pressed, path)
	s.route(path, false)
}

// Update advances time-based interactions, such as multi-tap windows. Call
// it once per frame before the arbitration update.
func (s *System) Update() {
	now := s.now()
	for _, a := range s.snapshot() {
		a.tick(now)
	}
}

// Actions returns the number of live actions
func (s *System) Actions() int { return len(s.actions) }

func (s *System) route(path string, down bool) {
	now := s.now()
	for _, a := range s.snapshot() {
		a.handleControl(path, down, now)
	}
}

func (s *System) snapshot() []*Action {
	out := make([]*Action, len(s.actions))
	copy(out, s.actions)
	return out
}

func (s *System) remove(a *Action) {
	for i, existing := range s.actions {
		if existing == a {
			s.actions = append(s.actions[:i:i], s.actions[i+1:]...)
			return
		}
	}
}

func (s *System) isPointer(path string) bool {
	for _, prefix := range s.pointerPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
