package rawinput

import (
	"time"

	"github.com/pleimann/camel-arbiter/internal/gesture"
	"github.com/pleimann/camel-arbiter/internal/input"
)

type handlerEntry struct {
	id uint64
	h  input.Handler
}

// Action is a named raw action bound to one or more controls
type Action struct {
	system       *System
	name         string
	bindings     []input.Binding
	interactions []gesture.Interaction

	enabled  bool
	disposed bool
	value    float32

	nextID   uint64
	handlers [3][]handlerEntry
}

var _ input.RawAction = (*Action)(nil)

func (a *Action) Name() string { return a.name }

func (a *Action) Bindings() []input.Binding {
	out := make([]input.Binding, len(a.bindings))
	copy(out, a.bindings)
	return out
}

func (a *Action) Enable() {
	if !a.disposed {
		a.enabled = true
	}
}

// Disable stops the action and drops in-progress interactions silently
func (a *Action) Disable() {
	a.enabled = false
	a.Reset()
}

func (a *Action) Enabled() bool { return a.enabled }

func (a *Action) Value() float32 { return a.value }

func (a *Action) Reset() {
	for _, ia := range a.interactions {
		ia.Reset()
	}
	a.value = 0
}

// Dispose removes the action from its system and drops all subscribers
func (a *Action) Dispose() {
	if a.disposed {
		return
	}
	a.disposed = true
	a.enabled = false
	a.Reset()
	a.handlers = [3][]handlerEntry{}
	a.system.remove(a)
}

func (a *Action) On(phase input.Phase, h input.Handler) func() {
	if phase < input.PhaseStarted || phase > input.PhaseCanceled {
		return func() {}
	}
	a.nextID++
	id := a.nextID
	a.handlers[phase] = append(a.handlers[phase], handlerEntry{id: id, h: h})

	return func() {
		list := a.handlers[phase]
		for i, e := range list {
			if e.id == id {
				a.handlers[phase] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (a *Action) handleControl(path string, down bool, now time.Time) {
	if !a.enabled {
		return
	}
	for i, b := range a.bindings {
		if b.Path != path {
			continue
		}
		var signals []gesture.Signal
		if down {
			a.value = 1
			signals = a.interactions[i].Press(now)
		} else {
			a.value = 0
			signals = a.interactions[i].Release(now)
		}
		a.emit(b.Path, signals, now)
	}
}

func (a *Action) tick(now time.Time) {
	if !a.enabled {
		return
	}
	for i, ia := range a.interactions {
		a.emit(a.bindings[i].Path, ia.Tick(now), now)
	}
}

// expire ticks only the interactions bound to path
func (a *Action) expire(path string, now time.Time) {
	if !a.enabled {
		return
	}
	for i, ia := range a.interactions {
		if a.bindings[i].Path == path {
			a.emit(path, ia.Tick(now), now)
		}
	}
}

func (a *Action) emit(control string, signals []gesture.Signal, now time.Time) {
	for _, sig := range signals {
		if !a.enabled {
			return
		}
		phase := phaseOf(sig)
		ctx := input.Context{
			Action:  a,
			Control: control,
			Phase:   phase,
			Value:   a.value,
			Time:    now,
		}
		list := a.handlers[phase]
		for _, e := range list {
			e.h(ctx)
		}
	}
}

func phaseOf(sig gesture.Signal) input.Phase {
	switch sig {
	case gesture.SignalStarted:
		return input.PhaseStarted
	case gesture.SignalPerformed:
		return input.PhasePerformed
	default:
		return input.PhaseCanceled
	}
}
