package input

import (
	"time"
)

type fakeAction struct {
	name     string
	bindings []Binding
	enabled  bool
	resets   int
	disposed bool
	handlers map[Phase][]Handler
}

func newFakeAction(name string, paths ...string) *fakeAction {
	a := &fakeAction{name: name, handlers: make(map[Phase][]Handler)}
	for _, p := range paths {
		a.bindings = append(a.bindings, Binding{Path: p})
	}
	return a
}

func (a *fakeAction) withBinding(b Binding) *fakeAction {
	a.bindings = append(a.bindings, b)
	return a
}

func (a *fakeAction) Name() string        { return a.name }
func (a *fakeAction) Bindings() []Binding { return a.bindings }
func (a *fakeAction) Enable()             { a.enabled = true }
func (a *fakeAction) Disable()            { a.enabled = false }
func (a *fakeAction) Enabled() bool       { return a.enabled }
func (a *fakeAction) Value() float32      { return 0 }
func (a *fakeAction) Reset()              { a.resets++ }
func (a *fakeAction) Dispose()            { a.disposed = true }

func (a *fakeAction) On(phase Phase, h Handler) func() {
	a.handlers[phase] = append(a.handlers[phase], h)
	idx := len(a.handlers[phase]) - 1
	return func() { a.handlers[phase][idx] = nil }
}

func (a *fakeAction) subscribers() int {
	n := 0
	for _, list := range a.handlers {
		for _, h := range list {
			if h != nil {
				n++
			}
		}
	}
	return n
}

// fire emits phase on control, as the platform would
func (a *fakeAction) fire(phase Phase, control string) {
	ctx := Context{Action: a, Control: control, Phase: phase, Time: time.Unix(0, 0)}
	for _, h := range a.handlers[phase] {
		if h != nil {
			h(ctx)
		}
	}
}

type fakePlatform struct {
	created []*fakeAction
	pressed bool
}

func (p *fakePlatform) NewAction(name string, bindings ...Binding) RawAction {
	a := &fakeAction{name: name, bindings: bindings, handlers: make(map[Phase][]Handler)}
	p.created = append(p.created, a)
	return a
}

func (p *fakePlatform) PointerPressed() bool                { return p.pressed }
func (p *fakePlatform) DefaultMultiTapDelay() time.Duration { return 500 * time.Millisecond }

func (p *fakePlatform) detector(name string) *fakeAction {
	for _, a := range p.created {
		if a.name == name {
			return a
		}
	}
	return nil
}

// recorder collects observer notifications as "action:phase"
type recorder struct {
	events []string
}

func (r *recorder) watch(w *ActionWrapper) {
	w.OnStarted(func(ctx Context) { r.events = append(r.events, w.Name()+":started") })
	w.OnPerformed(func(ctx Context) { r.events = append(r.events, w.Name()+":performed") })
	w.OnCanceled(func(ctx Context) { r.events = append(r.events, w.Name()+":canceled") })
}

func newTestManager(opts ...Option) (*Manager, *fakePlatform) {
	p := &fakePlatform{}
	return NewManager(p, opts...), p
}

func mustScheme(m *Manager, t SchemeType, c SchemeCategory, actions ...RawAction) *Scheme {
	s, err := m.GetOrCreateScheme(t, c, Actions(actions))
	if err != nil {
		panic(err)
	}
	s.SetEnable(true)
	return s
}
