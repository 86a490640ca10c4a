package action

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pleimann/camel-arbiter/internal/config"
	"github.com/pleimann/camel-arbiter/internal/input"
)

// Event is one signal that made it through arbitration to a bound action
type Event struct {
	Scheme  string
	Action  string
	Phase   input.Phase
	Control string
	Time    time.Time
}

// EventSink receives every dispatched event
type EventSink interface {
	ActionEvent(Event)
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(Event)

func (f EventSinkFunc) ActionEvent(e Event) { f(e) }

// PressState reports whether a control is held. The require_held option
// needs a platform that implements it.
type PressState interface {
	IsPressed(path string) bool
}

// BinderOption configures a Binder
type BinderOption func(*Binder)

// WithEventSink reports dispatched events to sink
func WithEventSink(sink EventSink) BinderOption {
	return func(b *Binder) { b.sink = sink }
}

// WithLogger sets the logger for key write failures
func WithLogger(l *log.Logger) BinderOption {
	return func(b *Binder) { b.log = l }
}

// Binder turns the schemes section of a config into live schemes: it
// creates the raw actions, registers them with the manager and wires the
// configured behaviour to the wrapper observers.
type Binder struct {
	manager  *input.Manager
	platform input.Platform
	executor *Executor
	sink     EventSink
	log      *log.Logger

	cfg      *config.Config
	schemes  []*input.Scheme
	controls map[int]string
}

// NewBinder creates a binder. Call Build to create the schemes.
func NewBinder(manager *input.Manager, platform input.Platform, executor *Executor, opts ...BinderOption) *Binder {
	b := &Binder{
		manager:  manager,
		platform: platform,
		executor: executor,
		log:      log.Default(),
		controls: make(map[int]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates every scheme in cfg. On failure the schemes built by this
// call are disposed again.
func (b *Binder) Build(cfg *config.Config) error {
	var built []*input.Scheme
	for i, sc := range cfg.Schemes {
		s, err := b.buildScheme(sc)
		if err != nil {
			for _, s := range built {
				s.Dispose()
			}
			return fmt.Errorf("scheme %d (%s): %w", i, sc.Type, err)
		}
		built = append(built, s)
	}

	controls := make(map[int]string, len(cfg.Controls))
	for _, ctl := range cfg.Controls {
		controls[ctl.Button] = ctl.Path
	}

	b.cfg = cfg
	b.schemes = append(b.schemes, built...)
	b.controls = controls
	return nil
}

// Rebuild disposes the current schemes and builds cfg. If cfg cannot be
// built the previous config is restored.
func (b *Binder) Rebuild(cfg *config.Config) error {
	prev := b.cfg
	b.Close()

	err := b.Build(cfg)
	if err == nil || prev == nil {
		return err
	}
	if restoreErr := b.Build(prev); restoreErr != nil {
		return errors.Join(err, fmt.Errorf("restoring previous config: %w", restoreErr))
	}
	return err
}

// Close disposes every scheme the binder built
func (b *Binder) Close() {
	for _, s := range b.schemes {
		s.Dispose()
	}
	b.schemes = nil
}

// Schemes returns the schemes built from the current config
func (b *Binder) Schemes() []*input.Scheme {
	out := make([]*input.Scheme, len(b.schemes))
	copy(out, b.schemes)
	return out
}

// ControlPath returns the control path mapped to a device button
func (b *Binder) ControlPath(button int) (string, bool) {
	path, ok := b.controls[button]
	return path, ok
}

func (b *Binder) buildScheme(sc config.SchemeConfig) (*input.Scheme, error) {
	schemeType, err := input.ParseSchemeType(sc.Type)
	if err != nil {
		return nil, err
	}
	category, err := input.ParseSchemeCategory(sc.Category)
	if err != nil {
		return nil, err
	}
	if schemeType != input.SchemeOther {
		for _, s := range b.manager.Schemes() {
			if s.Type() == schemeType {
				return nil, fmt.Errorf("a %s scheme is already registered", schemeType)
			}
		}
	}

	// Keys are parsed before anything is created so a bad entry leaks nothing.
	keys := make(map[string][]KeyPress, len(sc.Actions))
	for _, ac := range sc.Actions {
		if _, ok := b.platform.(PressState); ac.RequireHeld != "" && !ok {
			return nil, fmt.Errorf("action %s: require_held is not supported by this platform", ac.Name)
		}
		seq, err := ParseKeys(ac.Keys)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", ac.Name, err)
		}
		keys[ac.Name] = seq
	}

	actions := make(input.Actions, 0, len(sc.Actions))
	for _, ac := range sc.Actions {
		bindings := make([]input.Binding, 0, len(ac.Bindings))
		for _, bc := range ac.Bindings {
			bindings = append(bindings, input.Binding{
				Path:              bc.Path,
				Interactions:      bc.Interactions,
				IsPartOfComposite: bc.Composite,
			})
		}
		actions = append(actions, b.platform.NewAction(ac.Name, bindings...))
	}

	s, err := b.manager.GetOrCreateScheme(schemeType, category, actions)
	if err != nil {
		for _, a := range actions {
			a.Dispose()
		}
		return nil, err
	}

	for _, ac := range sc.Actions {
		w := s.Action(ac.Name)
		w.SetUIPointerCheck(ac.UIPointerCheck)
		w.SetUISelectionCheck(ac.UISelectionCheck)
		if ac.RequireHeld != "" {
			b.requireHeld(w, ac.RequireHeld)
		}
		b.wire(s, w, ac, keys[ac.Name])
	}

	s.SetEnable(sc.IsEnabled())
	return s, nil
}

// requireHeld gates start and perform on path being down. Cancels stay
// ungated so a started action can always finish.
func (b *Binder) requireHeld(w *input.ActionWrapper, path string) {
	state := b.platform.(PressState)
	v := input.NewValidation(func(input.Context) bool {
		return state.IsPressed(path)
	})
	w.RegisterValidationStartedFunc(v)
	w.RegisterValidationPerformedFunc(v)
}

func (b *Binder) wire(s *input.Scheme, w *input.ActionWrapper, ac config.ActionConfig, seq []KeyPress) {
	var toggle *input.SchemeCategory
	if ac.ToggleCategory != "" {
		if c, err := input.ParseSchemeCategory(ac.ToggleCategory); err == nil {
			toggle = &c
		}
	}

	w.OnStarted(func(ctx input.Context) {
		if ac.ClaimPriority {
			b.manager.SetPriorityScheme(s)
		}
		b.report(s, w, ctx)
	})

	w.OnPerformed(func(ctx input.Context) {
		b.report(s, w, ctx)
		if len(seq) > 0 && b.executor != nil {
			if err := b.executor.Send(seq); err != nil {
				b.log.Printf("action %s: %v", w.Name(), err)
			}
		}
		if toggle != nil {
			c := *toggle
			b.manager.SetSchemeCategoryState(c, b.manager.IsCategoryDisabled(c))
		}
	})

	w.OnCanceled(func(ctx input.Context) {
		if ac.ClaimPriority && b.manager.PriorityScheme() == s {
			b.manager.UnsetPriorityScheme()
		}
		b.report(s, w, ctx)
	})
}

func (b *Binder) report(s *input.Scheme, w *input.ActionWrapper, ctx input.Context) {
	if b.sink == nil {
		return
	}
	b.sink.ActionEvent(Event{
		Scheme:  s.Type().String(),
		Action:  w.Name(),
		Phase:   ctx.Phase,
		Control: ctx.Control,
		Time:    ctx.Time,
	})
}
