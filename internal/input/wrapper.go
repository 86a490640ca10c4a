package input

import (
	"github.com/google/uuid"
)

// Validation is an eligibility predicate registered on an ActionWrapper.
// Registrations are keyed by the *Validation pointer, so keep the value
// returned by NewValidation to unregister it later.
type Validation struct {
	check func(Context) bool
}

// NewValidation wraps check as a registrable predicate
func NewValidation(check func(Context) bool) *Validation {
	return &Validation{check: check}
}

type validationSet []*Validation

func (s *validationSet) add(v *Validation) {
	if v == nil {
		return
	}
	for _, existing := range *s {
		if existing == v {
			return
		}
	}
	*s = append(*s, v)
}

func (s *validationSet) remove(v *Validation) {
	for i, existing := range *s {
		if existing == v {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return
		}
	}
}

func (s validationSet) passes(ctx Context) bool {
	for _, v := range s {
		if !v.check(ctx) {
			return false
		}
	}
	return true
}

type observer struct {
	id uint64
	h  Handler
}

// observers is an insertion-ordered subscriber list
type observers struct {
	next uint64
	list []observer
}

func (o *observers) add(h Handler) func() {
	o.next++
	id := o.next
	o.list = append(o.list, observer{id: id, h: h})
	return func() {
		for i, obs := range o.list {
			if obs.id == id {
				o.list = append(o.list[:i:i], o.list[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) notify(ctx Context) {
	for _, obs := range o.list {
		obs.h(ctx)
	}
}

// ActionWrapper intercepts the lifecycle signals of one raw action and
// decides whether, and when, they reach the wrapper's observers.
type ActionWrapper struct {
	id         uuid.UUID
	action     RawAction
	scheme     *Scheme
	overridden bool

	// IsEnabled gates every propagation. Defaults to true.
	IsEnabled bool

	uiPointerCheck   bool
	uiSelectionCheck bool
	wasStarted       bool

	validStarted   validationSet
	validPerformed validationSet
	validCanceled  validationSet

	onStarted   observers
	onPerformed observers
	onCanceled  observers

	unbinders []func()
}

func newActionWrapper(action RawAction, scheme *Scheme, overridden bool) *ActionWrapper {
	w := &ActionWrapper{
		id:         uuid.New(),
		action:     action,
		scheme:     scheme,
		overridden: overridden,
		IsEnabled:  true,
	}

	if overridden {
		action.Disable()
	} else {
		action.Enable()
		w.unbinders = []func(){
			action.On(PhaseStarted, w.Started),
			action.On(PhasePerformed, w.Performed),
			action.On(PhaseCanceled, w.Canceled),
		}
	}

	return w
}

// ID returns the stable identifier used by deferred checks
func (w *ActionWrapper) ID() uuid.UUID { return w.id }

// Name returns the wrapped action name
func (w *ActionWrapper) Name() string { return w.action.Name() }

// RawAction returns the wrapped raw action
func (w *ActionWrapper) RawAction() RawAction { return w.action }

// Scheme returns the owning scheme
func (w *ActionWrapper) Scheme() *Scheme { return w.scheme }

// IsClickOverridden reports whether the action is arbitrated by the Unifier
func (w *ActionWrapper) IsClickOverridden() bool { return w.overridden }

// IsDelayedInput reports whether signals wait for the scheme's frame update
func (w *ActionWrapper) IsDelayedInput() bool {
	return w.uiPointerCheck || w.uiSelectionCheck
}

// IsUIPointerCheckEnabled reports whether a pointer over UI blocks the action
func (w *ActionWrapper) IsUIPointerCheckEnabled() bool { return w.uiPointerCheck }

// SetUIPointerCheck enables the pointer-over-UI check, which delays input
func (w *ActionWrapper) SetUIPointerCheck(enabled bool) { w.uiPointerCheck = enabled }

// IsUISelectionCheckEnabled reports whether UI focus blocks the action
func (w *ActionWrapper) IsUISelectionCheckEnabled() bool { return w.uiSelectionCheck }

// SetUISelectionCheck enables the UI focus check, which delays input
func (w *ActionWrapper) SetUISelectionCheck(enabled bool) { w.uiSelectionCheck = enabled }

// OnStarted subscribes h to validated started signals
func (w *ActionWrapper) OnStarted(h Handler) (remove func()) { return w.onStarted.add(h) }

// OnPerformed subscribes h to validated performed signals
func (w *ActionWrapper) OnPerformed(h Handler) (remove func()) { return w.onPerformed.add(h) }

// OnCanceled subscribes h to validated canceled signals
func (w *ActionWrapper) OnCanceled(h Handler) (remove func()) { return w.onCanceled.add(h) }

// RegisterValidationStartedFunc adds a predicate checked before Started propagates
func (w *ActionWrapper) RegisterValidationStartedFunc(v *Validation) { w.validStarted.add(v) }

// RegisterValidationPerformedFunc adds a predicate checked before Performed propagates
func (w *ActionWrapper) RegisterValidationPerformedFunc(v *Validation) { w.validPerformed.add(v) }

// RegisterValidationCancelFunc adds a predicate checked before Canceled propagates
func (w *ActionWrapper) RegisterValidationCancelFunc(v *Validation) { w.validCanceled.add(v) }

// UnRegisterValidationStartedFunc removes a Started predicate. Unknown ones are ignored.
func (w *ActionWrapper) UnRegisterValidationStartedFunc(v *Validation) { w.validStarted.remove(v) }

// UnRegisterValidationPerformedFunc removes a Performed predicate
func (w *ActionWrapper) UnRegisterValidationPerformedFunc(v *Validation) { w.validPerformed.remove(v) }

// UnRegisterValidationCancelFunc removes a Canceled predicate
func (w *ActionWrapper) UnRegisterValidationCancelFunc(v *Validation) { w.validCanceled.remove(v) }

// Reset clears the raw action's transient state without firing callbacks
func (w *ActionWrapper) Reset() {
	w.action.Reset()
}

func (w *ActionWrapper) unbind() {
	for _, cancel := range w.unbinders {
		cancel()
	}
	w.unbinders = nil
}

// Started handles a started signal from the raw action or the Unifier
func (w *ActionWrapper) Started(ctx Context) { w.receive(PhaseStarted, ctx) }

// Performed handles a performed signal from the raw action or the Unifier
func (w *ActionWrapper) Performed(ctx Context) { w.receive(PhasePerformed, ctx) }

// Canceled handles a canceled signal from the raw action or the Unifier
func (w *ActionWrapper) Canceled(ctx Context) { w.receive(PhaseCanceled, ctx) }

func (w *ActionWrapper) receive(phase Phase, ctx Context) {
	// Overridden wrappers only take signals redistributed by the Unifier.
	if w.overridden && isContestedControl(ctx.Control) && ctx.Action == w.action {
		return
	}
	ctx.Phase = phase

	if w.IsDelayedInput() {
		w.scheme.enqueue(deferredCheck{
			wrapperID: w.id,
			phase:     phase,
			ctx:       ctx,
			isCancel:  phase == PhaseCanceled,
		})
		return
	}

	if w.IsInputEligible() && w.IsEnabled {
		w.propagate(phase, ctx)
	}
}

func (w *ActionWrapper) propagate(phase Phase, ctx Context) {
	switch phase {
	case PhaseStarted:
		if !w.validStarted.passes(ctx) || !w.IsEnabled {
			return
		}
		w.wasStarted = true
		w.onStarted.notify(ctx)

	case PhasePerformed:
		if !w.validPerformed.passes(ctx) || !w.IsEnabled {
			return
		}
		w.wasStarted = true
		w.onPerformed.notify(ctx)

	case PhaseCanceled:
		if !w.validCanceled.passes(ctx) || !w.IsEnabled || !w.wasStarted {
			return
		}
		w.wasStarted = false
		w.onCanceled.notify(ctx)
	}
}

// IsInputEligible reports whether an immediate signal may propagate
func (w *ActionWrapper) IsInputEligible() bool {
	return w.scheme.CheckPriorityInput(w.action) && w.scheme.IsSchemeEligibleForInputs()
}

func isContestedControl(control string) bool {
	return control == ClickPath || control == TouchPath
}
