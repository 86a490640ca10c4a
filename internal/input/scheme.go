package input

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ErrUnknownAction is returned when a scheme has no action of the given name
var ErrUnknownAction = errors.New("unknown action")

// deferredCheck is a signal waiting for the scheme's frame update
type deferredCheck struct {
	wrapperID uuid.UUID
	phase     Phase
	ctx       Context
	isCancel  bool
}

// Scheme hosts the wrappers built from one action source and decides when
// their delayed signals may fire.
type Scheme struct {
	schemeType SchemeType
	category   SchemeCategory
	manager    *Manager
	enabled    bool
	disposed   bool

	bindingPaths map[string]struct{}
	order        []*ActionWrapper
	byName       map[string]*ActionWrapper
	byID         map[uuid.UUID]*ActionWrapper

	pending []deferredCheck
}

func newScheme(m *Manager, schemeType SchemeType, category SchemeCategory, source ActionSource) (*Scheme, error) {
	s := &Scheme{
		schemeType:   schemeType,
		category:     category,
		manager:      m,
		bindingPaths: make(map[string]struct{}),
		byName:       make(map[string]*ActionWrapper),
		byID:         make(map[uuid.UUID]*ActionWrapper),
	}

	var actions []RawAction
	if source != nil {
		actions = source.Actions()
	}

	seen := make(map[string]bool, len(actions))
	for _, action := range actions {
		if seen[action.Name()] {
			return nil, fmt.Errorf("duplicate action %q in %s scheme", action.Name(), schemeType)
		}
		seen[action.Name()] = true
	}

	for _, action := range actions {
		w := s.buildWrapper(action)
		s.order = append(s.order, w)
		s.byName[action.Name()] = w
		s.byID[w.id] = w
	}

	return s, nil
}

func (s *Scheme) buildWrapper(action RawAction) *ActionWrapper {
	kind := classifyBindings(action.Bindings())
	for _, path := range kind.paths {
		s.bindingPaths[path] = struct{}{}
	}

	w := newActionWrapper(action, s, kind.overridden())

	if kind.singleClick || kind.doubleClick {
		s.manager.unifier.RegisterClick(w, kind.doubleClick)
	}
	if kind.singleTouch || kind.doubleTouch {
		s.manager.unifier.RegisterTouch(w, kind.doubleTouch)
	}

	return w
}

// Type returns the scheme type
func (s *Scheme) Type() SchemeType { return s.schemeType }

// Category returns the scheme category
func (s *Scheme) Category() SchemeCategory { return s.category }

// IsEnabled returns the scheme's own enable flag
func (s *Scheme) IsEnabled() bool { return s.enabled }

// SetEnable sets the scheme's enable flag. Schemes start disabled.
func (s *Scheme) SetEnable(enabled bool) { s.enabled = enabled }

// HasBindingPath reports whether any action in the scheme binds path
func (s *Scheme) HasBindingPath(path string) bool {
	_, ok := s.bindingPaths[path]
	return ok
}

// UniqueBindingPaths returns the sorted set of binding paths of all actions
func (s *Scheme) UniqueBindingPaths() []string {
	paths := make([]string, 0, len(s.bindingPaths))
	for p := range s.bindingPaths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Actions returns the wrappers in the order they were built
func (s *Scheme) Actions() []*ActionWrapper {
	out := make([]*ActionWrapper, len(s.order))
	copy(out, s.order)
	return out
}

// Lookup returns the wrapper for an action name
func (s *Scheme) Lookup(name string) (*ActionWrapper, bool) {
	w, ok := s.byName[name]
	return w, ok
}

// Action returns the wrapper for an action name. Asking for a name that was
// never registered is a programming error and panics.
func (s *Scheme) Action(name string) *ActionWrapper {
	w, ok := s.byName[name]
	if !ok {
		panic(fmt.Errorf("%s scheme: %w %q", s.schemeType, ErrUnknownAction, name))
	}
	return w
}

// Pending returns the number of queued deferred checks
func (s *Scheme) Pending() int { return len(s.pending) }

func (s *Scheme) enqueue(check deferredCheck) {
	s.pending = append(s.pending, check)
}

// discardInputs drops queued starts and performs while the scheme is not
// updated. Cancels stay queued so started actions still close.
func (s *Scheme) discardInputs() {
	kept := s.pending[:0]
	for _, check := range s.pending {
		if check.isCancel {
			kept = append(kept, check)
		}
	}
	clear(s.pending[len(kept):])
	s.pending = kept
}

// Update drains the deferred queue once, in FIFO order. Checks queued by
// callbacks during the drain are processed in the same pass. Ineligible
// checks are dropped, never retried.
func (s *Scheme) Update() {
	defer func() { s.pending = nil }()

	for len(s.pending) > 0 {
		check := s.pending[0]
		s.pending = s.pending[1:]

		w, ok := s.byID[check.wrapperID]
		if !ok {
			continue
		}
		if s.IsActionEligibleForTrigger(w, check.isCancel) {
			w.propagate(check.phase, check.ctx)
		}
	}
}

// IsActionEligibleForTrigger decides whether a deferred signal may fire
func (s *Scheme) IsActionEligibleForTrigger(w *ActionWrapper, isCancel bool) bool {
	if !w.IsEnabled {
		return false
	}

	// Cancels skip the UI checks so a started gesture can always close.
	// Priority is not rechecked either: propagation requires a prior start.
	if isCancel {
		return true
	}

	if w.uiPointerCheck && s.manager.hitTester.IsPointerOverUI() {
		return false
	}
	if w.uiSelectionCheck && s.manager.IsUIFocused() {
		return false
	}

	return s.CheckPriorityInput(w.action)
}

// IsSchemeEligibleForInputs reports whether the scheme is enabled and its
// category is not disabled
func (s *Scheme) IsSchemeEligibleForInputs() bool {
	return !s.manager.IsCategoryDisabled(s.category) && s.enabled
}

// CheckPriorityInput reports whether action may fire given the current
// priority scheme
func (s *Scheme) CheckPriorityInput(action RawAction) bool {
	priority := s.manager.PriorityScheme()
	if priority == nil || priority == s {
		return true
	}
	for _, b := range action.Bindings() {
		if priority.HasBindingPath(b.Path) {
			return false
		}
	}
	return true
}

// Dispose unregisters the scheme from its manager and tears down every
// wrapper and raw action. Calling it more than once is a no-op.
func (s *Scheme) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true

	s.manager.RemoveScheme(s)
	for _, w := range s.order {
		w.Reset()
		w.unbind()
		w.action.Dispose()
	}
	s.pending = nil
}

// bindingKind is the contested-control classification of an action
type bindingKind struct {
	paths       []string
	singleClick bool
	doubleClick bool
	singleTouch bool
	doubleTouch bool
}

func (k bindingKind) overridden() bool {
	return k.singleClick || k.doubleClick || k.singleTouch || k.doubleTouch
}

func classifyBindings(bindings []Binding) bindingKind {
	var k bindingKind
	for _, b := range bindings {
		k.paths = append(k.paths, b.Path)
		if b.IsPartOfComposite {
			continue
		}
		switch b.Path {
		case ClickPath:
			k.doubleClick = k.doubleClick || b.HasMultiTap()
			k.singleClick = k.singleClick || !b.HasMultiTap()
		case TouchPath:
			k.doubleTouch = k.doubleTouch || b.HasMultiTap()
			k.singleTouch = k.singleTouch || !b.HasMultiTap()
		}
	}
	return k
}
