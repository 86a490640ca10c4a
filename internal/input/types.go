package input

import (
	"fmt"
	"strings"
	"time"
)

// Reserved contested controls. Actions bound to these paths are arbitrated by
// the Unifier instead of listening to their own raw action.
const (
	ClickPath = "<Mouse>/leftButton"
	TouchPath = "<Touchscreen>/primaryTouch/tap"
)

const multiTapInteraction = "MultiTap"

// Phase is the lifecycle stage of a raw action signal
type Phase int

const (
	PhaseStarted Phase = iota
	PhasePerformed
	PhaseCanceled
)

func (p Phase) String() string {
	switch p {
	case PhaseStarted:
		return "started"
	case PhasePerformed:
		return "performed"
	case PhaseCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// Binding is one physical control bound to a raw action
type Binding struct {
	Path              string
	Interactions      string
	IsPartOfComposite bool
}

// HasMultiTap reports whether the binding uses a multi-tap interaction
func (b Binding) HasMultiTap() bool {
	return strings.Contains(b.Interactions, multiTapInteraction)
}

// Context describes a single lifecycle signal of a raw action
type Context struct {
	Action  RawAction
	Control string
	Phase   Phase
	Value   float32
	Time    time.Time
}

// Handler receives lifecycle signals
type Handler func(Context)

// RawAction is a platform input primitive. The arbitration layer owns the
// action once it has been handed to a scheme.
type RawAction interface {
	Name() string
	Bindings() []Binding
	Enable()
	Disable()
	Enabled() bool
	Value() float32
	// Reset drops in-progress interaction state without signalling.
	Reset()
	Dispose()
	// On subscribes h to phase; the returned func removes the subscription.
	On(phase Phase, h Handler) (cancel func())
}

// Platform creates raw actions and reports global pointer state
type Platform interface {
	NewAction(name string, bindings ...Binding) RawAction
	PointerPressed() bool
	DefaultMultiTapDelay() time.Duration
}

// UIHitTester answers whether any UI element is under the pointer right now
type UIHitTester interface {
	IsPointerOverUI() bool
}

// UIHitTesterFunc adapts a function to UIHitTester
type UIHitTesterFunc func() bool

func (f UIHitTesterFunc) IsPointerOverUI() bool { return f() }

// ActionSource supplies the raw actions a scheme wraps
type ActionSource interface {
	Actions() []RawAction
}

// Actions is an explicit list of raw actions
type Actions []RawAction

func (a Actions) Actions() []RawAction { return a }

// SchemeType identifies a scheme for memoization. SchemeOther is never
// memoized.
type SchemeType int

const (
	SchemeOther SchemeType = iota
	SchemeObjectSelection
	SchemeMeasurement
	SchemeWalkMode
	SchemeFlyOrbital
	SchemeAnnotation
	SchemeTeleport
)

var schemeTypeNames = map[SchemeType]string{
	SchemeOther:           "other",
	SchemeObjectSelection: "object_selection",
	SchemeMeasurement:     "measurement",
	SchemeWalkMode:        "walk_mode",
	SchemeFlyOrbital:      "fly_orbital",
	SchemeAnnotation:      "annotation",
	SchemeTeleport:        "teleport",
}

func (t SchemeType) String() string {
	if name, ok := schemeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// ParseSchemeType parses the configuration name of a scheme type
func ParseSchemeType(s string) (SchemeType, error) {
	for t, name := range schemeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return SchemeOther, fmt.Errorf("unknown scheme type %q", s)
}

// SchemeCategory groups schemes for bulk enable/disable
type SchemeCategory int

const (
	CategoryController SchemeCategory = iota
	CategoryTools
)

func (c SchemeCategory) String() string {
	switch c {
	case CategoryController:
		return "controller"
	case CategoryTools:
		return "tools"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseSchemeCategory parses the configuration name of a category
func ParseSchemeCategory(s string) (SchemeCategory, error) {
	switch s {
	case "controller":
		return CategoryController, nil
	case "tools":
		return CategoryTools, nil
	default:
		return CategoryController, fmt.Errorf("unknown scheme category %q", s)
	}
}
