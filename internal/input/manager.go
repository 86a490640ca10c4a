package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/pleimann/camel-arbiter/internal/input"

// DefaultMultiTapDelay is the tap window of the Unifier detectors unless
// configured otherwise
const DefaultMultiTapDelay = 300 * time.Millisecond

// Option configures a Manager
type Option func(*Manager)

// WithHitTester sets the pointer-over-UI query used by UI pointer checks
func WithHitTester(h UIHitTester) Option {
	return func(m *Manager) {
		if h != nil {
			m.hitTester = h
		}
	}
}

// WithLogger sets the logger for dispatch failures and scheme lifecycle
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithTracer sets the tracer used to span each frame update
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithMultiTapDelay sets the tap window of the click and touch detectors
func WithMultiTapDelay(d time.Duration) Option {
	return func(m *Manager) { m.unifier.multiTapDelay = d }
}

// WithPlatformMultiTapDelay makes the detectors use the platform default
// tap window
func WithPlatformMultiTapDelay() Option {
	return func(m *Manager) { m.unifier.useDefaultDelay = true }
}

// Manager is the registry of schemes. It owns the priority scheme, the
// disabled categories and the UI focus flag, and drives the per-frame
// update. All methods must be called from the input loop goroutine.
type Manager struct {
	platform  Platform
	unifier   *Unifier
	hitTester UIHitTester
	log       *log.Logger
	tracer    trace.Tracer

	schemes  []*Scheme
	byType   map[SchemeType]*Scheme
	disabled map[SchemeCategory]struct{}
	priority *Scheme
	focused  bool
	closed   bool
}

// NewManager creates the manager and its Unifier detectors
func NewManager(platform Platform, opts ...Option) *Manager {
	m := &Manager{
		platform:  platform,
		unifier:   newUnifier(platform),
		hitTester: UIHitTesterFunc(func() bool { return false }),
		log:       log.New(io.Discard, "", 0),
		tracer:    otel.Tracer(tracerName),
		byType:    make(map[SchemeType]*Scheme),
		disabled:  make(map[SchemeCategory]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.unifier.initialize()
	return m
}

// Unifier returns the click/touch disambiguator
func (m *Manager) Unifier() *Unifier { return m.unifier }

// GetOrCreateScheme returns the existing scheme of schemeType, or builds a
// new one from source. SchemeOther always builds a new scheme. An existing
// scheme is returned unchanged, whatever category is passed.
func (m *Manager) GetOrCreateScheme(schemeType SchemeType, category SchemeCategory, source ActionSource) (*Scheme, error) {
	if schemeType != SchemeOther {
		if s, ok := m.byType[schemeType]; ok {
			return s, nil
		}
	}

	s, err := newScheme(m, schemeType, category, source)
	if err != nil {
		return nil, err
	}

	m.schemes = append(m.schemes, s)
	if schemeType != SchemeOther {
		m.byType[schemeType] = s
	}

	m.log.Printf("input: created %s scheme (%s, %d actions)", schemeType, category, len(s.order))
	return s, nil
}

// SetPriorityScheme gives s priority over every binding path it uses
func (m *Manager) SetPriorityScheme(s *Scheme) { m.priority = s }

// UnsetPriorityScheme clears the priority scheme
func (m *Manager) UnsetPriorityScheme() { m.priority = nil }

// PriorityScheme returns the priority scheme, or nil
func (m *Manager) PriorityScheme() *Scheme { return m.priority }

// IsUIFocused reports whether a UI element holds focus
func (m *Manager) IsUIFocused() bool { return m.focused }

// SetUIFocused is called by the UI layer when focus changes
func (m *Manager) SetUIFocused(focused bool) { m.focused = focused }

// SetSchemeCategoryState enables or disables every scheme of category
func (m *Manager) SetSchemeCategoryState(category SchemeCategory, enabled bool) {
	if enabled {
		delete(m.disabled, category)
	} else {
		m.disabled[category] = struct{}{}
	}
}

// IsCategoryDisabled reports whether category is disabled
func (m *Manager) IsCategoryDisabled(category SchemeCategory) bool {
	_, ok := m.disabled[category]
	return ok
}

// DisabledCategories returns the disabled categories in ascending order
func (m *Manager) DisabledCategories() []SchemeCategory {
	out := make([]SchemeCategory, 0, len(m.disabled))
	for c := range m.disabled {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Schemes returns the registered schemes in registration order
func (m *Manager) Schemes() []*Scheme {
	out := make([]*Scheme, len(m.schemes))
	copy(out, m.schemes)
	return out
}

// RemoveScheme drops s from the registry, clears priority if s held it and
// unregisters its wrappers from the Unifier. Scheme.Dispose calls this.
func (m *Manager) RemoveScheme(s *Scheme) {
	if cur, ok := m.byType[s.schemeType]; ok && cur == s {
		delete(m.byType, s.schemeType)
	}
	if m.priority == s {
		m.priority = nil
	}
	for i, registered := range m.schemes {
		if registered == s {
			m.schemes = append(m.schemes[:i:i], m.schemes[i+1:]...)
			break
		}
	}
	for _, w := range s.order {
		m.unifier.Unregister(w)
	}
}

func (m *Manager) isRegistered(s *Scheme) bool {
	for _, registered := range m.schemes {
		if registered == s {
			return true
		}
	}
	return false
}

// Update runs the frame update of every enabled scheme whose category is
// not disabled, in registration order. It must run once per frame after
// platform input has been processed.
//
// A panic raised by a predicate or observer aborts the remaining checks of
// that scheme only; it is logged, the other schemes still update, and the
// failures are returned joined.
func (m *Manager) Update(ctx context.Context) error {
	_, span := m.tracer.Start(ctx, "input.Update")
	defer span.End()

	var errs []error
	updated := 0
	for _, s := range m.Schemes() {
		if !m.isRegistered(s) {
			continue
		}
		if m.IsCategoryDisabled(s.category) || !s.enabled {
			s.discardInputs()
			continue
		}
		updated++
		if err := m.updateScheme(s); err != nil {
			m.log.Printf("input: %v", err)
			errs = append(errs, err)
		}
	}

	span.SetAttributes(
		attribute.Int("input.schemes", len(m.schemes)),
		attribute.Int("input.schemes_updated", updated),
	)

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scheme update failed")
	}
	return err
}

func (m *Manager) updateScheme(s *Scheme) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s scheme update panicked: %v", s.schemeType, r)
		}
	}()
	s.Update()
	return nil
}

// Close disposes every scheme and the Unifier detectors
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true

	for _, s := range m.Schemes() {
		s.Dispose()
	}
	m.unifier.close()
}
