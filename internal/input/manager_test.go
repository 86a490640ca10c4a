package input

import (
	"bytes"
	"context"
	"log"
	"reflect"
	"strings"
	"testing"
)

func TestGetOrCreateSchemeMemoizes(t *testing.T) {
	m, _ := newTestManager()

	first, err := m.GetOrCreateScheme(SchemeWalkMode, CategoryController, Actions{newFakeAction("jump", "<Pad>/button0")})
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.GetOrCreateScheme(SchemeWalkMode, CategoryTools, Actions{newFakeAction("other", "<Pad>/button1")})
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Fatal("second call built a new scheme")
	}
	if second.Category() != CategoryController {
		t.Errorf("Category() = %v, memoized scheme must keep its category", second.Category())
	}
	if _, ok := second.Lookup("other"); ok {
		t.Error("memoized scheme picked up actions from the second source")
	}
}

func TestGetOrCreateSchemeOtherIsNeverMemoized(t *testing.T) {
	m, _ := newTestManager()

	a := mustScheme(m, SchemeOther, CategoryTools, newFakeAction("a", "<Pad>/button0"))
	b := mustScheme(m, SchemeOther, CategoryTools, newFakeAction("b", "<Pad>/button1"))

	if a == b {
		t.Fatal("SchemeOther returned the same scheme twice")
	}
	if got := len(m.Schemes()); got != 2 {
		t.Errorf("len(Schemes()) = %d, want 2", got)
	}
}

func TestCategorySuppression(t *testing.T) {
	m, _ := newTestManager()
	jump := newFakeAction("jump", "<Pad>/button0")
	s := mustScheme(m, SchemeWalkMode, CategoryController, jump)
	w := s.Action("jump")
	w.SetUISelectionCheck(true)

	var r recorder
	r.watch(w)

	m.SetSchemeCategoryState(CategoryController, false)
	if !m.IsCategoryDisabled(CategoryController) {
		t.Fatal("category not disabled")
	}
	if !s.IsEnabled() {
		t.Error("category state must not change the scheme's own flag")
	}
	if s.IsSchemeEligibleForInputs() {
		t.Error("scheme in a disabled category is eligible")
	}

	jump.fire(PhaseStarted, "<Pad>/button0")
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Errorf("disabled category dispatched %v", r.events)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, suppressed scheme should discard queued inputs", s.Pending())
	}

	m.SetSchemeCategoryState(CategoryController, true)
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Errorf("re-enabled category replayed %v", r.events)
	}
}

func TestCategorySuppressionKeepsCancels(t *testing.T) {
	m, _ := newTestManager()
	jump := newFakeAction("jump", "<Pad>/button0")
	s := mustScheme(m, SchemeWalkMode, CategoryController, jump)
	w := s.Action("jump")
	w.SetUISelectionCheck(true)

	var r recorder
	r.watch(w)

	jump.fire(PhaseStarted, "<Pad>/button0")
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}

	m.SetSchemeCategoryState(CategoryController, false)
	jump.fire(PhasePerformed, "<Pad>/button0")
	jump.fire(PhaseCanceled, "<Pad>/button0")
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want the cancel kept", s.Pending())
	}

	m.SetSchemeCategoryState(CategoryController, true)
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := []string{"jump:started", "jump:canceled"}; !reflect.DeepEqual(r.events, want) {
		t.Errorf("events = %v, want %v", r.events, want)
	}
}

func TestDisabledCategories(t *testing.T) {
	m, _ := newTestManager()
	m.SetSchemeCategoryState(CategoryTools, false)
	m.SetSchemeCategoryState(CategoryController, false)
	m.SetSchemeCategoryState(CategoryController, false)

	want := []SchemeCategory{CategoryController, CategoryTools}
	if got := m.DisabledCategories(); !reflect.DeepEqual(got, want) {
		t.Errorf("DisabledCategories() = %v, want %v", got, want)
	}

	m.SetSchemeCategoryState(CategoryController, true)
	if m.IsCategoryDisabled(CategoryController) {
		t.Error("controller still disabled")
	}
}

func TestPriorityScheme(t *testing.T) {
	m, _ := newTestManager()
	measure := newFakeAction("measure", "<Pad>/button0")
	orbit := newFakeAction("orbit", "<Pad>/button0")
	zoom := newFakeAction("zoom", "<Pad>/button5")

	prio := mustScheme(m, SchemeMeasurement, CategoryTools, measure)
	s := mustScheme(m, SchemeFlyOrbital, CategoryController, orbit, zoom)

	var r recorder
	r.watch(prio.Action("measure"))
	r.watch(s.Action("orbit"))
	r.watch(s.Action("zoom"))

	m.SetPriorityScheme(prio)
	measure.fire(PhaseStarted, "<Pad>/button0")
	orbit.fire(PhaseStarted, "<Pad>/button0")
	zoom.fire(PhaseStarted, "<Pad>/button5")

	want := []string{"measure:started", "zoom:started"}
	if !reflect.DeepEqual(r.events, want) {
		t.Fatalf("events = %v, want %v", r.events, want)
	}

	m.UnsetPriorityScheme()
	orbit.fire(PhaseStarted, "<Pad>/button0")
	if got := r.events[len(r.events)-1]; got != "orbit:started" {
		t.Errorf("last event = %s, want orbit:started", got)
	}
}

func TestRemoveSchemeClearsPriority(t *testing.T) {
	m, _ := newTestManager()
	s := mustScheme(m, SchemeMeasurement, CategoryTools, newFakeAction("measure", "<Pad>/button0"))
	m.SetPriorityScheme(s)

	m.RemoveScheme(s)

	if m.PriorityScheme() != nil {
		t.Error("priority not cleared")
	}
	if len(m.Schemes()) != 0 {
		t.Error("scheme still registered")
	}
}

func TestUpdateSkipsDisabledSchemes(t *testing.T) {
	m, _ := newTestManager()
	jump := newFakeAction("jump", "<Pad>/button0")
	s := mustScheme(m, SchemeWalkMode, CategoryController, jump)
	s.Action("jump").SetUIPointerCheck(true)

	var r recorder
	r.watch(s.Action("jump"))

	jump.fire(PhaseStarted, "<Pad>/button0")
	s.SetEnable(false)
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 || s.Pending() != 0 {
		t.Errorf("disabled scheme was updated: events=%v pending=%d", r.events, s.Pending())
	}

	s.SetEnable(true)
	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Errorf("re-enabled scheme replayed %v", r.events)
	}
}

func TestUpdateIsolatesPanics(t *testing.T) {
	var buf bytes.Buffer
	m, _ := newTestManager(WithLogger(log.New(&buf, "", 0)))

	boom := newFakeAction("boom", "<Pad>/button0")
	bad := mustScheme(m, SchemeAnnotation, CategoryTools, boom)
	bw := bad.Action("boom")
	bw.SetUISelectionCheck(true)
	bw.OnStarted(func(Context) { panic("observer exploded") })

	jump := newFakeAction("jump", "<Pad>/button1")
	good := mustScheme(m, SchemeWalkMode, CategoryController, jump)
	gw := good.Action("jump")
	gw.SetUISelectionCheck(true)

	var r recorder
	r.watch(gw)

	boom.fire(PhaseStarted, "<Pad>/button0")
	boom.fire(PhasePerformed, "<Pad>/button0")
	jump.fire(PhaseStarted, "<Pad>/button1")

	err := m.Update(context.Background())
	if err == nil {
		t.Fatal("Update() returned nil, want the recovered panic")
	}
	if !strings.Contains(err.Error(), "observer exploded") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(buf.String(), "annotation scheme update panicked") {
		t.Errorf("panic not logged: %q", buf.String())
	}
	if !reflect.DeepEqual(r.events, []string{"jump:started"}) {
		t.Errorf("healthy scheme events = %v", r.events)
	}
	if bad.Pending() != 0 {
		t.Errorf("aborted drain left %d checks queued", bad.Pending())
	}
}

func TestUpdateSkipsSchemeDisposedMidPass(t *testing.T) {
	m, _ := newTestManager()

	first := newFakeAction("first", "<Pad>/button0")
	a := mustScheme(m, SchemeWalkMode, CategoryController, first)
	a.Action("first").SetUISelectionCheck(true)

	second := newFakeAction("second", "<Pad>/button1")
	b := mustScheme(m, SchemeFlyOrbital, CategoryController, second)
	b.Action("second").SetUISelectionCheck(true)

	a.Action("first").OnStarted(func(Context) { b.Dispose() })
	var r recorder
	r.watch(b.Action("second"))

	first.fire(PhaseStarted, "<Pad>/button0")
	second.fire(PhaseStarted, "<Pad>/button1")

	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Errorf("disposed scheme dispatched %v", r.events)
	}
}

func TestManagerClose(t *testing.T) {
	m, p := newTestManager()
	jump := newFakeAction("jump", "<Pad>/button0")
	mustScheme(m, SchemeWalkMode, CategoryController, jump)

	m.Close()
	m.Close()

	if len(m.Schemes()) != 0 {
		t.Error("schemes survived Close")
	}
	if !jump.disposed {
		t.Error("scheme action not disposed")
	}
	for _, name := range []string{"ClickAction", "TouchAction"} {
		d := p.detector(name)
		if !d.disposed || d.subscribers() != 0 {
			t.Errorf("%s: disposed=%v subscribers=%d", name, d.disposed, d.subscribers())
		}
	}
}
