package input

import (
	"fmt"
	"time"
)

// detector is one canonical multi-tap action and its subscribers
type detector struct {
	action  RawAction
	single  []*ActionWrapper
	double  []*ActionWrapper
	cancels []func()
}

// Unifier turns the shared click and touch-tap controls into two mutually
// exclusive streams: wrappers bound without MultiTap see single taps,
// wrappers bound with MultiTap see double taps.
type Unifier struct {
	platform        Platform
	multiTapDelay   time.Duration
	useDefaultDelay bool

	click *detector
	touch *detector
}

func newUnifier(platform Platform) *Unifier {
	return &Unifier{
		platform:      platform,
		multiTapDelay: DefaultMultiTapDelay,
		click:         &detector{},
		touch:         &detector{},
	}
}

// TapDelay returns the tap window the detectors were built with
func (u *Unifier) TapDelay() time.Duration {
	if u.useDefaultDelay {
		return u.platform.DefaultMultiTapDelay()
	}
	return u.multiTapDelay
}

func (u *Unifier) initialize() {
	interactions := fmt.Sprintf("%s(tapDelay=%g)", multiTapInteraction, u.TapDelay().Seconds())

	u.click.action = u.platform.NewAction("ClickAction", Binding{Path: ClickPath, Interactions: interactions})
	u.touch.action = u.platform.NewAction("TouchAction", Binding{Path: TouchPath, Interactions: interactions})

	for _, d := range []*detector{u.click, u.touch} {
		d := d
		d.cancels = []func(){
			d.action.On(PhaseStarted, func(ctx Context) { u.tapStarted(d, ctx) }),
			d.action.On(PhasePerformed, func(ctx Context) { u.tapPerformed(d, ctx) }),
			d.action.On(PhaseCanceled, func(ctx Context) { u.tapCanceled(d, ctx) }),
		}
		d.action.Enable()
	}
}

func (u *Unifier) close() {
	for _, d := range []*detector{u.click, u.touch} {
		for _, cancel := range d.cancels {
			cancel()
		}
		d.cancels = nil
		if d.action != nil {
			d.action.Dispose()
		}
	}
}

// RegisterClick subscribes w to the click detector
func (u *Unifier) RegisterClick(w *ActionWrapper, isDouble bool) {
	u.click.register(w, isDouble)
}

// RegisterTouch subscribes w to the touch-tap detector
func (u *Unifier) RegisterTouch(w *ActionWrapper, isDouble bool) {
	u.touch.register(w, isDouble)
}

// Unregister removes w from every subscriber list. It is safe to call for a
// wrapper that was never registered.
func (u *Unifier) Unregister(w *ActionWrapper) {
	for _, d := range []*detector{u.click, u.touch} {
		d.single = without(d.single, w)
		d.double = without(d.double, w)
	}
}

// Subscribers returns the number of single and double tap subscribers of
// the click and touch detectors
func (u *Unifier) Subscribers() (clickSingle, clickDouble, touchSingle, touchDouble int) {
	return len(u.click.single), len(u.click.double), len(u.touch.single), len(u.touch.double)
}

func (d *detector) register(w *ActionWrapper, isDouble bool) {
	if isDouble {
		d.double = append(d.double, w)
	} else {
		d.single = append(d.single, w)
	}
}

// A tap sequence always begins the same way, single or double.
func (u *Unifier) tapStarted(d *detector, ctx Context) {
	for _, w := range snapshot(d.double) {
		w.Started(ctx)
	}
	for _, w := range snapshot(d.single) {
		w.Started(ctx)
	}
}

// The sequence matured into a double tap; single tap attempts are void.
func (u *Unifier) tapPerformed(d *detector, ctx Context) {
	for _, w := range snapshot(d.double) {
		w.Performed(ctx)
	}
	for _, w := range snapshot(d.single) {
		w.Canceled(ctx)
	}
}

// The window elapsed without a second tap. If the pointer is still down the
// cancel came from a held press, not a completed single tap.
func (u *Unifier) tapCanceled(d *detector, ctx Context) {
	for _, w := range snapshot(d.double) {
		w.Canceled(ctx)
	}

	singlePerformed := !u.platform.PointerPressed()

	for _, w := range snapshot(d.single) {
		if singlePerformed {
			w.Performed(ctx)
		}
		w.Canceled(ctx)
	}
}

func snapshot(list []*ActionWrapper) []*ActionWrapper {
	out := make([]*ActionWrapper, len(list))
	copy(out, list)
	return out
}

func without(list []*ActionWrapper, w *ActionWrapper) []*ActionWrapper {
	for i, existing := range list {
		if existing == w {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
