package gesture

import "time"

// Press is the default button interaction: performed as soon as the control
// goes down, canceled when it comes back up.
type Press struct {
	down bool
}

func (p *Press) Press(now time.Time) []Signal {
	if p.down {
		return nil
	}
	p.down = true
	return []Signal{SignalStarted, SignalPerformed}
}

func (p *Press) Release(now time.Time) []Signal {
	if !p.down {
		return nil
	}
	p.down = false
	return []Signal{SignalCanceled}
}

func (p *Press) Tick(now time.Time) []Signal { return nil }

func (p *Press) Reset() { p.down = false }

// Hold performs once the control has been held for Duration
type Hold struct {
	Duration time.Duration

	down      bool
	performed bool
	pressTime time.Time
}

func (h *Hold) Press(now time.Time) []Signal {
	if h.down {
		return nil
	}
	h.down = true
	h.performed = false
	h.pressTime = now
	return []Signal{SignalStarted}
}

func (h *Hold) Release(now time.Time) []Signal {
	if !h.down {
		return nil
	}
	h.Reset()
	return []Signal{SignalCanceled}
}

func (h *Hold) Tick(now time.Time) []Signal {
	if !h.down || h.performed {
		return nil
	}
	if now.Sub(h.pressTime) >= h.Duration {
		h.performed = true
		return []Signal{SignalPerformed}
	}
	return nil
}

func (h *Hold) Reset() {
	h.down = false
	h.performed = false
	h.pressTime = time.Time{}
}
