package gesture

import (
	"time"
)

type tapPhase int

const (
	tapIdle         tapPhase = iota
	tapWaitRelease           // control is down, counting toward TapTime
	tapWaitNextPress         // released, waiting up to TapDelay for the next press
)

// MultiTap recognizes TapCount quick taps on one control. The first press
// starts the gesture; the final release performs it. Holding longer than
// TapTime or pausing longer than TapDelay between taps cancels it.
type MultiTap struct {
	TapCount int
	TapTime  time.Duration
	TapDelay time.Duration

	phase       tapPhase
	taps        int
	pressTime   time.Time
	releaseTime time.Time
}

// Press processes a press of the bound control
func (m *MultiTap) Press(now time.Time) []Signal {
	switch m.phase {
	case tapIdle:
		m.phase = tapWaitRelease
		m.taps = 0
		m.pressTime = now
		return []Signal{SignalStarted}

	case tapWaitNextPress:
		if now.Sub(m.releaseTime) > m.TapDelay {
			// The window closed between frames; report it and begin anew.
			m.reset()
			return append([]Signal{SignalCanceled}, m.Press(now)...)
		}
		m.phase = tapWaitRelease
		m.pressTime = now
	}
	return nil
}

// Release processes a release of the bound control
func (m *MultiTap) Release(now time.Time) []Signal {
	if m.phase != tapWaitRelease {
		return nil
	}

	if now.Sub(m.pressTime) > m.TapTime {
		m.reset()
		return []Signal{SignalCanceled}
	}

	m.taps++
	if m.taps >= m.tapCount() {
		m.reset()
		return []Signal{SignalPerformed}
	}

	m.phase = tapWaitNextPress
	m.releaseTime = now
	return nil
}

// Tick expires a tap held too long or a sequence left unfinished
func (m *MultiTap) Tick(now time.Time) []Signal {
	switch m.phase {
	case tapWaitRelease:
		if now.Sub(m.pressTime) > m.TapTime {
			m.reset()
			return []Signal{SignalCanceled}
		}
	case tapWaitNextPress:
		if now.Sub(m.releaseTime) > m.TapDelay {
			m.reset()
			return []Signal{SignalCanceled}
		}
	}
	return nil
}

// Reset drops any in-progress sequence without signalling
func (m *MultiTap) Reset() {
	m.reset()
}

func (m *MultiTap) reset() {
	m.phase = tapIdle
	m.taps = 0
	m.pressTime = time.Time{}
	m.releaseTime = time.Time{}
}

func (m *MultiTap) tapCount() int {
	if m.TapCount < 1 {
		return 1
	}
	return m.TapCount
}
