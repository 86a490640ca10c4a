package gesture

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Signal is a lifecycle transition emitted by an interaction
type Signal int

const (
	SignalStarted Signal = iota
	SignalPerformed
	SignalCanceled
)

func (s Signal) String() string {
	switch s {
	case SignalStarted:
		return "started"
	case SignalPerformed:
		return "performed"
	case SignalCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Interaction turns the press state of one control into lifecycle signals.
// Implementations are driven by an external clock and are not safe for
// concurrent use.
type Interaction interface {
	Press(now time.Time) []Signal
	Release(now time.Time) []Signal
	Tick(now time.Time) []Signal
	Reset()
}

// Defaults holds the fallback timings used when an interaction string omits
// a parameter
type Defaults struct {
	TapTime       time.Duration
	TapDelay      time.Duration
	HoldThreshold time.Duration
}

// DefaultTimings mirrors the stock multi-tap and hold timings
var DefaultTimings = Defaults{
	TapTime:       200 * time.Millisecond,
	TapDelay:      300 * time.Millisecond,
	HoldThreshold: 500 * time.Millisecond,
}

// Names lists the interaction names in an interaction string such as
// "MultiTap(tapDelay=0.3),Hold".
func Names(spec string) []string {
	var names []string
	for _, part := range splitTopLevel(spec) {
		name, _, _ := cutParams(part)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Parse builds the interaction described by spec. Only the first entry of a
// comma separated list is used; an empty spec yields a Press interaction.
// Durations are given in seconds.
func Parse(spec string, defaults Defaults) (Interaction, error) {
	parts := splitTopLevel(spec)
	if len(parts) == 0 {
		return &Press{}, nil
	}

	name, params, err := cutParams(parts[0])
	if err != nil {
		return nil, err
	}

	switch name {
	case "Press", "":
		return &Press{}, nil
	case "MultiTap":
		mt := &MultiTap{
			TapCount: 2,
			TapTime:  defaults.TapTime,
			TapDelay: defaults.TapDelay,
		}
		for key, val := range params {
			switch key {
			case "tapCount":
				n, err := strconv.Atoi(val)
				if err != nil || n < 1 {
					return nil, fmt.Errorf("invalid tapCount %q", val)
				}
				mt.TapCount = n
			case "tapTime":
				if mt.TapTime, err = parseSeconds(val); err != nil {
					return nil, err
				}
			case "tapDelay":
				if mt.TapDelay, err = parseSeconds(val); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("unknown MultiTap parameter %q", key)
			}
		}
		return mt, nil
	case "Hold":
		h := &Hold{Duration: defaults.HoldThreshold}
		for key, val := range params {
			if key != "duration" {
				return nil, fmt.Errorf("unknown Hold parameter %q", key)
			}
			if h.Duration, err = parseSeconds(val); err != nil {
				return nil, err
			}
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown interaction %q", name)
	}
}

// splitTopLevel splits on commas that are not inside parentheses
func splitTopLevel(spec string) []string {
	var parts []string
	depth, start := 0, 0
	for i, ch := range spec {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(spec[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(spec[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}

func cutParams(entry string) (string, map[string]string, error) {
	open := strings.IndexByte(entry, '(')
	if open < 0 {
		return strings.TrimSpace(entry), nil, nil
	}
	if !strings.HasSuffix(entry, ")") {
		return "", nil, fmt.Errorf("unterminated parameters in %q", entry)
	}

	name := strings.TrimSpace(entry[:open])
	params := make(map[string]string)
	for _, kv := range strings.Split(entry[open+1:len(entry)-1], ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return "", nil, fmt.Errorf("malformed parameter %q", kv)
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return name, params, nil
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}
