package action

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeyPress represents a parsed key with modifiers
type KeyPress struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Key   string // The base key (e.g., "c", "enter", "f1")
}

func (kp KeyPress) String() string {
	var b strings.Builder
	for _, m := range []struct {
		on   bool
		name string
	}{{kp.Ctrl, "ctrl"}, {kp.Alt, "alt"}, {kp.Shift, "shift"}, {kp.Meta, "meta"}} {
		if m.on {
			b.WriteString(m.name)
			b.WriteByte('+')
		}
	}
	b.WriteString(kp.Key)
	return b.String()
}

var modifiers = map[string]func(*KeyPress){
	"ctrl":    func(kp *KeyPress) { kp.Ctrl = true },
	"control": func(kp *KeyPress) { kp.Ctrl = true },
	"alt":     func(kp *KeyPress) { kp.Alt = true },
	"option":  func(kp *KeyPress) { kp.Alt = true },
	"shift":   func(kp *KeyPress) { kp.Shift = true },
	"meta":    func(kp *KeyPress) { kp.Meta = true },
	"cmd":     func(kp *KeyPress) { kp.Meta = true },
	"command": func(kp *KeyPress) { kp.Meta = true },
	"win":     func(kp *KeyPress) { kp.Meta = true },
	"super":   func(kp *KeyPress) { kp.Meta = true },
}

// specialKeys maps named keys to the sequence a VT-style terminal sends
var specialKeys = map[string][]byte{
	"enter":     {'\r'},
	"return":    {'\r'},
	"tab":       {'\t'},
	"esc":       {0x1b},
	"escape":    {0x1b},
	"space":     {' '},
	"backspace": {0x7f},
	"delete":    {0x1b, '[', '3', '~'},
	"del":       {0x1b, '[', '3', '~'},
	"insert":    {0x1b, '[', '2', '~'},
	"ins":       {0x1b, '[', '2', '~'},
	"home":      {0x1b, '[', 'H'},
	"end":       {0x1b, '[', 'F'},
	"pageup":    {0x1b, '[', '5', '~'},
	"pgup":      {0x1b, '[', '5', '~'},
	"pagedown":  {0x1b, '[', '6', '~'},
	"pgdn":      {0x1b, '[', '6', '~'},
	"up":        {0x1b, '[', 'A'},
	"down":      {0x1b, '[', 'B'},
	"right":     {0x1b, '[', 'C'},
	"left":      {0x1b, '[', 'D'},
	"f1":        {0x1b, 'O', 'P'},
	"f2":        {0x1b, 'O', 'Q'},
	"f3":        {0x1b, 'O', 'R'},
	"f4":        {0x1b, 'O', 'S'},
	"f5":        {0x1b, '[', '1', '5', '~'},
	"f6":        {0x1b, '[', '1', '7', '~'},
	"f7":        {0x1b, '[', '1', '8', '~'},
	"f8":        {0x1b, '[', '1', '9', '~'},
	"f9":        {0x1b, '[', '2', '0', '~'},
	"f10":       {0x1b, '[', '2', '1', '~'},
	"f11":       {0x1b, '[', '2', '3', '~'},
	"f12":       {0x1b, '[', '2', '4', '~'},
}

// ctrlSymbols are the non-letter ctrl combinations with a C0 code
var ctrlSymbols = map[byte]byte{
	'[':  0x1b,
	'\\': 0x1c,
	']':  0x1d,
	'^':  0x1e,
	'_':  0x1f,
	'?':  0x7f,
}

// ParseKey parses a key string like "ctrl+shift+c" into a KeyPress
func ParseKey(s string) (KeyPress, error) {
	var kp KeyPress

	parts := strings.Split(strings.ToLower(s), "+")
	last := len(parts) - 1
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i == last {
			kp.Key = part
			break
		}
		set, ok := modifiers[part]
		if !ok {
			return KeyPress{}, fmt.Errorf("unknown modifier: %s", part)
		}
		set(&kp)
	}

	if kp.Key == "" {
		return KeyPress{}, fmt.Errorf("no key specified")
	}
	if !isValidKey(kp.Key) {
		return KeyPress{}, fmt.Errorf("invalid key: %s", kp.Key)
	}

	return kp, nil
}

// ParseKeys parses a key sequence, reporting the first invalid entry
func ParseKeys(keys []string) ([]KeyPress, error) {
	out := make([]KeyPress, 0, len(keys))
	for _, s := range keys {
		kp, err := ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", s, err)
		}
		out = append(out, kp)
	}
	return out, nil
}

func isValidKey(key string) bool {
	if utf8.RuneCountInString(key) == 1 {
		return true
	}
	_, ok := specialKeys[key]
	return ok
}

// ToBytes converts a KeyPress to the bytes to write to a PTY
func (kp KeyPress) ToBytes() []byte {
	single := len(kp.Key) == 1

	if kp.Ctrl && !kp.Alt && !kp.Meta && single {
		char := kp.Key[0]
		switch {
		case char >= 'a' && char <= 'z':
			return []byte{char - 'a' + 1}
		case char >= 'A' && char <= 'Z':
			return []byte{char - 'A' + 1}
		}
		if code, ok := ctrlSymbols[char]; ok {
			return []byte{code}
		}
	}

	if seq, ok := specialKeys[kp.Key]; ok {
		out := make([]byte, len(seq))
		copy(out, seq)
		return out
	}

	if !single {
		return nil
	}

	char := kp.Key[0]
	if kp.Alt {
		return []byte{0x1b, char}
	}
	if kp.Shift && char >= 'a' && char <= 'z' {
		return []byte{char - 32}
	}
	return []byte{char}
}
