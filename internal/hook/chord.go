package hook

import (
	"fmt"
	"strings"

	"github.com/holoplot/go-evdev"
)

// Chord は修飾キーとキーの組み合わせ (例: "Ctrl+Alt+Z")
type Chord struct {
	Key       evdev.EvCode
	Modifiers Modifiers
}

var modifierNames = []struct {
	name string
	mod  Modifiers
}{
	{"CTRL", ModCtrl},
	{"ALT", ModAlt},
	{"SHIFT", ModShift},
	{"META", ModMeta},
}

// ParseChord は "Ctrl+Alt+Z" 形式の文字列を解析する
func ParseChord(s string) (Chord, error) {
	var c Chord
	parts := strings.Split(strings.ToUpper(s), "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Chord{}, fmt.Errorf("invalid chord %q", s)
		}

		if i < len(parts)-1 {
			mod, ok := parseModifier(part)
			if !ok {
				return Chord{}, fmt.Errorf("invalid modifier %q in chord %q", part, s)
			}
			c.Modifiers |= mod
			continue
		}

		code, ok := evdev.KEYFromString["KEY_"+part]
		if !ok {
			return Chord{}, fmt.Errorf("unknown key %q in chord %q", part, s)
		}
		c.Key = code
	}
	return c, nil
}

func parseModifier(name string) (Modifiers, bool) {
	if name == "CONTROL" {
		name = "CTRL"
	}
	for _, m := range modifierNames {
		if m.name == name {
			return m.mod, true
		}
	}
	return 0, false
}

// Matches はキーイベントがこの組み合わせと完全に一致するかを返す
func (c Chord) Matches(e *KeyEvent) bool {
	return e.Key == c.Key && e.Modifiers == c.Modifiers
}

func (c Chord) String() string {
	var parts []string
	for _, m := range modifierNames {
		if c.Modifiers&m.mod != 0 {
			parts = append(parts, strings.ToUpper(m.name[:1])+strings.ToLower(m.name[1:]))
		}
	}
	parts = append(parts, strings.TrimPrefix(evdev.KEYToString[c.Key], "KEY_"))
	return strings.Join(parts, "+")
}
