package terminal

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey EventType = iota
	EventMouse
	EventResize
	EventTimeout // No input arrived before the poll deadline
)

func (t EventType) String() string {
	switch t {
	case EventKey:
		return "key"
	case EventMouse:
		return "mouse"
	case EventResize:
		return "resize"
	case EventTimeout:
		return "timeout"
	}
	return "unknown"
}

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier

	// Mouse event fields, 1-indexed
	Mouse  Position
	Button MouseButton
	Action MouseAction

	Size Size // For EventResize

	Time time.Time // Capture timestamp
}

func (e Event) String() string {
	switch e.Type {
	case EventKey:
		name := e.Key.String()
		if e.Key == KeyRune {
			name = fmt.Sprintf("%q", e.Rune)
		}
		if e.Modifiers != ModNone {
			return e.Modifiers.String() + "+" + name
		}
		return name
	case EventMouse:
		return fmt.Sprintf("mouse %s %s at %d,%d", e.Button, e.Action, e.Mouse.Row, e.Mouse.Col)
	case EventResize:
		return fmt.Sprintf("resize %dx%d", e.Size.Rows, e.Size.Cols)
	}
	return e.Type.String()
}

const (
	keyEsc = 0x1b
	keyDel = 0x7f
)

// maxCSILen bounds the scan for a CSI final byte; longer runs are discarded
const maxCSILen = 32

// parseInput decodes one event from the start of data
// n == 0 means data holds an incomplete sequence and more bytes are needed.
// ok == false with n > 0 means n bytes were consumed without producing an event.
func parseInput(data []byte) (n int, ev Event, ok bool) {
	if len(data) == 0 {
		return 0, Event{}, false
	}
	b := data[0]

	switch {
	case b >= 0x20 && b < keyDel:
		return 1, Event{Type: EventKey, Key: KeyRune, Rune: rune(b)}, true
	case b == keyEsc:
		return parseEscape(data)
	case b < 0x20:
		return 1, parseControl(b), true
	case b == keyDel:
		return 1, Event{Type: EventKey, Key: KeyBackspace}, true
	}

	// UTF-8 multibyte
	seqLen := utf8SeqLen(b)
	if seqLen == 0 {
		return 1, Event{}, false
	}
	if len(data) < seqLen {
		return 0, Event{}, false
	}
	r, size := utf8.DecodeRune(data)
	if r == utf8.RuneError && size <= 1 {
		return 1, Event{}, false
	}
	return size, Event{Type: EventKey, Key: KeyRune, Rune: r}, true
}

// utf8SeqLen returns expected UTF-8 sequence length from start byte, 0 if invalid
func utf8SeqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	}
	return 0
}

// parseEscape parses a sequence starting with ESC
// A lone ESC is incomplete; the caller resolves it once the disambiguation window elapses
func parseEscape(data []byte) (int, Event, bool) {
	if len(data) < 2 {
		return 0, Event{}, false
	}

	switch next := data[1]; {
	case next == keyEsc:
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}, true
	case next == '[':
		return parseCSI(data)
	case next == 'O':
		return parseSS3(data)
	case next < 0x20:
		ev := parseControl(next)
		ev.Modifiers |= ModAlt
		return 2, ev, true
	case next == keyDel:
		return 2, Event{Type: EventKey, Key: KeyBackspace, Modifiers: ModAlt}, true
	case next < 0x80:
		return 2, Event{Type: EventKey, Key: KeyRune, Rune: rune(next), Modifiers: ModAlt}, true
	}

	// Alt+UTF-8
	n, ev, ok := parseInput(data[1:])
	if n == 0 {
		return 0, Event{}, false
	}
	if ok {
		ev.Modifiers |= ModAlt
	}
	return n + 1, ev, ok
}

// parseCSI parses ESC [ params final
func parseCSI(data []byte) (int, Event, bool) {
	if len(data) < 3 {
		return 0, Event{}, false
	}

	if data[2] == '<' {
		return parseSGRMouse(data)
	}

	// Linux console function keys: ESC [ [ A-E
	if data[2] == '[' {
		if len(data) < 4 {
			return 0, Event{}, false
		}
		if k, ok := linuxConsoleKeys[data[3]]; ok {
			return 4, Event{Type: EventKey, Key: k}, true
		}
		return 4, Event{}, false
	}

	end := 2
	for ; end < len(data); end++ {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x7e || end-2 >= maxCSILen {
			// Malformed, drop what was scanned
			return end, Event{}, false
		}
	}
	if end >= len(data) {
		return 0, Event{}, false
	}

	final := data[end]
	params := parseParams(data[2:end])
	consumed := end + 1

	switch {
	case final == '~':
		if len(params) == 0 {
			return consumed, Event{}, false
		}
		k, ok := csiTildeKeys[params[0]]
		if !ok {
			return consumed, Event{}, false
		}
		return consumed, Event{Type: EventKey, Key: k, Modifiers: paramModifier(params)}, true
	case final == 'Z':
		return consumed, Event{Type: EventKey, Key: KeyBacktab, Modifiers: ModShift}, true
	}

	if k, ok := csiFinalKeys[final]; ok {
		return consumed, Event{Type: EventKey, Key: k, Modifiers: paramModifier(params)}, true
	}

	// Unknown but well-formed, consume to prevent garbage
	return consumed, Event{}, false
}

// paramModifier extracts the xterm modifier from the second parameter
func paramModifier(params []int) Modifier {
	if len(params) < 2 {
		return ModNone
	}
	return xtermModifier(params[1])
}

// parseParams splits semicolon separated decimal parameters; empty fields are 0
// Non-digit private markers are ignored
func parseParams(data []byte) []int {
	if len(data) == 0 {
		return nil
	}
	params := make([]int, 0, 4)
	val := 0
	for _, b := range data {
		switch {
		case b == ';':
			params = append(params, val)
			val = 0
		case b >= '0' && b <= '9':
			if val < 1<<16 {
				val = val*10 + int(b-'0')
			}
		}
	}
	return append(params, val)
}

// parseSS3 parses ESC O X
func parseSS3(data []byte) (int, Event, bool) {
	if len(data) < 3 {
		return 0, Event{}, false
	}
	if k, ok := ss3Keys[data[2]]; ok {
		return 3, Event{Type: EventKey, Key: k}, true
	}
	return 3, Event{}, false
}

// parseControl maps control bytes to keys
// Ctrl+letter is reported as the lowercase letter with ModCtrl, except 0x08, 0x09,
// 0x0a and 0x0d which report Backspace, Tab and Enter as terminals send them for those keys
func parseControl(b byte) Event {
	switch b {
	case 0x00:
		return Event{Type: EventKey, Key: KeyRune, Rune: ' ', Modifiers: ModCtrl}
	case 0x08:
		return Event{Type: EventKey, Key: KeyBackspace}
	case 0x09:
		return Event{Type: EventKey, Key: KeyTab}
	case 0x0a, 0x0d:
		return Event{Type: EventKey, Key: KeyEnter}
	case keyEsc:
		return Event{Type: EventKey, Key: KeyEscape}
	case 0x1c:
		return Event{Type: EventKey, Key: KeyRune, Rune: '\\', Modifiers: ModCtrl}
	case 0x1d:
		return Event{Type: EventKey, Key: KeyRune, Rune: ']', Modifiers: ModCtrl}
	case 0x1e:
		return Event{Type: EventKey, Key: KeyRune, Rune: '^', Modifiers: ModCtrl}
	case 0x1f:
		return Event{Type: EventKey, Key: KeyRune, Rune: '_', Modifiers: ModCtrl}
	}
	if b >= 0x01 && b <= 0x1a {
		return Event{Type: EventKey, Key: KeyRune, Rune: rune('a' + b - 1), Modifiers: ModCtrl}
	}
	return Event{Type: EventKey, Key: KeyNone}
}

// parseSGRMouse parses ESC [ < Btn ; Col ; Row M/m
func parseSGRMouse(data []byte) (int, Event, bool) {
	end := 3
	for ; end < len(data); end++ {
		b := data[end]
		if b == 'M' || b == 'm' {
			break
		}
		if (b < '0' || b > '9') && b != ';' || end-3 >= maxCSILen {
			return end, Event{}, false
		}
	}
	if end >= len(data) {
		return 0, Event{}, false
	}

	params := parseParams(data[3:end])
	if len(params) != 3 {
		return end + 1, Event{}, false
	}
	btn, col, row := params[0], params[1], params[2]
	ev := Event{Type: EventMouse, Mouse: Position{Row: row, Col: col}}

	// Bits 0-1: button (0=left, 1=middle, 2=right, 3=release)
	// Bit 5 (32): motion
	// Bit 6 (64): wheel
	buttonID := btn & 0x03
	isMotion := btn&32 != 0
	isWheel := btn&64 != 0

	if isWheel {
		switch buttonID {
		case 0:
			ev.Button = MouseBtnWheelUp
		case 1:
			ev.Button = MouseBtnWheelDown
		case 2:
			ev.Button = MouseBtnWheelLeft
		default:
			ev.Button = MouseBtnWheelRight
		}
		ev.Action = MouseActionPress
	} else {
		switch buttonID {
		case 0:
			ev.Button = MouseBtnLeft
		case 1:
			ev.Button = MouseBtnMiddle
		case 2:
			ev.Button = MouseBtnRight
		default:
			ev.Button = MouseBtnNone
		}

		switch {
		case data[end] == 'm':
			ev.Action = MouseActionRelease
		case isMotion && ev.Button != MouseBtnNone:
			ev.Action = MouseActionDrag
		case isMotion:
			ev.Action = MouseActionMove
		default:
			ev.Action = MouseActionPress
		}
	}

	if btn&4 != 0 {
		ev.Modifiers |= ModShift
	}
	if btn&8 != 0 {
		ev.Modifiers |= ModAlt
	}
	if btn&16 != 0 {
		ev.Modifiers |= ModCtrl
	}

	return end + 1, ev, true
}
