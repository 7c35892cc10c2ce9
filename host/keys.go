package host

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"pkt.systems/termview/schema"
)

// KeyEvent is one decoded client keystroke: a symbolic key name the
// session keypress encoder understands plus modifier flags.
type KeyEvent struct {
	Key string
	Mod schema.Modifiers
}

// maxPending bounds how many bytes an unfinished escape sequence may
// hold before the parser gives up and resynchronizes byte by byte.
const maxPending = 32

// KeyParser decodes the raw byte stream of a terminal client into key
// events. Sequences split across reads are reassembled, with one
// tradeoff: an ESC arriving with nothing behind it in the same read
// decodes as the escape key rather than waiting for a continuation.
type KeyParser struct {
	pending []byte
	sawCR   bool
}

// Feed consumes raw client bytes and returns the completed key events.
// Incomplete trailing sequences are kept for the next call.
func (p *KeyParser) Feed(data []byte) []KeyEvent {
	p.pending = append(p.pending, data...)
	var events []KeyEvent
	for len(p.pending) > 0 {
		if p.sawCR && p.pending[0] == '\n' {
			// The LF of a CRLF pair already produced an enter.
			p.sawCR = false
			p.pending = p.pending[1:]
			continue
		}
		ev, n := decodeKey(p.pending)
		if n == 0 {
			if len(p.pending) == 1 && p.pending[0] == 0x1b {
				p.sawCR = false
				events = append(events, KeyEvent{Key: "escape"})
				p.pending = nil
				break
			}
			if len(p.pending) > maxPending {
				p.pending = p.pending[1:]
				continue
			}
			break
		}
		p.sawCR = p.pending[0] == '\r'
		p.pending = p.pending[n:]
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// ScrollFor maps shift-modified navigation keys to the scrollback
// request they stand for. Other events return false and pass through
// to the child.
func ScrollFor(ev KeyEvent) (schema.ScrollRequest, bool) {
	if !ev.Mod.Shift || ev.Mod.Ctrl || ev.Mod.Alt || ev.Mod.Meta {
		return schema.ScrollRequest{}, false
	}
	switch ev.Key {
	case "up":
		return schema.ScrollRequest{Unit: schema.ScrollLine, Direction: schema.ScrollUp}, true
	case "down":
		return schema.ScrollRequest{Unit: schema.ScrollLine, Direction: schema.ScrollDown}, true
	case "pageup":
		return schema.ScrollRequest{Unit: schema.ScrollPage, Direction: schema.ScrollUp}, true
	case "pagedown":
		return schema.ScrollRequest{Unit: schema.ScrollPage, Direction: schema.ScrollDown}, true
	}
	return schema.ScrollRequest{}, false
}

// decodeKey decodes the first key event in b, returning the event and
// the bytes consumed. n == 0 means the head sequence is incomplete. A
// nil event with n > 0 skips undecodable bytes.
func decodeKey(b []byte) (ev *KeyEvent, n int) {
	switch c := b[0]; {
	case c == 0x1b:
		return decodeEscape(b)
	case c == '\r' || c == '\n':
		return &KeyEvent{Key: "enter"}, 1
	case c == '\t':
		return &KeyEvent{Key: "tab"}, 1
	case c == 0x7f:
		return &KeyEvent{Key: "backspace"}, 1
	case c == 0x00:
		return &KeyEvent{Key: "@", Mod: schema.Modifiers{Ctrl: true}}, 1
	case c < 0x1b:
		return &KeyEvent{Key: string(rune('a' + c - 1)), Mod: schema.Modifiers{Ctrl: true}}, 1
	case c == 0x1c:
		return &KeyEvent{Key: `\`, Mod: schema.Modifiers{Ctrl: true}}, 1
	case c == 0x1d:
		return &KeyEvent{Key: "]", Mod: schema.Modifiers{Ctrl: true}}, 1
	case c == 0x1e:
		return &KeyEvent{Key: "^", Mod: schema.Modifiers{Ctrl: true}}, 1
	case c == 0x1f:
		return &KeyEvent{Key: "_", Mod: schema.Modifiers{Ctrl: true}}, 1
	default:
		if !utf8.FullRune(b) {
			return nil, 0
		}
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			return nil, 1
		}
		return &KeyEvent{Key: string(r)}, size
	}
}

// decodeEscape decodes sequences starting with ESC: CSI and SS3 control
// sequences, ESC ESC for alt+escape, and ESC as an alt prefix on any
// other key.
func decodeEscape(b []byte) (*KeyEvent, int) {
	if len(b) < 2 {
		return nil, 0
	}
	switch b[1] {
	case '[':
		return decodeCSI(b)
	case 'O':
		if len(b) < 3 {
			return nil, 0
		}
		if ev, ok := ss3Keys[b[2]]; ok {
			return &ev, 3
		}
		return nil, 3
	case 0x1b:
		return &KeyEvent{Key: "escape", Mod: schema.Modifiers{Alt: true}}, 2
	}
	ev, n := decodeKey(b[1:])
	if n == 0 {
		return nil, 0
	}
	if ev == nil {
		return nil, 1 + n
	}
	ev.Mod.Alt = true
	return ev, 1 + n
}

// decodeCSI decodes ESC [ sequences: cursor keys, navigation and
// function keys with optional xterm modifier parameters, and the
// backtab form of shift+tab.
func decodeCSI(b []byte) (*KeyEvent, int) {
	i := 2
	for ; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			break
		}
	}
	if i == len(b) {
		return nil, 0
	}
	final := b[i]
	params := string(b[2:i])
	n := i + 1

	mod := schema.Modifiers{}
	first := params
	if head, tail, ok := strings.Cut(params, ";"); ok {
		first = head
		mod = xtermModifiers(tail)
	}

	switch final {
	case 'A', 'B', 'C', 'D', 'H', 'F':
		return &KeyEvent{Key: cursorKeys[final], Mod: mod}, n
	case 'Z':
		return &KeyEvent{Key: "tab", Mod: schema.Modifiers{Shift: true}}, n
	case '~':
		num, err := strconv.Atoi(first)
		if err != nil {
			return nil, n
		}
		key, ok := tildeKeys[num]
		if !ok {
			return nil, n
		}
		return &KeyEvent{Key: key, Mod: mod}, n
	}
	// Unsupported CSI sequences are consumed so the stream stays in
	// sync, but produce no event.
	return nil, n
}

// xtermModifiers decodes the xterm modifier parameter: the value minus
// one is a bitfield of shift, alt, ctrl, meta.
func xtermModifiers(s string) schema.Modifiers {
	v, err := strconv.Atoi(s)
	if err != nil || v < 2 {
		return schema.Modifiers{}
	}
	bits := v - 1
	return schema.Modifiers{
		Shift: bits&1 != 0,
		Alt:   bits&2 != 0,
		Ctrl:  bits&4 != 0,
		Meta:  bits&8 != 0,
	}
}

var cursorKeys = map[byte]string{
	'A': "up",
	'B': "down",
	'C': "right",
	'D': "left",
	'H': "home",
	'F': "end",
}

// tildeKeys names the CSI n~ navigation and function keys. 23 (f11) is
// absent because the keypress encoder carries no f11 sequence, so the
// key is dropped rather than replayed as literal text.
var tildeKeys = map[int]string{
	1:  "home",
	2:  "insert",
	3:  "delete",
	4:  "end",
	5:  "pageup",
	6:  "pagedown",
	7:  "home",
	8:  "end",
	11: "f1",
	12: "f2",
	13: "f3",
	14: "f4",
	15: "f5",
	17: "f6",
	18: "f7",
	19: "f8",
	20: "f9",
	21: "f10",
	24: "f12",
}

var ss3Keys = map[byte]KeyEvent{
	'A': {Key: "up"},
	'B': {Key: "down"},
	'C': {Key: "right"},
	'D': {Key: "left"},
	'H': {Key: "home"},
	'F': {Key: "end"},
	'P': {Key: "f1"},
	'Q': {Key: "f2"},
	'R': {Key: "f3"},
	'S': {Key: "f4"},
}
