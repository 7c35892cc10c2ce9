package core

import (
	"strings"

	"pkt.systems/termview/schema"
)

// plainKeys maps symbolic key names to the escape sequence an
// interactive program expects on stdin. Names not present here pass
// through literally, so a plain character is its own encoding.
var plainKeys = map[string]string{
	"enter":     "\r",
	"backspace": "\x7f",
	"tab":       "\t",
	"space":     " ",
	"escape":    "\x1b",
	"down":      "\x1b[B",
	"up":        "\x1b[A",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[1~",
	"end":       "\x1b[4~",
	"pageup":    "\x1b[5~",
	"pagedown":  "\x1b[6~",
	"delete":    "\x1b[3~",
	"insert":    "\x1b[2~",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f12":       "\x1b[24~",
}

// ctrlKeys maps key names to their encoding when ctrl is held. Arrows
// get dedicated CSI sequences; punctuation maps to the C0 control code
// the key produces on a terminal keyboard.
var ctrlKeys = map[string]string{
	"up":    "\x1b[1;5A",
	"down":  "\x1b[1;5B",
	"right": "\x1b[1;5C",
	"left":  "\x1b[1;5D",
	"@":     "\x00",
	"`":     "\x00",
	"[":     "\x1b",
	"{":     "\x1b",
	"\\":    "\x1c",
	"|":     "\x1c",
	"]":     "\x1d",
	"}":     "\x1d",
	"^":     "\x1e",
	"~":     "\x1e",
	"_":     "\x1f",
	"?":     "\x7f",
}

// altKeys maps key names to their encoding when alt is held. Only the
// arrow keys have dedicated sequences; everything else is the plain
// encoding prefixed with ESC.
var altKeys = map[string]string{
	"up":    "\x1b[1;3A",
	"down":  "\x1b[1;3B",
	"right": "\x1b[1;3C",
	"left":  "\x1b[1;3D",
}

// EncodeKey maps a symbolic key name plus modifier flags to the byte
// sequence written to the child's stdin. Table lookups are
// case-insensitive. Ctrl takes precedence over alt; shift is accepted
// but never changes the encoding; meta is rejected with
// schema.ErrMetaUnsupported.
func EncodeKey(key string, mod schema.Modifiers) (string, error) {
	if mod.Meta {
		return "", schema.ErrMetaUnsupported
	}
	if mod.Ctrl {
		return ctrlSequence(strings.ToLower(key)), nil
	}
	if mod.Alt {
		return altSequence(strings.ToLower(key)), nil
	}
	return plainSequence(key), nil
}

func ctrlSequence(key string) string {
	if seq, ok := ctrlKeys[key]; ok {
		return seq
	}
	if len(key) == 1 && key[0] >= 'a' && key[0] <= 'z' {
		return string(rune(key[0] - 'a' + 1))
	}
	return plainSequence(key)
}

func altSequence(key string) string {
	if seq, ok := altKeys[key]; ok {
		return seq
	}
	return "\x1b" + plainSequence(key)
}

func plainSequence(key string) string {
	if seq, ok := plainKeys[strings.ToLower(key)]; ok {
		return seq
	}
	return key
}
