package host

import (
	"fmt"
	"strings"
)

// Control sequences shared by the renderer.
const (
	sgrReset    = "\x1b[0m"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	clearScreen = "\x1b[2J\x1b[H"
	eraseRight  = "\x1b[K"
)

// ansiIndex maps the eight color names appearing in style names to
// their ANSI palette index.
var ansiIndex = map[string]int{
	"black":   0,
	"red":     1,
	"green":   2,
	"yellow":  3,
	"blue":    4,
	"magenta": 5,
	"cyan":    6,
	"white":   7,
}

// sgrFor translates a style name of the form "termview.<bg>_<fg>" into
// the SGR sequence selecting those colors. Unknown names select no
// styling at all, so a bad name degrades to plain text.
func sgrFor(style string) string {
	name, ok := strings.CutPrefix(style, "termview.")
	if !ok {
		return ""
	}
	bgName, fgName, ok := strings.Cut(name, "_")
	if !ok {
		return ""
	}
	bg, okBG := ansiIndex[bgName]
	fg, okFG := ansiIndex[fgName]
	if !okBG || !okFG {
		return ""
	}
	return fmt.Sprintf("\x1b[%d;%dm", 40+bg, 30+fg)
}
