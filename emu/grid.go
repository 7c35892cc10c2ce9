// Package emu adapts the vt10x terminal emulator to the grid contract
// the sync engine consumes.
package emu

import (
	"strings"
	"sync"

	"github.com/hinshun/vt10x"

	"pkt.systems/termview/core"
)

// colorNames indexes the base ANSI palette; bright variants fold onto
// their base color.
var colorNames = [8]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

const (
	defaultBG = "black"
	defaultFG = "white"

	fallbackRows = 24
	fallbackCols = 80
)

// Grid feeds process output through a vt10x terminal and reports dirty
// rows as full-width strings. Dirt is computed against the rows current
// at the last ClearDirty, so a resize or any content change shows up
// exactly once.
type Grid struct {
	mu      sync.Mutex
	term    vt10x.Terminal
	rows    int
	cols    int
	shadow  map[int]string
	pending map[int]string
	forced  map[int]bool
}

// NewGrid returns a grid sized rows by cols.
func NewGrid(rows, cols int) *Grid {
	if rows < 1 {
		rows = fallbackRows
	}
	if cols < 1 {
		cols = fallbackCols
	}
	return &Grid{
		term:   vt10x.New(vt10x.WithSize(cols, rows)),
		rows:   rows,
		cols:   cols,
		shadow: make(map[int]string),
		forced: make(map[int]bool),
	}
}

// Feed ingests raw process output.
func (g *Grid) Feed(p []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, _ = g.term.Write(p)
}

// Resize changes the grid dimensions and marks every row of the new
// height dirty; rows beyond the new height surface as cleared on the
// next DirtyLines call.
func (g *Grid) Resize(rows, cols int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rows < 1 || cols < 1 {
		return
	}
	if rows == g.rows && cols == g.cols {
		return
	}
	g.term.Resize(cols, rows)
	g.rows, g.cols = rows, cols
	for row := 0; row < rows; row++ {
		g.forced[row] = true
	}
}

// DirtyLines returns the rows that changed since the last ClearDirty.
// Visible rows map to their full-width content; rows that fell off the
// bottom after a shrink map to nil, telling the consumer to clear them.
func (g *Grid) DirtyLines() map[int]*string {
	g.mu.Lock()
	defer g.mu.Unlock()

	dirty := make(map[int]*string)
	g.pending = make(map[int]string, g.rows)
	for row := 0; row < g.rows; row++ {
		content := g.renderRow(row)
		g.pending[row] = content
		if g.forced[row] || g.shadow[row] != content {
			c := content
			dirty[row] = &c
		}
	}
	for row := range g.shadow {
		if row >= g.rows {
			dirty[row] = nil
		}
	}
	return dirty
}

// ClearDirty accepts the rows handed out by the last DirtyLines as the
// new baseline.
func (g *Grid) ClearDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return
	}
	g.shadow = g.pending
	g.pending = nil
	g.forced = make(map[int]bool)
}

// Cursor returns the terminal cursor as (row, col).
func (g *Grid) Cursor() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur := g.term.Cursor()
	return cur.Y, cur.X
}

// ColorMap reports the non-default color runs for the requested rows,
// keyed by start column. A run spanning only default colors is omitted;
// the consumer leaves those spans unstyled.
func (g *Grid) ColorMap(rows []int) map[int]map[int]core.ColorRun {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]map[int]core.ColorRun)
	for _, row := range rows {
		if row < 0 || row >= g.rows {
			continue
		}
		if runs := g.rowRuns(row); len(runs) > 0 {
			out[row] = runs
		}
	}
	return out
}

// Scrollback navigation. vt10x keeps no history beyond the live screen,
// so these requests are accepted and dropped.
func (g *Grid) PrevLine() {}

func (g *Grid) NextLine() {}

func (g *Grid) PrevPage() {}

func (g *Grid) NextPage() {}

func (g *Grid) renderRow(row int) string {
	var b strings.Builder
	b.Grow(g.cols)
	for col := 0; col < g.cols; col++ {
		c := g.term.Cell(col, row).Char
		if c == 0 {
			c = ' '
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (g *Grid) rowRuns(row int) map[int]core.ColorRun {
	runs := make(map[int]core.ColorRun)
	start := -1
	var bg, fg string
	flush := func(end int) {
		if start < 0 {
			return
		}
		if bg != defaultBG || fg != defaultFG {
			runs[start] = core.ColorRun{Length: end - start, BG: bg, FG: fg}
		}
		start = -1
	}
	for col := 0; col < g.cols; col++ {
		cell := g.term.Cell(col, row)
		cellBG := colorName(cell.BG, defaultBG)
		cellFG := colorName(cell.FG, defaultFG)
		if start < 0 {
			start, bg, fg = col, cellBG, cellFG
		} else if cellBG != bg || cellFG != fg {
			flush(col)
			start, bg, fg = col, cellBG, cellFG
		}
	}
	flush(g.cols)
	return runs
}

// colorName folds a vt10x color onto the 8-name palette: 0-7 map
// directly, bright 8-15 fold to their base, everything else (256-color,
// truecolor, the default sentinels) falls back to def.
func colorName(c vt10x.Color, def string) string {
	switch {
	case c == vt10x.DefaultFG || c == vt10x.DefaultBG:
		return def
	case c < 8:
		return colorNames[c]
	case c < 16:
		return colorNames[c-8]
	default:
		return def
	}
}
