package core

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// displaySync applies dirty rows to the surface and tracks what it
// wrote. The tracked per-row content (including its trailing newline)
// is the sole source of truth for span arithmetic; the surface is never
// read back. All offsets count runes, the same unit the grid uses for
// cursor and color-run columns.
type displaySync struct {
	surface Surface
	content map[int]string   // row index -> content with trailing newline
	lengths map[int]int      // row index -> rune length of tracked content
	regions map[int][]string // row index -> region ids in paint order
}

func newDisplaySync(surface Surface) *displaySync {
	return &displaySync{
		surface: surface,
		content: make(map[int]string),
		lengths: make(map[int]int),
		regions: make(map[int][]string),
	}
}

// span returns the offset range the row currently occupies. The start
// is the cumulative length of all tracked rows with a lower index; rows
// without tracked content contribute zero.
func (d *displaySync) span(row int) (start, end int) {
	for i := 0; i < row; i++ {
		start += d.lengths[i]
	}
	return start, start + d.lengths[row]
}

// applyRow writes one dirty row to the surface. Regions registered on
// the row are removed, in the order they were registered, before the
// content changes underneath them. Nil content erases the row's span
// and untracks it; otherwise the span is replaced with the new content
// plus a newline and any color runs are painted as fresh regions.
func (d *displaySync) applyRow(row int, content *string, colors map[int]ColorRun) error {
	start, end := d.span(row)

	for _, id := range d.regions[row] {
		if err := d.surface.RemoveRegion(id); err != nil {
			return err
		}
	}
	delete(d.regions, row)

	if content == nil {
		if err := d.surface.Erase(start, end); err != nil {
			return err
		}
		delete(d.content, row)
		delete(d.lengths, row)
		return nil
	}

	withNewline := *content + "\n"
	if err := d.surface.Replace(start, end, withNewline); err != nil {
		return err
	}
	d.content[row] = withNewline
	d.lengths[row] = utf8.RuneCountInString(withNewline)

	cols := make([]int, 0, len(colors))
	for col := range colors {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	for _, col := range cols {
		run := colors[col]
		id := regionID(row, col)
		if err := d.surface.AddRegion(id, start+col, start+col+run.Length, run.Style()); err != nil {
			return err
		}
		d.regions[row] = append(d.regions[row], id)
	}
	return nil
}

// cursorOffset translates a grid (row, col) position to a rune offset
// on the surface.
func (d *displaySync) cursorOffset(row, col int) int {
	start, _ := d.span(row)
	return start + col
}

// regionID derives the deterministic region identifier for a color run
// starting at (row, col), so a later rewrite of the row can address it.
func regionID(row, col int) string {
	return fmt.Sprintf("%d,%d", row, col)
}
