package host

import (
	"bytes"
	"fmt"
	"sort"
)

// flush repaints the client from the buffer, regions, and cursor.
// Caller holds the lock. A failed write invalidates the surface.
func (s *Surface) flush() {
	if !s.valid || s.termRows < 1 || s.termCols < 1 {
		return
	}
	var frame bytes.Buffer
	frame.WriteString(hideCursor)
	if s.fullClear {
		frame.WriteString(clearScreen)
		s.fullClear = false
	}
	lines, starts := s.lines()
	for row := 0; row < s.termRows; row++ {
		fmt.Fprintf(&frame, "\x1b[%d;1H", row+1)
		if row < len(lines) {
			s.paintLine(&frame, starts[row], lines[row])
		}
		frame.WriteString(sgrReset)
		frame.WriteString(eraseRight)
	}
	s.placeCursor(&frame, lines, starts)
	frame.WriteString(showCursor)
	if _, err := s.w.Write(frame.Bytes()); err != nil {
		s.valid = false
		return
	}
	s.dirty = false
}

// moveCursor repositions the client cursor without repainting. Caller
// holds the lock.
func (s *Surface) moveCursor() {
	if !s.valid || s.termRows < 1 || s.termCols < 1 {
		return
	}
	lines, starts := s.lines()
	var seq bytes.Buffer
	s.placeCursor(&seq, lines, starts)
	seq.WriteString(showCursor)
	if _, err := s.w.Write(seq.Bytes()); err != nil {
		s.valid = false
	}
}

// placeCursor appends the sequence positioning the client cursor at the
// tracked rune offset, clamped to the visible area.
func (s *Surface) placeCursor(frame *bytes.Buffer, lines [][]rune, starts []int) {
	row, col := locate(lines, starts, s.cursor)
	row = min(row, s.termRows-1)
	col = min(col, s.termCols-1)
	fmt.Fprintf(frame, "\x1b[%d;%dH", row+1, col+1)
}

// paintLine writes one row's runes with their region styles, capped at
// the client width.
func (s *Surface) paintLine(frame *bytes.Buffer, lineStart int, line []rune) {
	spans := s.lineRegions(lineStart, lineStart+len(line))
	active := ""
	for i, r := range line {
		if i == s.termCols {
			break
		}
		style := styleAt(spans, lineStart+i)
		if style != active {
			frame.WriteString(sgrReset)
			if style != "" {
				frame.WriteString(sgrFor(style))
			}
			active = style
		}
		frame.WriteRune(r)
	}
}

// lineRegions returns the regions overlapping [lo, hi), ordered by
// start offset.
func (s *Surface) lineRegions(lo, hi int) []region {
	var spans []region
	for _, reg := range s.regions {
		if reg.start < hi && reg.end > lo {
			spans = append(spans, reg)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// styleAt returns the style of the first region covering the offset.
func styleAt(spans []region, offset int) string {
	for _, reg := range spans {
		if offset >= reg.start && offset < reg.end {
			return reg.style
		}
	}
	return ""
}

// lines splits the buffer on newlines, returning each line's runes and
// its start offset. A trailing newline yields no empty tail line.
func (s *Surface) lines() (lines [][]rune, starts []int) {
	start := 0
	for i, r := range s.buf {
		if r == '\n' {
			lines = append(lines, s.buf[start:i])
			starts = append(starts, start)
			start = i + 1
		}
	}
	if start < len(s.buf) {
		lines = append(lines, s.buf[start:])
		starts = append(starts, start)
	}
	return lines, starts
}

// locate translates a rune offset into (row, col). An offset on a row's
// trailing newline resolves to one past its last column; an offset past
// the final line resolves to the row after it.
func locate(lines [][]rune, starts []int, offset int) (row, col int) {
	for i, line := range lines {
		if offset <= starts[i]+len(line) {
			return i, offset - starts[i]
		}
	}
	return len(lines), 0
}
