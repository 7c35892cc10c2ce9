// Package host renders sessions onto a raw ANSI terminal reached
// through an io.Writer, typically an SSH channel or the local tty in
// raw mode. The surface keeps the session's linear text buffer and
// styled regions in memory and repaints the client from them; nothing
// is ever read back from the client.
package host

import (
	"fmt"
	"io"
	"sync"

	"pkt.systems/termview/schema"
)

// region is one styled span over the linear buffer.
type region struct {
	start int
	end   int
	style string
}

// Surface is the ANSI terminal implementation of the display surface a
// session renders into. Replace and Erase splice a rune buffer, regions
// style spans of it, and SetWritable(false) flushes the accumulated
// state to the client as one frame. All offsets count runes.
type Surface struct {
	mu sync.Mutex
	id schema.SurfaceID
	w  io.Writer

	buf     []rune
	regions map[string]region
	cursor  int

	termRows     int
	termCols     int
	rightMargin  int
	bottomMargin int

	writable  bool
	valid     bool
	dirty     bool
	fullClear bool
}

// NewSurface wraps w as the display surface for one session. rows and
// cols describe the client terminal; the margins in cfg shrink the
// area reported to the session.
func NewSurface(id schema.SurfaceID, w io.Writer, rows, cols int, cfg schema.SessionConfig) *Surface {
	return &Surface{
		id:           id,
		w:            w,
		regions:      make(map[string]region),
		termRows:     rows,
		termCols:     cols,
		rightMargin:  cfg.RightMargin,
		bottomMargin: cfg.BottomMargin,
		valid:        w != nil,
		fullClear:    true,
	}
}

// ID returns the surface identity used for registry lookups.
func (s *Surface) ID() schema.SurfaceID { return s.id }

// Replace substitutes the rune span [start, end) with text. Regions and
// a cursor positioned at or after the span's end slide with the length
// change, the way display anchors follow edits made before them.
func (s *Surface) Replace(start, end int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(start, end); err != nil {
		return err
	}
	repl := []rune(text)
	delta := len(repl) - (end - start)
	next := make([]rune, 0, len(s.buf)+delta)
	next = append(next, s.buf[:start]...)
	next = append(next, repl...)
	next = append(next, s.buf[end:]...)
	s.buf = next
	if delta != 0 {
		for id, reg := range s.regions {
			if reg.start >= end {
				reg.start += delta
				reg.end += delta
				s.regions[id] = reg
			}
		}
		if s.cursor >= end {
			s.cursor += delta
		}
	}
	s.dirty = true
	return nil
}

// Erase removes the rune span [start, end).
func (s *Surface) Erase(start, end int) error {
	return s.Replace(start, end, "")
}

// AddRegion styles the rune span [start, end) under id. Re-adding an
// existing id repositions it. Regions are not text edits and need no
// writable window.
func (s *Surface) AddRegion(id string, start, end int, style string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return fmt.Errorf("%w: surface closed", schema.ErrSurfaceDesync)
	}
	if start < 0 || end < start || end > len(s.buf) {
		return fmt.Errorf("%w: region %s span (%d,%d) outside buffer of %d", schema.ErrSurfaceDesync, id, start, end, len(s.buf))
	}
	s.regions[id] = region{start: start, end: end, style: style}
	s.dirty = true
	return nil
}

// RemoveRegion drops the region registered under id. Unknown ids are
// ignored.
func (s *Surface) RemoveRegion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return fmt.Errorf("%w: surface closed", schema.ErrSurfaceDesync)
	}
	if _, ok := s.regions[id]; ok {
		delete(s.regions, id)
		s.dirty = true
	}
	return nil
}

// SetCursor moves the cursor marker to a rune offset. A changed offset
// repositions the client cursor immediately; frames restore it as well,
// so an unchanged offset writes nothing.
func (s *Surface) SetCursor(offset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return fmt.Errorf("%w: surface closed", schema.ErrSurfaceDesync)
	}
	if offset < 0 || offset > len(s.buf) {
		return fmt.Errorf("%w: cursor offset %d outside buffer of %d", schema.ErrSurfaceDesync, offset, len(s.buf))
	}
	if offset == s.cursor {
		return nil
	}
	s.cursor = offset
	s.moveCursor()
	if !s.valid {
		return fmt.Errorf("%w: client write failed", schema.ErrSurfaceDesync)
	}
	return nil
}

// Size reports the area offered to the session: the client terminal
// minus the configured margins, at least 1x1.
func (s *Surface) Size() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(s.termRows-s.bottomMargin, 1), max(s.termCols-s.rightMargin, 1)
}

// Valid reports whether the client can still accept frames.
func (s *Surface) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// SetWritable toggles the edit guard. Closing the writable window
// flushes the accumulated edits to the client as one frame.
func (s *Surface) SetWritable(writable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writable && !writable && s.dirty {
		s.flush()
	}
	s.writable = writable
}

// ResetViewport does nothing: frames always paint from the origin, so
// there is no scroll position to restore.
func (s *Surface) ResetViewport() {}

// UpdateClientSize records a new client terminal size, typically from
// an SSH window-change request. The next frame clears the whole screen
// before painting so no stale cells survive the reflow.
func (s *Surface) UpdateClientSize(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rows < 1 || cols < 1 || (rows == s.termRows && cols == s.termCols) {
		return
	}
	s.termRows = rows
	s.termCols = cols
	s.fullClear = true
	s.dirty = true
}

// Close detaches the client, restoring its cursor and colors on the way
// out. The session's liveness check observes the invalid surface and
// stops within a tick.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return
	}
	s.valid = false
	_, _ = io.WriteString(s.w, sgrReset+showCursor)
}

// editable gates text edits: the surface must be attached, inside a
// writable window, and the span must lie within the buffer.
func (s *Surface) editable(start, end int) error {
	if !s.valid {
		return fmt.Errorf("%w: surface closed", schema.ErrSurfaceDesync)
	}
	if !s.writable {
		return fmt.Errorf("%w: surface is read-only", schema.ErrSurfaceDesync)
	}
	if start < 0 || end < start || end > len(s.buf) {
		return fmt.Errorf("%w: span (%d,%d) outside buffer of %d", schema.ErrSurfaceDesync, start, end, len(s.buf))
	}
	return nil
}
