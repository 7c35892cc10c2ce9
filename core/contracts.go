package core

import (
	"time"

	"pkt.systems/termview/schema"
)

// Grid is the terminal-state interpreter a session feeds process output
// into. Implementations own escape-sequence parsing, the logical
// character grid, dirty tracking, and scrollback; the engine only
// consumes this contract. The bundled implementation lives in the emu
// package.
type Grid interface {
	// Feed ingests raw process output and updates the grid.
	Feed(p []byte)
	// Resize changes the grid dimensions. Every row of the new height
	// becomes dirty; rows beyond a shrunken height report nil content.
	Resize(rows, cols int)
	// DirtyLines returns the rows changed since the last ClearDirty,
	// mapping row index to new content or nil for a cleared row.
	DirtyLines() map[int]*string
	// ClearDirty resets the dirty tracking.
	ClearDirty()
	// Cursor returns the current cursor position.
	Cursor() (row, col int)
	// ColorMap returns, for the requested rows, a map of column offset
	// to the styled run starting there.
	ColorMap(rows []int) map[int]map[int]ColorRun
	// PrevLine, NextLine, PrevPage and NextPage move the scrollback
	// viewport.
	PrevLine()
	NextLine()
	PrevPage()
	NextPage()
}

// Surface is the host display a session renders into. It exposes a
// linear text buffer mutated through span edits, styled regions
// addressable by identifier, a single cursor marker, and its current
// size in character cells. Spans and offsets count runes. The engine
// never reads content back; all offsets are computed from its own
// tracking.
type Surface interface {
	// ID returns a stable identity for registry lookups.
	ID() schema.SurfaceID
	// Replace substitutes the rune span [start, end) with text.
	Replace(start, end int, text string) error
	// Erase removes the rune span [start, end).
	Erase(start, end int) error
	// AddRegion paints the named style over [start, end) under the
	// given identifier.
	AddRegion(id string, start, end int, style string) error
	// RemoveRegion removes a region previously added under id.
	RemoveRegion(id string) error
	// SetCursor places the single cursor marker at a rune offset.
	SetCursor(offset int) error
	// Size reports the usable size in character cells, margins already
	// subtracted, each dimension clamped to at least 1.
	Size() (rows, cols int)
	// Valid reports whether the surface can still apply updates.
	Valid() bool
	// SetWritable toggles the read-only guard around batched edits.
	SetWritable(writable bool)
	// ResetViewport scrolls the surface back to its origin.
	ResetViewport()
}

// ColorRun is one run of uniformly styled cells on a row.
type ColorRun struct {
	// Length is the run length in cells.
	Length int
	// BG and FG name palette colors; defaults fold to black on white.
	BG string
	FG string
}

// Style derives the stable style name for the run's color pair. Eight
// palette colors per channel give 64 possible names.
func (r ColorRun) Style() string {
	return "termview." + r.BG + "_" + r.FG
}

// Process is the engine's and session's view of the child process
// behind the pty. PtyProcess is the production implementation.
type Process interface {
	// ReceiveOutput returns up to max bytes of pending output, waiting
	// at most timeout. A zero timeout polls without blocking; nil means
	// no data.
	ReceiveOutput(max int, timeout time.Duration) []byte
	// UpdateScreenSize pushes a new terminal size to the pty. No-op
	// once stopped.
	UpdateScreenSize(rows, cols int)
	// SendKeypress encodes and writes one keystroke.
	SendKeypress(key string, mod schema.Modifiers) error
	// SendText replays a string as individual keystrokes.
	SendText(text string) error
	// IsRunning reports whether the child has been spawned and not yet
	// observed to exit.
	IsRunning() bool
	// Stop terminates the child and marks the process stopped.
	// Idempotent and safe from any goroutine.
	Stop()
}

// EventSink receives session lifecycle notifications. Implementations
// must not block.
type EventSink interface {
	OnSessionEvent(event schema.SessionEvent)
}
