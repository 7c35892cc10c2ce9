package core

import (
	"sort"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/termview/schema"
)

// State tracks the run loop lifecycle. Transitions are one-way:
// Running -> Stopping -> Stopped, with no resume.
type State int

const (
	// StateRunning means the loop is live and synchronizing.
	StateRunning State = iota
	// StateStopping means teardown has begun; the current tick finishes
	// its current step before the loop exits.
	StateStopping
	// StateStopped means the process has been signaled and the loop is
	// done.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const (
	// pollChunk is the output read size for one tick.
	pollChunk = 4096
	// tickPeriod paces the loop at 30 ticks per second.
	tickPeriod = time.Second / 30
)

// engine keeps one process, one grid, and one surface synchronized. One
// background worker runs the loop; the control path only touches the
// state flag and the scroll slot.
type engine struct {
	id      schema.SessionID
	proc    Process
	grid    Grid
	surface Surface
	cfg     schema.SessionConfig
	sync    *displaySync
	sink    EventSink
	log     pslog.Logger
	period  time.Duration

	mu     sync.Mutex
	state  State
	scroll *schema.ScrollRequest

	// Tick-local state, touched only by the worker.
	cursorValid bool
	cursorRow   int
	cursorCol   int
	lastRows    int
	lastCols    int
}

func newEngine(id schema.SessionID, proc Process, grid Grid, surface Surface, cfg schema.SessionConfig, sink EventSink, log pslog.Logger) *engine {
	return &engine{
		id:      id,
		proc:    proc,
		grid:    grid,
		surface: surface,
		cfg:     cfg,
		sync:    newDisplaySync(surface),
		sink:    sink,
		log:     log,
		period:  tickPeriod,
	}
}

func (e *engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// advance moves the state forward; it never moves backward.
func (e *engine) advance(s State) {
	e.mu.Lock()
	if s > e.state {
		e.state = s
	}
	e.mu.Unlock()
}

// requestStop begins teardown from the control path. The worker
// observes the flag on its next tick and finishes the state machine.
func (e *engine) requestStop() {
	e.advance(StateStopping)
}

// requestScroll stores a pending scrollback request. Single slot, last
// writer wins; the next tick consumes and clears it.
func (e *engine) requestScroll(req schema.ScrollRequest) {
	e.mu.Lock()
	e.scroll = &req
	e.mu.Unlock()
}

func (e *engine) takeScroll() *schema.ScrollRequest {
	e.mu.Lock()
	req := e.scroll
	e.scroll = nil
	e.mu.Unlock()
	return req
}

// run drives the loop until the session stops. The sleep is the
// remainder of the period after the tick's work, never negative, and
// the poll step is never skipped to catch up.
func (e *engine) run() {
	current := time.Now()
	for e.tick() {
		previous := current
		current = time.Now()
		if left := e.period - current.Sub(previous); left > 0 {
			time.Sleep(left)
		}
	}
}

// tick performs one pass: poll output, consume a pending scroll
// request, apply the dirty-row diff, place the cursor, check liveness,
// negotiate size. Reports whether the loop should keep running.
func (e *engine) tick() bool {
	if e.State() != StateRunning {
		e.finish("stop requested")
		return false
	}
	if data := e.proc.ReceiveOutput(pollChunk, 0); len(data) > 0 {
		e.grid.Feed(data)
	}
	if req := e.takeScroll(); req != nil {
		e.applyScroll(*req)
	}
	if !e.applyDiff() {
		e.finish("surface desync")
		return false
	}
	if !e.applyCursor() {
		e.finish("surface desync")
		return false
	}
	if !e.surface.Valid() {
		e.finish("surface invalid")
		return false
	}
	if !e.proc.IsRunning() {
		e.finish("process exited")
		return false
	}
	e.checkSize()
	return true
}

func (e *engine) applyScroll(req schema.ScrollRequest) {
	up := req.Direction == schema.ScrollUp
	if req.Unit == schema.ScrollLine {
		if up {
			e.grid.PrevLine()
		} else {
			e.grid.NextLine()
		}
		return
	}
	if up {
		e.grid.PrevPage()
	} else {
		e.grid.NextPage()
	}
}

// applyDiff pushes dirty rows to the surface in ascending row order, so
// each row's span is computed against already-updated lower rows.
// Reports false when the surface rejects an update.
func (e *engine) applyDiff() bool {
	dirty := e.grid.DirtyLines()
	if len(dirty) == 0 {
		return true
	}

	// New output must be visible rather than scrolled away, and the
	// cached cursor would flash stale during a bulk update.
	e.surface.ResetViewport()
	e.cursorValid = false

	rows := make([]int, 0, len(dirty))
	for row := range dirty {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	var colors map[int]map[int]ColorRun
	if e.cfg.ShowColors {
		colors = e.grid.ColorMap(rows)
	}

	e.surface.SetWritable(true)
	for _, row := range rows {
		if err := e.sync.applyRow(row, dirty[row], colors[row]); err != nil {
			e.surface.SetWritable(false)
			e.log.Warn("row update rejected", "err", err, "row", row)
			return false
		}
	}
	e.surface.SetWritable(false)
	e.grid.ClearDirty()
	return true
}

// applyCursor moves the surface cursor marker when the grid position
// changed since the last applied value.
func (e *engine) applyCursor() bool {
	row, col := e.grid.Cursor()
	if e.cursorValid && row == e.cursorRow && col == e.cursorCol {
		return true
	}
	if err := e.surface.SetCursor(e.sync.cursorOffset(row, col)); err != nil {
		e.log.Warn("cursor update rejected", "err", err)
		return false
	}
	e.cursorRow, e.cursorCol = row, col
	e.cursorValid = true
	return true
}

// checkSize pushes the surface's cell size to the process and the grid
// when it differs from the last notified size.
func (e *engine) checkSize() {
	rows, cols := e.surface.Size()
	if rows == e.lastRows && cols == e.lastCols {
		return
	}
	e.log.Debug("changing screen size",
		"from_rows", e.lastRows, "from_cols", e.lastCols,
		"rows", rows, "cols", cols)
	e.lastRows, e.lastCols = rows, cols
	e.proc.UpdateScreenSize(rows, cols)
	e.grid.Resize(rows, cols)
	e.emit(schema.SessionEvent{
		Type:      schema.SessionResized,
		SessionID: e.id,
		SurfaceID: e.surface.ID(),
		Rows:      rows,
		Cols:      cols,
	})
}

// finish completes teardown from the worker side: Stopping, a single
// stop signal to the process, Stopped. Later calls are no-ops.
func (e *engine) finish(reason string) {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return
	}
	e.state = StateStopping
	e.mu.Unlock()
	e.log.Debug("session stopping", "reason", reason)
	e.proc.Stop()
	e.advance(StateStopped)
}

func (e *engine) emit(event schema.SessionEvent) {
	if e.sink == nil {
		return
	}
	e.sink.OnSessionEvent(event)
}
