package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/termview/internal/logx"
	"pkt.systems/termview/schema"
)

// Session binds one process, one grid, and one surface together and
// owns the background worker that keeps them synchronized. Teardown is
// idempotent and may come from either side: the worker detects process
// death or surface invalidity, the control path calls Close.
type Session struct {
	id      schema.SessionID
	proc    Process
	grid    Grid
	surface Surface
	cfg     schema.SessionConfig
	eng     *engine
	sink    EventSink
	log     pslog.Logger

	done chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// SessionParams collects the collaborators for NewSession. Process,
// Grid, and Surface are required; the rest have working defaults.
type SessionParams struct {
	ID      schema.SessionID
	Process Process
	Grid    Grid
	Surface Surface
	Config  schema.SessionConfig
	Events  EventSink
	Logger  pslog.Logger
}

// NewSession wires a session together. Call Start to launch the worker.
func NewSession(params SessionParams) *Session {
	id := params.ID
	if id == "" {
		id = newSessionID()
	}
	cfg := params.Config
	if cfg.IsZero() {
		cfg = schema.DefaultSessionConfig()
	}
	log := params.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log = logx.WithSurface(logx.WithSession(log, id), params.Surface.ID())

	return &Session{
		id:      id,
		proc:    params.Process,
		grid:    params.Grid,
		surface: params.Surface,
		cfg:     cfg,
		eng:     newEngine(id, params.Process, params.Grid, params.Surface, cfg, params.Events, log),
		sink:    params.Events,
		log:     log,
		done:    make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() schema.SessionID { return s.id }

// SurfaceID returns the identity of the surface hosting this session.
func (s *Session) SurfaceID() schema.SurfaceID { return s.surface.ID() }

// Config returns the settings the session was constructed with.
func (s *Session) Config() schema.SessionConfig { return s.cfg }

// State returns the run loop state.
func (s *Session) State() State { return s.eng.State() }

// IsRunning reports whether the child process is still alive.
func (s *Session) IsRunning() bool { return s.proc.IsRunning() }

// Done is closed once the worker has fully stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start launches the background worker. Only the first call does
// anything; starting a closed session is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.log.Info("session started")
	s.emit(schema.SessionEvent{Type: schema.SessionStarted, SessionID: s.id, SurfaceID: s.surface.ID()})
	go func() {
		defer close(s.done)
		s.eng.run()
		s.log.Info("session stopped")
		s.emit(schema.SessionEvent{Type: schema.SessionStopped, SessionID: s.id, SurfaceID: s.surface.ID()})
	}()
}

// Wait blocks until the worker has exited. Returns immediately for a
// session that was closed before it started.
func (s *Session) Wait() { <-s.done }

// Close tears the session down from the control path: the child is
// signaled once and the worker exits on its next tick. Idempotent and
// safe from any goroutine; pair with Wait to join the worker.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	s.eng.requestStop()
	s.proc.Stop()
	if !started {
		// No worker exists to finish the state machine.
		s.eng.advance(StateStopped)
		s.emit(schema.SessionEvent{Type: schema.SessionStopped, SessionID: s.id, SurfaceID: s.surface.ID()})
		close(s.done)
	}
}

// SendKeypress encodes one keystroke and writes it to the child. Writes
// to a stopped session report schema.ErrWriteFailed; a meta chord
// reports schema.ErrMetaUnsupported without touching the child.
func (s *Session) SendKeypress(key string, mod schema.Modifiers) error {
	return s.proc.SendKeypress(key, mod)
}

// SendText replays text as individual keystrokes, mapping newlines to
// enter and tabs to tab.
func (s *Session) SendText(text string) error {
	return s.proc.SendText(text)
}

// RequestScroll records a scrollback navigation request for the next
// tick. At most one request is pending; the last writer wins.
func (s *Session) RequestScroll(unit schema.ScrollUnit, direction schema.ScrollDirection) {
	s.eng.requestScroll(schema.ScrollRequest{Unit: unit, Direction: direction})
}

func (s *Session) emit(event schema.SessionEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnSessionEvent(event)
}

// newSessionID returns a random hex identifier. Ids only need to be
// unique within one process, so a clock-derived fallback suffices when
// the random source is unavailable.
func newSessionID() schema.SessionID {
	var buf [8]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return schema.SessionID(fmt.Sprintf("sess-%x", time.Now().UnixNano()))
	}
	return schema.SessionID(hex.EncodeToString(buf[:]))
}
