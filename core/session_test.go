package core

import (
	"testing"
	"time"

	"pkt.systems/termview/schema"
)

func TestSessionStopsWhenProcessExits(t *testing.T) {
	proc := newFakeProc()
	grid := newFakeGrid()
	surface := newFakeSurface(24, 80)
	sink := &fakeSink{}
	sess := NewSession(SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: surface,
		Events:  sink,
		Logger:  testLogger(),
	})
	sess.eng.period = time.Millisecond
	proc.stateFn = sess.eng.State

	sess.Start()
	if got := sink.byType(schema.SessionStarted); len(got) != 1 {
		t.Fatalf("expected one started event, got %d", len(got))
	}

	proc.setRunning(false)
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected session to stop after process exit")
	}
	if sess.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", sess.State())
	}
	stopped := sink.byType(schema.SessionStopped)
	if len(stopped) != 1 {
		t.Fatalf("expected one stopped event, got %d", len(stopped))
	}
	if stopped[0].SessionID != sess.ID() || stopped[0].SurfaceID != surface.id {
		t.Fatalf("unexpected stopped event %+v", stopped[0])
	}
}

func TestSessionCloseJoinsWorkerAndIsIdempotent(t *testing.T) {
	proc := newFakeProc()
	grid := newFakeGrid()
	surface := newFakeSurface(24, 80)
	sink := &fakeSink{}
	sess := NewSession(SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: surface,
		Events:  sink,
		Logger:  testLogger(),
	})
	sess.eng.period = time.Millisecond

	sess.Start()
	sess.Close()
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected worker to exit after close")
	}
	if sess.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", sess.State())
	}
	if n := proc.signalCount(); n != 1 {
		t.Fatalf("expected one stop signal, got %d", n)
	}

	sess.Close()
	sess.Wait()
	if n := proc.signalCount(); n != 1 {
		t.Fatalf("expected close to stay idempotent, got %d signals", n)
	}
	if n := len(sink.byType(schema.SessionStopped)); n != 1 {
		t.Fatalf("expected one stopped event, got %d", n)
	}
}

func TestSessionCloseBeforeStart(t *testing.T) {
	proc := newFakeProc()
	grid := newFakeGrid()
	surface := newFakeSurface(24, 80)
	sink := &fakeSink{}
	sess := NewSession(SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: surface,
		Events:  sink,
		Logger:  testLogger(),
	})

	sess.Close()
	select {
	case <-sess.Done():
	default:
		t.Fatalf("expected done channel closed")
	}
	if sess.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", sess.State())
	}
	if n := proc.signalCount(); n != 1 {
		t.Fatalf("expected one stop signal, got %d", n)
	}

	// Starting a closed session does nothing.
	sess.Start()
	if n := len(sink.byType(schema.SessionStarted)); n != 0 {
		t.Fatalf("expected no started event, got %d", n)
	}
	if n := len(sink.byType(schema.SessionStopped)); n != 1 {
		t.Fatalf("expected one stopped event, got %d", n)
	}
}

func TestSessionDefaults(t *testing.T) {
	proc := newFakeProc()
	grid := newFakeGrid()
	surface := newFakeSurface(24, 80)
	sess := NewSession(SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: surface,
		Logger:  testLogger(),
	})

	if sess.ID() == "" {
		t.Fatalf("expected generated session id")
	}
	if sess.SurfaceID() != surface.id {
		t.Fatalf("expected surface id %q, got %q", surface.id, sess.SurfaceID())
	}
	cfg := sess.Config()
	want := schema.DefaultSessionConfig()
	if cfg != want {
		t.Fatalf("expected default config %+v, got %+v", want, cfg)
	}
	if sess.State() != StateRunning {
		t.Fatalf("expected running state before teardown, got %v", sess.State())
	}
}

func TestSessionForwardsInput(t *testing.T) {
	proc := newFakeProc()
	grid := newFakeGrid()
	surface := newFakeSurface(24, 80)
	sess := NewSession(SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: surface,
		Logger:  testLogger(),
	})

	if err := sess.SendKeypress("c", schema.Modifiers{Ctrl: true}); err != nil {
		t.Fatalf("send keypress: %v", err)
	}
	keys := proc.keypresses()
	if len(keys) != 1 || keys[0].key != "c" || !keys[0].mod.Ctrl {
		t.Fatalf("unexpected keypress record %+v", keys)
	}

	if err := sess.SendText("ls -la\n"); err != nil {
		t.Fatalf("send text: %v", err)
	}
	if len(proc.texts) != 1 || proc.texts[0] != "ls -la\n" {
		t.Fatalf("unexpected text record %v", proc.texts)
	}
}

func TestSessionRequestScrollLandsInEngine(t *testing.T) {
	proc := newFakeProc()
	grid := newFakeGrid()
	surface := newFakeSurface(24, 80)
	sess := NewSession(SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: surface,
		Logger:  testLogger(),
	})

	sess.RequestScroll(schema.ScrollPage, schema.ScrollUp)
	req := sess.eng.takeScroll()
	if req == nil {
		t.Fatalf("expected pending scroll request")
	}
	if req.Unit != schema.ScrollPage || req.Direction != schema.ScrollUp {
		t.Fatalf("unexpected scroll request %+v", req)
	}
}
