package host

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"pkt.systems/pslog"

	"pkt.systems/termview/schema"
)

func testPumpLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: pslog.ErrorLevel,
	})
}

type pumpRecorder struct {
	keys    []KeyEvent
	scrolls []schema.ScrollRequest
	fail    error
}

func (r *pumpRecorder) RequestScroll(unit schema.ScrollUnit, direction schema.ScrollDirection) {
	r.scrolls = append(r.scrolls, schema.ScrollRequest{Unit: unit, Direction: direction})
}

func (r *pumpRecorder) SendKeypress(key string, mod schema.Modifiers) error {
	r.keys = append(r.keys, KeyEvent{Key: key, Mod: mod})
	return r.fail
}

func TestPumpInputForwardsKeystrokes(t *testing.T) {
	rec := &pumpRecorder{}
	PumpInput(bytes.NewReader([]byte("hi\r")), rec, testPumpLogger())

	want := []KeyEvent{{Key: "h"}, {Key: "i"}, {Key: "enter"}}
	if len(rec.keys) != len(want) {
		t.Fatalf("expected %d keypresses, got %+v", len(want), rec.keys)
	}
	for i, ev := range want {
		if rec.keys[i] != ev {
			t.Fatalf("keypress %d = %+v, want %+v", i, rec.keys[i], ev)
		}
	}
}

func TestPumpInputDivertsScrollChords(t *testing.T) {
	rec := &pumpRecorder{}
	PumpInput(bytes.NewReader([]byte("\x1b[1;2Aq")), rec, testPumpLogger())

	if len(rec.scrolls) != 1 || rec.scrolls[0].Direction != schema.ScrollUp {
		t.Fatalf("expected one scroll-up request, got %+v", rec.scrolls)
	}
	if len(rec.keys) != 1 || rec.keys[0].Key != "q" {
		t.Fatalf("expected the scroll chord withheld from the child, got %+v", rec.keys)
	}
}

func TestPumpInputToleratesRejectedKeys(t *testing.T) {
	rec := &pumpRecorder{fail: schema.ErrMetaUnsupported}
	PumpInput(bytes.NewReader([]byte("abc")), rec, testPumpLogger())

	if len(rec.keys) != 3 {
		t.Fatalf("expected the pump to keep going past rejected keys, got %+v", rec.keys)
	}
}

func TestPumpInputStopsWhenSessionGone(t *testing.T) {
	rec := &pumpRecorder{fail: fmt.Errorf("session stopped: %w", schema.ErrWriteFailed)}
	PumpInput(io.MultiReader(bytes.NewReader([]byte("abc")), neverEOF{}), rec, testPumpLogger())

	if len(rec.keys) != 1 {
		t.Fatalf("expected the pump to end on the first dead-session write, got %+v", rec.keys)
	}
}

// neverEOF would block the pump forever if the dead-session check failed
// to end it first.
type neverEOF struct{}

func (neverEOF) Read(p []byte) (int, error) {
	panic("pump kept reading after the session went away")
}
