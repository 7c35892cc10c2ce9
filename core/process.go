package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"pkt.systems/pslog"

	"pkt.systems/termview/schema"
)

const (
	defaultTerm = "linux"
	defaultRows = 24
	defaultCols = 80

	// outputQueueSize bounds the reader-to-engine handoff; when it is
	// full the reader blocks and the kernel pty buffer throttles the
	// child, same as a real terminal that stopped being read.
	outputQueueSize = 64

	// stopGrace is how long Stop waits after SIGTERM before SIGKILL.
	stopGrace = 500 * time.Millisecond
)

// ProcessConfig describes the child command attached to a session pty.
type ProcessConfig struct {
	// Argv is the command line to run, Argv[0] being the binary.
	Argv []string
	// Dir is the working directory. Empty means inherit.
	Dir string
	// Term is the TERM value advertised to the child. Default "linux".
	Term string
	// Rows and Cols give the initial pty size. Defaults 24x80.
	Rows int
	Cols int
}

// PtyProcess runs a shell child behind a pseudo terminal and exposes
// its byte streams to the sync engine. ReceiveOutput is single-reader
// (the engine); the input side is safe for any goroutine.
type PtyProcess struct {
	cmd  *exec.Cmd
	ptmx *os.File
	log  pslog.Logger

	writeMu sync.Mutex

	output  chan []byte
	pending []byte

	exited  chan struct{}
	closing chan struct{}

	stopMu  sync.Mutex
	stopped bool
}

// StartProcess spawns cfg.Argv on a fresh pseudo terminal sized
// cfg.Rows by cfg.Cols with TERM set to cfg.Term.
func StartProcess(ctx context.Context, cfg ProcessConfig) (*PtyProcess, error) {
	if len(cfg.Argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", schema.ErrSpawnFailed)
	}
	term := cfg.Term
	if term == "" {
		term = defaultTerm
	}
	rows, cols := cfg.Rows, cfg.Cols
	if rows < 1 {
		rows = defaultRows
	}
	if cols < 1 {
		cols = defaultCols
	}

	cmd := exec.Command(cfg.Argv[0], cfg.Argv[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(), "TERM="+term)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrSpawnFailed, err)
	}

	p := &PtyProcess{
		cmd:     cmd,
		ptmx:    ptmx,
		log:     pslog.Ctx(ctx).With("pid", cmd.Process.Pid),
		output:  make(chan []byte, outputQueueSize),
		exited:  make(chan struct{}),
		closing: make(chan struct{}),
	}
	p.log.Debug("shell process started", "command", cfg.Argv[0], "term", term, "rows", rows, "cols", cols)

	go p.read()
	go p.reap()
	return p, nil
}

func (p *PtyProcess) read() {
	defer close(p.output)
	buf := make([]byte, pollChunk)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.output <- chunk:
			case <-p.closing:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (p *PtyProcess) reap() {
	err := p.cmd.Wait()
	close(p.exited)
	if err != nil {
		p.log.Debug("shell process exited", "err", err)
		return
	}
	p.log.Debug("shell process exited")
}

// ReceiveOutput returns up to max bytes of pending child output. A
// zero or negative timeout polls without blocking; otherwise the call
// waits up to timeout for the first byte. Returns nil when nothing
// arrived. Not safe for concurrent use.
func (p *PtyProcess) ReceiveOutput(max int, timeout time.Duration) []byte {
	if max < 1 {
		return nil
	}
	if len(p.pending) == 0 {
		if chunk, ok := p.waitOutput(timeout); ok {
			p.pending = append(p.pending, chunk...)
		}
	}
drain:
	for len(p.pending) < max {
		select {
		case chunk, ok := <-p.output:
			if !ok {
				break drain
			}
			p.pending = append(p.pending, chunk...)
		default:
			break drain
		}
	}
	if len(p.pending) == 0 {
		return nil
	}
	n := min(max, len(p.pending))
	out := p.pending[:n:n]
	p.pending = p.pending[n:]
	if len(p.pending) == 0 {
		p.pending = nil
	}
	return out
}

func (p *PtyProcess) waitOutput(timeout time.Duration) ([]byte, bool) {
	if timeout <= 0 {
		select {
		case chunk, ok := <-p.output:
			return chunk, ok
		default:
			return nil, false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case chunk, ok := <-p.output:
		return chunk, ok
	case <-timer.C:
		return nil, false
	}
}

// UpdateScreenSize pushes a new winsize to the kernel side of the pty
// so the child sees SIGWINCH with the session's current geometry. No-op
// once the process stopped.
func (p *PtyProcess) UpdateScreenSize(rows, cols int) {
	if rows < 1 || cols < 1 || !p.IsRunning() {
		return
	}
	ws := unix.Winsize{Row: uint16(rows), Col: uint16(cols)}
	if err := unix.IoctlSetWinsize(int(p.ptmx.Fd()), unix.TIOCSWINSZ, &ws); err != nil {
		p.log.Warn("pty resize failed", "err", err, "rows", rows, "cols", cols)
	}
}

// SendKeypress encodes key under mod and writes the bytes to the child.
func (p *PtyProcess) SendKeypress(key string, mod schema.Modifiers) error {
	seq, err := EncodeKey(key, mod)
	if err != nil {
		return err
	}
	return p.write(seq)
}

// SendText replays text as individual keystrokes, so pasted content
// reaches the child as the same bytes typing it would produce. Line
// breaks become enter and tabs become the tab key.
func (p *PtyProcess) SendText(text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, r := range text {
		key := string(r)
		switch r {
		case '\n', '\r':
			key = "enter"
		case '\t':
			key = "tab"
		}
		if err := p.SendKeypress(key, schema.Modifiers{}); err != nil {
			return err
		}
	}
	return nil
}

// IsRunning reports whether the child is alive and Stop has not been
// called.
func (p *PtyProcess) IsRunning() bool {
	p.stopMu.Lock()
	stopped := p.stopped
	p.stopMu.Unlock()
	if stopped {
		return false
	}
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// Stop terminates the child if it is still running and releases the
// pty. Safe to call from any goroutine and more than once.
func (p *PtyProcess) Stop() {
	p.stopMu.Lock()
	if p.stopped {
		p.stopMu.Unlock()
		return
	}
	p.stopped = true
	p.stopMu.Unlock()

	close(p.closing)

	select {
	case <-p.exited:
	default:
		_ = p.cmd.Process.Signal(unix.SIGTERM)
		timer := time.NewTimer(stopGrace)
		select {
		case <-p.exited:
			timer.Stop()
		case <-timer.C:
			_ = p.cmd.Process.Kill()
			<-p.exited
		}
	}
	_ = p.ptmx.Close()
	p.log.Debug("shell process stopped")
}

func (p *PtyProcess) write(s string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if !p.IsRunning() {
		return fmt.Errorf("%w: process not running", schema.ErrWriteFailed)
	}
	if _, err := p.ptmx.WriteString(s); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrWriteFailed, err)
	}
	return nil
}
