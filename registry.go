// Package termview embeds live shell sessions inside host display
// surfaces. The Registry is the front door: it spawns the child
// process, wires it to a terminal grid and a surface, and owns the
// resulting sessions until they are closed or die.
package termview

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pkt.systems/pslog"

	"pkt.systems/termview/core"
	"pkt.systems/termview/emu"
	"pkt.systems/termview/internal/logx"
	"pkt.systems/termview/schema"
)

// DefaultCommand is the argv spawned when Options.Command is empty.
var DefaultCommand = []string{"/bin/bash", "-l"}

// Options configures one session opened through a Registry. Surface is
// required; everything else has a working default.
type Options struct {
	// Command is the argv to run, Command[0] being the binary.
	Command []string
	// Dir is the child working directory. Empty means inherit.
	Dir string
	// Term is the TERM value advertised to the child.
	Term string
	// Config holds the per-session settings. Zero means defaults.
	Config schema.SessionConfig
	// Surface is the host display the session renders into.
	Surface core.Surface
	// Grid interprets process output. Defaults to a vt10x grid sized
	// from the surface.
	Grid core.Grid
	// Events receives lifecycle notifications.
	Events core.EventSink
	// Logger scopes the session's log output.
	Logger pslog.Logger
}

type entry struct {
	sess *core.Session
	opts Options
}

// Registry owns every open session and resolves them by session or
// surface identity. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[schema.SessionID]entry
	log      pslog.Logger
}

// NewRegistry returns an empty registry logging through logger.
func NewRegistry(logger pslog.Logger) *Registry {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Registry{
		sessions: make(map[schema.SessionID]entry),
		log:      logger,
	}
}

// Open spawns opts.Command on a fresh pty sized from opts.Surface,
// starts the sync worker, and registers the session. The caller keeps
// ownership of the surface; the registry only renders into it.
func (r *Registry) Open(ctx context.Context, opts Options) (*core.Session, error) {
	if opts.Surface == nil {
		return nil, fmt.Errorf("%w: no surface", schema.ErrSpawnFailed)
	}
	command := opts.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}

	rows, cols := opts.Surface.Size()
	proc, err := core.StartProcess(pslog.ContextWithLogger(ctx, logger), core.ProcessConfig{
		Argv: command,
		Dir:  opts.Dir,
		Term: opts.Term,
		Rows: rows,
		Cols: cols,
	})
	if err != nil {
		return nil, err
	}

	grid := opts.Grid
	if grid == nil {
		grid = emu.NewGrid(rows, cols)
	}
	sess := core.NewSession(core.SessionParams{
		Process: proc,
		Grid:    grid,
		Surface: opts.Surface,
		Config:  opts.Config,
		Events:  opts.Events,
		Logger:  logger,
	})

	r.mu.Lock()
	r.sessions[sess.ID()] = entry{sess: sess, opts: opts}
	open := len(r.sessions)
	r.mu.Unlock()

	sess.Start()
	logx.WithSession(r.log, sess.ID()).Info("session opened",
		"surface", opts.Surface.ID(), "command", command[0], "open", open)
	return sess, nil
}

// FromID returns the open session with the given id.
func (r *Registry) FromID(id schema.SessionID) (*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	return ent.sess, nil
}

// FromSurface returns the open session rendering into the given
// surface.
func (r *Registry) FromSurface(id schema.SurfaceID) (*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ent := range r.sessions {
		if ent.sess.SurfaceID() == id {
			return ent.sess, nil
		}
	}
	return nil, fmt.Errorf("%w: surface %s", schema.ErrSessionNotFound, id)
}

// List returns the ids of all open sessions in lexical order. Sessions
// that have stopped on their own but were not yet closed still appear.
func (r *Registry) List() []schema.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]schema.SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close stops the session, waits for its worker to exit, and forgets
// it. Closing an unknown id reports schema.ErrSessionNotFound.
func (r *Registry) Close(id schema.SessionID) error {
	r.mu.Lock()
	ent, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	ent.sess.Close()
	ent.sess.Wait()
	logx.WithSession(r.log, id).Info("session closed")
	return nil
}

// Restart closes the session and opens a fresh one with the same
// options, reusing the surface. The new session gets a new id.
func (r *Registry) Restart(ctx context.Context, id schema.SessionID) (*core.Session, error) {
	r.mu.Lock()
	ent, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	if err := r.Close(id); err != nil {
		return nil, err
	}
	return r.Open(ctx, ent.opts)
}

// CloseAll stops every open session and waits for each worker. Safe to
// call on an empty registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := make([]entry, 0, len(r.sessions))
	for id, ent := range r.sessions {
		entries = append(entries, ent)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if len(entries) == 0 {
		return
	}
	for _, ent := range entries {
		ent.sess.Close()
	}
	for _, ent := range entries {
		ent.sess.Wait()
	}
	r.log.Info("all sessions closed", "count", len(entries))
}
