// Package sshbridge serves registry sessions to SSH clients. The
// client terminal is the display surface: the sync engine paints onto
// it through the host package, and every byte the client types is
// decoded into keystrokes for the embedded shell.
package sshbridge

import (
	"context"
	"errors"
	"io"
	"net"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"
	"pkt.systems/pslog"

	"pkt.systems/termview"
	"pkt.systems/termview/core"
	"pkt.systems/termview/host"
	"pkt.systems/termview/schema"
)

// Server exposes the registry over SSH. Each accepted connection gets
// a freshly spawned command rendered onto the client's terminal.
type Server struct {
	Addr           string
	HostKeyPath    string
	AuthorizedKeys string
	// Listener, when set, overrides Addr.
	Listener net.Listener
	Registry *termview.Registry
	// Command, Dir, Term and Config configure every spawned session.
	Command []string
	Dir     string
	Term    string
	Config  schema.SessionConfig
	Events  core.EventSink

	logger pslog.Logger
	keys   *keyring
}

// ListenAndServe starts the SSH bridge and shuts down when ctx is
// canceled. The host key is created on first start.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Registry == nil {
		return errors.New("session registry is required")
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}
	keys, err := loadAuthorizedKeys(s.AuthorizedKeys)
	if err != nil {
		return err
	}
	s.keys = keys
	if keys.empty() {
		s.logger.Warn("ssh bridge accepts any public key", "authorized_keys", s.AuthorizedKeys)
	}

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger.With("remote", remoteAddr(ctx), "user", ctx.User(), "fingerprint", ssh.FingerprintSHA256(key))
	if s.keys.empty() {
		log.Info("ssh pubkey accepted", "reason", "no authorized keys configured")
		return true
	}
	if s.keys.contains(key) {
		log.Info("ssh pubkey accepted")
		return true
	}
	log.Warn("ssh pubkey rejected", "reason", "no matching key")
	return false
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger.With("remote", sess.RemoteAddr().String(), "user", sess.User())

	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		_ = sess.Exit(1)
		return
	}

	surface := host.NewSurface(surfaceID(sess), sess, ptyReq.Window.Height, ptyReq.Window.Width, s.Config)
	defer surface.Close()

	open, err := s.Registry.Open(sess.Context(), termview.Options{
		Command: s.Command,
		Dir:     s.Dir,
		Term:    s.Term,
		Config:  s.Config,
		Surface: surface,
		Events:  s.Events,
		Logger:  log,
	})
	if err != nil {
		log.Error("ssh session open failed", "err", err)
		_, _ = io.WriteString(sess, "session open failed\n")
		_ = sess.Exit(1)
		return
	}
	log = log.With("session", open.ID())
	log.Info("ssh session opened", "term", ptyReq.Term,
		"rows", ptyReq.Window.Height, "cols", ptyReq.Window.Width,
		"open", len(s.Registry.List()))

	// Window changes land on the surface; the engine notices the new
	// size on its next tick and resizes pty and grid.
	go func() {
		for win := range winCh {
			surface.UpdateClientSize(win.Height, win.Width)
		}
	}()
	// A session that stops on its own (shell exit, surface failure)
	// hangs up the connection so the client is not left on a dead
	// screen.
	go func() {
		select {
		case <-open.Done():
			_ = sess.Exit(0)
		case <-sess.Context().Done():
		}
	}()

	host.PumpInput(sess, open, log)

	if err := s.Registry.Close(open.ID()); err != nil && !errors.Is(err, schema.ErrSessionNotFound) {
		log.Warn("ssh session close failed", "err", err)
	}
	log.Info("ssh session closed", "open", len(s.Registry.List()))
}

// surfaceID derives a stable surface identity from the SSH session.
func surfaceID(sess gliderssh.Session) schema.SurfaceID {
	if id := sess.Context().SessionID(); id != "" {
		if len(id) > 12 {
			id = id[:12]
		}
		return schema.SurfaceID("ssh:" + id)
	}
	return schema.SurfaceID("ssh:" + sess.RemoteAddr().String())
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}
