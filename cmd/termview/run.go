package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/termview"
	"pkt.systems/termview/host"
	"pkt.systems/termview/internal/appconfig"
	"pkt.systems/termview/schema"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var dir string
	var logFile string
	cmd := &cobra.Command{
		Use:   "run [flags] [command...]",
		Short: "Run a session in the current terminal",
		Long: "Run hosts a session in the invoking terminal: the tty is switched\n" +
			"to raw mode and used as the display surface until the command exits.\n" +
			"Without arguments the configured command is spawned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			command := cfg.Command
			if len(args) > 0 {
				command = args
			}
			if dir != "" {
				cfg.Dir = dir
			}

			// The terminal is the render target; log lines would tear
			// frames. Logs go to a file when asked for, otherwise nowhere.
			logger, closeLog, err := runLogger(logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			inFd := int(os.Stdin.Fd())
			outFd := int(os.Stdout.Fd())
			if !term.IsTerminal(inFd) || !term.IsTerminal(outFd) {
				return errors.New("run needs an interactive terminal")
			}
			cols, rows, err := term.GetSize(outFd)
			if err != nil {
				return fmt.Errorf("terminal size: %w", err)
			}

			oldState, err := term.MakeRaw(inFd)
			if err != nil {
				return fmt.Errorf("raw mode: %w", err)
			}
			defer func() {
				_ = term.Restore(inFd, oldState)
				fmt.Fprintln(cmd.OutOrStdout())
			}()

			surface := host.NewSurface(localSurfaceID(), os.Stdout, rows, cols, cfg.SessionConfig())
			defer surface.Close()

			registry := termview.NewRegistry(logger)
			defer registry.CloseAll()
			sess, err := registry.Open(cmd.Context(), termview.Options{
				Command: command,
				Dir:     cfg.Dir,
				Term:    cfg.Term,
				Config:  cfg.SessionConfig(),
				Surface: surface,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			winch := make(chan os.Signal, 1)
			signal.Notify(winch, syscall.SIGWINCH)
			defer signal.Stop(winch)
			go func() {
				for range winch {
					if c, r, err := term.GetSize(outFd); err == nil {
						surface.UpdateClientSize(r, c)
					}
				}
			}()

			go host.PumpInput(os.Stdin, sess, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			select {
			case <-sess.Done():
			case <-ctx.Done():
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory for the command")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append structured logs to this file")
	return cmd
}

func runLogger(path string) (pslog.Logger, func(), error) {
	if path == "" {
		logger := pslog.NewWithOptions(io.Discard, pslog.Options{
			Mode:    pslog.ModeStructured,
			NoColor: true,
		})
		return logger, func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := pslog.NewWithOptions(file, pslog.Options{
		Mode:    pslog.ModeStructured,
		NoColor: true,
	})
	return logger, func() { _ = file.Close() }, nil
}

func localSurfaceID() schema.SurfaceID {
	return schema.SurfaceID(fmt.Sprintf("tty:%d", os.Getpid()))
}
