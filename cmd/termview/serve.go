package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termview"
	"pkt.systems/termview/internal/appconfig"
	"pkt.systems/termview/internal/eventbus"
	"pkt.systems/termview/schema"
	"pkt.systems/termview/sshbridge"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve shell sessions to SSH clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SSH.Addr = addr
			}

			registry := termview.NewRegistry(logger)
			defer registry.CloseAll()

			bus := eventbus.New(logger)
			events, cancel := bus.SubscribeAll()
			defer cancel()
			go tailSessionEvents(logger, events)

			server := &sshbridge.Server{
				Addr:           cfg.SSH.Addr,
				HostKeyPath:    cfg.SSH.HostKeyPath,
				AuthorizedKeys: cfg.SSH.AuthorizedKeys,
				Registry:       registry,
				Command:        cfg.Command,
				Dir:            cfg.Dir,
				Term:           cfg.Term,
				Config:         cfg.SessionConfig(),
				Events:         bus,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("ssh bridge listening", "addr", cfg.SSH.Addr, "command", cfg.Command[0])
			return server.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides ssh.addr")
	return cmd
}

// tailSessionEvents logs the lifecycle stream so the serve log shows
// every session coming and going without per-connection plumbing.
func tailSessionEvents(logger pslog.Logger, events <-chan schema.SessionEvent) {
	for event := range events {
		log := logger.With("session", event.SessionID, "surface", event.SurfaceID)
		switch event.Type {
		case schema.SessionResized:
			log.Debug("session resized", "rows", event.Rows, "cols", event.Cols)
		default:
			log.Info("session " + string(event.Type))
		}
	}
}
