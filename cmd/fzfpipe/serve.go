package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paranoid-AF/fzfpipe/serve"
)

type serveFlags struct {
	statePath string
	noState   bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for finder selections and drive the editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statePath := flags.statePath
			if flags.noState {
				statePath = ""
			}
			return runServe(cmd.Context(), serve.Options{
				ConfigPath: root.configPath,
				StatePath:  statePath,
			})
		},
	}
	cmd.Flags().StringVar(&flags.statePath, "state", serve.StatePath(), "where to publish the endpoint and finder commands")
	cmd.Flags().BoolVar(&flags.noState, "no-state", false, "do not write a state file")
	return cmd
}

func runServe(parent context.Context, opts serve.Options) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := serve.NewServer(opts)
	if err != nil {
		return err
	}
	defer srv.Close()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := srv.Reload(); err != nil {
					slog.Warn("reload failed, keeping previous config", "error", err)
				}
			}
		}
	}()

	slog.Info("ready", "endpoint", srv.Endpoint(), "degraded", srv.Degraded())
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}
