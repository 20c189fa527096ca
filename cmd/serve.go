package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues-agent/internal/agent"
	"github.com/spiffcs/ghissues-agent/internal/ghclient"
	"github.com/spiffcs/ghissues-agent/internal/log"
	"github.com/spiffcs/ghissues-agent/internal/server"
)

// NewCmdServe creates the serve command.
func NewCmdServe(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON-RPC agent endpoint",
		Long: `Start the HTTP server exposing:

  POST /rpc     JSON-RPC 2.0 (methods: message/send, execute)
  POST /        alias of /rpc
  GET  /health  health check

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Addr, "addr", "a", "", "Listen address (overrides config and PORT)")
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file on shutdown")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")

	return cmd
}

func runServe(ctx context.Context, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	prof := newProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := prof.Start(); err != nil {
		return err
	}
	defer prof.Stop()

	client, err := ghclient.NewClient(cfg.GitHub)
	if err != nil {
		return err
	}
	if !client.Authenticated() {
		log.Warn("GITHUB_TOKEN not set; using unauthenticated GitHub requests with a low rate limit")
	}

	log.Info("starting agent",
		"addr", cfg.Server.Addr,
		"github", cfg.GitHub.BaseURL,
		"default_state", cfg.GitHub.DefaultState)

	srv := server.New(cfg.Server, agent.New(client))
	return srv.Run(ctx)
}
