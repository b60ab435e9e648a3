package cmd

import (
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/tabloom-cli/internal/server"
	"github.com/KaramelBytes/tabloom-cli/internal/workflow"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload, EDA and training pages over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		defer func() { _ = logger.Sync() }()
		return server.New(workflow.New(cfg, logger), logger).Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}
