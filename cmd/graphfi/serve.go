package main

import (
	"time"

	"github.com/spf13/cobra"

	"graphfi/internal/cli"
	apphttp "graphfi/internal/http"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web editor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig(envFiles...)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger, err := cli.SetupLogger(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			srv, err := apphttp.NewServer(apphttp.OptionsFromConfig(cfg), logger)
			if err != nil {
				return err
			}
			srv.ReadTimeout = readTimeout
			srv.WriteTimeout = writeTimeout
			srv.IdleTimeout = idleTimeout
			srv.MaxHeaderBytes = 1 << 16 // 64KB

			logger.Info("Starting graphfi server",
				"addr", cfg.Addr(),
				"version", version,
				"export_scale", cfg.ExportScale)
			return cli.Serve(cmd.Context(), logger, srv, cli.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)
