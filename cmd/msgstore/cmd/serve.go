/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the msgstore REST API server.

Flags override the config file, which overrides the built-in defaults.
Environment variables prefixed with MSGSTORE_ override the config file.

Examples:
  msgstore serve
  msgstore serve --port=8080 --api-key=mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind, _ = cmd.Flags().GetString("bind")
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			stack, err := container.OpenStack(cfg)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer stack.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Security.APIKey == "" {
				container.Logger().Warn("no API key configured, /api/v1 is unauthenticated")
			}

			starter := container.GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, stack.Service, stack.Memory, api.ServerConfig{
				Addr:   cfg.Addr(),
				APIKey: cfg.Security.APIKey,
			})
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	cmd.Flags().String("api-key", "", "API key required in the X-API-Key header")
	return cmd
}
