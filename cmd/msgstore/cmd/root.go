/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/config"
	"github.com/ssargent/msgstore/pkg/di"
	"github.com/ssargent/msgstore/pkg/service"
)

type configKey struct{}

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// NewRootCmd builds the msgstore command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "msgstore",
		Short: "msgstore - durable message store",
		Long: `msgstore keeps small text messages in a durable, partitioned
pebble database and serves them over a REST API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("dependency container not initialized")
			}

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Resolve(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
			}

			container.SetLogger(cfg.Logging.NewLogger(cmd.ErrOrStderr()))
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", config.GetDefaultConfigPath(), "Path to the config file")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the store")

	rootCmd.AddCommand(
		newGetCmd(),
		newAddCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newListCmd(),
		newServeCmd(),
		newInitCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

// withService opens the store for the duration of fn
func withService(cmd *cobra.Command, fn func(svc service.MessageService) error) error {
	stack, err := container.OpenStack(configFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer stack.Close()

	return fn(stack.Service)
}

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q", arg)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
