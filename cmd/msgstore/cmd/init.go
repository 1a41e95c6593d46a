/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with a generated API key",
		Long: `Bootstrap a msgstore configuration for local development.

This command will:
- Write a config file with default settings
- Generate an API key for the REST API
- Create the data directory

Examples:
  msgstore init
  msgstore init --config ./msgstore.yaml --data-dir ./data --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg := configFrom(cmd)

			if config.ConfigExists(configPath) && !force {
				cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", configPath)
				return nil
			}

			created, err := config.BootstrapConfig(configPath, cfg.DataDir)
			if err != nil {
				return err
			}

			stack, err := container.OpenStack(created)
			if err != nil {
				return err
			}
			if err := stack.Close(); err != nil {
				return err
			}

			cmd.Printf("✅ msgstore initialized\n")
			cmd.Printf("Config file: %s\n", configPath)
			cmd.Printf("Data directory: %s\n", created.DataDir)
			cmd.Printf("API key: %s\n", created.Security.APIKey)
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  msgstore serve --config %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
