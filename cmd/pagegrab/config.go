package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pagegrab/pkg/config"
	"pagegrab/pkg/ui"
)

var forceInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pagegrab configuration",
	Long: `Manage pagegrab configuration files and settings.

Configuration sources, from lowest to highest precedence:
  1. Built-in defaults
  2. Config file (pagegrab.yaml)
  3. .env files
  4. PAGEGRAB_* environment variables
  5. Command line flags`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "pagegrab.yaml"
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}

		ui.PrintSuccess(fmt.Sprintf("Created configuration file: %s", path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Fprintln(ui.Output, "# Effective configuration")
		fmt.Fprintln(ui.Output, "# Sources: defaults, config file, .env, PAGEGRAB_* environment")
		fmt.Fprintln(ui.Output)
		fmt.Fprint(ui.Output, string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = config.FindConfigFile()
		}

		if _, err := config.Load(configFile, nil); err != nil {
			ui.PrintError("Configuration is invalid", err.Error())
			return err
		}

		if path != "" {
			ui.PrintInfo("Config file", path)
		} else {
			ui.PrintInfo("Config file", "none (defaults and environment only)")
		}
		ui.PrintSuccess("Configuration is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing config file")
}
