package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/0fflineDocs/Cipher/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View Cipher configuration",
	Long: `View Cipher configuration.

Without arguments, displays the current configuration.
Use 'config init' to create a commented config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/cipher/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "api:")
	fmt.Fprintf(out, "  base_url: %s\n", cfg.API.BaseURL)
	fmt.Fprintf(out, "  request_timeout_seconds: %d\n", cfg.API.RequestTimeoutSeconds)

	fmt.Fprintln(out, "council:")
	fmt.Fprintf(out, "  members: %s\n", strings.Join(cfg.Council.Members, ", "))
	fmt.Fprintf(out, "  chairman: %s\n", cfg.Council.Chairman)
	fmt.Fprintf(out, "  max_members: %d\n", cfg.Council.MaxMembers)

	fmt.Fprintln(out, "debate:")
	fmt.Fprintf(out, "  num_rounds: %d\n", cfg.Debate.NumRounds)
	fmt.Fprintf(out, "  max_rounds: %d\n", cfg.Debate.MaxRounds)
	fmt.Fprintf(out, "  moderator: %s\n", cfg.Debate.Moderator)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.ResolveDir())

	fmt.Fprintln(out, "output:")
	fmt.Fprintf(out, "  color: %s\n", cfg.Output.Color)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	if err := config.WriteDefaultFile(configFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize Cipher's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_API_BASE_URL)\n", config.EnvPrefix, config.EnvPrefix)
	fmt.Fprintf(out, "Presets: %s\n", config.PresetDir())

	return nil
}
