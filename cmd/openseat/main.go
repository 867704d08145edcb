package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openseat/openseat/internal/config"
	"github.com/openseat/openseat/internal/settings"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "openseat",
	Short:         "Backend for the openseat seat planner",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(localeCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		if hint := settingsFailureHint(err); hint != "" {
			printStep("%s", hint)
		}
		os.Exit(1)
	}
}

// setupLogging installs a text slog handler on stderr at the configured level.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadSettings resolves runtime config and opens the settings store. It is
// the single place the store gets constructed for a command invocation.
func loadSettings() (config.Config, *settings.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	setupLogging(cfg.Log.Level)

	store, err := settings.Open(cfg.SettingsPath())
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.Debug("settings loaded", "path", store.Path())
	return cfg, store, nil
}
