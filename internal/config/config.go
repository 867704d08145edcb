package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName is the directory name used under the platform config and data dirs.
const AppName = "openseat"

// SettingsFile is the name of the user settings document inside ConfigDir.
const SettingsFile = "config.json"

type Config struct {
	Paths PathsConfig
	Log   LogConfig
}

type PathsConfig struct {
	ConfigDir string
	DataDir   string
}

type LogConfig struct {
	Level string
}

// SettingsPath returns the location of the user settings document.
func (c Config) SettingsPath() string {
	return filepath.Join(c.Paths.ConfigDir, SettingsFile)
}

func defaults() Config {
	return Config{
		Paths: PathsConfig{
			ConfigDir: defaultConfigDir(),
			DataDir:   defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultConfigDir follows the platform convention for per-user
// configuration: $XDG_CONFIG_HOME on Linux, ~/Library/Application Support
// on macOS, %AppData% on Windows.
func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName)
}

// Load resolves runtime configuration from platform defaults and
// OPENSEAT_* environment variables.
func Load() (Config, error) {
	return loadWith(os.Getenv)
}

func loadWith(getenv func(string) string) (Config, error) {
	cfg := defaults()

	applyEnvOverrides(&cfg, getenv)

	if cfg.Paths.ConfigDir == "" {
		return Config{}, fmt.Errorf("cannot determine config directory; set %s", envConfigDir)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", cfg.Log.Level)
	}

	return cfg, nil
}
