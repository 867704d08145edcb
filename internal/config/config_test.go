package config

import (
	"path/filepath"
	"strings"
	"testing"
)

// fakeEnv returns a getenv func backed by a map.
func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

// TestDefaults verifies default values when no environment overrides are set.
func TestDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/test/.config")
	t.Setenv("HOME", "/home/test")

	cfg, err := loadWith(fakeEnv(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if filepath.Base(cfg.Paths.ConfigDir) != AppName {
		t.Errorf("Paths.ConfigDir = %q, want it to end in %q", cfg.Paths.ConfigDir, AppName)
	}
	if filepath.Base(cfg.Paths.DataDir) != AppName {
		t.Errorf("Paths.DataDir = %q, want it to end in %q", cfg.Paths.DataDir, AppName)
	}
	if got, want := cfg.SettingsPath(), filepath.Join(cfg.Paths.ConfigDir, "config.json"); got != want {
		t.Errorf("SettingsPath() = %q, want %q", got, want)
	}
}

// TestEnvOverride verifies that environment variables override defaults.
func TestEnvOverride(t *testing.T) {
	cfg, err := loadWith(fakeEnv(map[string]string{
		"OPENSEAT_CONFIG_DIR": "/tmp/openseat-conf",
		"OPENSEAT_DATA_DIR":   "/tmp/openseat-data",
		"OPENSEAT_LOG_LEVEL":  "debug",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Paths.ConfigDir != "/tmp/openseat-conf" {
		t.Errorf("Paths.ConfigDir = %q", cfg.Paths.ConfigDir)
	}
	if cfg.Paths.DataDir != "/tmp/openseat-data" {
		t.Errorf("Paths.DataDir = %q", cfg.Paths.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.SettingsPath() != filepath.Join("/tmp/openseat-conf", "config.json") {
		t.Errorf("SettingsPath() = %q", cfg.SettingsPath())
	}
}

// TestInvalidLogLevel verifies a clear error for an unknown log level.
func TestInvalidLogLevel(t *testing.T) {
	_, err := loadWith(fakeEnv(map[string]string{
		"OPENSEAT_CONFIG_DIR": "/tmp/openseat-conf",
		"OPENSEAT_LOG_LEVEL":  "loud",
	}))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %q, want it to mention the log level", err)
	}
}

func TestShowAll(t *testing.T) {
	cfg := Config{
		Paths: PathsConfig{ConfigDir: "/c", DataDir: "/d"},
		Log:   LogConfig{Level: "warn"},
	}

	got := map[string]KeyInfo{}
	for _, k := range ShowAll(cfg) {
		got[k.Key] = k
	}

	if len(got) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d keys, ValidKeys %d", len(got), len(ValidKeys()))
	}
	if k := got["paths.config_dir"]; k.Value != "/c" || k.EnvVar != "OPENSEAT_CONFIG_DIR" {
		t.Errorf("paths.config_dir = %+v", k)
	}
	if k := got["paths.data_dir"]; k.Value != "/d" {
		t.Errorf("paths.data_dir = %+v", k)
	}
	if k := got["log.level"]; k.Value != "warn" {
		t.Errorf("log.level = %+v", k)
	}
}
