package config

const (
	envConfigDir = "OPENSEAT_CONFIG_DIR"
	envDataDir   = "OPENSEAT_DATA_DIR"
	envLogLevel  = "OPENSEAT_LOG_LEVEL"
)

type keySpec struct {
	key     string
	env     string
	apply   func(cfg *Config, v string)
	extract func(cfg Config) string
}

var specs = []keySpec{
	{
		key: "paths.config_dir", env: envConfigDir,
		apply:   func(cfg *Config, v string) { cfg.Paths.ConfigDir = v },
		extract: func(cfg Config) string { return cfg.Paths.ConfigDir },
	},
	{
		key: "paths.data_dir", env: envDataDir,
		apply:   func(cfg *Config, v string) { cfg.Paths.DataDir = v },
		extract: func(cfg Config) string { return cfg.Paths.DataDir },
	},
	{
		key: "log.level", env: envLogLevel,
		apply:   func(cfg *Config, v string) { cfg.Log.Level = v },
		extract: func(cfg Config) string { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	for _, s := range specs {
		if raw := getenv(s.env); raw != "" {
			s.apply(cfg, raw)
		}
	}
}
