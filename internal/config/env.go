package config

import (
	"os"
	"strconv"
)

// FromEnv overlays TOYDB_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("TOYDB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TOYDB_LOG_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TOYDB_LOG_SYNC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Sync = b
		}
	}
	if v := os.Getenv("TOYDB_LOG_METADATA"); v != "" {
		cfg.Metadata = v
	}
	if v := os.Getenv("TOYDB_LOG_STRICT_RECOVERY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictRecovery = b
		}
	}
	if v := os.Getenv("TOYDB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TOYDB_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
