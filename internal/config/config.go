package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/jacksonyoudi/toydb/internal/storage/raftlog"
	logpkg "github.com/jacksonyoudi/toydb/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the directory holding raft-log and raft-metadata.
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Backend is "hybrid" or "memory".
	Backend string `json:"backend" yaml:"backend"`
	// Sync fsyncs every commit and metadata write.
	Sync bool `json:"sync" yaml:"sync"`
	// Metadata is "file" or "pebble".
	Metadata string `json:"metadata" yaml:"metadata"`
	// StrictRecovery refuses to open a log with a torn trailing record.
	StrictRecovery bool          `json:"strictRecovery" yaml:"strictRecovery"`
	Log            logpkg.Config `json:"log" yaml:"log"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Backend:  raftlog.BackendHybrid,
		Sync:     true,
		Metadata: raftlog.MetadataFile,
		Log: logpkg.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Backend {
	case raftlog.BackendHybrid, raftlog.BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Metadata {
	case raftlog.MetadataFile, raftlog.MetadataPebble:
	default:
		return fmt.Errorf("config: unknown metadata store %q", c.Metadata)
	}
	if c.Backend == raftlog.BackendHybrid && c.DataDir == "" {
		return fmt.Errorf("config: dataDir is required for the hybrid backend")
	}
	return nil
}

// StoreOptions converts the configuration into raftlog options.
func (c Config) StoreOptions(logger logpkg.Logger) raftlog.Options {
	return raftlog.Options{
		Backend:        c.Backend,
		Dir:            c.DataDir,
		Sync:           c.Sync,
		Metadata:       c.Metadata,
		StrictRecovery: c.StrictRecovery,
		Logger:         logger,
	}
}
