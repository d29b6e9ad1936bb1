// Package config provides loading and environment overlay for the toydb log
// tooling. It exposes a Default() baseline, JSON/YAML file loading, and a
// conversion into raftlog.Options.
//
// Example:
//
//	cfg, err := config.Load("/etc/toydb/log.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	store, _ := raftlog.Open(cfg.StoreOptions(logger))
//	defer store.Close()
package config
