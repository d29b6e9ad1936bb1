package logtool

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/jacksonyoudi/toydb/internal/config"
	"github.com/jacksonyoudi/toydb/internal/storage/raftlog"
	logpkg "github.com/jacksonyoudi/toydb/pkg/log"
)

// NewRoot constructs the toydb-log root command with all subcommands.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "toydb-log",
		Short:         "Inspect and seed a toydb Raft log directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (.json, .yaml)")
	pf.String("data-dir", "", "Log directory (default from config or OS data dir)")
	pf.String("backend", "", "Store backend: hybrid|memory")
	pf.Bool("sync", true, "Fsync every commit and metadata write")
	pf.String("metadata", "", "Metadata store: file|pebble")
	pf.Bool("strict", false, "Fail on a torn trailing record instead of repairing it")
	pf.String("log-level", "", "Log level: debug|info|warn|error")
	pf.String("log-format", "", "Log format: text|json")

	root.AddCommand(
		newInfoCommand(),
		newScanCommand(),
		newAppendCommand(),
		newMetaCommand(),
		newCheckCommand(),
	)
	return root
}

// loadConfig layers defaults, the config file, TOYDB_* env vars and finally
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)

	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("sync") {
		cfg.Sync, _ = flags.GetBool("sync")
	}
	if flags.Changed("metadata") {
		cfg.Metadata, _ = flags.GetString("metadata")
	}
	if flags.Changed("strict") {
		cfg.StrictRecovery, _ = flags.GetBool("strict")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	return cfg, cfg.Validate()
}

// withStore opens the configured store, runs fn, and closes the store.
func withStore(cmd *cobra.Command, fn func(raftlog.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logpkg.ApplyConfig(&cfg.Log)
	if err != nil {
		return err
	}
	store, err := raftlog.Open(cfg.StoreOptions(logger))
	if err != nil {
		return fmt.Errorf("open %s log: %w", cfg.Backend, err)
	}
	defer store.Close()
	return fn(store)
}
