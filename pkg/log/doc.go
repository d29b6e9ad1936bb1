// Package log provides toydb's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records are routed through log/slog via a
// bridge handler that hands them to our own formatter and outputs, so storage
// code logs the same way regardless of where the output ends up.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.WithComponent("raftlog")
//	l.Info("log opened", log.Str("dir", "/var/lib/toydb"), log.Uint64("entries", 42))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level and text/json
// format). NewNopLogger returns a logger that discards everything and is the
// default for library code that was not handed one.
package log
