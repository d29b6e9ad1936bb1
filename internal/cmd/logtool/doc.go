// Package logtool contains the Cobra commands of toydb-log, an operator tool
// for inspecting and seeding a Raft log directory offline. Uncommitted entries
// never outlive a process, so the tool only exposes operations that make sense
// against the durable state: reading entries, appending-and-committing,
// metadata access, and a read-only integrity check.
package logtool
