// Package raftlog implements the log store underneath toydb's Raft
// replication.
//
// # Overview
//
// A Store holds an append-only sequence of opaque entries addressed by 1-based
// indexes, plus a small metadata map (term, vote) that is independent of the
// entries. Entries are appended uncommitted, then a prefix is committed, after
// which it is durable and immutable. Only the uncommitted suffix may be
// truncated.
//
// Two backends implement Store:
//   - Memory keeps everything in a slice. Nothing is persisted.
//   - Hybrid writes committed entries to an append-only file and keeps
//     uncommitted entries in memory.
//
// On-disk layout of a Hybrid directory:
//
//	raft-log          [u32 BE length][payload] records, append-only, no header
//	raft-metadata     whole metadata map, protobuf wire format, replaced atomically
//	raft-metadata.kv  Pebble database, only with Options.Metadata = "pebble"
//
// The position index is rebuilt on open by scanning raft-log from offset 0. A
// torn trailing record left by a crash during commit is truncated away (or
// rejected with StrictRecovery).
//
// # Usage
//
//	s, err := raftlog.Open(raftlog.Options{Backend: raftlog.BackendHybrid, Dir: dir, Sync: true})
//	if err != nil { /* handle */ }
//	defer s.Close()
//
//	idx, _ := s.Append([]byte("set x=1"))
//	_ = s.Commit(idx)
//	entries, _ := raftlog.Collect(s.Scan(raftlog.From(1)))
//	_ = s.SetMetadata([]byte("term"), []byte{0, 0, 0, 0, 0, 0, 0, 2})
package raftlog
