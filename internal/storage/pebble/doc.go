// Package pebblestore provides a thin wrapper around Pebble with an fsync
// policy and a logger bridge. The raft log uses it as its on-disk key/value
// metadata store.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/raft-metadata.kv",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("term"), []byte{0, 0, 0, 3})
//	v, _ := db.Get([]byte("term"))
package pebblestore
