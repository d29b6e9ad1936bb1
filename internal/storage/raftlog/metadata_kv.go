package raftlog

import (
	"errors"
	"path/filepath"

	pebblestore "github.com/jacksonyoudi/toydb/internal/storage/pebble"
	logpkg "github.com/jacksonyoudi/toydb/pkg/log"
)

// kvMetadata stores metadata in a Pebble database instead of a flat file, so
// a write costs one key rather than a rewrite of the whole map.
type kvMetadata struct {
	db *pebblestore.DB
}

func openKVMetadata(dir string, doSync bool, logger logpkg.Logger) (*kvMetadata, error) {
	mode := pebblestore.FsyncModeNever
	if doSync {
		mode = pebblestore.FsyncModeAlways
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: filepath.Join(dir, kvMetadataDirName),
		Fsync:   mode,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &kvMetadata{db: db}, nil
}

func (m *kvMetadata) get(key []byte) ([]byte, bool, error) {
	v, err := m.db.Get(key)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (m *kvMetadata) set(key, value []byte) error { return m.db.Set(key, value) }

func (m *kvMetadata) sync() error { return m.db.Flush() }

func (m *kvMetadata) close() error { return m.db.Close() }
