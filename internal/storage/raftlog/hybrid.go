package raftlog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	logpkg "github.com/jacksonyoudi/toydb/pkg/log"
)

const (
	logFileName       = "raft-log"
	metadataFileName  = "raft-metadata"
	kvMetadataDirName = "raft-metadata.kv"
)

// Hybrid stores committed entries in an append-only file and uncommitted
// entries in memory. Metadata lives in a separate store.
//
// The log file is a sequence of records, each a big-endian u32 length followed
// by the payload. Entries only reach the file once committed, so the file is
// never rewritten. The index of record positions is rebuilt by scanning the
// file on open rather than persisted, which would cost an extra fsync per
// commit.
type Hybrid struct {
	dir    string
	sync   bool
	logger logpkg.Logger

	mu          sync.RWMutex
	file        *lockedFile
	index       []position // index i lives at index[i-1]
	uncommitted [][]byte
	meta        metadataStore
	closed      bool
}

var _ Store = (*Hybrid)(nil)

// OpenHybrid creates or opens a hybrid log in opts.Dir.
func OpenHybrid(opts Options) (*Hybrid, error) {
	if opts.Dir == "" {
		return nil, errors.New("raftlog: Options.Dir is required")
	}
	logger := nopLogger(opts.Logger).With(logpkg.Component("raftlog"), logpkg.Str("dir", opts.Dir))
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(logPath(opts.Dir), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	rec, err := recoverLog(f, opts, logger)
	if err != nil {
		f.Close()
		return nil, err
	}

	var meta metadataStore
	switch opts.Metadata {
	case MetadataFile, "":
		meta, err = openFileMetadata(opts.Dir, opts.Sync)
	case MetadataPebble:
		meta, err = openKVMetadata(opts.Dir, opts.Sync, logger)
	default:
		err = fmt.Errorf("raftlog: unknown metadata backend %q", opts.Metadata)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	h := &Hybrid{
		dir:    opts.Dir,
		sync:   opts.Sync,
		logger: logger,
		file:   &lockedFile{f: f},
		index:  rec.index,
		meta:   meta,
	}
	logger.Info("raft log opened",
		logpkg.Uint64("entries", uint64(len(rec.index))),
		logpkg.Int64("bytes", rec.valid),
		logpkg.Bool("sync", opts.Sync),
	)
	return h, nil
}

// recoverLog rebuilds the index and drops a torn trailing record.
func recoverLog(f *os.File, opts Options, logger logpkg.Logger) (recovered, error) {
	st, err := f.Stat()
	if err != nil {
		return recovered{}, err
	}
	rec, err := buildIndex(f, st.Size())
	if err != nil {
		return recovered{}, err
	}
	if rec.torn == 0 {
		return rec, nil
	}
	if opts.StrictRecovery {
		return recovered{}, fmt.Errorf("%w: %d trailing bytes after entry %d", ErrUnexpectedEOF, rec.torn, len(rec.index))
	}
	logger.Warn("discarding torn record at end of log",
		logpkg.Int64("offset", rec.valid),
		logpkg.Int64("bytes", rec.torn),
	)
	if err := f.Truncate(rec.valid); err != nil {
		return recovered{}, err
	}
	if opts.Sync {
		if err := f.Sync(); err != nil {
			return recovered{}, err
		}
	}
	return rec, nil
}

func logPath(dir string) string { return filepath.Join(dir, logFileName) }

func (h *Hybrid) String() string { return BackendHybrid }

func (h *Hybrid) Append(entry []byte) (uint64, error) {
	if uint64(len(entry)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, len(entry))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	h.uncommitted = append(h.uncommitted, clone(entry))
	return h.length(), nil
}

func (h *Hybrid) Commit(index uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	committed := uint64(len(h.index))
	if index > h.length() {
		return fmt.Errorf("%w %d", ErrCommitOutOfRange, index)
	}
	if index < committed {
		return fmt.Errorf("%w %d", ErrCommitRegression, committed)
	}
	if index == committed {
		return nil
	}

	n := index - committed
	if uint64(len(h.uncommitted)) < n {
		return ErrUncommittedExhausted
	}
	positions, err := h.file.appendRecords(h.uncommitted[:n], h.sync)
	if err != nil {
		return fmt.Errorf("raftlog: commit %d: %w", index, err)
	}
	h.index = append(h.index, positions...)
	for i := uint64(0); i < n; i++ {
		h.uncommitted[i] = nil
	}
	h.uncommitted = h.uncommitted[n:]
	h.logger.Debug("committed entries",
		logpkg.Uint64("from", committed+1),
		logpkg.Uint64("to", index),
	)
	return nil
}

func (h *Hybrid) Committed() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return uint64(len(h.index))
}

func (h *Hybrid) Get(index uint64) ([]byte, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, false, ErrClosed
	}
	committed := uint64(len(h.index))
	switch {
	case index == 0:
		return nil, false, nil
	case index <= committed:
		pos := h.index[index-1]
		entry, err := h.file.readAt(pos.offset, pos.length)
		if err != nil {
			return nil, false, fmt.Errorf("raftlog: read entry %d: %w", index, err)
		}
		return entry, true, nil
	case index-committed <= uint64(len(h.uncommitted)):
		return clone(h.uncommitted[index-committed-1]), true, nil
	default:
		return nil, false, nil
	}
}

func (h *Hybrid) Len() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.length()
}

func (h *Hybrid) length() uint64 {
	return uint64(len(h.index)) + uint64(len(h.uncommitted))
}

// Scan reads committed entries lazily from the file and then the uncommitted
// entries that were in memory when Scan was called.
func (h *Hybrid) Scan(r Range) Scan {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errScan(ErrClosed)
	}
	start, end, ok := r.window(h.length())
	if !ok {
		return newSliceScan(nil)
	}
	committed := uint64(len(h.index))

	s := &hybridScan{}
	if start <= committed {
		last := min(end, committed)
		s.positions = h.index[start-1 : last]
		first := h.index[start-1]
		s.file = h.file.reader(first.offset - recordHeaderSize)
	}
	if end > committed {
		from := max(start, committed+1)
		s.memory = append([][]byte(nil), h.uncommitted[from-committed-1:end-committed]...)
	}
	return s
}

// Size is the end offset of the last committed record. Uncommitted entries
// have no on-disk footprint.
func (h *Hybrid) Size() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.index) == 0 {
		return 0
	}
	return uint64(h.index[len(h.index)-1].end())
}

func (h *Hybrid) Truncate(index uint64) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	committed := uint64(len(h.index))
	if index < committed {
		return 0, fmt.Errorf("%w %d", ErrTruncateCommitted, committed)
	}
	if keep := index - committed; keep < uint64(len(h.uncommitted)) {
		for i := keep; i < uint64(len(h.uncommitted)); i++ {
			h.uncommitted[i] = nil
		}
		h.uncommitted = h.uncommitted[:keep]
	}
	return h.length(), nil
}

func (h *Hybrid) GetMetadata(key []byte) ([]byte, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, false, ErrClosed
	}
	return h.meta.get(key)
}

func (h *Hybrid) SetMetadata(key, value []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if err := h.meta.set(key, value); err != nil {
		return fmt.Errorf("raftlog: set metadata: %w", err)
	}
	return nil
}

func (h *Hybrid) IsEmpty() bool { return h.Len() == 0 }

// Close makes a best-effort attempt to sync both files, then closes them.
// Sync failures are ignored; uncommitted entries are dropped.
func (h *Hybrid) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	_ = h.meta.sync()
	_ = h.file.sync()
	h.uncommitted = nil
	return errors.Join(h.file.close(), h.meta.close())
}
