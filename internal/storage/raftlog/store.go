package raftlog

import (
	"fmt"

	logpkg "github.com/jacksonyoudi/toydb/pkg/log"
)

// Store is a Raft log store. Entry indexes are 1-based; index 0 means "no
// entry". Entries at or below Committed are durable and immutable, entries
// above it may be discarded with Truncate.
//
// Ordering of Append, Commit and Truncate is the caller's responsibility.
type Store interface {
	fmt.Stringer

	// Append adds an uncommitted entry and returns its index (the new length).
	Append(entry []byte) (uint64, error)

	// Commit makes all entries up to and including index durable and
	// immutable. Committing the current committed index is a no-op.
	Commit(index uint64) error

	// Committed returns the highest committed index, or 0.
	Committed() uint64

	// Get fetches the entry at index. ok is false for index 0 or beyond Len.
	Get(index uint64) (entry []byte, ok bool, err error)

	// Len returns the number of entries, committed and uncommitted.
	Len() uint64

	// Scan iterates over the entries in r in index order.
	Scan(r Range) Scan

	// Size returns the durable footprint of the committed entries in bytes.
	Size() uint64

	// Truncate removes entries above index and returns the new length. It
	// fails if index is below the committed index.
	Truncate(index uint64) (uint64, error)

	GetMetadata(key []byte) (value []byte, ok bool, err error)
	SetMetadata(key, value []byte) error

	// IsEmpty reports whether Len is 0.
	IsEmpty() bool

	// Close releases the store. Durable backends attempt a final sync.
	Close() error
}

// Backend names accepted by Options.Backend.
const (
	BackendMemory = "memory"
	BackendHybrid = "hybrid"
)

// Metadata backends for the hybrid store.
const (
	MetadataFile   = "file"
	MetadataPebble = "pebble"
)

// Options configures Open.
type Options struct {
	// Backend is BackendMemory or BackendHybrid. Empty means hybrid.
	Backend string
	// Dir holds the log and metadata files of the hybrid backend.
	Dir string
	// Sync forces an fsync on every commit and metadata write.
	Sync bool
	// Metadata selects the hybrid metadata store: MetadataFile (default) or
	// MetadataPebble.
	Metadata string
	// StrictRecovery makes Open fail on a torn trailing record instead of
	// truncating it away.
	StrictRecovery bool
	// Logger is optional.
	Logger logpkg.Logger
}

// Open builds the backend selected by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendHybrid, "":
		return OpenHybrid(opts)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, opts.Backend)
	}
}

// Scan is a pull iterator over log entries.
//
//	s := store.Scan(raftlog.All())
//	defer s.Close()
//	for s.Next() {
//	    use(s.Entry())
//	}
//	if err := s.Err(); err != nil { ... }
type Scan interface {
	// Next advances to the next entry, returning false when the scan is
	// exhausted or failed.
	Next() bool
	// Entry returns the current entry. It is owned by the caller.
	Entry() []byte
	// Err returns the error that stopped the scan, if any.
	Err() error
	Close() error
}

// Collect drains s into a slice and closes it.
func Collect(s Scan) ([][]byte, error) {
	defer s.Close()
	var out [][]byte
	for s.Next() {
		out = append(out, s.Entry())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// sliceScan yields clones of an in-memory window.
type sliceScan struct {
	entries [][]byte
	cur     []byte
	err     error
}

func newSliceScan(entries [][]byte) *sliceScan { return &sliceScan{entries: entries} }

// errScan returns a Scan that yields nothing and reports err.
func errScan(err error) Scan { return &sliceScan{err: err} }

func (s *sliceScan) Next() bool {
	if s.err != nil || len(s.entries) == 0 {
		s.cur = nil
		return false
	}
	s.cur = clone(s.entries[0])
	s.entries[0] = nil
	s.entries = s.entries[1:]
	return true
}

func (s *sliceScan) Entry() []byte { return s.cur }
func (s *sliceScan) Err() error    { return s.err }

func (s *sliceScan) Close() error {
	s.entries = nil
	s.cur = nil
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func nopLogger(l logpkg.Logger) logpkg.Logger {
	if l == nil {
		return logpkg.NewNopLogger()
	}
	return l
}
