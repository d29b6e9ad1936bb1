package raftlog

import (
	"fmt"
	"math"
	"sync"
)

// Memory is a volatile, slice-backed Store. It is the reference
// implementation the durable backend is tested against.
type Memory struct {
	mu        sync.RWMutex
	log       [][]byte
	committed uint64
	size      uint64
	metadata  map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{metadata: make(map[string][]byte)}
}

func (m *Memory) String() string { return BackendMemory }

func (m *Memory) Append(entry []byte) (uint64, error) {
	if uint64(len(entry)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, len(entry))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, clone(entry))
	return uint64(len(m.log)), nil
}

func (m *Memory) Commit(index uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index > uint64(len(m.log)) {
		return fmt.Errorf("%w %d", ErrCommitOutOfRange, index)
	}
	if index < m.committed {
		return fmt.Errorf("%w %d", ErrCommitRegression, m.committed)
	}
	for _, e := range m.log[m.committed:index] {
		m.size += recordHeaderSize + uint64(len(e))
	}
	m.committed = index
	return nil
}

func (m *Memory) Committed() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.committed
}

func (m *Memory) Get(index uint64) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index == 0 || index > uint64(len(m.log)) {
		return nil, false, nil
	}
	return clone(m.log[index-1]), true, nil
}

func (m *Memory) Len() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.log))
}

func (m *Memory) Scan(r Range) Scan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start, end, ok := r.window(uint64(len(m.log)))
	if !ok {
		return newSliceScan(nil)
	}
	// skip start-1, take end-start+1
	return newSliceScan(append([][]byte(nil), m.log[start-1:end]...))
}

// Size reports the framed size the committed prefix would occupy on disk, so
// both backends agree on the figure.
func (m *Memory) Size() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *Memory) Truncate(index uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < m.committed {
		return 0, fmt.Errorf("%w %d", ErrTruncateCommitted, m.committed)
	}
	if index < uint64(len(m.log)) {
		for i := index; i < uint64(len(m.log)); i++ {
			m.log[i] = nil
		}
		m.log = m.log[:index]
	}
	return uint64(len(m.log)), nil
}

func (m *Memory) GetMetadata(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.metadata[string(key)]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *Memory) SetMetadata(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[string(key)] = clone(value)
	return nil
}

func (m *Memory) IsEmpty() bool { return m.Len() == 0 }

func (m *Memory) Close() error { return nil }
