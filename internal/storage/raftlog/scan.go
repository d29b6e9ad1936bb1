package raftlog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// hybridScan drains committed records from the file first, then the
// uncommitted snapshot taken when the scan was created.
type hybridScan struct {
	// file phase
	file      io.Reader
	br        *bufio.Reader
	positions []position

	// memory phase
	memory [][]byte

	cur    []byte
	err    error
	closed bool
}

func (s *hybridScan) Next() bool {
	s.cur = nil
	if s.err != nil || s.closed {
		return false
	}
	if len(s.positions) > 0 {
		entry, err := s.readRecord(s.positions[0])
		if err != nil {
			s.err = err
			return false
		}
		s.positions = s.positions[1:]
		s.cur = entry
		return true
	}
	if len(s.memory) > 0 {
		s.cur = clone(s.memory[0])
		s.memory[0] = nil
		s.memory = s.memory[1:]
		return true
	}
	return false
}

// readRecord reads the next length-prefixed record and checks it against the
// indexed length.
func (s *hybridScan) readRecord(want position) ([]byte, error) {
	if s.br == nil {
		s.br = bufio.NewReader(s.file)
	}
	var prefix [recordHeaderSize]byte
	if _, err := io.ReadFull(s.br, prefix[:]); err != nil {
		return nil, eofErr(err)
	}
	if n := binary.BigEndian.Uint32(prefix[:]); n != want.length {
		return nil, fmt.Errorf("%w: offset %d has length %d, index says %d",
			ErrRecordMismatch, want.offset-recordHeaderSize, n, want.length)
	}
	entry := make([]byte, want.length)
	if _, err := io.ReadFull(s.br, entry); err != nil {
		return nil, eofErr(err)
	}
	return entry, nil
}

func (s *hybridScan) Entry() []byte { return s.cur }

func (s *hybridScan) Err() error { return s.err }

func (s *hybridScan) Close() error {
	s.closed = true
	s.positions = nil
	s.memory = nil
	s.cur = nil
	s.br = nil
	return nil
}
