package raftlog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// recordHeaderSize is the length prefix in front of every record:
// [u32 big-endian length][payload].
const recordHeaderSize = 4

// position locates a committed entry's payload in the log file.
type position struct {
	offset int64 // payload start, just past the length prefix
	length uint32
}

func (p position) end() int64 { return p.offset + int64(p.length) }

// lockedFile serializes access to the log file. Reads and writes both move
// the shared seek cursor, so every seek+read and seek+write pair runs under mu.
type lockedFile struct {
	mu sync.Mutex
	f  *os.File
}

// readAt reads exactly n bytes starting at off.
func (lf *lockedFile) readAt(off int64, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if _, err := lf.f.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(lf.f, buf); err != nil {
		return nil, eofErr(err)
	}
	return buf, nil
}

// appendRecords writes entries as length-prefixed records at the end of the
// file, flushes, and fsyncs when sync is set. It returns the position of
// every written payload. The lock is held for the whole write so readers never
// observe a partial record.
func (lf *lockedFile) appendRecords(entries [][]byte, sync bool) ([]position, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	pos, err := lf.f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(lf.f)
	positions := make([]position, 0, len(entries))
	var prefix [recordHeaderSize]byte
	for _, e := range entries {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(e)))
		if _, err := w.Write(prefix[:]); err != nil {
			return nil, err
		}
		pos += recordHeaderSize
		positions = append(positions, position{offset: pos, length: uint32(len(e))})
		if _, err := w.Write(e); err != nil {
			return nil, err
		}
		pos += int64(len(e))
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	if sync {
		if err := lf.f.Sync(); err != nil {
			return nil, err
		}
	}
	return positions, nil
}

// reader returns an io.Reader starting at off. It keeps its own offset and
// takes the file lock for every read, so a long-lived scan does not block
// commits for its whole lifetime.
func (lf *lockedFile) reader(off int64) io.Reader {
	return &cursorReader{lf: lf, off: off}
}

func (lf *lockedFile) sync() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.f.Sync()
}

func (lf *lockedFile) close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.f.Close()
}

type cursorReader struct {
	lf  *lockedFile
	off int64
}

func (r *cursorReader) Read(p []byte) (int, error) {
	r.lf.mu.Lock()
	defer r.lf.mu.Unlock()
	if _, err := r.lf.f.Seek(r.off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := r.lf.f.Read(p)
	r.off += int64(n)
	return n, err
}

// eofErr maps short reads onto ErrUnexpectedEOF.
func eofErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	return err
}
