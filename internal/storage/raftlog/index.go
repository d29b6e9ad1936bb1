package raftlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// recovered is the result of scanning a log file from offset 0.
type recovered struct {
	index []position
	// valid is the offset just past the last complete record.
	valid int64
	// torn is the number of trailing bytes that do not form a complete record.
	torn int64
}

// buildIndex scans size bytes of r as consecutive length-prefixed records,
// assigning indexes 1, 2, ... in file order. A record whose prefix or payload
// runs past size is reported as torn rather than failing the scan.
func buildIndex(r io.Reader, size int64) (recovered, error) {
	br := bufio.NewReader(r)
	var (
		rec    recovered
		prefix [recordHeaderSize]byte
		pos    int64
	)
	for pos < size {
		if size-pos < recordHeaderSize {
			break
		}
		if _, err := io.ReadFull(br, prefix[:]); err != nil {
			return recovered{}, eofErr(err)
		}
		length := binary.BigEndian.Uint32(prefix[:])
		if pos+recordHeaderSize+int64(length) > size {
			break
		}
		if _, err := br.Discard(int(length)); err != nil {
			return recovered{}, eofErr(err)
		}
		pos += recordHeaderSize
		rec.index = append(rec.index, position{offset: pos, length: length})
		pos += int64(length)
	}
	rec.valid = pos
	rec.torn = size - pos
	return rec, nil
}

// Report summarizes a log file without opening a store on it.
type Report struct {
	Entries   uint64
	Bytes     int64
	TornBytes int64
}

// Inspect scans the log file in dir read-only. A missing file yields an empty
// report.
func Inspect(dir string) (Report, error) {
	f, err := os.Open(filepath.Join(dir, logFileName))
	if errors.Is(err, os.ErrNotExist) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return Report{}, err
	}
	rec, err := buildIndex(f, st.Size())
	if err != nil {
		return Report{}, err
	}
	return Report{Entries: uint64(len(rec.index)), Bytes: rec.valid, TornBytes: rec.torn}, nil
}
