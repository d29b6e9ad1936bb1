package raftlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// metadataStore persists the small key/value map kept next to the log.
type metadataStore interface {
	get(key []byte) ([]byte, bool, error)
	set(key, value []byte) error
	sync() error
	close() error
}

// fileMetadata keeps the whole map in memory and rewrites the metadata file
// on every change. The new contents go to a temporary file that is renamed
// over the old one, so a crash mid-write leaves the previous map intact.
type fileMetadata struct {
	dir    string
	path   string
	doSync bool
	f      *os.File
	values map[string][]byte
}

func openFileMetadata(dir string, doSync bool) (*fileMetadata, error) {
	path := filepath.Join(dir, metadataFileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	values, err := decodeMetadata(b)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileMetadata{dir: dir, path: path, doSync: doSync, f: f, values: values}, nil
}

func (m *fileMetadata) get(key []byte) ([]byte, bool, error) {
	v, ok := m.values[string(key)]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *fileMetadata) set(key, value []byte) error {
	m.values[string(key)] = clone(value)
	return m.write()
}

func (m *fileMetadata) write() error {
	tmp := m.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(encodeMetadata(m.values)); err != nil {
		f.Close()
		return err
	}
	if m.doSync {
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	if err := os.Rename(tmp, m.path); err != nil {
		f.Close()
		return err
	}
	if m.doSync {
		if err := syncDir(m.dir); err != nil {
			f.Close()
			return err
		}
	}
	old := m.f
	m.f = f
	return old.Close()
}

func (m *fileMetadata) sync() error { return m.f.Sync() }

func (m *fileMetadata) close() error { return m.f.Close() }

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Metadata file layout, protobuf wire format:
//
//	repeated bytes entry = 1;  // each entry: bytes key = 1; bytes value = 2;
//
// Keys are written sorted so identical maps produce identical files. An empty
// file is an empty map.
const (
	fieldEntry = protowire.Number(1)
	fieldKey   = protowire.Number(1)
	fieldValue = protowire.Number(2)
)

func encodeMetadata(values map[string][]byte) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out, pair []byte
	for _, k := range keys {
		pair = pair[:0]
		pair = protowire.AppendTag(pair, fieldKey, protowire.BytesType)
		pair = protowire.AppendBytes(pair, []byte(k))
		pair = protowire.AppendTag(pair, fieldValue, protowire.BytesType)
		pair = protowire.AppendBytes(pair, values[k])
		out = protowire.AppendTag(out, fieldEntry, protowire.BytesType)
		out = protowire.AppendBytes(out, pair)
	}
	return out
}

func decodeMetadata(b []byte) (map[string][]byte, error) {
	values := make(map[string][]byte)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, protowire.ParseError(n))
		}
		b = b[n:]
		if num != fieldEntry || typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: unexpected field %d (type %d)", ErrCorruptMetadata, num, typ)
		}
		pair, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, protowire.ParseError(n))
		}
		b = b[n:]
		key, value, err := decodePair(pair)
		if err != nil {
			return nil, err
		}
		values[string(key)] = value
	}
	return values, nil
}

func decodePair(b []byte) (key, value []byte, err error) {
	var haveKey bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			return nil, nil, fmt.Errorf("%w: unexpected wire type %d", ErrCorruptMetadata, typ)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldKey:
			key, haveKey = clone(v), true
		case fieldValue:
			value = clone(v)
		}
	}
	if !haveKey {
		return nil, nil, fmt.Errorf("%w: entry without key", ErrCorruptMetadata)
	}
	if value == nil {
		value = []byte{}
	}
	return key, value, nil
}
