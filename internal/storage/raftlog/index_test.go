package raftlog

import (
	"bytes"
	"testing"
)

func TestBuildIndex(t *testing.T) {
	raw := []byte{
		0, 0, 0, 3, 'a', 'b', 'c',
		0, 0, 0, 0,
		0, 0, 0, 1, 'z',
	}
	rec, err := buildIndex(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []position{{offset: 4, length: 3}, {offset: 11, length: 0}, {offset: 15, length: 1}}
	if len(rec.index) != len(want) {
		t.Fatalf("got %d positions want %d", len(rec.index), len(want))
	}
	for i := range want {
		if rec.index[i] != want[i] {
			t.Fatalf("position %d: got %+v want %+v", i, rec.index[i], want[i])
		}
	}
	if rec.valid != int64(len(raw)) || rec.torn != 0 {
		t.Fatalf("valid %d torn %d", rec.valid, rec.torn)
	}
}

func TestBuildIndexTorn(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		entries int
		valid   int64
	}{
		{"empty", nil, 0, 0},
		{"short prefix", []byte{0, 0}, 0, 0},
		{"short payload", []byte{0, 0, 0, 1, 'a', 0, 0, 0, 4, 'b'}, 1, 5},
		{"huge length", []byte{0xff, 0xff, 0xff, 0xff, 'x'}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := buildIndex(bytes.NewReader(tt.raw), int64(len(tt.raw)))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if len(rec.index) != tt.entries || rec.valid != tt.valid {
				t.Fatalf("entries %d valid %d, want %d %d", len(rec.index), rec.valid, tt.entries, tt.valid)
			}
			if rec.torn != int64(len(tt.raw))-tt.valid {
				t.Fatalf("torn %d", rec.torn)
			}
		})
	}
}
