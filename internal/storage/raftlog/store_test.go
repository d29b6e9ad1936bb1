package raftlog

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func factories() []storeFactory {
	return []storeFactory{
		{name: "memory", open: func(t *testing.T) Store { return NewMemory() }},
		{name: "hybrid", open: func(t *testing.T) Store { return newTestHybrid(t, t.TempDir(), Options{}) }},
		{name: "hybrid-pebble-meta", open: func(t *testing.T) Store {
			return newTestHybrid(t, t.TempDir(), Options{Metadata: MetadataPebble})
		}},
	}
}

// forEachBackend runs fn as a subtest against every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, f := range factories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			s := f.open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func appendEntries(t *testing.T, s Store, entries ...[]byte) {
	t.Helper()
	for _, e := range entries {
		if _, err := s.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func mustCommit(t *testing.T, s Store, index uint64) {
	t.Helper()
	if err := s.Commit(index); err != nil {
		t.Fatalf("commit %d: %v", index, err)
	}
}

func mustScan(t *testing.T, s Store, r Range) [][]byte {
	t.Helper()
	out, err := Collect(s.Scan(r))
	if err != nil {
		t.Fatalf("scan %v: %v", r, err)
	}
	return out
}

func assertEntries(t *testing.T, got [][]byte, want ...[]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d entries %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("entry %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func seq(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i + 1)}
	}
	return out
}

func TestOpenSelectsBackend(t *testing.T) {
	m, err := Open(Options{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if m.String() != "memory" {
		t.Fatalf("got %s want memory", m)
	}

	h, err := Open(Options{Backend: BackendHybrid, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open hybrid: %v", err)
	}
	defer h.Close()
	if h.String() != "hybrid" {
		t.Fatalf("got %s want hybrid", h)
	}

	if _, err := Open(Options{Backend: "btree"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestAppendGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		if !s.IsEmpty() {
			t.Fatalf("new store should be empty")
		}
		for i, e := range seq(3) {
			idx, err := s.Append(e)
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			if idx != uint64(i+1) {
				t.Fatalf("append returned %d want %d", idx, i+1)
			}
		}
		check := func() {
			t.Helper()
			for i, want := range seq(3) {
				got, ok, err := s.Get(uint64(i + 1))
				if err != nil || !ok {
					t.Fatalf("get %d: ok=%v err=%v", i+1, ok, err)
				}
				if !bytes.Equal(got, want) {
					t.Fatalf("get %d: got %v want %v", i+1, got, want)
				}
			}
			for _, idx := range []uint64{0, 4, 100} {
				if _, ok, err := s.Get(idx); ok || err != nil {
					t.Fatalf("get %d: ok=%v err=%v, want missing", idx, ok, err)
				}
			}
		}
		check()
		mustCommit(t, s, 2)
		check()
		mustCommit(t, s, 3)
		check()
		if s.Len() != 3 || s.IsEmpty() {
			t.Fatalf("len %d", s.Len())
		}
	})
}

func TestEmptyEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		appendEntries(t, s, []byte{}, []byte{0x07}, []byte{})
		mustCommit(t, s, 2)
		got, ok, err := s.Get(1)
		if err != nil || !ok || len(got) != 0 {
			t.Fatalf("get empty entry: %v ok=%v err=%v", got, ok, err)
		}
		assertEntries(t, mustScan(t, s, All()), []byte{}, []byte{0x07}, []byte{})
	})
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		e := []byte{1, 2, 3}
		appendEntries(t, s, e)
		e[0] = 9
		got, _, _ := s.Get(1)
		if got[0] != 1 {
			t.Fatalf("store aliases appended slice")
		}
		got[1] = 9
		again, _, _ := s.Get(1)
		if again[1] != 2 {
			t.Fatalf("store aliases returned slice")
		}
	})
}

func TestCommit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		appendEntries(t, s, seq(4)...)
		if s.Committed() != 0 {
			t.Fatalf("committed %d want 0", s.Committed())
		}
		if err := s.Commit(5); !errors.Is(err, ErrCommitOutOfRange) {
			t.Fatalf("commit past len: %v", err)
		}
		mustCommit(t, s, 0)
		mustCommit(t, s, 2)
		if s.Committed() != 2 {
			t.Fatalf("committed %d want 2", s.Committed())
		}
		mustCommit(t, s, 2)
		if err := s.Commit(1); !errors.Is(err, ErrCommitRegression) {
			t.Fatalf("commit regression: %v", err)
		}
		if !errors.Is(s.Commit(1), ErrInternal) {
			t.Fatalf("regression should be internal")
		}
		if s.Committed() != 2 {
			t.Fatalf("committed changed after failed commit: %d", s.Committed())
		}
		mustCommit(t, s, 4)
		if s.Committed() != 4 || s.Len() != 4 {
			t.Fatalf("committed %d len %d", s.Committed(), s.Len())
		}
	})
}

func TestTruncate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		appendEntries(t, s, seq(5)...)
		mustCommit(t, s, 2)

		if _, err := s.Truncate(1); !errors.Is(err, ErrTruncateCommitted) {
			t.Fatalf("truncate below committed: %v", err)
		}
		if s.Len() != 5 || s.Committed() != 2 {
			t.Fatalf("state changed after failed truncate: len %d committed %d", s.Len(), s.Committed())
		}

		n, err := s.Truncate(4)
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if n != 4 || s.Len() != 4 {
			t.Fatalf("truncate returned %d, len %d", n, s.Len())
		}
		if _, ok, _ := s.Get(5); ok {
			t.Fatalf("entry 5 survived truncate")
		}

		if n, err = s.Truncate(10); err != nil || n != 4 {
			t.Fatalf("truncate past len: n=%d err=%v", n, err)
		}

		if n, err = s.Truncate(2); err != nil || n != 2 {
			t.Fatalf("truncate to committed: n=%d err=%v", n, err)
		}
		assertEntries(t, mustScan(t, s, All()), seq(2)...)

		idx, err := s.Append([]byte{0xaa})
		if err != nil || idx != 3 {
			t.Fatalf("append after truncate: idx=%d err=%v", idx, err)
		}
		got, _, _ := s.Get(3)
		if !bytes.Equal(got, []byte{0xaa}) {
			t.Fatalf("got %v", got)
		}
	})
}

func TestScanRanges(t *testing.T) {
	entries := seq(6)
	tests := []struct {
		r    Range
		want [][]byte
	}{
		{All(), entries},
		{From(0), entries},
		{From(3), entries[2:]},
		{From(7), nil},
		{To(2), entries[:2]},
		{To(10), entries},
		{Between(2, 5), entries[1:5]},
		{Between(4, 4), entries[3:4]},
		{Between(5, 2), nil},
		{Range{Start: Excluded(2), End: Excluded(5)}, entries[2:4]},
		{Range{Start: Excluded(0), End: Unbounded()}, entries},
		{Range{Start: Unbounded(), End: Excluded(0)}, nil},
		{Range{Start: Unbounded(), End: Excluded(1)}, nil},
		{Range{Start: Included(3), End: Excluded(4)}, entries[2:3]},
		{Range{Start: Excluded(3), End: Included(6)}, entries[3:]},
		{Range{Start: Excluded(6), End: Unbounded()}, nil},
	}
	// Cover every position of the committed boundary relative to the window.
	for _, committed := range []uint64{0, 1, 3, 6} {
		committed := committed
		t.Run(fmt.Sprintf("committed=%d", committed), func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, s Store) {
				appendEntries(t, s, entries...)
				mustCommit(t, s, committed)
				for _, tt := range tests {
					got := mustScan(t, s, tt.r)
					if len(got) != len(tt.want) {
						t.Fatalf("scan %v: got %v want %v", tt.r, got, tt.want)
					}
					for i := range tt.want {
						if !bytes.Equal(got[i], tt.want[i]) {
							t.Fatalf("scan %v entry %d: got %v want %v", tt.r, i, got[i], tt.want[i])
						}
					}
				}
			})
		})
	}
}

func TestScanEmptyStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		if got := mustScan(t, s, All()); len(got) != 0 {
			t.Fatalf("got %v", got)
		}
	})
}

func TestScanIsSnapshotOfUncommitted(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		appendEntries(t, s, seq(3)...)
		mustCommit(t, s, 1)
		sc := s.Scan(All())
		if _, err := s.Truncate(1); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		appendEntries(t, s, []byte{0xff})
		got, err := Collect(sc)
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		assertEntries(t, got, seq(3)...)
	})
}

func TestScanCloseStops(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		appendEntries(t, s, seq(4)...)
		mustCommit(t, s, 2)
		sc := s.Scan(All())
		if !sc.Next() {
			t.Fatalf("expected first entry")
		}
		if err := sc.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if sc.Next() {
			t.Fatalf("Next after Close should be false")
		}
		if sc.Err() != nil {
			t.Fatalf("err after close: %v", sc.Err())
		}
	})
}

func TestSize(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		if s.Size() != 0 {
			t.Fatalf("empty size %d", s.Size())
		}
		appendEntries(t, s, []byte("a"), []byte("bcd"), []byte(""), []byte("efghij"))
		if s.Size() != 0 {
			t.Fatalf("uncommitted entries counted: %d", s.Size())
		}
		mustCommit(t, s, 3)
		// 3 records: 3*4 bytes of prefix + 4 bytes of payload
		if s.Size() != 16 {
			t.Fatalf("size %d want 16", s.Size())
		}
		appendEntries(t, s, []byte("more"))
		if s.Size() != 16 {
			t.Fatalf("size changed by append: %d", s.Size())
		}
	})
}

func TestMetadata(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		if _, ok, err := s.GetMetadata([]byte("term")); ok || err != nil {
			t.Fatalf("missing key: ok=%v err=%v", ok, err)
		}
		if err := s.SetMetadata([]byte("term"), []byte{0, 3}); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.SetMetadata([]byte("vote"), []byte("n1")); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.SetMetadata([]byte("term"), []byte{0, 4}); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		if err := s.SetMetadata([]byte("empty"), []byte{}); err != nil {
			t.Fatalf("set empty: %v", err)
		}
		v, ok, err := s.GetMetadata([]byte("term"))
		if err != nil || !ok || !bytes.Equal(v, []byte{0, 4}) {
			t.Fatalf("term: %v ok=%v err=%v", v, ok, err)
		}
		v, ok, _ = s.GetMetadata([]byte("vote"))
		if !ok || string(v) != "n1" {
			t.Fatalf("vote: %q ok=%v", v, ok)
		}
		v, ok, _ = s.GetMetadata([]byte("empty"))
		if !ok || len(v) != 0 {
			t.Fatalf("empty value: %v ok=%v", v, ok)
		}
		if s.Len() != 0 {
			t.Fatalf("metadata affected the log")
		}
	})
}
