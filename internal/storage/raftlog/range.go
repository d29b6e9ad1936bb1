package raftlog

import "fmt"

// BoundKind selects how a Bound limits a range.
type BoundKind uint8

const (
	BoundUnbounded BoundKind = iota
	BoundIncluded
	BoundExcluded
)

// Bound is one end of a scan range.
type Bound struct {
	Kind  BoundKind
	Index uint64
}

func Unbounded() Bound        { return Bound{Kind: BoundUnbounded} }
func Included(i uint64) Bound { return Bound{Kind: BoundIncluded, Index: i} }
func Excluded(i uint64) Bound { return Bound{Kind: BoundExcluded, Index: i} }

func (b Bound) String() string {
	switch b.Kind {
	case BoundIncluded:
		return fmt.Sprintf("Included(%d)", b.Index)
	case BoundExcluded:
		return fmt.Sprintf("Excluded(%d)", b.Index)
	default:
		return "Unbounded"
	}
}

// Range is a pair of generic bounds over 1-based log indexes.
type Range struct {
	Start Bound
	End   Bound
}

// All is the unbounded range (..).
func All() Range { return Range{Start: Unbounded(), End: Unbounded()} }

// From returns start.. (inclusive start, unbounded end).
func From(start uint64) Range { return Range{Start: Included(start), End: Unbounded()} }

// To returns ..=end.
func To(end uint64) Range { return Range{Start: Unbounded(), End: Included(end)} }

// Between returns start..=end.
func Between(start, end uint64) Range { return Range{Start: Included(start), End: Included(end)} }

func (r Range) String() string { return r.Start.String() + ".." + r.End.String() }

// Resolve converts the range into concrete inclusive 1-based bounds for a log
// of the given length. Index 0 is never a real entry, so an included start of
// 0 collapses to 1. The window is empty when start > end. The end is not
// clamped to length; see window.
func (r Range) Resolve(length uint64) (start, end uint64) {
	switch r.Start.Kind {
	case BoundIncluded:
		start = r.Start.Index
		if start == 0 {
			start = 1
		}
	case BoundExcluded:
		start = r.Start.Index + 1
	default:
		start = 1
	}
	switch r.End.Kind {
	case BoundIncluded:
		end = r.End.Index
	case BoundExcluded:
		if r.End.Index == 0 {
			end = 0
		} else {
			end = r.End.Index - 1
		}
	default:
		end = length
	}
	return start, end
}

// window resolves r and clamps it to [1, length]. ok is false when nothing
// falls inside.
func (r Range) window(length uint64) (start, end uint64, ok bool) {
	start, end = r.Resolve(length)
	if end > length {
		end = length
	}
	if start == 0 || start > end {
		return 0, 0, false
	}
	return start, end, true
}
