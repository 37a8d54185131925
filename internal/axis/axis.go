// Package axis maintains the bijection between 1-based live positions and
// the stable, opaque identifiers minted for a row or column axis.
//
// Identifiers are never reused: once retired by Remove, the same numeric
// value never denotes a live element again. The forward direction
// (position -> id) is served by an ordered list of contiguous Segments;
// the reverse direction (id -> position) is served by a map from id to
// the Segment currently holding it plus an offset within that segment, so
// idToPos never degrades to a linear scan over the axis (see SPEC_FULL.md
// §4.1, resolving Open Question 2 of spec.md §9).
package axis

import "sort"

// Id is an opaque, stable token minted by an Index. The zero value never
// denotes a live element.
type Id uint64

// Segment is a maximal run of live identifiers occupying consecutive
// positions starting at StartPos (1-based).
type Segment struct {
	StartPos int
	ids      []Id
}

// Len returns the number of live identifiers held by the segment.
func (s *Segment) Len() int { return len(s.ids) }

type location struct {
	seg    *Segment
	offset int
}

// Index is a single row or column axis.
type Index struct {
	segments []*Segment
	reverse  map[Id]location
	nextID   Id
}

// New returns an axis with count identifiers pre-minted at positions
// 1..count, mirroring the "initialRows"/"initialCols" construction
// parameter of the engine (spec.md §6).
func New(count int) *Index {
	ix := &Index{reverse: make(map[Id]location)}
	if count > 0 {
		ix.Insert(1, count)
	}
	return ix
}

// MaxPos returns the highest live position on the axis, 0 if empty.
func (ix *Index) MaxPos() int {
	total := 0
	for _, seg := range ix.segments {
		total += seg.Len()
	}
	return total
}

// TotalIds returns the number of live identifiers, equal to MaxPos since
// every live identifier occupies exactly one live position.
func (ix *Index) TotalIds() int { return ix.MaxPos() }

// SegmentCount returns the number of contiguous segments currently in use.
func (ix *Index) SegmentCount() int { return len(ix.segments) }

// PosToId resolves a 1-based position to the identifier currently living
// there. ok is false if pos is out of range.
func (ix *Index) PosToId(pos int) (Id, bool) {
	if pos < 1 {
		return 0, false
	}
	segIdx := ix.segmentContaining(pos)
	if segIdx < 0 {
		return 0, false
	}
	seg := ix.segments[segIdx]
	offset := pos - seg.StartPos
	return seg.ids[offset], true
}

// IdToPos resolves an identifier to its current 1-based position. ok is
// false if the identifier is unknown or has been retired.
func (ix *Index) IdToPos(id Id) (int, bool) {
	loc, ok := ix.reverse[id]
	if !ok {
		return 0, false
	}
	return loc.seg.StartPos + loc.offset, true
}

// IsLive reports whether id currently denotes a live element.
func (ix *Index) IsLive(id Id) bool {
	_, ok := ix.reverse[id]
	return ok
}

// segmentContaining returns the index into ix.segments of the segment
// holding pos, or -1 if pos falls outside every segment (segments are
// ordered and non-overlapping, so a single binary search suffices).
func (ix *Index) segmentContaining(pos int) int {
	n := len(ix.segments)
	i := sort.Search(n, func(i int) bool {
		return ix.segments[i].StartPos+ix.segments[i].Len() > pos
	})
	if i >= n || ix.segments[i].StartPos > pos {
		return -1
	}
	return i
}

// Insert mints count fresh identifiers and splices them in starting at
// atPos. Positions atPos..atPos+count-1 denote the new identifiers on
// return; former positions >= atPos shift by +count. atPos is clamped into
// [1, MaxPos()+1], so inserting beyond the end appends (spec.md §8
// boundary behavior). Insert(_, 0) is a no-op and returns nil.
func (ix *Index) Insert(atPos, count int) []Id {
	if count <= 0 {
		return nil
	}
	maxPos := ix.MaxPos()
	if atPos < 1 {
		atPos = 1
	}
	if atPos > maxPos+1 {
		atPos = maxPos + 1
	}

	newIds := make([]Id, count)
	for i := range newIds {
		ix.nextID++
		newIds[i] = ix.nextID
	}
	newSeg := &Segment{ids: newIds}

	switch {
	case len(ix.segments) == 0:
		newSeg.StartPos = 1
		ix.segments = []*Segment{newSeg}
		ix.indexSegment(newSeg)
	case atPos == maxPos+1:
		newSeg.StartPos = atPos
		ix.segments = append(ix.segments, newSeg)
		ix.indexSegment(newSeg)
	default:
		segIdx := ix.segmentContaining(atPos)
		seg := ix.segments[segIdx]
		offset := atPos - seg.StartPos
		var replacement []*Segment
		if offset > 0 {
			left := &Segment{StartPos: seg.StartPos, ids: append([]Id(nil), seg.ids[:offset]...)}
			replacement = append(replacement, left)
			ix.indexSegment(left)
		}
		newSeg.StartPos = atPos
		replacement = append(replacement, newSeg)
		ix.indexSegment(newSeg)
		if offset < seg.Len() {
			right := &Segment{StartPos: atPos + count, ids: append([]Id(nil), seg.ids[offset:]...)}
			replacement = append(replacement, right)
			ix.indexSegment(right)
		}
		ix.segments = spliceSegments(ix.segments, segIdx, segIdx+1, replacement)
		ix.shiftStartPos(segIdx+len(replacement), count)
	}

	return newIds
}

// Remove retires every identifier occupying positions [from, to]
// (inclusive, 1-based). Former positions > to shift by -(to-from+1). An
// empty or out-of-range request (from > to, or the axis has no live
// positions in range) is a no-op and returns nil. Returns the identifiers
// that were retired, in position order, for callers that must cascade the
// removal (bulk cell deletion, edge retraction).
func (ix *Index) Remove(from, to int) []Id {
	maxPos := ix.MaxPos()
	if from > to || maxPos == 0 || to < 1 || from > maxPos {
		return nil
	}
	if from < 1 {
		from = 1
	}
	if to > maxPos {
		to = maxPos
	}

	segFrom := ix.segmentContaining(from)
	segTo := ix.segmentContaining(to)

	var retired []Id
	var replacement []*Segment

	if segFrom == segTo {
		seg := ix.segments[segFrom]
		offFrom := from - seg.StartPos
		offTo := to - seg.StartPos
		retired = append(retired, seg.ids[offFrom:offTo+1]...)
		if offFrom > 0 {
			left := &Segment{StartPos: seg.StartPos, ids: append([]Id(nil), seg.ids[:offFrom]...)}
			replacement = append(replacement, left)
			ix.indexSegment(left)
		}
		if offTo+1 < seg.Len() {
			right := &Segment{StartPos: from, ids: append([]Id(nil), seg.ids[offTo+1:]...)}
			replacement = append(replacement, right)
			ix.indexSegment(right)
		}
	} else {
		segA := ix.segments[segFrom]
		offFrom := from - segA.StartPos
		retired = append(retired, segA.ids[offFrom:]...)
		if offFrom > 0 {
			left := &Segment{StartPos: segA.StartPos, ids: append([]Id(nil), segA.ids[:offFrom]...)}
			replacement = append(replacement, left)
			ix.indexSegment(left)
		}
		for i := segFrom + 1; i < segTo; i++ {
			retired = append(retired, ix.segments[i].ids...)
		}
		segB := ix.segments[segTo]
		offTo := to - segB.StartPos
		retired = append(retired, segB.ids[:offTo+1]...)
		if offTo+1 < segB.Len() {
			right := &Segment{StartPos: from, ids: append([]Id(nil), segB.ids[offTo+1:]...)}
			replacement = append(replacement, right)
			ix.indexSegment(right)
		}
	}

	ix.segments = spliceSegments(ix.segments, segFrom, segTo+1, replacement)
	for _, id := range retired {
		delete(ix.reverse, id)
	}
	ix.shiftStartPos(segFrom+len(replacement), -(to - from + 1))
	return retired
}

// spliceSegments replaces ix.segments[from:to] with replacement, returning
// the new slice.
func spliceSegments(segments []*Segment, from, to int, replacement []*Segment) []*Segment {
	out := make([]*Segment, 0, len(segments)-(to-from)+len(replacement))
	out = append(out, segments[:from]...)
	out = append(out, replacement...)
	out = append(out, segments[to:]...)
	return out
}

// indexSegment writes reverse-index entries for every id newly held by seg.
// Called only for freshly allocated Segment objects (a split-off remainder,
// or the segment minted by Insert) — an untouched Segment already has
// correct entries pointing at it, since IdToPos reads seg.StartPos
// dynamically and never caches a position value in the reverse map.
func (ix *Index) indexSegment(seg *Segment) {
	for offset, id := range seg.ids {
		ix.reverse[id] = location{seg: seg, offset: offset}
	}
}

// shiftStartPos adds delta to the StartPos of every segment from fromSegIdx
// onward, the O(affected-segments) replacement for a full reindex: a
// structural edit only ever changes the position of segments after the
// edit point, and since idToPos resolves through seg.StartPos rather than a
// cached per-id position, moving a segment costs one field write no matter
// how many ids it holds (see SPEC_FULL.md §4.1's O(k) requirement).
func (ix *Index) shiftStartPos(fromSegIdx, delta int) {
	for i := fromSegIdx; i < len(ix.segments); i++ {
		ix.segments[i].StartPos += delta
	}
}
