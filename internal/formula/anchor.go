package formula

import "github.com/vogtb/sheetcore/internal/axis"

// Position is a 1-based (row, col) pair naming what the user sees.
// Positions are volatile under structural edits; identifiers are not
// (spec.md §3).
type Position struct {
	Row int
	Col int
}

// Mode distinguishes a reference's printed form ($-prefixed or not) per
// axis. It does not change how an anchor resolves — resolution always
// walks the base cell's current position and applies the same stored
// offset, for both modes alike (see anchor rel/abs mode entry in
// DESIGN.md). Mode only governs whether Format emits a `$` before that
// axis's component.
type Mode uint8

const (
	Rel Mode = iota
	Abs
)

// Anchor is a position-independent reference: it names a target cell by
// its offset from the formula's own cell (base), not by a fixed identifier
// pair, so that moving the base cell moves the reference with it and a
// splice can be absorbed by recomputing the offset once (spec.md §3, §4.5).
type Anchor struct {
	BaseRow axis.Id
	BaseCol axis.Id
	RowMode Mode
	ColMode Mode
	DRow    int
	DCol    int
}

// Address is a resolved (row, col) identifier pair, the outcome of
// resolving an Anchor. Resolve reports ok=false instead if the base has
// been retired or the target offset lands outside the live axis — both
// collapse to #REF!.
type Address struct {
	Row axis.Id
	Col axis.Id
}

// Resolve computes the anchor's current target address: look up the live
// position of base, add the stored delta, and map the resulting position
// back to whatever identifier currently lives there (spec.md §3's Anchor
// invariant, verbatim). rows/cols are the sheet's own AxisIndexes.
func (a Anchor) Resolve(rows, cols *axis.Index) (Address, bool) {
	baseRowPos, ok := rows.IdToPos(a.BaseRow)
	if !ok {
		return Address{}, false
	}
	baseColPos, ok := cols.IdToPos(a.BaseCol)
	if !ok {
		return Address{}, false
	}
	targetRow, ok := rows.PosToId(baseRowPos + a.DRow)
	if !ok {
		return Address{}, false
	}
	targetCol, ok := cols.PosToId(baseColPos + a.DCol)
	if !ok {
		return Address{}, false
	}
	return Address{Row: targetRow, Col: targetCol}, true
}

// Splice describes one structural edit on a single axis (spec.md §4.5):
// Ins fresh positions inserted and Del positions deleted, starting at
// AtPos. Rows selects whether rows or columns are affected.
type Splice struct {
	Rows    bool // true: this splice affects the row axis; false: columns
	AtPos   int
	Ins     int
	Del     int
}

// transformPos applies one axis's splice to a single pre-splice position,
// exactly as spec.md §4.5 step 1a specifies. ok is false if pos falls
// inside the deleted range and is therefore retired.
func transformPos(pos int, s Splice) (int, bool) {
	switch {
	case s.Del > 0 && pos >= s.AtPos && pos <= s.AtPos+s.Del-1:
		return 0, false
	case pos >= s.AtPos+s.Del:
		return pos - s.Del + s.Ins, true
	case s.Ins > 0 && pos >= s.AtPos:
		return pos + s.Ins, true
	default:
		return pos, true
	}
}

// Transform recomputes the anchor's stored delta for one axis of a splice.
// Both rel and abs modes use the identical recipe: recompute the new base
// and new target positions independently, then take newTarget - newBase as
// the new delta. This is spec.md §4.5's own math (both branches of step 1a
// compute "the new offset is newTarget - newBase") and satisfies Invariant
// 6 literally; rel/abs affects only how Format prints the result, not how
// it is computed (see DESIGN.md's Anchor rel/abs entry).
//
// basePos/targetPos are the anchor's pre-splice positions on the spliced
// axis, supplied by the caller (which already resolved them via idToPos
// before mutating the AxisIndex, per the ordering §4.5 mandates).
func (a Anchor) Transform(basePos, targetPos int, s Splice) (newDelta int, ok bool) {
	newBase, baseOk := transformPos(basePos, s)
	newTarget, targetOk := transformPos(targetPos, s)
	if !baseOk || !targetOk {
		return 0, false
	}
	return newTarget - newBase, true
}

// RangeRef is a pair of anchors sharing the formula's own cell as base
// (spec.md §3). A range spans the rectangle between the two resolved
// addresses inclusive.
type RangeRef struct {
	Start Anchor
	End   Anchor
}

// ResolvedRect is a RangeRef resolved to concrete corner identifiers, with
// corners normalized so Min<=Max in each axis's position space at the
// moment of resolution.
type ResolvedRect struct {
	MinRow, MaxRow axis.Id
	MinCol, MaxCol axis.Id
}

// Resolve resolves both corners of r. ok is false if either corner is
// unresolvable (dead base or out-of-range target) or if start's position
// exceeds end's in either axis — such an inverted range collapses to #REF!
// (spec.md §3). Corners are never swapped.
func (r RangeRef) Resolve(rows, cols *axis.Index) (ResolvedRect, bool) {
	start, ok := r.Start.Resolve(rows, cols)
	if !ok {
		return ResolvedRect{}, false
	}
	end, ok := r.End.Resolve(rows, cols)
	if !ok {
		return ResolvedRect{}, false
	}
	startRowPos, _ := rows.IdToPos(start.Row)
	endRowPos, _ := rows.IdToPos(end.Row)
	startColPos, _ := cols.IdToPos(start.Col)
	endColPos, _ := cols.IdToPos(end.Col)
	if startRowPos > endRowPos || startColPos > endColPos {
		return ResolvedRect{}, false
	}
	return ResolvedRect{MinRow: start.Row, MaxRow: end.Row, MinCol: start.Col, MaxCol: end.Col}, true
}
