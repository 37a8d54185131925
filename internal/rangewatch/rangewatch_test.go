package rangewatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/sheetcore/internal/axis"
	"github.com/vogtb/sheetcore/internal/cellstore"
)

// fakePositions is a PosLookup over an explicit id->position table, standing
// in for a real *axis.Index so containment can be tested against positions
// that deliberately do not sort the same as the underlying id numbers.
type fakePositions map[axis.Id]int

func (f fakePositions) IdToPos(id axis.Id) (int, bool) {
	pos, ok := f[id]
	return pos, ok
}

func TestAddWatchIsIdempotent(t *testing.T) {
	w := New()
	formula := cellstore.Key{Row: 100, Col: 100}
	r := Rect{MinRow: 1, MaxRow: 5, MinCol: 1, MaxCol: 1}

	w.AddWatch(r, formula)
	w.AddWatch(r, formula)
	assert.Len(t, w.formulaRanges[formula], 1)
}

func TestRemoveWatchesClearsBothTables(t *testing.T) {
	w := New()
	formula := cellstore.Key{Row: 100, Col: 100}
	cell := cellstore.Key{Row: 2, Col: 1}
	r := Rect{MinRow: 1, MaxRow: 5, MinCol: 1, MaxCol: 1}

	w.AddWatch(r, formula)
	w.RegisterCell(cell, formula)
	w.RemoveWatches(formula)

	assert.Empty(t, w.formulaRanges[formula])
	rows := fakePositions{1: 1, 5: 5, 2: 2}
	cols := fakePositions{1: 1}
	assert.Empty(t, w.WatchersOf(cell, rows, cols))
}

func TestRegisterCellDirectLookup(t *testing.T) {
	w := New()
	formula := cellstore.Key{Row: 100, Col: 100}
	cell := cellstore.Key{Row: 2, Col: 1}
	w.RegisterCell(cell, formula)

	rows := fakePositions{}
	cols := fakePositions{}
	got := w.WatchersOf(cell, rows, cols)
	require.Len(t, got, 1)
	assert.Equal(t, formula, got[0])
}

func TestWatchersOfFallsBackToRectScan(t *testing.T) {
	w := New()
	formula := cellstore.Key{Row: 100, Col: 100}
	r := Rect{MinRow: 10, MaxRow: 20, MinCol: 30, MaxCol: 30}
	w.AddWatch(r, formula)

	// Positions deliberately diverge from raw id numbers: identifier 10
	// (the range's MinRow) now sits at position 1, identifier 20 (MaxRow) at
	// position 3 -- as would happen after a row insertion above the range.
	rows := fakePositions{10: 1, 20: 3, 15: 2}
	cols := fakePositions{30: 1}

	cellInside := cellstore.Key{Row: 15, Col: 30}
	got := w.WatchersOf(cellInside, rows, cols)
	require.Len(t, got, 1)
	assert.Equal(t, formula, got[0])
}

func TestWatchersOfExcludesCellOutsideRect(t *testing.T) {
	w := New()
	formula := cellstore.Key{Row: 100, Col: 100}
	r := Rect{MinRow: 10, MaxRow: 20, MinCol: 30, MaxCol: 30}
	w.AddWatch(r, formula)

	rows := fakePositions{10: 1, 20: 3, 99: 50}
	cols := fakePositions{30: 1}

	cellOutside := cellstore.Key{Row: 99, Col: 30}
	assert.Empty(t, w.WatchersOf(cellOutside, rows, cols))
}

func TestRectContainsHandlesUnorderedCorners(t *testing.T) {
	// MinRow/MaxRow name corners by identifier, not by which resolves to
	// the smaller position; Contains must normalize regardless of order.
	r := Rect{MinRow: 20, MaxRow: 10, MinCol: 1, MaxCol: 1}
	rows := fakePositions{20: 5, 10: 1}
	cols := fakePositions{1: 1}

	inside := cellstore.Key{Row: 20, Col: 1} // position 5, still within [1,5]
	assert.True(t, r.Contains(inside, rows, cols))
}

func TestRectContainsFalseWhenCornerRetired(t *testing.T) {
	r := Rect{MinRow: 1, MaxRow: 999, MinCol: 1, MaxCol: 1}
	rows := fakePositions{1: 1} // 999 never resolves: retired identifier
	cols := fakePositions{1: 1}

	cell := cellstore.Key{Row: 1, Col: 1}
	assert.False(t, r.Contains(cell, rows, cols))
}

func TestWatchersOfDedupesDirectAndRectMatches(t *testing.T) {
	w := New()
	formula := cellstore.Key{Row: 100, Col: 100}
	cell := cellstore.Key{Row: 2, Col: 1}
	r := Rect{MinRow: 1, MaxRow: 5, MinCol: 1, MaxCol: 1}

	w.AddWatch(r, formula)
	w.RegisterCell(cell, formula)

	rows := fakePositions{1: 1, 5: 5, 2: 2}
	cols := fakePositions{1: 1}
	got := w.WatchersOf(cell, rows, cols)
	assert.Len(t, got, 1, "direct registration and rect match must not double-report the same formula")
}
