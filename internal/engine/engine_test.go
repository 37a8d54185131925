package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/sheetcore/internal/formula"
)

func newTestSheet(rows, cols int) *Sheet {
	return NewSheet(WithInitialRows(rows), WithInitialCols(cols))
}

func pos(row, col int) formula.Position { return formula.Position{Row: row, Col: col} }

func TestSetValueAndGetValueRoundtrip(t *testing.T) {
	s := newTestSheet(10, 10)
	s.SetValue(pos(1, 1), 42)
	assert.Equal(t, 42.0, s.GetValue(pos(1, 1)))
}

func TestSetValueOutOfRangeIsNoOp(t *testing.T) {
	s := newTestSheet(2, 2)
	s.SetValue(pos(99, 1), 1)
	assert.Nil(t, s.GetValue(pos(99, 1)))
}

func TestGetValueOfEmptyCellIsNil(t *testing.T) {
	s := newTestSheet(5, 5)
	assert.Nil(t, s.GetValue(pos(3, 3)))
}

func TestSimpleFormulaEvaluatesThroughRef(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetValue(pos(1, 1), 10)
	s.SetFormula(pos(2, 1), "=A1+5")
	assert.Equal(t, 15.0, s.GetValue(pos(2, 1)))
}

func TestRefToEmptyCellReadsAsZero(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetFormula(pos(1, 1), "=A2+1")
	assert.Equal(t, 1.0, s.GetValue(pos(1, 1)))
}

func TestGetSourceReturnsOriginalTextNotResult(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetValue(pos(1, 1), 10)
	s.SetFormula(pos(2, 1), "=A1+5")
	assert.Equal(t, "=A1+5", s.GetSource(pos(2, 1)))
	assert.Equal(t, "10", s.GetSource(pos(1, 1)))
}

func TestGetSourceOfEmptyCellIsEmptyString(t *testing.T) {
	s := newTestSheet(5, 5)
	assert.Equal(t, "", s.GetSource(pos(1, 1)))
}

// Scenario 1 (spec.md §8): a relative reference tracks the cell it points
// to across an insertion above it.
func TestRelativeRefTracksInsertion(t *testing.T) {
	s := newTestSheet(10, 5)
	s.SetValue(pos(2, 1), 7)
	s.SetFormula(pos(3, 1), "=A2")
	require.Equal(t, 7.0, s.GetValue(pos(3, 1)))

	s.InsertRows(1, 1)

	// The value 7 now lives at row 3; the formula, pushed to row 4, must
	// still read it.
	assert.Equal(t, 7.0, s.GetValue(pos(3, 1)))
	assert.Equal(t, 7.0, s.GetValue(pos(4, 1)))
	assert.Equal(t, "=A3", s.GetSource(pos(4, 1)))
}

// Scenario 2: an absolute reference is pinned to its target's identifier,
// not to the printed A1 position, but the printed text still reflects
// wherever that identifier now sits.
func TestAbsoluteRefStaysPinnedToIdentifier(t *testing.T) {
	s := newTestSheet(10, 5)
	s.SetValue(pos(2, 1), 9)
	s.SetFormula(pos(5, 1), "=$A$2")
	require.Equal(t, 9.0, s.GetValue(pos(5, 1)))

	s.InsertRows(1, 3)

	// value moved from row 2 to row 5; formula moved from row 5 to row 8;
	// the absolute ref must still resolve to the same identifier (now at
	// row 5), so the formula's value is unaffected.
	assert.Equal(t, 9.0, s.GetValue(pos(8, 1)))
	assert.Equal(t, "=$A$5", s.GetSource(pos(8, 1)))
}

// Scenario 3: SUM invalidates once a previously empty in-range cell is
// populated, even though no DepGraph edge existed for that address before
// the write (spec.md §4.6, RangeWatchers).
func TestSumInvalidatesWhenEmptyCellInRangeIsPopulated(t *testing.T) {
	s := newTestSheet(10, 5)
	s.SetValue(pos(1, 1), 1)
	s.SetFormula(pos(1, 2), "=SUM(A1:A5)")
	require.Equal(t, 1.0, s.GetValue(pos(1, 2)))

	s.SetValue(pos(3, 1), 4)
	assert.Equal(t, 5.0, s.GetValue(pos(1, 2)))
}

func TestSumOverEmptyRangeIsZero(t *testing.T) {
	s := newTestSheet(10, 5)
	s.SetFormula(pos(1, 1), "=SUM(B1:B10)")
	assert.Equal(t, 0.0, s.GetValue(pos(1, 1)))
}

// Scenario 4: a formula whose install would close a dependency cycle keeps
// its parsed AST, installs no edges, and converges to #CYCLE!.
func TestMutualCycleConvergesToCycleError(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetFormula(pos(1, 1), "=A2")
	s.SetFormula(pos(2, 1), "=A1")

	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(1, 1)))
	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(2, 1)))
	// The AST is preserved even though it never produces a value.
	assert.Equal(t, "=A1", s.GetSource(pos(2, 1)))
}

func TestSelfReferenceIsRejectedAsCycle(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetFormula(pos(1, 1), "=A1+1")
	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(1, 1)))
}

// Regression for the case where the last link of a cycle is set while an
// earlier cell in the loop already holds a stale cache from before the
// loop closed: every cell in the ring must converge to #CYCLE!, not keep
// whatever value was computed before the cycle existed.
func TestThreeCellCycleConvergesToCycleErrorDespiteStaleCaches(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetFormula(pos(1, 1), "=A2")
	s.SetFormula(pos(2, 1), "=A3")
	require.Equal(t, 0.0, s.GetValue(pos(1, 1)))
	require.Equal(t, 0.0, s.GetValue(pos(2, 1)))

	s.SetFormula(pos(3, 1), "=A1")

	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(1, 1)))
	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(2, 1)))
	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(3, 1)))
}

// Regression: refreshRangeProducers must apply the same WouldCreateCycle
// gate SetFormula uses, or a later recalc pass silently reinstalls the
// exact edge a cycle-detecting SetFormula call just withheld.
func TestRefreshRangeProducersDoesNotReinstallWithheldCycleEdge(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetFormula(pos(1, 1), "=A2")
	s.SetFormula(pos(2, 1), "=A1")

	key1, ok := s.resolve(pos(1, 1))
	require.True(t, ok)
	key2, ok := s.resolve(pos(2, 1))
	require.True(t, ok)

	assert.False(t, s.deps.WouldCreateCycle(key1, key2) && s.deps.WouldCreateCycle(key2, key1),
		"both directions reporting a would-be cycle means an edge was installed on both sides")

	// Forcing another recalculation pass must not flip either cell back to
	// a non-cycle value by reinstalling the withheld edge.
	s.SetValue(pos(3, 1), 1)
	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(1, 1)))
	assert.Equal(t, formula.ErrCycle, s.GetValue(pos(2, 1)))
}

// Scenario 5: deleting a referenced column collapses the referencing
// formula to Value(#REF!); its AST is discarded.
func TestDeleteColCollapsesReferencingFormulaToRef(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetValue(pos(1, 1), 3)
	s.SetFormula(pos(1, 2), "=A1")
	require.Equal(t, 3.0, s.GetValue(pos(1, 2)))

	s.DeleteCols(1, 1)

	assert.Equal(t, formula.ErrRef, s.GetValue(pos(1, 1)))
}

// Scenario 6: splice ordering — transforming every anchor against
// pre-splice positions must not double-transform a formula whose own cell
// also moved in the same splice.
func TestSpliceDoesNotDoubleTransformFormulaThatAlsoMoved(t *testing.T) {
	s := newTestSheet(10, 5)
	s.SetValue(pos(5, 1), 100)
	s.SetFormula(pos(6, 1), "=A5")
	require.Equal(t, 100.0, s.GetValue(pos(6, 1)))

	s.InsertRows(2, 1)

	assert.Equal(t, 100.0, s.GetValue(pos(7, 1)))
	assert.Equal(t, "=A6", s.GetSource(pos(7, 1)))
}

func TestInsertRowsAtBeginningShiftsEntireAxis(t *testing.T) {
	s := newTestSheet(3, 1)
	s.SetValue(pos(1, 1), 1)
	s.SetValue(pos(2, 1), 2)
	s.SetValue(pos(3, 1), 3)

	s.InsertRows(1, 1)

	assert.Nil(t, s.GetValue(pos(1, 1)))
	assert.Equal(t, 1.0, s.GetValue(pos(2, 1)))
	assert.Equal(t, 2.0, s.GetValue(pos(3, 1)))
	assert.Equal(t, 3.0, s.GetValue(pos(4, 1)))
}

func TestInsertRowsBeyondEndAppends(t *testing.T) {
	s := newTestSheet(3, 1)
	s.InsertRows(100, 2)
	s.SetValue(pos(5, 1), 9)
	assert.Equal(t, 9.0, s.GetValue(pos(5, 1)))
}

func TestDeletingEntireAxisEmptiesStore(t *testing.T) {
	s := newTestSheet(3, 1)
	s.SetValue(pos(1, 1), 1)
	s.SetValue(pos(2, 1), 2)
	s.SetValue(pos(3, 1), 3)

	s.DeleteRows(1, 3)

	assert.Nil(t, s.GetValue(pos(1, 1)))
}

func TestInsertThenDeleteSameSpanIsANoOpOnValues(t *testing.T) {
	s := newTestSheet(5, 1)
	s.SetValue(pos(1, 1), 1)
	s.SetValue(pos(2, 1), 2)
	s.SetValue(pos(3, 1), 3)

	s.InsertRows(2, 2)
	s.DeleteRows(2, 3)

	assert.Equal(t, 1.0, s.GetValue(pos(1, 1)))
	assert.Equal(t, 2.0, s.GetValue(pos(2, 1)))
	assert.Equal(t, 3.0, s.GetValue(pos(3, 1)))
}

func TestClearCellRemovesValueButKeepsAxisIntact(t *testing.T) {
	s := newTestSheet(3, 3)
	s.SetValue(pos(1, 1), 5)
	s.ClearCell(pos(1, 1))
	assert.Nil(t, s.GetValue(pos(1, 1)))
	key, ok := s.resolve(pos(1, 1))
	require.True(t, ok)
	assert.False(t, s.cells.Has(key))
}

func TestClearCellPropagatesToDependents(t *testing.T) {
	s := newTestSheet(3, 3)
	s.SetValue(pos(1, 1), 5)
	s.SetFormula(pos(1, 2), "=A1")
	require.Equal(t, 5.0, s.GetValue(pos(1, 2)))

	s.ClearCell(pos(1, 1))

	assert.Equal(t, 0.0, s.GetValue(pos(1, 2)))
}

func TestFormulaParseErrorCollapsesToRef(t *testing.T) {
	s := newTestSheet(3, 3)
	s.SetFormula(pos(1, 1), "=A1+*")
	assert.Equal(t, formula.ErrRef, s.GetValue(pos(1, 1)))
}

func TestOverwritingFormulaWithValueDropsOldDependencyEdges(t *testing.T) {
	s := newTestSheet(3, 3)
	s.SetValue(pos(1, 1), 1)
	s.SetFormula(pos(1, 2), "=A1")
	require.Equal(t, 1.0, s.GetValue(pos(1, 2)))

	s.SetValue(pos(1, 2), 99)
	assert.Equal(t, 99.0, s.GetValue(pos(1, 2)))

	// A1 changing must no longer affect (1,2): it holds a plain value now.
	s.SetValue(pos(1, 1), 2)
	assert.Equal(t, 99.0, s.GetValue(pos(1, 2)))
}

func TestChainedFormulasRecalculateTransitively(t *testing.T) {
	s := newTestSheet(5, 5)
	s.SetValue(pos(1, 1), 1)
	s.SetFormula(pos(2, 1), "=A1+1")
	s.SetFormula(pos(3, 1), "=A2+1")
	require.Equal(t, 3.0, s.GetValue(pos(3, 1)))

	s.SetValue(pos(1, 1), 10)
	assert.Equal(t, 12.0, s.GetValue(pos(3, 1)))
}
