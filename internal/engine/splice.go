package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vogtb/sheetcore/internal/axis"
	"github.com/vogtb/sheetcore/internal/cellstore"
	"github.com/vogtb/sheetcore/internal/formula"
)

// InsertRows mints count fresh rows starting at atPos, per spec.md §6/§8's
// boundary behavior (atPos beyond the end appends). count<=0 is a no-op.
func (s *Sheet) InsertRows(atPos, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.splice(true, atPos, count, 0)
}

// DeleteRows retires rows [from, to] inclusive. An empty or inverted range
// is a no-op.
func (s *Sheet) DeleteRows(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from > to {
		return
	}
	s.splice(true, from, 0, to-from+1)
}

// InsertCols mints count fresh columns starting at atPos.
func (s *Sheet) InsertCols(atPos, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.splice(false, atPos, count, 0)
}

// DeleteCols retires columns [from, to] inclusive.
func (s *Sheet) DeleteCols(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from > to {
		return
	}
	s.splice(false, from, 0, to-from+1)
}

// splice implements the four-step ordered protocol spec.md §4.5 mandates
// for a structural edit on one axis (rows if rowsAxis, else columns):
//
//  1. transform every formula's anchors on the affected axis using
//     pre-splice positions (step 1a), then re-validate range ordering once
//     the axis reflects the new state (step 1b);
//  2. mutate the AxisIndex;
//  3. bulk-remove cells whose identifiers were retired, retracting every
//     edge and watch that touched them;
//  4. recalculate the accumulated dirty set.
//
// Callers must already hold s.mu.
func (s *Sheet) splice(rowsAxis bool, atPos, ins, del int) {
	if ins <= 0 && del <= 0 {
		return
	}
	timer := prometheus.NewTimer(s.metrics.SpliceDuration)
	defer timer.ObserveDuration()

	sp := formula.Splice{Rows: rowsAxis, AtPos: atPos, Ins: ins, Del: del}

	type formulaEntry struct {
		key cellstore.Key
		ast formula.Node
	}
	var formulas []formulaEntry
	s.cells.IterAll(func(k cellstore.Key, c cellstore.Cell) {
		if c.Kind != cellstore.KindFormula {
			return
		}
		if ast, ok := c.AST.(formula.Node); ok {
			formulas = append(formulas, formulaEntry{key: k, ast: ast})
		}
	})

	dirty := make(map[cellstore.Key]struct{})
	dead := make(map[cellstore.Key]bool)

	// Step 1a: transform every anchor on the spliced axis, using the
	// pre-splice AxisIndex to resolve each anchor's current base/target
	// position before anything moves.
	for _, f := range formulas {
		touched := false
		diedHere := false
		f.ast.Walk(func(n formula.Node) {
			n.Anchors(func(a *formula.Anchor) {
				if diedHere {
					return
				}
				var basePos int
				var baseOK bool
				var delta int
				if rowsAxis {
					basePos, baseOK = s.rows.IdToPos(a.BaseRow)
					delta = a.DRow
				} else {
					basePos, baseOK = s.cols.IdToPos(a.BaseCol)
					delta = a.DCol
				}
				if !baseOK {
					diedHere = true
					return
				}
				touched = true
				newDelta, ok := a.Transform(basePos, basePos+delta, sp)
				if !ok {
					diedHere = true
					return
				}
				if rowsAxis {
					a.DRow = newDelta
				} else {
					a.DCol = newDelta
				}
			})
		})
		if touched {
			dirty[f.key] = struct{}{}
		}
		if diedHere {
			dead[f.key] = true
		}
	}

	// Step 2: mutate the AxisIndex.
	axisIndex := s.cols
	if rowsAxis {
		axisIndex = s.rows
	}
	if ins > 0 {
		axisIndex.Insert(atPos, ins)
	}
	var retired []axis.Id
	if del > 0 {
		retired = axisIndex.Remove(atPos, atPos+del-1)
	}

	// Step 1b: re-validate range ordering now that the axis reflects the
	// post-splice state. This must follow the axis mutation: resolving
	// before it would mix pre-splice base positions with the deltas we
	// just rewrote for the post-splice frame.
	for _, f := range formulas {
		if dead[f.key] {
			continue
		}
		invalid := false
		f.ast.Walk(func(n formula.Node) {
			if invalid {
				return
			}
			if rn, ok := n.(*formula.RangeNode); ok {
				if _, ok := rn.Ref.Resolve(s.rows, s.cols); !ok {
					invalid = true
				}
			}
		})
		if invalid {
			dead[f.key] = true
		}
	}

	// Collapse every formula whose reference died to Value(#REF!), unless
	// its own cell identifier was itself retired (step 3 removes those
	// wholesale, so touching them here would be wasted work).
	for key := range dead {
		if !s.rows.IsLive(key.Row) || !s.cols.IsLive(key.Col) {
			continue
		}
		s.retractInbound(key)
		s.cells.Set(key, cellstore.Cell{Kind: cellstore.KindValue, Value: formula.ErrRef})
		dirty[key] = struct{}{}
		s.log.Debug("formula collapsed to #REF! by splice", "key", key)
	}

	// Step 3: bulk-remove cells whose identifiers were retired, capturing
	// their dependents as dirty before retracting the now-meaningless
	// edges (AffectedFrom can no longer discover them once the edges are
	// gone, since the producer itself no longer exists).
	if len(retired) > 0 {
		var removedKeys []cellstore.Key
		if rowsAxis {
			removedKeys = s.cells.RemoveRows(retired)
		} else {
			removedKeys = s.cells.RemoveCols(retired)
		}
		for _, key := range removedKeys {
			for _, dependent := range s.deps.GetDependents(key) {
				dirty[dependent] = struct{}{}
			}
			s.deps.RemoveAll(key)
			s.watches.RemoveWatches(key)
		}
	}

	// Step 4: recalculate the accumulated dirty set.
	s.recalcLocked(dirty)
}
