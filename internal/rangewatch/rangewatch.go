// Package rangewatch tracks which formulas observe which rectangular
// regions of a sheet, so that writing into a previously empty cell inside
// an observed range can invalidate the observer even though no producer
// edge existed for that address before the write (spec.md §4.6).
//
// Grounded on the teacher's DependencyGraph.rangeObservers map and
// IsInRange/MarkCellIfInRangeDirty helpers (graph.go), split into its own
// package to match the component boundary spec.md §2 draws between
// RangeWatchers and DepGraph (the teacher folds range observation directly
// into its graph type).
package rangewatch

import (
	"github.com/vogtb/sheetcore/internal/axis"
	"github.com/vogtb/sheetcore/internal/cellstore"
)

// Rect names a rectangle by the identifiers of its two resolved corners, not
// by position: identifiers do not stay position-ordered across structural
// edits (a row inserted above an existing one mints the newest id at the
// lowest position), so containment can only be decided by resolving corners
// and candidate cells to their *current* positions through the owning
// AxisIndexes, which is what Contains and WatchersOf do. Corners are
// resolved addresses, not anchors: by the time a range reaches RangeWatchers
// it has already been resolved once (spec.md §4.5).
type Rect struct {
	MinRow, MaxRow axis.Id
	MinCol, MaxCol axis.Id
}

// PosLookup resolves an axis identifier to its current position, matching
// the query surface *axis.Index exposes. Kept as a small interface (rather
// than importing *axis.Index by name into every call site) purely so tests
// can stub it without constructing a real axis.
type PosLookup interface {
	IdToPos(axis.Id) (int, bool)
}

// Contains reports whether cell is currently inside r, resolving corners
// and the cell through rows/cols. A corner or the cell itself failing to
// resolve (its identifier has been retired since the watch was installed)
// means the rectangle is stale; Contains reports false rather than panic,
// leaving cleanup to the next recalc's replaceAllInbound/addWatch pass.
func (r Rect) Contains(cell cellstore.Key, rows, cols PosLookup) bool {
	rowPos, ok := rows.IdToPos(cell.Row)
	if !ok {
		return false
	}
	colPos, ok := cols.IdToPos(cell.Col)
	if !ok {
		return false
	}
	minRow, ok := rows.IdToPos(r.MinRow)
	if !ok {
		return false
	}
	maxRow, ok := rows.IdToPos(r.MaxRow)
	if !ok {
		return false
	}
	minCol, ok := cols.IdToPos(r.MinCol)
	if !ok {
		return false
	}
	maxCol, ok := cols.IdToPos(r.MaxCol)
	if !ok {
		return false
	}
	if minRow > maxRow {
		minRow, maxRow = maxRow, minRow
	}
	if minCol > maxCol {
		minCol, maxCol = maxCol, minCol
	}
	return rowPos >= minRow && rowPos <= maxRow && colPos >= minCol && colPos <= maxCol
}

// Watchers indexes range-observation relationships for one sheet.
type Watchers struct {
	watchers      map[cellstore.Key]map[Key]struct{} // cell -> formulas observing a range that contains it
	formulaRanges map[Key][]Rect                     // formula -> ranges it observes
}

// Key identifies the formula (its own cell key) that owns a set of range
// observations.
type Key = cellstore.Key

// New returns an empty watcher index.
func New() *Watchers {
	return &Watchers{
		watchers:      make(map[cellstore.Key]map[Key]struct{}),
		formulaRanges: make(map[Key][]Rect),
	}
}

// AddWatch registers formula as an observer of r. Idempotent: re-adding
// the same (r, formula) pair is a no-op.
func (w *Watchers) AddWatch(r Rect, formula Key) {
	for _, existing := range w.formulaRanges[formula] {
		if existing == r {
			return
		}
	}
	w.formulaRanges[formula] = append(w.formulaRanges[formula], r)
}

// RemoveWatches drops every range formula observes, and its membership in
// every per-cell watcher set that referenced it. Used when a formula is
// retired or replaced (spec.md §4.6).
func (w *Watchers) RemoveWatches(formula Key) {
	delete(w.formulaRanges, formula)
	for cell, set := range w.watchers {
		delete(set, formula)
		if len(set) == 0 {
			delete(w.watchers, cell)
		}
	}
}

// RegisterCell records that formula currently observes cell (the engine
// registers every producer cell of the formula, whether reached through a
// single reference or a range). Idempotent.
func (w *Watchers) RegisterCell(cell cellstore.Key, formula Key) {
	if w.watchers[cell] == nil {
		w.watchers[cell] = make(map[Key]struct{})
	}
	w.watchers[cell][formula] = struct{}{}
}

// WatchersOf returns the formulas that observe cell, either through a
// direct registration or because cell currently falls inside one of their
// watched ranges. rows/cols resolve identifiers to their live positions for
// the containment test; Engine passes its own AxisIndexes.
func (w *Watchers) WatchersOf(cell cellstore.Key, rows, cols PosLookup) []Key {
	direct := w.watchers[cell]
	seen := make(map[Key]struct{}, len(direct))
	out := make([]Key, 0, len(direct))
	for f := range direct {
		seen[f] = struct{}{}
		out = append(out, f)
	}
	for formula, ranges := range w.formulaRanges {
		if _, already := seen[formula]; already {
			continue
		}
		for _, r := range ranges {
			if r.Contains(cell, rows, cols) {
				out = append(out, formula)
				break
			}
		}
	}
	return out
}
