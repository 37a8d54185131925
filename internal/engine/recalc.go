package engine

import (
	"github.com/vogtb/sheetcore/internal/cellstore"
	"github.com/vogtb/sheetcore/internal/formula"
)

// recalcLocked runs the five-step recalculation driver from spec.md §4.5
// over dirty. Callers must already hold s.mu.
func (s *Sheet) recalcLocked(dirty map[cellstore.Key]struct{}) {
	if len(dirty) == 0 {
		return
	}

	// Step 1: clear the cached value of every dirty formula cell.
	for k := range dirty {
		cell, ok := s.cells.Get(k)
		if ok && cell.Kind == cellstore.KindFormula {
			cell.Cached = nil
			s.cells.Set(k, cell)
		}
	}

	// Step 2: forward closure over the dependency graph.
	affected := s.deps.AffectedFrom(dirty)

	// Step 3: order affected, flagging any cycle within it.
	order, cycles := s.deps.TopoOrder(affected)
	for k := range cycles {
		cell, ok := s.cells.Get(k)
		if ok && cell.Kind == cellstore.KindFormula {
			cell.Cached = formula.ErrCycle
			s.cells.Set(k, cell)
		}
	}

	// Step 4/5: re-evaluate every non-cyclic formula cell in order,
	// re-resolving each Sum/range node's producer set as we go, since a
	// splice can have changed which addresses the rectangle spans.
	for _, k := range order {
		if _, isCycle := cycles[k]; isCycle {
			continue
		}
		cell, ok := s.cells.Get(k)
		if !ok || cell.Kind != cellstore.KindFormula {
			continue
		}
		s.evalFormulaCell(k, cell)
		s.refreshRangeProducers(k)
	}

	s.metrics.RecalcTotal.Inc()
	s.metrics.RecalcAffectedSize.Observe(float64(len(affected)))
	s.log.Debug("recalculated", "dirty", len(dirty), "affected", len(affected), "cycles", len(cycles))
}

// refreshRangeProducers re-resolves k's Ref/Range anchors against the
// current axes and reinstalls its DepGraph inbound edges and RangeWatchers
// registrations. Always run, not just after a splice, per spec.md §4.5
// step 5's literal wording — an ordinary write does not change what a
// range resolves to, so this is a no-op relative to k's prior producer set
// in that case, but a splice does change it and needs exactly this.
//
// Goes through the same tryInstallProducers cycle gate SetFormula uses:
// a formula whose own SetFormula call declined to install edges because
// they would close a cycle must not have those edges silently reinstated
// here just because a later recalc pass revisits it. If the producer set
// would now close a loop, no edges are installed and k collapses to
// #CYCLE! instead of keeping whatever evalFormulaCell just computed from
// the withheld edge.
func (s *Sheet) refreshRangeProducers(k cellstore.Key) {
	cell, ok := s.cells.Get(k)
	if !ok || cell.Kind != cellstore.KindFormula {
		return
	}
	ast, ok := cell.AST.(formula.Node)
	if !ok {
		return
	}
	producers, ranges := s.computeProducers(ast)
	if !s.tryInstallProducers(k, producers, ranges) {
		cell.Cached = formula.ErrCycle
		s.cells.Set(k, cell)
	}
}
