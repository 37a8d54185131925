// Package engine coordinates AxisIndex, CellStore, DepGraph, and
// RangeWatchers behind a single Sheet handle, exposing the external
// operations spec.md §6 names: setValue, setFormula, getValue, getSource,
// insertRows/insertCols, deleteRows/deleteCols. Every public method holds
// a coarse sync.Mutex for its whole duration (spec.md §5's concurrency
// model), the same "one big lock around the whole spreadsheet" posture the
// teacher's Spreadsheet takes (sheet.go), generalized from a single
// goroutine's worth of safety to actual concurrent callers.
package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vogtb/sheetcore/internal/axis"
	"github.com/vogtb/sheetcore/internal/cellstore"
	"github.com/vogtb/sheetcore/internal/depgraph"
	"github.com/vogtb/sheetcore/internal/formula"
	"github.com/vogtb/sheetcore/internal/rangewatch"
	"github.com/vogtb/sheetcore/internal/telemetry"
)

// Sheet is one spreadsheet instance: the four data structures spec.md §2
// names, wired together, plus the ambient logging/metrics every method
// call reports through.
type Sheet struct {
	id uuid.UUID
	mu sync.Mutex

	rows *axis.Index
	cols *axis.Index

	cells   *cellstore.Store
	deps    *depgraph.Graph
	watches *rangewatch.Watchers
	fns     *formula.Functions

	metrics *telemetry.Metrics
	log     *slog.Logger

	// evaluating guards against a self-cycle through the *current*
	// evaluation stack (spec.md §4.4's #CYCLE! case that AddEdge's
	// wouldCreateCycle probe cannot see in advance, e.g. a demand
	// re-entrant read triggered mid-Eval before the graph edges for
	// this exact write have stabilized).
	evaluating map[cellstore.Key]bool
}

// Option configures NewSheet. Grounded on the functional-options
// constructor idiom used throughout the pack for anything with more than
// one or two optional knobs.
type Option func(*sheetConfig)

type sheetConfig struct {
	initialRows int
	initialCols int
	logger      *slog.Logger
	registry    *prometheus.Registry
}

// WithInitialRows sets how many rows exist when the sheet is created.
func WithInitialRows(n int) Option {
	return func(c *sheetConfig) { c.initialRows = n }
}

// WithInitialCols sets how many columns exist when the sheet is created.
func WithInitialCols(n int) Option {
	return func(c *sheetConfig) { c.initialCols = n }
}

// WithLogger injects a structured logger; nil falls back to slog's default.
func WithLogger(l *slog.Logger) Option {
	return func(c *sheetConfig) { c.logger = l }
}

// WithMetricsRegistry registers the sheet's Prometheus collectors against
// reg. Passing no WithMetricsRegistry option leaves metrics unregistered
// but still safe to increment/observe.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *sheetConfig) { c.registry = reg }
}

// NewSheet builds a Sheet with initialRows rows and initialCols columns
// already live, per spec.md §6's "new sheet" operation.
func NewSheet(opts ...Option) *Sheet {
	cfg := &sheetConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	s, err := newSheetFromComponents(
		axis.New(cfg.initialRows),
		axis.New(cfg.initialCols),
		cellstore.New(),
		depgraph.New(),
		rangewatch.New(),
		formula.NewFunctions(),
		telemetry.NewMetrics(cfg.registry),
		telemetry.NewLogger(cfg.logger),
	)
	if err != nil {
		// Every component above is freshly constructed and non-nil;
		// this branch is unreachable from NewSheet itself, only from
		// newSheetFromComponents called directly (e.g. in tests).
		panic(err)
	}
	s.log.Info("sheet created", "handle", s.id, "rows", cfg.initialRows, "cols", cfg.initialCols)
	return s
}

// newSheetFromComponents wires an already-constructed set of components
// into a Sheet, rejecting a nil dependency the way the teacher's
// NewApplicationError flags a genuine construction mistake rather than
// letting it surface later as a nil-pointer panic deep in Eval.
func newSheetFromComponents(
	rows, cols *axis.Index,
	cells *cellstore.Store,
	deps *depgraph.Graph,
	watches *rangewatch.Watchers,
	fns *formula.Functions,
	metrics *telemetry.Metrics,
	log *slog.Logger,
) (*Sheet, error) {
	if rows == nil || cols == nil || cells == nil || deps == nil || watches == nil || fns == nil {
		return nil, newSheetError("newSheet", errNilComponent)
	}
	return &Sheet{
		id:         uuid.New(),
		rows:       rows,
		cols:       cols,
		cells:      cells,
		deps:       deps,
		watches:    watches,
		fns:        fns,
		metrics:    metrics,
		log:        telemetry.NewLogger(log),
		evaluating: make(map[cellstore.Key]bool),
	}, nil
}

// HandleID identifies this sheet in logs, for correlating operations
// across a multi-sheet workbook without exposing an internal pointer.
func (s *Sheet) HandleID() uuid.UUID { return s.id }

func (s *Sheet) resolve(pos formula.Position) (cellstore.Key, bool) {
	rowID, ok := s.rows.PosToId(pos.Row)
	if !ok {
		return cellstore.Key{}, false
	}
	colID, ok := s.cols.PosToId(pos.Col)
	if !ok {
		return cellstore.Key{}, false
	}
	return cellstore.Key{Row: rowID, Col: colID}, true
}

// dirtyFor returns key plus every formula that observes it through
// RangeWatchers, the seed set recalcLocked needs: key itself always
// changed, and range observers whose producer edge may not exist yet
// because the cell was empty until now (spec.md §4.6).
func (s *Sheet) dirtyFor(key cellstore.Key) map[cellstore.Key]struct{} {
	dirty := map[cellstore.Key]struct{}{key: {}}
	for _, w := range s.watches.WatchersOf(key, s.rows, s.cols) {
		dirty[w] = struct{}{}
	}
	return dirty
}

// retractInbound drops key's own producer edges and range watches,
// without touching edges where key is itself a producer for someone else
// (those consumers still validly depend on whatever key holds next).
func (s *Sheet) retractInbound(key cellstore.Key) {
	s.deps.ReplaceAllInbound(key, nil)
	s.watches.RemoveWatches(key)
}

// SetValue stores a literal number at pos, per spec.md §6. pos outside the
// live axes is a silent no-op.
func (s *Sheet) SetValue(pos formula.Position, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.resolve(pos)
	if !ok {
		return
	}
	s.retractInbound(key)
	s.cells.Set(key, cellstore.Cell{Kind: cellstore.KindValue, Value: value})
	s.recalcLocked(s.dirtyFor(key))
}

// ClearCell empties pos entirely (spec.md §4.5's supplemental clearCell
// operation): the address becomes unpopulated rather than holding a
// zero value, matching the distinction cellstore.Store.Has draws between
// "empty" and "holds 0".
func (s *Sheet) ClearCell(pos formula.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.resolve(pos)
	if !ok || !s.cells.Has(key) {
		return
	}
	s.retractInbound(key)
	s.cells.Delete(key)
	s.recalcLocked(s.dirtyFor(key))
}

// GetValue returns pos's current scalar, evaluating on demand if a formula
// cell's cache is stale (spec.md §6). An unpopulated or out-of-range
// address returns nil.
func (s *Sheet) GetValue(pos formula.Position) formula.Scalar {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.resolve(pos)
	if !ok {
		return nil
	}
	return s.valueAt(key)
}

// GetSource returns pos's formula text (with its leading `=`) or the
// display text of its literal value, never the evaluated result (spec.md
// §6). Formula text is re-printed from the current AST relative to pos, so
// references reflect any splice since the formula was written; it is not
// the original text verbatim (binary operations print parenthesized).
func (s *Sheet) GetSource(pos formula.Position) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.resolve(pos)
	if !ok {
		return ""
	}
	cell, ok := s.cells.Get(key)
	if !ok {
		return ""
	}
	if cell.Kind == cellstore.KindFormula {
		ast, ok := cell.AST.(formula.Node)
		if !ok {
			return ""
		}
		return "=" + formula.Format(ast, pos)
	}
	return formula.ToDisplayString(cell.Value)
}

// valueAt reads through the cache, evaluating on demand when necessary.
// The self-cycle guard is checked before the cache: key being on the
// current evaluation stack means some formula's own evaluation has looped
// back to asking for key's value again, which must yield #CYCLE! even if
// key happens to already hold a cache left over from before this
// evaluation stack started (see evalFormulaCell's matching guard).
// Callers must already hold s.mu.
func (s *Sheet) valueAt(key cellstore.Key) formula.Scalar {
	if s.evaluating[key] {
		return formula.ErrCycle
	}
	cell, ok := s.cells.Get(key)
	if !ok {
		return nil
	}
	if cell.Kind == cellstore.KindValue {
		return cell.Value
	}
	if cell.Cached != nil {
		return cell.Cached
	}
	return s.evalFormulaCell(key, cell)
}

// evalFormulaCell evaluates cell's AST and writes the result back as its
// cache. If key is already on the evaluation stack (a self-cycle the
// DepGraph's edges did not yet reflect), it returns #CYCLE! without
// recursing further, the same backstop the teacher's CalculationStack
// provides around ASTNode.Eval.
func (s *Sheet) evalFormulaCell(key cellstore.Key, cell cellstore.Cell) formula.Scalar {
	if s.evaluating[key] {
		return formula.ErrCycle
	}
	ast, ok := cell.AST.(formula.Node)
	if !ok {
		return formula.ErrValue
	}
	s.evaluating[key] = true
	result := ast.Eval(&evalCtx{sheet: s})
	delete(s.evaluating, key)

	cell.Cached = result
	s.cells.Set(key, cell)
	return result
}

// evalCtx bridges formula.EvalContext to a locked Sheet. It is created
// fresh per top-level evaluation rather than stored on Sheet, since it
// carries no state of its own beyond the sheet pointer.
type evalCtx struct {
	sheet *Sheet
}

func (c *evalCtx) Rows() *axis.Index { return c.sheet.rows }
func (c *evalCtx) Cols() *axis.Index { return c.sheet.cols }

func (c *evalCtx) ValueAt(addr formula.Address) formula.Scalar {
	return c.sheet.valueAt(cellstore.Key{Row: addr.Row, Col: addr.Col})
}

func (c *evalCtx) IterateRect(rect formula.ResolvedRect, fn func(formula.Scalar)) {
	s := c.sheet
	minRowPos, ok := s.rows.IdToPos(rect.MinRow)
	if !ok {
		return
	}
	maxRowPos, ok := s.rows.IdToPos(rect.MaxRow)
	if !ok {
		return
	}
	minColPos, ok := s.cols.IdToPos(rect.MinCol)
	if !ok {
		return
	}
	maxColPos, ok := s.cols.IdToPos(rect.MaxCol)
	if !ok {
		return
	}
	for r := minRowPos; r <= maxRowPos; r++ {
		rid, ok := s.rows.PosToId(r)
		if !ok {
			continue
		}
		for cpos := minColPos; cpos <= maxColPos; cpos++ {
			cid, ok := s.cols.PosToId(cpos)
			if !ok {
				continue
			}
			fn(s.valueAt(cellstore.Key{Row: rid, Col: cid}))
		}
	}
}

func (c *evalCtx) Call(name string, args []formula.Scalar) (formula.Scalar, error) {
	return c.sheet.fns.Call(name, args)
}

// computeProducers walks ast for every Ref/Range anchor it contains and
// returns the sparse producer set (only currently-populated cells become
// DepGraph edges; an empty cell inside a range relies on RangeWatchers
// instead, see the RangeWatchers/DepGraph split entry in DESIGN.md) plus
// every resolved rectangle, for the caller to register as a watched range.
func (s *Sheet) computeProducers(ast formula.Node) (producers []cellstore.Key, ranges []rangewatch.Rect) {
	seen := make(map[cellstore.Key]struct{})
	addProducer := func(k cellstore.Key) {
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		producers = append(producers, k)
	}

	ast.Walk(func(n formula.Node) {
		switch t := n.(type) {
		case *formula.RefNode:
			addr, ok := t.Ref.Resolve(s.rows, s.cols)
			if !ok {
				return
			}
			addProducer(cellstore.Key{Row: addr.Row, Col: addr.Col})
		case *formula.RangeNode:
			rect, ok := t.Ref.Resolve(s.rows, s.cols)
			if !ok {
				return
			}
			ranges = append(ranges, rangewatch.Rect{
				MinRow: rect.MinRow, MaxRow: rect.MaxRow,
				MinCol: rect.MinCol, MaxCol: rect.MaxCol,
			})
			minRowPos, ok := s.rows.IdToPos(rect.MinRow)
			if !ok {
				return
			}
			maxRowPos, _ := s.rows.IdToPos(rect.MaxRow)
			minColPos, ok := s.cols.IdToPos(rect.MinCol)
			if !ok {
				return
			}
			maxColPos, _ := s.cols.IdToPos(rect.MaxCol)
			for r := minRowPos; r <= maxRowPos; r++ {
				rid, ok := s.rows.PosToId(r)
				if !ok {
					continue
				}
				for cpos := minColPos; cpos <= maxColPos; cpos++ {
					cid, ok := s.cols.PosToId(cpos)
					if !ok {
						continue
					}
					k := cellstore.Key{Row: rid, Col: cid}
					if s.cells.Has(k) {
						addProducer(k)
					}
				}
			}
		}
	})
	return producers, ranges
}

// installProducers wires key's DepGraph inbound edges and RangeWatchers
// registrations from a freshly computed producer/range set.
func (s *Sheet) installProducers(key cellstore.Key, producers []cellstore.Key, ranges []rangewatch.Rect) {
	s.deps.ReplaceAllInbound(key, producers)
	s.watches.RemoveWatches(key)
	for _, p := range producers {
		s.watches.RegisterCell(p, key)
	}
	for _, r := range ranges {
		s.watches.AddWatch(r, key)
	}
}

// tryInstallProducers checks every candidate producer with
// DepGraph.WouldCreateCycle before installing anything at key. Per
// spec.md §4.3's cycle policy, if any producer would close a loop back to
// key, NO edges are installed — key's inbound set (and range watches) are
// retracted instead, and installed reports false. Shared by SetFormula (a
// brand new formula) and refreshRangeProducers (an existing formula whose
// producer set can change on every recalc pass, e.g. because a splice
// moved what one of its ranges spans) so neither path can reintroduce the
// exact edge the other just refused to create.
func (s *Sheet) tryInstallProducers(key cellstore.Key, producers []cellstore.Key, ranges []rangewatch.Rect) (installed bool) {
	for _, p := range producers {
		if s.deps.WouldCreateCycle(p, key) {
			s.metrics.CycleDetectedTotal.Inc()
			s.retractInbound(key)
			return false
		}
	}
	s.installProducers(key, producers, ranges)
	return true
}

// SetFormula parses text and installs it at pos, per spec.md §6 and §4.3.
// A parse error or a producer set that would close a dependency cycle
// collapses the cell rather than mutating the graph: a malformed formula
// becomes Value(#REF!); a cyclic one keeps its AST with no installed
// edges, converging to #CYCLE! the next time it is evaluated (see the
// cycle-detection entry in DESIGN.md for why no edges are needed to reach
// that state).
func (s *Sheet) SetFormula(pos formula.Position, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowID, ok1 := s.rows.PosToId(pos.Row)
	colID, ok2 := s.cols.PosToId(pos.Col)
	if !ok1 || !ok2 {
		return
	}
	key := cellstore.Key{Row: rowID, Col: colID}
	s.retractInbound(key)

	ast, err := formula.Parse(text, pos)
	if err != nil {
		s.log.Debug("formula parse failed, cell collapsed to #REF!", "pos", pos, "err", err)
		s.cells.Set(key, cellstore.Cell{Kind: cellstore.KindValue, Value: formula.ErrRef})
		s.recalcLocked(s.dirtyFor(key))
		return
	}
	formula.BindBase(ast, rowID, colID)

	producers, ranges := s.computeProducers(ast)
	if !s.tryInstallProducers(key, producers, ranges) {
		s.log.Debug("formula would close a dependency cycle, no edges installed", "pos", pos)
	}
	s.cells.Set(key, cellstore.Cell{Kind: cellstore.KindFormula, AST: ast, HasText: true, Text: text})
	s.recalcLocked(s.dirtyFor(key))
}
