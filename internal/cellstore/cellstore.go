// Package cellstore holds the sparse cell contents of a sheet, keyed by
// stable (RowId, ColId) identifiers rather than volatile positions.
//
// Addressing by identifier is already sparse (a spreadsheet with a million
// rows populates only a small fraction of the cross product), so unlike the
// teacher's position-chunked Worksheet (worksheet.go, which chunks because
// it must address dense positions), this store is a flat map plus two
// membership indexes that make bulk row/column removal proportional to the
// number of cells actually removed rather than a full scan.
package cellstore

import "github.com/vogtb/sheetcore/internal/axis"

// Key names a cell by the stable identifiers of the row and column that
// contain it.
type Key struct {
	Row axis.Id
	Col axis.Id
}

// Kind tags the shape of a Cell.
type Kind uint8

const (
	// KindValue holds a scalar (number or error sentinel).
	KindValue Kind = iota
	// KindFormula holds an AST plus an optional cached scalar.
	KindFormula
)

// Cell is the tagged variant from spec.md §3: Value(scalar) or
// Formula(ast, cached?). The concrete scalar/AST types live in package
// formula; cellstore only needs to store and retrieve opaque payloads, so
// it takes them as the `any` interface to avoid an import cycle between
// cellstore and formula (formula.EvalContext reads through cellstore).
type Cell struct {
	Kind    Kind
	Value   any // scalar payload when Kind == KindValue
	AST     any // formula.Node payload when Kind == KindFormula
	Cached  any // cached scalar for a formula cell, nil if not yet evaluated
	HasText bool
	Text    string // original formula text as written; getSource re-prints from AST instead
}

// Store is a sparse (RowId, ColId) -> Cell map with secondary indexes for
// bulk row/column removal.
type Store struct {
	cells map[Key]Cell
	byRow map[axis.Id]map[axis.Id]struct{}
	byCol map[axis.Id]map[axis.Id]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		cells: make(map[Key]Cell),
		byRow: make(map[axis.Id]map[axis.Id]struct{}),
		byCol: make(map[axis.Id]map[axis.Id]struct{}),
	}
}

// Get returns the cell at key, if populated.
func (s *Store) Get(key Key) (Cell, bool) {
	c, ok := s.cells[key]
	return c, ok
}

// Has reports whether key is populated.
func (s *Store) Has(key Key) bool {
	_, ok := s.cells[key]
	return ok
}

// Set stores or replaces the cell at key.
func (s *Store) Set(key Key, c Cell) {
	if _, exists := s.cells[key]; !exists {
		s.index(key)
	}
	s.cells[key] = c
}

// Delete removes the cell at key, if any. Absence denotes emptiness.
func (s *Store) Delete(key Key) {
	if _, exists := s.cells[key]; !exists {
		return
	}
	delete(s.cells, key)
	s.unindex(key)
}

// Size returns the number of populated cells.
func (s *Store) Size() int { return len(s.cells) }

// IterAll calls fn once per populated cell. Iteration order is
// unspecified, per spec.md §4.2. fn must not mutate the store.
func (s *Store) IterAll(fn func(Key, Cell)) {
	for k, c := range s.cells {
		fn(k, c)
	}
}

// RemoveRows deletes every cell whose row identifier is in ids, returning
// the keys removed.
func (s *Store) RemoveRows(ids []axis.Id) []Key {
	var removed []Key
	for _, rid := range ids {
		cols := s.byRow[rid]
		for cid := range cols {
			removed = append(removed, Key{Row: rid, Col: cid})
		}
	}
	for _, k := range removed {
		delete(s.cells, k)
		s.unindex(k)
	}
	return removed
}

// RemoveCols deletes every cell whose column identifier is in ids,
// returning the keys removed.
func (s *Store) RemoveCols(ids []axis.Id) []Key {
	var removed []Key
	for _, cid := range ids {
		rows := s.byCol[cid]
		for rid := range rows {
			removed = append(removed, Key{Row: rid, Col: cid})
		}
	}
	for _, k := range removed {
		delete(s.cells, k)
		s.unindex(k)
	}
	return removed
}

func (s *Store) index(key Key) {
	if s.byRow[key.Row] == nil {
		s.byRow[key.Row] = make(map[axis.Id]struct{})
	}
	s.byRow[key.Row][key.Col] = struct{}{}
	if s.byCol[key.Col] == nil {
		s.byCol[key.Col] = make(map[axis.Id]struct{})
	}
	s.byCol[key.Col][key.Row] = struct{}{}
}

func (s *Store) unindex(key Key) {
	if cols, ok := s.byRow[key.Row]; ok {
		delete(cols, key.Col)
		if len(cols) == 0 {
			delete(s.byRow, key.Row)
		}
	}
	if rows, ok := s.byCol[key.Col]; ok {
		delete(rows, key.Row)
		if len(rows) == 0 {
			delete(s.byCol, key.Col)
		}
	}
}
