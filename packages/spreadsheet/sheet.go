package spreadsheet

import (
	"fmt"
	"log/slog"
)

// Spreadsheet owns a fixed grid of cells and evaluates them lazily. It is
// not safe for concurrent use; see Locked.
type Spreadsheet struct {
	shape       Shape
	graph       *DependencyGraph
	logger      *slog.Logger
	evaluations uint64
}

// Option configures a Spreadsheet at construction
type Option func(*Spreadsheet)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spreadsheet) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// CellResult is the outcome of evaluating one cell during Calculate
type CellResult struct {
	Address    CellAddress
	ID         string
	Expression string
	Value      float64
	Err        error
}

// New builds a spreadsheet of DefaultShape from raw expressions
func New(raw [][]string, opts ...Option) (*Spreadsheet, error) {
	return NewWithShape(raw, DefaultShape, opts...)
}

// NewWithShape builds a spreadsheet from raw expressions. raw must match
// shape exactly. Every reference is resolved up front: a reference outside
// the grid fails construction with an invalid cell id error.
func NewWithShape(raw [][]string, shape Shape, opts ...Option) (*Spreadsheet, error) {
	shape, err := NewShape(shape.Rows, shape.Columns)
	if err != nil {
		return nil, err
	}

	if len(raw) != shape.Rows {
		return nil, NewSpreadsheetError(ErrorCodeInvalidShape,
			fmt.Sprintf("expected %d rows, got %d", shape.Rows, len(raw)))
	}
	for i, row := range raw {
		if len(row) != shape.Columns {
			return nil, NewSpreadsheetError(ErrorCodeInvalidShape,
				fmt.Sprintf("row %d: expected %d columns, got %d", i, shape.Columns, len(row)))
		}
	}

	s := &Spreadsheet{
		shape:  shape,
		graph:  NewDependencyGraph(shape),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, row := range raw {
		for j, text := range row {
			addr := CellAddress{Row: i, Column: j}
			s.graph.putCell(newCell(addr, s.shape.MustEncode(addr), NewExpression(text)))
		}
	}

	edges := 0
	for c := range s.graph.Cells() {
		refs, err := s.resolveReferences(c.ID, c.expression)
		if err != nil {
			return nil, err
		}
		c.references = refs
		s.graph.link(c.Address, refs)
		edges += len(refs)
	}

	s.logger.Debug("spreadsheet built", "rows", shape.Rows, "columns", shape.Columns, "references", edges)
	return s, nil
}

// resolveReferences decodes every identifier of expr against the shape.
// The error names both the cell holding expr and the bad reference.
func (s *Spreadsheet) resolveReferences(cellID string, expr *Expression) ([]CellAddress, error) {
	ids := expr.References()
	refs := make([]CellAddress, 0, len(ids))
	for _, id := range ids {
		addr, err := s.shape.Decode(id)
		if err != nil {
			return nil, &SpreadsheetError{
				ErrorCode: ErrorCodeInvalidCellID,
				Message:   fmt.Sprintf("reference %s outside %dx%d grid", id, s.shape.Rows, s.shape.Columns),
				Cell:      cellID,
				Reference: id,
			}
		}
		refs = append(refs, addr)
	}
	return refs, nil
}

// cellAt bounds-checks row and column before touching the arena
func (s *Spreadsheet) cellAt(row, column int) (*Cell, error) {
	if _, err := s.shape.Encode(row, column); err != nil {
		return nil, err
	}
	return s.graph.GetCell(CellAddress{Row: row, Column: column}), nil
}

// Shape returns the grid dimensions
func (s *Spreadsheet) Shape() Shape {
	return s.shape
}

// GetValue returns the value of the cell at (row, column), computing and
// caching it and any uncached references first.
func (s *Spreadsheet) GetValue(row, column int) (float64, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return 0, err
	}

	visited := map[CellAddress]struct{}{c.Address: {}}
	return s.resolve(c, visited)
}

// resolve evaluates c. visited holds exactly the cells on the current
// resolution path, so two siblings sharing a dependency is fine and only a
// reference back into the path is a cycle. Caches are written only when
// the whole subtree succeeds.
func (s *Spreadsheet) resolve(c *Cell, visited map[CellAddress]struct{}) (float64, error) {
	if v, ok := c.Value(); ok {
		return v, nil
	}

	ids := c.expression.References()
	bindings := make(Bindings, len(ids))
	for i, ref := range c.references {
		id := ids[i]
		if _, bound := bindings[id]; bound {
			continue
		}
		if _, onPath := visited[ref]; onPath {
			s.logger.Debug("circular reference", "cell", c.ID, "reference", id)
			return 0, newCircularReferenceError(c.ID, id)
		}

		visited[ref] = struct{}{}
		v, err := s.resolve(s.graph.GetCell(ref), visited)
		delete(visited, ref)
		if err != nil {
			return 0, err
		}
		bindings[id] = v
	}

	s.evaluations++
	v, err := c.expression.Evaluate(bindings)
	if err != nil {
		return 0, withCell(err, c.ID)
	}
	c.store(v)
	return v, nil
}

// SetValue replaces the expression of the cell at (row, column). Cached
// values of the cell and its transitive dependents are cleared; nothing is
// recomputed until the next read. A reference outside the grid is rejected
// before anything changes.
func (s *Spreadsheet) SetValue(row, column int, expression string) error {
	c, err := s.cellAt(row, column)
	if err != nil {
		return err
	}

	expr := NewExpression(expression)
	refs, err := s.resolveReferences(c.ID, expr)
	if err != nil {
		return err
	}

	if cleared := s.graph.Invalidate(c.Address); cleared > 0 {
		s.logger.Debug("invalidated", "cell", c.ID, "cleared", cleared)
	}

	s.graph.unlink(c.Address, c.references)
	c.expression = expr
	c.references = refs
	c.invalidate()
	s.graph.link(c.Address, refs)
	return nil
}

// GetValueAt is GetValue addressed by identifier, e.g. "B3"
func (s *Spreadsheet) GetValueAt(id string) (float64, error) {
	addr, err := s.shape.Decode(id)
	if err != nil {
		return 0, err
	}
	return s.GetValue(addr.Row, addr.Column)
}

// SetValueAt is SetValue addressed by identifier
func (s *Spreadsheet) SetValueAt(id string, expression string) error {
	addr, err := s.shape.Decode(id)
	if err != nil {
		return err
	}
	return s.SetValue(addr.Row, addr.Column, expression)
}

// Calculate evaluates every cell in row-major order. A failing cell is
// reported in its result and does not stop the pass.
func (s *Spreadsheet) Calculate() [][]CellResult {
	results := make([][]CellResult, s.shape.Rows)
	for i := range results {
		results[i] = make([]CellResult, s.shape.Columns)
		for j := range results[i] {
			c := s.graph.cells[i][j]
			v, err := s.GetValue(i, j)
			results[i][j] = CellResult{
				Address:    c.Address,
				ID:         c.ID,
				Expression: c.Expression(),
				Value:      v,
				Err:        err,
			}
		}
	}
	s.logger.Debug("calculated", "cells", s.shape.Rows*s.shape.Columns, "cached", s.graph.CachedCount())
	return results
}

// Expression returns the raw expression of the cell at (row, column)
func (s *Spreadsheet) Expression(row, column int) (string, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return "", err
	}
	return c.Expression(), nil
}

// ExpressionAt is Expression addressed by identifier
func (s *Spreadsheet) ExpressionAt(id string) (string, error) {
	addr, err := s.shape.Decode(id)
	if err != nil {
		return "", err
	}
	return s.Expression(addr.Row, addr.Column)
}

// References returns the identifiers the cell's expression mentions, in
// order, duplicates included
func (s *Spreadsheet) References(row, column int) ([]string, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.expression.References()...), nil
}

// Precedents returns the distinct identifiers the cell at (row, column)
// references, in order of first appearance
func (s *Spreadsheet) Precedents(row, column int) ([]string, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return nil, err
	}
	return s.ids(s.graph.GetDirectPrecedents(c.Address)), nil
}

// DirectDependents returns the identifiers of cells whose expression
// references the cell at (row, column)
func (s *Spreadsheet) DirectDependents(row, column int) ([]string, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return nil, err
	}
	return s.ids(s.graph.GetDirectDependents(c.Address)), nil
}

// AllDependents returns the identifiers of every cell that transitively
// depends on the cell at (row, column)
func (s *Spreadsheet) AllDependents(row, column int) ([]string, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return nil, err
	}
	return s.ids(s.graph.GetAllDependents(c.Address)), nil
}

// IsCached reports whether the cell at (row, column) holds a valid value
func (s *Spreadsheet) IsCached(row, column int) (bool, error) {
	c, err := s.cellAt(row, column)
	if err != nil {
		return false, err
	}
	_, ok := c.Value()
	return ok, nil
}

// EvaluationCount returns how many expression evaluations have run since
// construction. Cache hits do not count.
func (s *Spreadsheet) EvaluationCount() uint64 {
	return s.evaluations
}

func (s *Spreadsheet) ids(addrs []CellAddress) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = s.shape.MustEncode(a)
	}
	return out
}
