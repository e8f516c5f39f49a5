package spreadsheet

import "fmt"

// ErrorCode represents the kinds of failure the engine reports.
type ErrorCode uint8

const (
	ErrorCodeInvalidCellID     ErrorCode = 1 // index or identifier outside the grid shape/pattern
	ErrorCodeInvalidExpression ErrorCode = 2 // expression fails to parse or evaluate
	ErrorCodeCircularReference ErrorCode = 3 // evaluation depends on itself
	ErrorCodeInvalidShape      ErrorCode = 4 // raw matrix or shape does not fit
)

// ErrorMapper maps error codes to their string representations
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeInvalidCellID:     "invalid cell id",
	ErrorCodeInvalidExpression: "invalid expression",
	ErrorCodeCircularReference: "circular reference",
	ErrorCodeInvalidShape:      "invalid shape",
}

// Sentinels for errors.Is. Matching is by code only, so any
// *SpreadsheetError with the same code compares equal.
var (
	ErrInvalidCellID     = &SpreadsheetError{ErrorCode: ErrorCodeInvalidCellID}
	ErrInvalidExpression = &SpreadsheetError{ErrorCode: ErrorCodeInvalidExpression}
	ErrCircularReference = &SpreadsheetError{ErrorCode: ErrorCodeCircularReference}
	ErrInvalidShape      = &SpreadsheetError{ErrorCode: ErrorCodeInvalidShape}
)

// SpreadsheetError carries the error code plus the identifiers involved.
// For circular references Cell is the referencing cell and Reference the
// cell that closed the loop.
type SpreadsheetError struct {
	ErrorCode ErrorCode
	Message   string
	Cell      string
	Reference string
}

func (e *SpreadsheetError) Error() string {
	prefix := ErrorMapper[e.ErrorCode]
	switch {
	case e.Message != "" && e.Cell != "":
		return fmt.Sprintf("%s: %s: %s", prefix, e.Cell, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	case e.Cell != "":
		return fmt.Sprintf("%s: %s", prefix, e.Cell)
	}
	return prefix
}

// Is reports whether target is a *SpreadsheetError with the same code.
func (e *SpreadsheetError) Is(target error) bool {
	t, ok := target.(*SpreadsheetError)
	if !ok {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}

func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	return &SpreadsheetError{
		ErrorCode: code,
		Message:   message,
	}
}

func newCircularReferenceError(cell, reference string) *SpreadsheetError {
	return &SpreadsheetError{
		ErrorCode: ErrorCodeCircularReference,
		Message:   fmt.Sprintf("%s referenced from %s", reference, cell),
		Cell:      cell,
		Reference: reference,
	}
}

// withCell returns a copy of err annotated with the cell it surfaced in,
// unless it is already annotated.
func withCell(err error, cell string) error {
	se, ok := err.(*SpreadsheetError)
	if !ok || se.Cell != "" {
		return err
	}
	annotated := *se
	annotated.Cell = cell
	return &annotated
}

// CellAddress identifies a cell by zero-based row and column
type CellAddress struct {
	Row    int
	Column int
}

// Cell is one entry of the grid arena. References point at other cells by
// address only; dependents is the reverse edge set.
type Cell struct {
	Address    CellAddress
	ID         string      // canonical identifier, e.g. "A1"
	expression *Expression // parsed once per update
	references []CellAddress
	value      float64
	cached     bool // false means stale
	dependents map[CellAddress]struct{}
}

func newCell(addr CellAddress, id string, expr *Expression) *Cell {
	return &Cell{
		Address:    addr,
		ID:         id,
		expression: expr,
		dependents: make(map[CellAddress]struct{}),
	}
}

// Expression returns the raw expression text
func (c *Cell) Expression() string {
	return c.expression.Text()
}

// Value returns the cached value and whether it is valid
func (c *Cell) Value() (float64, bool) {
	return c.value, c.cached
}

func (c *Cell) store(v float64) {
	c.value = v
	c.cached = true
}

func (c *Cell) invalidate() {
	c.value = 0
	c.cached = false
}

func (c *Cell) addDependent(addr CellAddress) {
	c.dependents[addr] = struct{}{}
}

func (c *Cell) removeDependent(addr CellAddress) {
	delete(c.dependents, addr)
}

func (c *Cell) hasDependent(addr CellAddress) bool {
	_, ok := c.dependents[addr]
	return ok
}
