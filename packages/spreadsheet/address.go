package spreadsheet

import (
	"fmt"
	"strconv"
)

// MaxRows is the ceiling of the single-letter row notation ('A'..'Z').
const MaxRows = 26

// Shape holds the dimensions of a grid. Each grid carries its own shape so
// grids of different sizes can coexist.
type Shape struct {
	Rows    int
	Columns int
}

// DefaultShape is the 26x9 layout of the reference deployment.
var DefaultShape = Shape{Rows: 26, Columns: 9}

// NewShape validates and returns a shape. Rows beyond MaxRows cannot be
// written as identifiers and are rejected.
func NewShape(rows, columns int) (Shape, error) {
	if rows < 1 || rows > MaxRows {
		return Shape{}, NewSpreadsheetError(ErrorCodeInvalidShape,
			fmt.Sprintf("rows must be between 1 and %d, got %d", MaxRows, rows))
	}
	if columns < 1 {
		return Shape{}, NewSpreadsheetError(ErrorCodeInvalidShape,
			fmt.Sprintf("columns must be positive, got %d", columns))
	}
	return Shape{Rows: rows, Columns: columns}, nil
}

// Contains reports whether row and column fall inside the shape
func (s Shape) Contains(row, column int) bool {
	return row >= 0 && row < s.Rows && column >= 0 && column < s.Columns
}

// Encode converts a zero-based (row, column) pair to its identifier, e.g.
// (0, 0) -> "A1", (1, 8) -> "B9".
func (s Shape) Encode(row, column int) (string, error) {
	if !s.Contains(row, column) || row >= MaxRows {
		return "", &SpreadsheetError{
			ErrorCode: ErrorCodeInvalidCellID,
			Message:   fmt.Sprintf("row %d column %d outside %dx%d grid", row, column, s.Rows, s.Columns),
		}
	}
	return string(rune('A'+row)) + strconv.Itoa(column+1), nil
}

// Decode parses an identifier of the form [A-Z][1-9][0-9]* into an
// address inside the shape.
func (s Shape) Decode(id string) (CellAddress, error) {
	invalid := func(reason string) (CellAddress, error) {
		return CellAddress{}, &SpreadsheetError{
			ErrorCode: ErrorCodeInvalidCellID,
			Message:   reason,
			Cell:      id,
		}
	}

	if len(id) < 2 {
		return invalid("identifier too short")
	}
	if id[0] < 'A' || id[0] > 'Z' {
		return invalid("row must be an uppercase letter")
	}
	if id[1] < '1' || id[1] > '9' {
		return invalid("column must start with a non-zero digit")
	}
	for i := 2; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return invalid("column must be decimal")
		}
	}

	// digit run longer than any in-range column cannot be valid, and
	// would overflow Atoi on absurd input
	if len(id)-1 > len(strconv.Itoa(s.Columns)) {
		return invalid(fmt.Sprintf("outside %dx%d grid", s.Rows, s.Columns))
	}

	column, err := strconv.Atoi(id[1:])
	if err != nil {
		return invalid("column must be decimal")
	}

	addr := CellAddress{Row: int(id[0] - 'A'), Column: column - 1}
	if !s.Contains(addr.Row, addr.Column) {
		return invalid(fmt.Sprintf("outside %dx%d grid", s.Rows, s.Columns))
	}
	return addr, nil
}

// MustEncode is Encode for addresses already known to be in bounds.
func (s Shape) MustEncode(addr CellAddress) string {
	id, err := s.Encode(addr.Row, addr.Column)
	if err != nil {
		panic(err)
	}
	return id
}
