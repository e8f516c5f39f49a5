package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// basicData returns a DefaultShape matrix where every cell holds its own
// row-major index as a literal: row r, column c -> r*Columns + c.
func basicData() [][]string {
	data := make([][]string, DefaultShape.Rows)
	for r := range data {
		data[r] = make([]string, DefaultShape.Columns)
		for c := range data[r] {
			data[r][c] = strconv.Itoa(r*DefaultShape.Columns + c)
		}
	}
	return data
}

type SpreadsheetTestCase struct {
	t           *testing.T
	spreadsheet *Spreadsheet
}

func NewSpreadsheetTestCase(t *testing.T, data [][]string) *SpreadsheetTestCase {
	t.Helper()
	s, err := New(data)
	require.NoError(t, err)
	return &SpreadsheetTestCase{t: t, spreadsheet: s}
}

func (tc *SpreadsheetTestCase) Set(id string, expression string) *SpreadsheetTestCase {
	tc.t.Helper()
	require.NoError(tc.t, tc.spreadsheet.SetValueAt(id, expression), "Set(%s)", id)
	checkEdges(tc.t, tc.spreadsheet)
	return tc
}

func (tc *SpreadsheetTestCase) Expect(id string, want float64) *SpreadsheetTestCase {
	tc.t.Helper()
	got, err := tc.spreadsheet.GetValueAt(id)
	require.NoError(tc.t, err, "Get(%s)", id)
	assert.InDelta(tc.t, want, got, 1e-9, "Get(%s)", id)
	return tc
}

func (tc *SpreadsheetTestCase) ExpectErr(id string, target error) *SpreadsheetTestCase {
	tc.t.Helper()
	_, err := tc.spreadsheet.GetValueAt(id)
	assert.ErrorIs(tc.t, err, target, "Get(%s)", id)
	return tc
}

func (tc *SpreadsheetTestCase) ExpectCached(id string, want bool) *SpreadsheetTestCase {
	tc.t.Helper()
	addr, err := tc.spreadsheet.Shape().Decode(id)
	require.NoError(tc.t, err)
	cached, err := tc.spreadsheet.IsCached(addr.Row, addr.Column)
	require.NoError(tc.t, err)
	assert.Equal(tc.t, want, cached, "IsCached(%s)", id)
	return tc
}

// checkEdges asserts that dependents are exactly the inverse of references
// across the whole grid.
func checkEdges(t *testing.T, s *Spreadsheet) {
	t.Helper()
	for c := range s.graph.Cells() {
		for _, ref := range c.references {
			target := s.graph.GetCell(ref)
			assert.True(t, target.hasDependent(c.Address), "%s references %s but is not its dependent", c.ID, target.ID)
		}
		for dep := range c.dependents {
			assert.Contains(t, s.graph.GetCell(dep).references, c.Address, "%s lists dependent %v that does not reference it", c.ID, dep)
		}
	}
}

func TestNewWithoutReferences(t *testing.T) {
	data := basicData()
	s, err := New(data)
	require.NoError(t, err)

	for i := 0; i < DefaultShape.Rows; i++ {
		for j := 0; j < DefaultShape.Columns; j++ {
			v, err := s.GetValue(i, j)
			require.NoError(t, err)
			assert.Equal(t, float64(i*DefaultShape.Columns+j), v)
		}
	}
}

func TestNewWithReferences(t *testing.T) {
	data := basicData()
	data[0][0] = "10"
	for j := 1; j < DefaultShape.Columns; j++ {
		data[0][j] = "A1"
	}

	tc := NewSpreadsheetTestCase(t, data)
	for j := 1; j <= DefaultShape.Columns; j++ {
		tc.Expect(fmt.Sprintf("A%d", j), 10)
	}

	deps, err := tc.spreadsheet.DirectDependents(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9"}, deps)
}

func TestNewRejectsOutOfGridReference(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		reference  string
	}{
		{"column past grid", "A40", "A40"},
		{"column zero", "B0", "B0"},
		{"leading zero", "A01 + 1", "A01"},
		{"inside larger expression", "1 + (C2 * Z10)", "Z10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := basicData()
			data[2][3] = tt.expression

			s, err := New(data)
			assert.Nil(t, s)
			require.ErrorIs(t, err, ErrInvalidCellID)

			var se *SpreadsheetError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "C4", se.Cell)
			assert.Equal(t, tt.reference, se.Reference)
		})
	}
}

func TestNewRejectsBadDimensions(t *testing.T) {
	t.Run("too few rows", func(t *testing.T) {
		data := basicData()[:25]
		_, err := New(data)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("short row", func(t *testing.T) {
		data := basicData()
		data[7] = data[7][:8]
		_, err := New(data)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("too many rows for letters", func(t *testing.T) {
		_, err := NewWithShape(nil, Shape{Rows: 27, Columns: 1})
		assert.ErrorIs(t, err, ErrInvalidShape)
	})
}

func TestNewDefersSyntaxErrorsToEvaluation(t *testing.T) {
	data := basicData()
	data[0][0] = "1 +"

	tc := NewSpreadsheetTestCase(t, data)
	tc.ExpectErr("A1", ErrInvalidExpression)
	tc.Expect("A2", 1)
}

func TestGetValueOutOfBounds(t *testing.T) {
	s, err := New(basicData())
	require.NoError(t, err)

	for _, rc := range [][2]int{{0, -1}, {-1, 0}, {29, 1}, {26, 0}, {0, 9}, {25, 9}} {
		t.Run(fmt.Sprintf("%d,%d", rc[0], rc[1]), func(t *testing.T) {
			_, err := s.GetValue(rc[0], rc[1])
			assert.ErrorIs(t, err, ErrInvalidCellID)

			err = s.SetValue(rc[0], rc[1], "1")
			assert.ErrorIs(t, err, ErrInvalidCellID)
		})
	}

	_, err = s.GetValueAt("a1")
	assert.ErrorIs(t, err, ErrInvalidCellID)
}

func TestGetValueCircularReference(t *testing.T) {
	t.Run("mutual", func(t *testing.T) {
		data := basicData()
		data[0][0] = "A2"
		data[0][1] = "A1"
		s, err := New(data)
		require.NoError(t, err)

		_, err = s.GetValue(0, 0)
		require.ErrorIs(t, err, ErrCircularReference)

		var se *SpreadsheetError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "A2", se.Cell)
		assert.Equal(t, "A1", se.Reference)

		// other entry point, same outcome
		_, err = s.GetValue(0, 1)
		assert.ErrorIs(t, err, ErrCircularReference)
	})

	t.Run("self", func(t *testing.T) {
		data := basicData()
		data[0][0] = "A1"
		s, err := New(data)
		require.NoError(t, err)

		_, err = s.GetValue(0, 0)
		require.ErrorIs(t, err, ErrCircularReference)

		var se *SpreadsheetError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "A1", se.Cell)
		assert.Equal(t, "A1", se.Reference)
	})

	t.Run("long loop reached from outside", func(t *testing.T) {
		data := basicData()
		data[1][0] = "B2 + 1"
		data[1][1] = "B3 * 2"
		data[1][2] = "B1"
		data[2][0] = "B1"

		tc := NewSpreadsheetTestCase(t, data)
		tc.ExpectErr("C1", ErrCircularReference).
			ExpectErr("B3", ErrCircularReference).
			ExpectCached("C1", false).
			ExpectCached("B1", false).
			ExpectCached("B2", false)
	})

	t.Run("recovers after fix", func(t *testing.T) {
		data := basicData()
		data[0][0] = "A2"
		data[0][1] = "A1"

		NewSpreadsheetTestCase(t, data).
			ExpectErr("A1", ErrCircularReference).
			Set("A2", "7").
			Expect("A1", 7).
			Expect("A2", 7)
	})
}

func TestGetValueFibonacci(t *testing.T) {
	computedFib := []float64{0, 1, 1, 2, 3, 5, 8, 13, 21}

	data := basicData()
	data[0][0] = "0"
	data[0][1] = "1"
	for j := 2; j < DefaultShape.Columns; j++ {
		data[0][j] = fmt.Sprintf("A%d + A%d", j-1, j)
	}

	s, err := New(data)
	require.NoError(t, err)
	for j := DefaultShape.Columns - 1; j >= 0; j-- {
		v, err := s.GetValue(0, j)
		require.NoError(t, err)
		assert.Equal(t, computedFib[j], v, "column %d", j)
	}
}

func TestGetValueIsIdempotent(t *testing.T) {
	data := basicData()
	data[0][0] = "2"
	data[0][1] = "A1 * 3"
	data[0][2] = "A2 + A1"

	s, err := New(data)
	require.NoError(t, err)

	first, err := s.GetValue(0, 2)
	require.NoError(t, err)
	count := s.EvaluationCount()
	assert.Equal(t, uint64(3), count)

	second, err := s.GetValue(0, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, count, s.EvaluationCount(), "second read must not recompute")
}

func TestGetValueDiamond(t *testing.T) {
	data := basicData()
	data[0][0] = "2"
	data[0][1] = "A1 + 1"
	data[0][2] = "A1 * 10"
	data[0][3] = "A2 + A3"

	s, err := New(data)
	require.NoError(t, err)

	v, err := s.GetValue(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 23.0, v)
	// A1, A2, A3, A4 each evaluated once
	assert.Equal(t, uint64(4), s.EvaluationCount())
}

func TestGetValueDuplicateReference(t *testing.T) {
	data := basicData()
	data[0][0] = "3"
	data[0][1] = "A1 + A1 * A1"

	tc := NewSpreadsheetTestCase(t, data)
	tc.Expect("A2", 12)

	refs, err := tc.spreadsheet.References(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A1", "A1"}, refs)

	precedents, err := tc.spreadsheet.Precedents(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, precedents)
	assert.Equal(t, uint64(2), tc.spreadsheet.EvaluationCount())
}

func TestGetValueInvalidExpression(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"dangling operator", "1 +"},
		{"division by zero", "1 / 0"},
		{"division by zero reference", "5 / (A2 - 1)"},
		{"unknown name", "foo + 1"},
		{"lowercase reference", "a2 + 1"},
		{"function call", "SUM(A2)"},
		{"power operator", "2 ** 3"},
		{"empty", ""},
		{"unbalanced", "(1 + 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := basicData()
			data[0][0] = tt.expression
			data[1][0] = "A1 + 1"

			tc := NewSpreadsheetTestCase(t, data)
			tc.ExpectErr("A1", ErrInvalidExpression).
				ExpectErr("B1", ErrInvalidExpression).
				ExpectCached("A1", false).
				ExpectCached("B1", false)

			// the failure names the cell where it happened
			_, err := tc.spreadsheet.GetValue(1, 0)
			var se *SpreadsheetError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "A1", se.Cell)
		})
	}
}

func TestSetValueWithoutReferences(t *testing.T) {
	s, err := New(basicData())
	require.NoError(t, err)

	v, err := s.GetValue(4, 5)
	require.NoError(t, err)
	newValue := v + 10

	require.NoError(t, s.SetValue(4, 5, strconv.FormatFloat(newValue, 'f', -1, 64)))
	got, err := s.GetValue(4, 5)
	require.NoError(t, err)
	assert.Equal(t, newValue, got)
}

func TestSetValueWithReferences(t *testing.T) {
	data := basicData()
	data[4][5] = "A9"
	s, err := New(data)
	require.NoError(t, err)

	a9, err := s.GetValue(0, 8)
	require.NoError(t, err)
	b6, err := s.GetValue(1, 5)
	require.NoError(t, err)

	require.NoError(t, s.SetValue(4, 5, "A9 + B6 + 10"))
	got, err := s.GetValue(4, 5)
	require.NoError(t, err)
	assert.Equal(t, a9+b6+10, got)
	checkEdges(t, s)
}

func TestSetValueWithDependentCells(t *testing.T) {
	data := basicData()
	data[0][0] = "0"
	for j := 1; j < DefaultShape.Columns; j++ {
		data[0][j] = fmt.Sprintf("A%d + 1", j)
	}

	s, err := New(data)
	require.NoError(t, err)
	for j := 0; j < DefaultShape.Columns; j++ {
		_, err := s.GetValue(0, j)
		require.NoError(t, err)
	}

	require.NoError(t, s.SetValue(0, 0, "5"))
	for j := DefaultShape.Columns - 1; j >= 0; j-- {
		v, err := s.GetValue(0, j)
		require.NoError(t, err)
		assert.Equal(t, float64(5+j), v, "column %d", j)
	}
}

func TestSetValueInvalidatesOnlyDependents(t *testing.T) {
	data := basicData()
	data[0][0] = "1"
	data[0][1] = "A1"
	data[0][2] = "A2"

	tc := NewSpreadsheetTestCase(t, data)
	tc.Expect("A3", 1).
		Expect("B1", 9).
		Set("A1", "10").
		ExpectCached("A1", false).
		ExpectCached("A2", false).
		ExpectCached("A3", false).
		ExpectCached("B1", true).
		Expect("A3", 10)
}

func TestSetValueModifyingReferences(t *testing.T) {
	data := basicData()
	data[0][0] = "A2"
	data[1][0] = "A1"

	tc := NewSpreadsheetTestCase(t, data)
	tc.Expect("A1", 1).
		Expect("B1", 1).
		Set("A1", "A3").
		Expect("A1", 2).
		Expect("B1", 2)

	a2Deps, err := tc.spreadsheet.DirectDependents(0, 1)
	require.NoError(t, err)
	assert.Empty(t, a2Deps)

	a3Deps, err := tc.spreadsheet.DirectDependents(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, a3Deps)
}

func TestSetValueRejectsOutOfGridReference(t *testing.T) {
	data := basicData()
	data[0][1] = "A1 + 1"

	tc := NewSpreadsheetTestCase(t, data)
	tc.Expect("A2", 1)

	err := tc.spreadsheet.SetValue(0, 0, "B10")
	require.ErrorIs(t, err, ErrInvalidCellID)

	// nothing changed
	expr, err := tc.spreadsheet.ExpressionAt("A1")
	require.NoError(t, err)
	assert.Equal(t, "0", expr)
	tc.ExpectCached("A1", true).ExpectCached("A2", true)
	checkEdges(t, tc.spreadsheet)
}

func TestSetValueOnStaleCellLeavesGraphConsistent(t *testing.T) {
	data := basicData()
	data[0][0] = "A2 + A2"
	data[0][1] = "B1"

	NewSpreadsheetTestCase(t, data).
		Set("A1", "A3").
		Set("A1", "A3 + A2 + B2").
		Set("A2", "A1").
		ExpectErr("A1", ErrCircularReference).
		Set("A2", "4").
		Expect("A1", 2+4+10)
}

func TestAllDependents(t *testing.T) {
	data := basicData()
	data[0][1] = "A1"
	data[0][2] = "A2 + A1"
	data[1][0] = "A3"

	s, err := New(data)
	require.NoError(t, err)

	all, err := s.AllDependents(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3", "B1"}, all)

	direct, err := s.DirectDependents(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3"}, direct)
}

func TestCalculate(t *testing.T) {
	data := basicData()
	data[0][0] = "A2 * 2"
	data[0][2] = "1 / 0"
	data[0][3] = "A4"

	s, err := New(data)
	require.NoError(t, err)

	results := s.Calculate()
	require.Len(t, results, DefaultShape.Rows)
	require.Len(t, results[0], DefaultShape.Columns)

	assert.Equal(t, "A1", results[0][0].ID)
	assert.Equal(t, "A2 * 2", results[0][0].Expression)
	assert.NoError(t, results[0][0].Err)
	assert.Equal(t, 2.0, results[0][0].Value)
	assert.ErrorIs(t, results[0][2].Err, ErrInvalidExpression)
	assert.ErrorIs(t, results[0][3].Err, ErrCircularReference)
	assert.Equal(t, float64(25*9+8), results[25][8].Value)
}

func TestCustomShape(t *testing.T) {
	shape, err := NewShape(2, 3)
	require.NoError(t, err)

	s, err := NewWithShape([][]string{
		{"1", "A1 + 1", "A2 * 2"},
		{"A3", "B1 - A1", "(B2 + A2) / 2"},
	}, shape)
	require.NoError(t, err)

	v, err := s.GetValue(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = s.GetValue(2, 0)
	assert.ErrorIs(t, err, ErrInvalidCellID)

	err = s.SetValue(0, 0, "C1")
	assert.ErrorIs(t, err, ErrInvalidCellID)

	// a default-shaped grid is unaffected by this one's dimensions
	other, err := New(basicData())
	require.NoError(t, err)
	v, err = other.GetValue(25, 8)
	require.NoError(t, err)
	assert.Equal(t, float64(25*9+8), v)
}

func TestLoggerReceivesDebugEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := basicData()
	data[0][0] = "A1"
	s, err := New(data, WithLogger(logger))
	require.NoError(t, err)

	_, err = s.GetValue(0, 0)
	require.Error(t, err)

	assert.Contains(t, buf.String(), "spreadsheet built")
	assert.Contains(t, buf.String(), "circular reference")
}

func TestLockedConcurrentAccess(t *testing.T) {
	data := basicData()
	data[0][0] = "1"
	for j := 1; j < DefaultShape.Columns; j++ {
		data[0][j] = fmt.Sprintf("A%d + 1", j)
	}
	s, err := New(data)
	require.NoError(t, err)
	locked := NewLocked(s)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := locked.GetValue(0, 8)
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, locked.SetValue(0, 0, strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()

	require.NoError(t, locked.SetValue(0, 0, "100"))
	v, err := locked.GetValue(0, 8)
	require.NoError(t, err)
	assert.Equal(t, 108.0, v)

	checkEdges(t, s)
	assert.True(t, errors.Is(locked.SetValueAt("Z10", "1"), ErrInvalidCellID))
}
