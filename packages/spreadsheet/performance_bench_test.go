package spreadsheet

import (
	"fmt"
	"testing"
)

// literalGrid returns a shape-sized matrix of literal cells
func literalGrid(shape Shape) [][]string {
	data := make([][]string, shape.Rows)
	for r := range data {
		data[r] = make([]string, shape.Columns)
		for c := range data[r] {
			data[r][c] = fmt.Sprint(r*shape.Columns + c)
		}
	}
	return data
}

func mustNew(b *testing.B, data [][]string, shape Shape) *Spreadsheet {
	b.Helper()
	s, err := NewWithShape(data, shape)
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkLargeCellPopulation(b *testing.B) {
	shape := Shape{Rows: 26, Columns: 100}
	data := literalGrid(shape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustNew(b, data, shape)
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	shape := Shape{Rows: 1, Columns: 200}
	data := literalGrid(shape)
	for j := 1; j < shape.Columns; j++ {
		data[0][j] = fmt.Sprintf("A%d+1", j)
	}
	s := mustNew(b, data, shape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.SetValue(0, 0, fmt.Sprint(i)); err != nil {
			b.Fatal(err)
		}
		if _, err := s.GetValue(0, shape.Columns-1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	shape := Shape{Rows: 26, Columns: 20}
	data := literalGrid(shape)
	for r := 1; r < shape.Rows; r++ {
		for c := range data[r] {
			data[r][c] = "A1*2"
		}
	}
	s := mustNew(b, data, shape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.SetValue(0, 0, fmt.Sprint(i)); err != nil {
			b.Fatal(err)
		}
		s.Calculate()
	}
}

func BenchmarkComplexNestedExpressions(b *testing.B) {
	data := literalGrid(DefaultShape)
	data[2][0] = "((A1 + A2) * (A3 - A4) / (B1 + 1)) - -(B2 * .5e1)"
	data[3][0] = "(C1 * C1 + A9) / (1 + B9 * 2) * C1"
	data[4][0] = "D1 - C1 + (D1 / (C1 + 1e-3))"
	s := mustNew(b, data, DefaultShape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.SetValue(0, 0, fmt.Sprint(i)); err != nil {
			b.Fatal(err)
		}
		if _, err := s.GetValue(4, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCascadingUpdates(b *testing.B) {
	data := literalGrid(DefaultShape)
	// every row sums the row above it
	for r := 1; r < DefaultShape.Rows; r++ {
		for c := range data[r] {
			data[r][c] = fmt.Sprintf("%c%d + %c%d", 'A'+r-1, c+1, 'A'+r-1, (c+1)%DefaultShape.Columns+1)
		}
	}
	s := mustNew(b, data, DefaultShape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.SetValue(0, i%DefaultShape.Columns, "1"); err != nil {
			b.Fatal(err)
		}
		s.Calculate()
	}
}

func BenchmarkCircularReferenceDetection(b *testing.B) {
	shape := Shape{Rows: 1, Columns: 100}
	data := literalGrid(shape)
	for j := 0; j < shape.Columns; j++ {
		data[0][j] = fmt.Sprintf("A%d", (j+1)%shape.Columns+1)
	}
	s := mustNew(b, data, shape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.GetValue(0, 0); err == nil {
			b.Fatal("expected circular reference")
		}
	}
}

func BenchmarkManySmallExpressions(b *testing.B) {
	data := literalGrid(DefaultShape)
	for r := range data {
		for c := range data[r] {
			data[r][c] = fmt.Sprintf("%d + %d * 2", r, c)
		}
	}
	s := mustNew(b, data, DefaultShape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for r := range data {
			if err := s.SetValue(r, 0, data[r][0]); err != nil {
				b.Fatal(err)
			}
		}
		s.Calculate()
	}
}

func BenchmarkDirtyPropagation(b *testing.B) {
	data := literalGrid(DefaultShape)
	for j := 1; j < DefaultShape.Columns; j++ {
		data[0][j] = fmt.Sprintf("A%d * 2", j)
	}
	s := mustNew(b, data, DefaultShape)
	s.Calculate()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.SetValue(0, 0, fmt.Sprint(i%10)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseExpression(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := ParseExpression("(1./A1 + 2.5 - A2)*0.5 + -(B3 / C4)"); err != nil {
			b.Fatal(err)
		}
	}
}
