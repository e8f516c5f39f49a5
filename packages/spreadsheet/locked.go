package spreadsheet

import "sync"

// Locked guards a Spreadsheet with a single mutex held for the whole of
// each call. Reads populate caches and writes clear an unbounded set of
// cells, so every operation takes the lock exclusively.
type Locked struct {
	mu    sync.Mutex
	sheet *Spreadsheet
}

// NewLocked wraps sheet. The caller must not use sheet directly afterwards.
func NewLocked(sheet *Spreadsheet) *Locked {
	return &Locked{sheet: sheet}
}

func (l *Locked) Shape() Shape {
	// immutable after construction
	return l.sheet.Shape()
}

func (l *Locked) GetValue(row, column int) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.GetValue(row, column)
}

func (l *Locked) SetValue(row, column int, expression string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.SetValue(row, column, expression)
}

func (l *Locked) GetValueAt(id string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.GetValueAt(id)
}

func (l *Locked) SetValueAt(id string, expression string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.SetValueAt(id, expression)
}

func (l *Locked) Expression(row, column int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.Expression(row, column)
}

func (l *Locked) ExpressionAt(id string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.ExpressionAt(id)
}

func (l *Locked) Calculate() [][]CellResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.Calculate()
}

func (l *Locked) EvaluationCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sheet.EvaluationCount()
}
