package server

import (
	"github.com/stretchr/testify/mock"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// MockGrid is a testify mock of Grid
type MockGrid struct {
	mock.Mock
}

func NewMockGrid(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGrid {
	m := &MockGrid{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGrid) Shape() spreadsheet.Shape {
	ret := m.Called()
	return ret.Get(0).(spreadsheet.Shape)
}

func (m *MockGrid) GetValueAt(id string) (float64, error) {
	ret := m.Called(id)
	return ret.Get(0).(float64), ret.Error(1)
}

func (m *MockGrid) SetValueAt(id string, expression string) error {
	ret := m.Called(id, expression)
	return ret.Error(0)
}

func (m *MockGrid) ExpressionAt(id string) (string, error) {
	ret := m.Called(id)
	return ret.String(0), ret.Error(1)
}

func (m *MockGrid) Calculate() [][]spreadsheet.CellResult {
	ret := m.Called()
	return ret.Get(0).([][]spreadsheet.CellResult)
}
