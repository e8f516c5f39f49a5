package loader

import (
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// readXLSX reads the first sheet of a workbook. A cell holding a formula
// yields the formula text with its leading '=' removed; any other cell
// yields its displayed value. Every cell inside shape is probed for a
// formula, since a formula with no cached value reads as empty.
func readXLSX(path string, shape spreadsheet.Shape) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	values, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, max(len(values), shape.Rows))
	for rowIdx := range rows {
		var valueRow []string
		if rowIdx < len(values) {
			valueRow = values[rowIdx]
		}

		rows[rowIdx] = make([]string, max(len(valueRow), shape.Columns))
		for colIdx := range rows[rowIdx] {
			if colIdx < len(valueRow) {
				rows[rowIdx][colIdx] = valueRow[colIdx]
			}

			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			formula, err := f.GetCellFormula(sheet, cellName)
			if err != nil {
				return nil, err
			}
			if formula != "" {
				rows[rowIdx][colIdx] = strings.TrimPrefix(formula, "=")
			}
		}
	}
	return rows, nil
}
