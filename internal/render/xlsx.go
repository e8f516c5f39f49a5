package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

const (
	valuesSheet      = "Values"
	expressionsSheet = "Expressions"
)

// WriteXLSX saves results to a workbook at path. The Values sheet holds
// numbers, or the error marker of a failed cell; the Expressions sheet
// holds the raw text of every cell. Cells keep their grid position, so
// grid cell B3 lands in workbook cell C2.
func WriteXLSX(path string, results [][]spreadsheet.CellResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", valuesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(expressionsSheet); err != nil {
		return err
	}

	errStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "C0392B"},
	})
	if err != nil {
		return err
	}

	for i, row := range results {
		for j, res := range row {
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}

			if res.Err != nil {
				if err := f.SetCellValue(valuesSheet, cellName, ErrorLabel(res.Err)); err != nil {
					return err
				}
				if err := f.SetCellStyle(valuesSheet, cellName, cellName, errStyle); err != nil {
					return err
				}
			} else if err := f.SetCellValue(valuesSheet, cellName, res.Value); err != nil {
				return err
			}

			if err := f.SetCellValue(expressionsSheet, cellName, res.Expression); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
