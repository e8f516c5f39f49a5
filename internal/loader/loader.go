// Package loader reads raw expression grids from TOML, CSV and XLSX files.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// ErrUnsupportedFormat is returned for file extensions Load does not know.
var ErrUnsupportedFormat = errors.New("unsupported grid format")

// Format names a grid file encoding
type Format string

const (
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// blank is the expression given to cells the file leaves empty
const blank = "0"

// FormatOf maps a file path to its format by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Load reads the grid at path and returns a matrix sized exactly to shape.
func Load(path string, shape spreadsheet.Shape) ([][]string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		rows, err := readXLSX(path, shape)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return fit(path, rows, shape)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, format, path, shape)
}

// Read decodes a TOML or CSV grid from r. name is used in error messages.
func Read(r io.Reader, format Format, name string, shape spreadsheet.Shape) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatTOML:
		rows, err = readTOML(r)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return fit(name, rows, shape)
}

// fit pads rows to shape. Missing rows, missing trailing cells and blank
// cells become "0". Trailing blanks are ignored; any other content outside
// shape is an error.
func fit(name string, rows [][]string, shape spreadsheet.Shape) ([][]string, error) {
	rows = trimBlank(rows)
	if len(rows) > shape.Rows {
		return nil, fmt.Errorf("%s: %w", name, spreadsheet.NewSpreadsheetError(spreadsheet.ErrorCodeInvalidShape,
			fmt.Sprintf("%d rows exceed grid of %d", len(rows), shape.Rows)))
	}

	out := make([][]string, shape.Rows)
	for i := range out {
		var row []string
		if i < len(rows) {
			row = rows[i]
		}
		if len(row) > shape.Columns {
			return nil, fmt.Errorf("%s: %w", name, spreadsheet.NewSpreadsheetError(spreadsheet.ErrorCodeInvalidShape,
				fmt.Sprintf("row %d has %d cells, grid has %d columns", i+1, len(row), shape.Columns)))
		}

		out[i] = make([]string, shape.Columns)
		for j := range out[i] {
			text := blank
			if j < len(row) && row[j] != "" {
				text = row[j]
			}
			out[i][j] = text
		}
	}
	return out, nil
}

// trimBlank trims whitespace from every cell, then drops trailing empty
// cells and trailing empty rows.
func trimBlank(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	last := -1
	for i, row := range rows {
		trimmed := make([]string, len(row))
		width := 0
		for j, cell := range row {
			trimmed[j] = strings.TrimSpace(cell)
			if trimmed[j] != "" {
				width = j + 1
			}
		}
		out[i] = trimmed[:width]
		if width > 0 {
			last = i
		}
	}
	return out[:last+1]
}
