package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// Table writes results as a grid with row letters down the side and
// column numbers across the top, followed by one line per failed cell.
// Color is used only when styled is true.
func Table(w io.Writer, results [][]spreadsheet.CellResult, styled bool) error {
	st := newStyles(w, styled)

	if len(results) == 0 {
		return nil
	}
	columns := len(results[0])

	header := make([]string, columns+1)
	for j := 0; j < columns; j++ {
		header[j+1] = strconv.Itoa(j + 1)
	}

	body := make([][]string, len(results))
	for i, row := range results {
		body[i] = make([]string, columns+1)
		body[i][0] = string(rune('A' + i))
		for j, res := range row {
			if res.Err != nil {
				body[i][j+1] = ErrorLabel(res.Err)
			} else {
				body[i][j+1] = FormatValue(res.Value)
			}
		}
	}

	widths := make([]int, columns+1)
	for j := range widths {
		widths[j] = lipgloss.Width(header[j])
		for i := range body {
			widths[j] = max(widths[j], lipgloss.Width(body[i][j]))
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string, styleFor func(col int, text string) lipgloss.Style) {
		for j, text := range cells {
			if j > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(styleFor(j, text).Width(widths[j]).Align(lipgloss.Right).Render(text))
		}
		sb.WriteString("\n")
	}

	writeRow(header, func(int, string) lipgloss.Style { return st.header })
	var total int
	for _, wd := range widths {
		total += wd
	}
	total += 2 * columns
	sb.WriteString(st.dim.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")

	for _, cells := range body {
		writeRow(cells, func(col int, text string) lipgloss.Style {
			switch {
			case col == 0:
				return st.header
			case strings.HasPrefix(text, "#"):
				return st.err
			}
			return st.value
		})
	}

	for _, row := range results {
		for _, res := range row {
			if res.Err != nil {
				fmt.Fprintf(&sb, "%s %s\n", st.err.Render(res.ID), res.Err)
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Failures counts the failed cells of results.
func Failures(results [][]spreadsheet.CellResult) int {
	n := 0
	for _, row := range results {
		for _, res := range row {
			if res.Err != nil {
				n++
			}
		}
	}
	return n
}
