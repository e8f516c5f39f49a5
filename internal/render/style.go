// Package render formats evaluated grids for terminals and workbooks.
package render

import (
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

var (
	colorError  = lipgloss.Color("#F07178")
	colorMuted  = lipgloss.Color("#5C6773")
	colorHeader = lipgloss.Color("#59C2FF")
)

// styles holds the lipgloss styles of one rendering. Plain styles carry
// layout only.
type styles struct {
	header lipgloss.Style
	value  lipgloss.Style
	err    lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(w io.Writer, styled bool) styles {
	r := lipgloss.NewRenderer(w)
	s := styles{
		header: r.NewStyle(),
		value:  r.NewStyle(),
		err:    r.NewStyle(),
		dim:    r.NewStyle(),
	}
	if styled {
		s.header = s.header.Foreground(colorHeader).Bold(true)
		s.err = s.err.Foreground(colorError).Bold(true)
		s.dim = s.dim.Foreground(colorMuted)
	}
	return s
}

// IsTerminal reports whether w is a terminal that should receive color.
// NO_COLOR disables color regardless.
func IsTerminal(w io.Writer) bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// FormatValue renders a cell value in the shortest form that round-trips.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ErrorLabel returns the short marker shown in place of a failed cell.
func ErrorLabel(err error) string {
	switch {
	case errors.Is(err, spreadsheet.ErrCircularReference):
		return "#CYCLE!"
	case errors.Is(err, spreadsheet.ErrInvalidCellID):
		return "#REF!"
	case errors.Is(err, spreadsheet.ErrInvalidExpression):
		return "#EXPR!"
	}
	return "#ERROR!"
}
