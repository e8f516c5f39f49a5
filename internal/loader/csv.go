package loader

import (
	"encoding/csv"
	"io"
)

// readCSV reads one grid row per record. Records may have different
// lengths; '#' starts a comment line.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}
