package loader

import (
	"io"

	"github.com/BurntSushi/toml"
)

// tomlGrid is the TOML layout:
//
//	rows = [
//	  ["1", "A1 + 1"],
//	  ["B1 * 2"],
//	]
type tomlGrid struct {
	Rows [][]string `toml:"rows"`
}

func readTOML(r io.Reader) ([][]string, error) {
	var grid tomlGrid
	if _, err := toml.NewDecoder(r).Decode(&grid); err != nil {
		return nil, err
	}
	return grid.Rows, nil
}
