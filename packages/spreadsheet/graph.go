package spreadsheet

import (
	"iter"
	"sort"
)

// DependencyGraph is the arena of cells plus the edge bookkeeping between
// them. Forward edges live in each cell's references, reverse edges in its
// dependents set; both are plain addresses looked up through the arena.
type DependencyGraph struct {
	shape Shape
	cells [][]*Cell
}

// NewDependencyGraph creates an empty arena for shape
func NewDependencyGraph(shape Shape) *DependencyGraph {
	cells := make([][]*Cell, shape.Rows)
	for i := range cells {
		cells[i] = make([]*Cell, shape.Columns)
	}
	return &DependencyGraph{
		shape: shape,
		cells: cells,
	}
}

// GetCell returns the cell at addr, or nil when addr is outside the arena
func (dg *DependencyGraph) GetCell(addr CellAddress) *Cell {
	if !dg.shape.Contains(addr.Row, addr.Column) {
		return nil
	}
	return dg.cells[addr.Row][addr.Column]
}

func (dg *DependencyGraph) putCell(c *Cell) {
	dg.cells[c.Address.Row][c.Address.Column] = c
}

// AddCellDependency records that from references to
func (dg *DependencyGraph) AddCellDependency(from, to CellAddress) {
	if toCell := dg.GetCell(to); toCell != nil {
		toCell.addDependent(from)
	}
}

// RemoveCellDependency drops the reverse edge to -> from
func (dg *DependencyGraph) RemoveCellDependency(from, to CellAddress) bool {
	toCell := dg.GetCell(to)
	if toCell == nil || !toCell.hasDependent(from) {
		return false
	}
	toCell.removeDependent(from)
	return true
}

// link registers addr as a dependent of every address in refs
func (dg *DependencyGraph) link(addr CellAddress, refs []CellAddress) {
	for _, ref := range refs {
		dg.AddCellDependency(addr, ref)
	}
}

// unlink removes addr from the dependents of every address in refs
func (dg *DependencyGraph) unlink(addr CellAddress, refs []CellAddress) {
	for _, ref := range refs {
		dg.RemoveCellDependency(addr, ref)
	}
}

// Invalidate clears the cached value of addr and, depth-first, of every
// transitive dependent. A cell that is already stale stops the descent:
// its dependents were cleared when it went stale, or were never valid.
// Returns the number of caches cleared.
func (dg *DependencyGraph) Invalidate(addr CellAddress) int {
	c := dg.GetCell(addr)
	if c == nil || !c.cached {
		return 0
	}

	c.invalidate()
	cleared := 1
	for dep := range c.dependents {
		cleared += dg.Invalidate(dep)
	}
	return cleared
}

// GetDirectDependents returns cells directly referencing addr, sorted
func (dg *DependencyGraph) GetDirectDependents(addr CellAddress) []CellAddress {
	c := dg.GetCell(addr)
	if c == nil {
		return nil
	}

	result := make([]CellAddress, 0, len(c.dependents))
	for dep := range c.dependents {
		result = append(result, dep)
	}
	sortAddresses(result)
	return result
}

// GetAllDependents returns all cells affected by addr (transitive
// closure), sorted. addr itself is included only when it sits on a cycle.
func (dg *DependencyGraph) GetAllDependents(addr CellAddress) []CellAddress {
	visited := make(map[CellAddress]struct{})
	var result []CellAddress

	dg.collectDependents(addr, visited, &result)
	sortAddresses(result)
	return result
}

// collectDependents recursively collects all dependents
func (dg *DependencyGraph) collectDependents(addr CellAddress, visited map[CellAddress]struct{}, result *[]CellAddress) {
	c := dg.GetCell(addr)
	if c == nil {
		return
	}

	for dep := range c.dependents {
		if _, alreadyVisited := visited[dep]; !alreadyVisited {
			visited[dep] = struct{}{}
			*result = append(*result, dep)
			dg.collectDependents(dep, visited, result)
		}
	}
}

// GetDirectPrecedents returns the distinct cells addr references, in
// order of first appearance
func (dg *DependencyGraph) GetDirectPrecedents(addr CellAddress) []CellAddress {
	c := dg.GetCell(addr)
	if c == nil {
		return nil
	}

	seen := make(map[CellAddress]struct{}, len(c.references))
	result := make([]CellAddress, 0, len(c.references))
	for _, ref := range c.references {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		result = append(result, ref)
	}
	return result
}

// Cells returns an iterator over every cell in row-major order
func (dg *DependencyGraph) Cells() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for _, row := range dg.cells {
			for _, c := range row {
				if c == nil {
					continue
				}
				if !yield(c) {
					return
				}
			}
		}
	}
}

// CachedCount returns the number of cells holding a valid value
func (dg *DependencyGraph) CachedCount() int {
	n := 0
	for c := range dg.Cells() {
		if c.cached {
			n++
		}
	}
	return n
}

// sortAddresses orders addresses row-major for deterministic output
func sortAddresses(addrs []CellAddress) {
	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].Row != addrs[j].Row {
			return addrs[i].Row < addrs[j].Row
		}
		return addrs[i].Column < addrs[j].Column
	})
}
