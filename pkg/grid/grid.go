package grid

import (
	"fmt"

	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// RowKind identifies the role of a grid row.
type RowKind int

const (
	SiblingRow RowKind = iota
	PersonRow
	ParentRow
)

func (k RowKind) String() string {
	switch k {
	case SiblingRow:
		return "sibling"
	case PersonRow:
		return "person"
	case ParentRow:
		return "parent"
	}
	return fmt.Sprintf("RowKind(%d)", int(k))
}

// Grid is the laid out family tree: three rows per layer, each Width cells
// wide.
type Grid struct {
	Width int
	Rows  [][]Cell
}

// Build lays out s using the generations l.
//
// For every layer it emits a sibling row, the person row and a parent row.
// Build trusts l to partition the persons of s; a relationship member
// missing from l fails with LOOKUP_ERROR. No layers yield an empty grid.
func Build(s *tree.Snapshot, l layers.Layers) (*Grid, error) {
	return Assemble(s.Relationships(), l)
}

// Assemble is [Build] over a bare relationship list.
func Assemble(rels []tree.Relationship, l layers.Layers) (*Grid, error) {
	g, _, err := assemble(rels, l)
	return g, err
}

// Bands returns the resolved ranges of every grid row, indexed like
// Grid.Rows. Person rows have no ranges. Renderers use the relationship ids
// to join a parent bar with the sibling bar of the same relationship.
func Bands(rels []tree.Relationship, l layers.Layers) ([][]Range, error) {
	_, bands, err := assemble(rels, l)
	return bands, err
}

func assemble(rels []tree.Relationship, l layers.Layers) (*Grid, [][]Range, error) {
	width := l.Width()
	g := &Grid{Width: width, Rows: make([][]Cell, 0, 3*len(l))}
	bands := make([][]Range, 0, 3*len(l))
	if len(l) == 0 {
		return g, bands, nil
	}

	cands, err := FindCandidates(rels, l.IndexOf(), len(l))
	if err != nil {
		return nil, nil, err
	}

	for i, layer := range l {
		persons, err := BuildRow(layer, width)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d: %w", i, err)
		}
		siblings, err := ResolveRanges(persons, cands.Siblings[i])
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d siblings: %w", i, err)
		}
		parents, err := ResolveRanges(persons, cands.Parents[i])
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d parents: %w", i, err)
		}
		g.Rows = append(g.Rows,
			Classify(width, Down, siblings),
			persons,
			Classify(width, Up, parents),
		)
		bands = append(bands, siblings, nil, parents)
	}
	return g, bands, nil
}

// Height returns the number of rows.
func (g *Grid) Height() int { return len(g.Rows) }

// LayerCount returns the number of layers the grid was built from.
func (g *Grid) LayerCount() int { return len(g.Rows) / 3 }

// Kind returns the role of row i.
func (g *Grid) Kind(row int) RowKind { return RowKind(row % 3) }

// Cell returns the cell at row, col.
func (g *Grid) Cell(row, col int) Cell { return g.Rows[row][col] }

// Position is a cell coordinate.
type Position struct {
	Row, Col int
}

// Positions maps every person in the grid to its cell.
func (g *Grid) Positions() map[tree.PersonID]Position {
	out := make(map[tree.PersonID]Position)
	for r := int(PersonRow); r < len(g.Rows); r += 3 {
		for c, cell := range g.Rows[r] {
			if p, ok := cell.(PersonCell); ok {
				out[p.ID] = Position{Row: r, Col: c}
			}
		}
	}
	return out
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Rows: make([][]Cell, len(g.Rows))}
	for i, row := range g.Rows {
		out.Rows[i] = make([]Cell, len(row))
		for j, c := range row {
			out.Rows[i][j] = cloneCell(c)
		}
	}
	return out
}

// String renders the grid one row per line, for debugging and tests.
func (g *Grid) String() string {
	var b []byte
	for i, row := range g.Rows {
		b = fmt.Appendf(b, "%-7s|", g.Kind(i))
		for _, c := range row {
			b = fmt.Appendf(b, " %v", c)
		}
		b = append(b, '\n')
	}
	return string(b)
}
