package render

import (
	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Segment is the line piece one marker draws inside its connector cell.
// Left and Right are half-lines toward the neighbouring cells; Vertical
// is the line toward the person row the connector row belongs to.
type Segment struct {
	Connection int
	Left       bool
	Right      bool
	Vertical   bool
	Crossing   bool
}

// Segments returns one segment per marker of the connector cell at row,
// col. Person cells yield nil.
//
// A member marked Ending(Both) reaches sideways only where a neighbour
// carries the same connection, which tells a lone member from an interior
// one.
func Segments(g *grid.Grid, row, col int) []Segment {
	cc, ok := g.Cell(row, col).(grid.ConnectorCell)
	if !ok || cc.Empty() {
		return nil
	}
	out := make([]Segment, 0, len(cc.Markers))
	for _, m := range cc.Markers {
		s := Segment{Connection: m.Connection, Crossing: m.Kind == grid.Crossing}
		switch {
		case m.Kind == grid.Passing, m.Kind == grid.Crossing && m.Origin == grid.OriginNone:
			s.Left, s.Right = true, true
		case m.Origin == grid.Right:
			s.Right, s.Vertical = true, true
		case m.Origin == grid.Left:
			s.Left, s.Vertical = true, true
		case m.Origin == grid.Both:
			s.Vertical = true
			s.Left = hasConnection(g, row, col-1, m.Connection)
			s.Right = hasConnection(g, row, col+1, m.Connection)
		}
		out = append(out, s)
	}
	return out
}

func hasConnection(g *grid.Grid, row, col, conn int) bool {
	if col < 0 || col >= g.Width {
		return false
	}
	cc, ok := g.Cell(row, col).(grid.ConnectorCell)
	if !ok {
		return false
	}
	_, found := cc.Marker(conn)
	return found
}

// Drop joins the parent bar of a relationship with the sibling bar of its
// children in the next layer.
type Drop struct {
	Relationship tree.RelationshipID
	// ParentRow is the parent row; the sibling row is ParentRow+1.
	ParentRow int
	// ParentCol and SiblingCol are the midpoints of the two bars.
	ParentCol  int
	SiblingCol int
	// Connection is the parent bar's connection index, used for colour.
	Connection int
	// SiblingConnection is the sibling bar's connection index.
	SiblingConnection int
}

// Drops pairs parent and sibling bars of the same relationship across
// every layer boundary. bands must come from [grid.Bands] for the same
// grid.
func Drops(bands [][]grid.Range) []Drop {
	var out []Drop
	for r := 2; r+1 < len(bands); r += 3 {
		siblings := make(map[tree.RelationshipID]grid.Range, len(bands[r+1]))
		for _, s := range bands[r+1] {
			siblings[s.Relationship] = s
		}
		for _, p := range bands[r] {
			s, ok := siblings[p.Relationship]
			if !ok {
				continue
			}
			out = append(out, Drop{
				Relationship:      p.Relationship,
				ParentRow:         r,
				ParentCol:         mid(p),
				SiblingCol:        mid(s),
				Connection:        p.Connection,
				SiblingConnection: s.Connection,
			})
		}
	}
	return out
}

func mid(r grid.Range) int { return (r.Left() + r.Right()) / 2 }

// Labels maps person ids to display names.
type Labels map[tree.PersonID]string

// LabelsOf returns the display name of every person in s.
func LabelsOf(s *tree.Snapshot) Labels {
	out := make(Labels, s.Len())
	for _, p := range s.Persons() {
		if p.Info.HasName() {
			out[p.ID] = p.Name()
		}
	}
	return out
}

// Label returns the display name of pid, falling back to a short id.
func (l Labels) Label(pid tree.PersonID) string {
	if name, ok := l[pid]; ok && name != "" {
		return name
	}
	if len(pid) > 8 {
		return string(pid[:8])
	}
	return string(pid)
}
