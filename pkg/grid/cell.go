package grid

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/familygrid/pkg/tree"
)

// Orientation tells which way the lines of a connector row open.
type Orientation int

const (
	// None marks padding cells in a person row.
	None Orientation = iota
	// Down marks sibling rows; lines open toward the layer above.
	Down
	// Up marks parent rows; lines open toward the layer below.
	Up
)

var orientationNames = map[Orientation]string{None: "none", Down: "down", Up: "up"}

func (o Orientation) String() string { return enumString(orientationNames, o) }

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) { return enumMarshal(orientationNames, o) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(b []byte) error { return enumUnmarshal(orientationNames, o, b) }

// Kind classifies a marker.
type Kind int

const (
	// Passing is a line running through a column that is not a group member.
	Passing Kind = iota
	// Ending is a line terminating at a group member.
	Ending
	// Crossing is a segment sharing its column with an earlier group.
	Crossing
)

var kindNames = map[Kind]string{Passing: "passing", Ending: "ending", Crossing: "crossing"}

func (k Kind) String() string { return enumString(kindNames, k) }

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return enumMarshal(kindNames, k) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error { return enumUnmarshal(kindNames, k, b) }

// Origin says from which side a terminating line arrives.
type Origin int

const (
	// OriginNone is used by passing segments and degenerate crossings.
	OriginNone Origin = iota
	// Left marks the rightmost member; the line arrives from the left.
	Left
	// Right marks the leftmost member; the line arrives from the right.
	Right
	// Both marks a lone member or an interior member.
	Both
)

var originNames = map[Origin]string{OriginNone: "none", Left: "left", Right: "right", Both: "both"}

func (o Origin) String() string { return enumString(originNames, o) }

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) { return enumMarshal(originNames, o) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(b []byte) error { return enumUnmarshal(originNames, o, b) }

// Marker is one group's line segment in one connector cell.
type Marker struct {
	Connection int    `json:"connection"`
	Kind       Kind   `json:"kind"`
	Origin     Origin `json:"origin"`
	// Crosses lists the connection indices of earlier groups sharing the
	// column. Set only for Crossing markers.
	Crosses []int `json:"crosses,omitempty"`
}

func (m Marker) String() string {
	s := fmt.Sprintf("%s(%s)#%d", m.Kind, m.Origin, m.Connection)
	if len(m.Crosses) > 0 {
		s += fmt.Sprintf("x%v", m.Crosses)
	}
	return s
}

// Cell is a grid cell: either a [PersonCell] or a [ConnectorCell]. The set
// is closed; use [Match] to handle both variants.
type Cell interface {
	isCell()
}

// PersonCell places a person.
type PersonCell struct {
	ID tree.PersonID
}

// ConnectorCell holds the markers of every group covering its column.
type ConnectorCell struct {
	Orientation Orientation
	// Total is the number of groups in the cell's row.
	Total   int
	Markers []Marker
}

func (PersonCell) isCell()    {}
func (ConnectorCell) isCell() {}

// Empty reports whether no group covers the cell.
func (c ConnectorCell) Empty() bool { return len(c.Markers) == 0 }

// Marker returns the marker for connection index i.
func (c ConnectorCell) Marker(i int) (Marker, bool) {
	for _, m := range c.Markers {
		if m.Connection == i {
			return m, true
		}
	}
	return Marker{}, false
}

func (c ConnectorCell) String() string {
	parts := make([]string, len(c.Markers))
	for i, m := range c.Markers {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (c PersonCell) String() string { return "Person(" + string(c.ID) + ")" }

// Match calls onPerson or onConnector depending on the variant of c. It
// panics on a nil cell.
func Match[T any](c Cell, onPerson func(PersonCell) T, onConnector func(ConnectorCell) T) T {
	switch v := c.(type) {
	case PersonCell:
		return onPerson(v)
	case ConnectorCell:
		return onConnector(v)
	}
	panic(fmt.Sprintf("grid: unknown cell variant %T", c))
}

func cloneCell(c Cell) Cell {
	return Match(c,
		func(p PersonCell) Cell { return p },
		func(cc ConnectorCell) Cell {
			markers := make([]Marker, len(cc.Markers))
			for i, m := range cc.Markers {
				m.Crosses = slices.Clone(m.Crosses)
				markers[i] = m
			}
			if cc.Markers == nil {
				markers = nil
			}
			return ConnectorCell{Orientation: cc.Orientation, Total: cc.Total, Markers: markers}
		})
}

func enumString[E ~int](names map[E]string, v E) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("%T(%d)", v, v)
}

func enumMarshal[E ~int](names map[E]string, v E) ([]byte, error) {
	if s, ok := names[v]; ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("invalid %T %d", v, v)
}

func enumUnmarshal[E ~int](names map[E]string, v *E, b []byte) error {
	for k, s := range names {
		if s == string(b) {
			*v = k
			return nil
		}
	}
	return fmt.Errorf("invalid %T %q", *v, b)
}
