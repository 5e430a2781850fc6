package grid

import "slices"

// Classify computes the connector row for ranges: one [ConnectorCell] per
// column carrying a marker for every range that touches it.
//
// Per column c and range R:
//   - R == {c} or c an interior member: Ending(Both)
//   - c == R[0]: Ending(Right)
//   - c == R[last]: Ending(Left)
//   - R[0] < c < R[last], c not a member: Passing
//
// Ranges are visited in connection order. A range whose marker lands in a
// column already holding markers of earlier ranges gets a Crossing marker
// instead; it keeps the origin of an Ending, a Passing becomes origin none,
// and Crosses lists the earlier connection indices.
func Classify(width int, orientation Orientation, ranges []Range) []Cell {
	ordered := slices.Clone(ranges)
	slices.SortStableFunc(ordered, func(a, b Range) int { return a.Connection - b.Connection })

	row := make([]Cell, width)
	for c := range width {
		cell := ConnectorCell{Orientation: orientation, Total: len(ranges)}
		for _, r := range ordered {
			m, ok := classify(c, r)
			if !ok {
				continue
			}
			if len(cell.Markers) > 0 {
				m.Crosses = make([]int, len(cell.Markers))
				for i, earlier := range cell.Markers {
					m.Crosses[i] = earlier.Connection
				}
				if m.Kind == Passing {
					m.Origin = OriginNone
				}
				m.Kind = Crossing
			}
			cell.Markers = append(cell.Markers, m)
		}
		row[c] = cell
	}
	return row
}

// classify returns the marker of range r at column c, if any.
func classify(c int, r Range) (Marker, bool) {
	cols := r.Columns
	if len(cols) == 0 || !r.Covers(c) {
		return Marker{}, false
	}
	m := Marker{Connection: r.Connection}
	_, member := slices.BinarySearch(cols, c)
	switch {
	case len(cols) == 1:
		m.Kind, m.Origin = Ending, Both
	case c == cols[0]:
		m.Kind, m.Origin = Ending, Right
	case c == cols[len(cols)-1]:
		m.Kind, m.Origin = Ending, Left
	case member:
		m.Kind, m.Origin = Ending, Both
	default:
		m.Kind, m.Origin = Passing, OriginNone
	}
	return m, true
}
