// Package grid computes the cell grid a family-tree diagram is drawn from.
//
// # Overview
//
// Given a tree snapshot and its generations ([layers.Layers]), [Build]
// produces a rectangular [Grid]. Every cell is either a person or a
// connector describing which lines pass through that spot. Renderers draw
// sibling bars, partner bars, pass-through segments and crossings straight
// from the cells without re-deriving the family topology.
//
// # Rows
//
// Each layer contributes three rows, top to bottom:
//
//   - a sibling row (orientation [Down]) joining the children of one
//     relationship
//   - the person row: the layer's persons in order, padded with empty
//     connector cells
//   - a parent row (orientation [Up]) joining the parents of one
//     relationship
//
// All rows share the same width W, the length of the longest layer, so a
// column index is the horizontal coordinate for a person and both of its
// connector rows.
//
// # Link Groups
//
// A sibling group is the children of a relationship, a parent group its
// present parents. A group is drawn only when all of its members sit in the
// same layer; groups split across layers are skipped. Relationships without
// children never form a sibling group, and a founder's own relationship (no
// parents, one child) draws nothing. Within one connector row every group
// receives a connection index, numbered left to right, which renderers use
// to keep one color and one continuous line per group.
//
// # Markers
//
// For a group covering the sorted columns R, [Classify] marks column c as:
//
//   - Ending(Both) when R has one element, or c is an interior member
//   - Ending(Right) at the leftmost member R[0]
//   - Ending(Left) at the rightmost member R[last]
//   - Passing when R[0] < c < R[last] and c is not a member
//
// All groups of a row share one rendering band. When an earlier group
// already holds a marker in a column, the later group's marker there becomes
// a Crossing that lists the earlier connection indices.
//
// # Errors
//
// [Build] fails with CONFIGURATION_ERROR when a layer is wider than the row
// and with LOOKUP_ERROR when a relationship member cannot be found in the
// layers. Both abort the build; no partial grid is returned.
//
// # Concurrency
//
// Build is pure. It reads an immutable snapshot, holds no shared state and
// may run concurrently on any number of snapshots.
package grid
