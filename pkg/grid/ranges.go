package grid

import (
	"cmp"
	"slices"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Group is a set of persons joined by one relationship within one row,
// either its children or its parents.
type Group struct {
	Relationship tree.RelationshipID
	Members      []tree.PersonID
}

// Range is a group resolved against a row: the sorted columns of its
// members and its connection index within the row.
type Range struct {
	Connection   int
	Relationship tree.RelationshipID
	Columns      []int
}

// Left returns the leftmost column.
func (r Range) Left() int { return r.Columns[0] }

// Right returns the rightmost column.
func (r Range) Right() int { return r.Columns[len(r.Columns)-1] }

// Covers reports whether c lies within the range bounds.
func (r Range) Covers(c int) bool { return r.Left() <= c && c <= r.Right() }

// Candidates holds the groups that can be drawn in each layer.
type Candidates struct {
	Siblings [][]Group
	Parents  [][]Group
}

// FindCandidates assigns every relationship's sibling and parent group to a
// layer. A group is kept only when all of its members share one layer;
// split groups are dropped. Relationships without children yield no sibling
// group, and neither does a lone child of a relationship without parents.
// A parent group needs two present parents, or one present parent and at
// least one child.
//
// It fails with LOOKUP_ERROR when a relationship names a person that has
// no layer.
func FindCandidates(rels []tree.Relationship, layerOf map[tree.PersonID]int, layerCount int) (Candidates, error) {
	c := Candidates{
		Siblings: make([][]Group, layerCount),
		Parents:  make([][]Group, layerCount),
	}
	for _, r := range rels {
		parents := r.ParentIDs()
		if len(r.Children) > 1 || (len(r.Children) == 1 && len(parents) > 0) {
			layer, ok, err := sharedLayer(r.ID, r.Children, layerOf)
			if err != nil {
				return Candidates{}, err
			}
			if ok {
				c.Siblings[layer] = append(c.Siblings[layer], Group{Relationship: r.ID, Members: r.Children})
			}
		}

		if len(parents) == 2 || (len(parents) == 1 && len(r.Children) > 0) {
			layer, ok, err := sharedLayer(r.ID, parents, layerOf)
			if err != nil {
				return Candidates{}, err
			}
			if ok {
				c.Parents[layer] = append(c.Parents[layer], Group{Relationship: r.ID, Members: parents})
			}
		}
	}
	return c, nil
}

func sharedLayer(rid tree.RelationshipID, members []tree.PersonID, layerOf map[tree.PersonID]int) (int, bool, error) {
	layer := -1
	split := false
	for _, pid := range members {
		l, ok := layerOf[pid]
		if !ok {
			return 0, false, errors.New(errors.ErrCodeLookup,
				"relationship %s: person %s is not in any layer", rid, pid)
		}
		if layer >= 0 && l != layer {
			split = true
		}
		layer = l
	}
	return layer, !split, nil
}

// ResolveRanges maps each group to the sorted columns of its members in row
// and numbers the results left to right: by leftmost column, then
// rightmost column, then the full column list, then relationship id. The
// numbering does not depend on the order of groups.
//
// It fails with LOOKUP_ERROR when a group is empty or a member is not in
// the row.
func ResolveRanges(row []Cell, groups []Group) ([]Range, error) {
	cols := columns(row)
	ranges := make([]Range, 0, len(groups))
	for _, g := range groups {
		if len(g.Members) == 0 {
			return nil, errors.New(errors.ErrCodeLookup, "relationship %s: empty group", g.Relationship)
		}
		r := Range{Relationship: g.Relationship, Columns: make([]int, 0, len(g.Members))}
		for _, pid := range g.Members {
			col, ok := cols[pid]
			if !ok {
				return nil, errors.New(errors.ErrCodeLookup,
					"relationship %s: person %s is not in the row", g.Relationship, pid)
			}
			r.Columns = append(r.Columns, col)
		}
		slices.Sort(r.Columns)
		ranges = append(ranges, r)
	}

	slices.SortStableFunc(ranges, func(a, b Range) int {
		return cmp.Or(
			cmp.Compare(a.Left(), b.Left()),
			cmp.Compare(a.Right(), b.Right()),
			slices.Compare(a.Columns, b.Columns),
			cmp.Compare(a.Relationship, b.Relationship),
		)
	})
	for i := range ranges {
		ranges[i].Connection = i
	}
	return ranges, nil
}
