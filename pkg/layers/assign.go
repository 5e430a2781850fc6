package layers

import (
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Assign computes generations for every person of s.
//
// Assign uses a longest-path pass via topological sort (Kahn's algorithm)
// over parent to child edges: persons without parents sit in generation 0
// and every child is placed one generation below its deepest parent. Two
// parents of the same relationship are then moved to the deeper of their
// generations and the pass repeats, so partners end up side by side.
//
// The repeat loop is bounded by the number of persons. Trees whose
// constraints cannot all hold (for example a person partnered with its own
// descendant) keep the last assignment; the result still partitions all
// persons.
//
// Within a layer, persons keep snapshot order.
func Assign(s *tree.Snapshot) Layers {
	persons := s.Persons()
	if len(persons) == 0 {
		return Layers{}
	}
	rels := s.Relationships()

	children := make(map[tree.PersonID][]tree.PersonID)
	for _, r := range rels {
		for _, p := range r.ParentIDs() {
			children[p] = append(children[p], r.Children...)
		}
	}

	gen := make(map[tree.PersonID]int, len(persons))
	for _, p := range persons {
		gen[p.ID] = 0
	}
	for range len(persons) + 1 {
		longestPath(persons, children, gen)
		if !alignPartners(rels, gen) {
			break
		}
	}

	depth := 0
	for _, g := range gen {
		depth = max(depth, g+1)
	}
	out := make(Layers, depth)
	for _, p := range persons {
		g := gen[p.ID]
		out[g] = append(out[g], p.ID)
	}
	return compact(out)
}

// longestPath raises gen so that every child is strictly below each of its
// parents. Existing values act as lower bounds.
func longestPath(persons []tree.Person, children map[tree.PersonID][]tree.PersonID, gen map[tree.PersonID]int) {
	inDegree := make(map[tree.PersonID]int, len(persons))
	for _, cs := range children {
		for _, c := range cs {
			inDegree[c]++
		}
	}
	queue := make([]tree.PersonID, 0, len(persons))
	for _, p := range persons {
		if inDegree[p.ID] == 0 {
			queue = append(queue, p.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range children[curr] {
			if g := gen[curr] + 1; g > gen[child] {
				gen[child] = g
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
}

// alignPartners moves both parents of each relationship to the deeper
// generation of the two. It reports whether anything changed.
func alignPartners(rels []tree.Relationship, gen map[tree.PersonID]int) bool {
	changed := false
	for _, r := range rels {
		a, b := r.Parents[0], r.Parents[1]
		if a == tree.NoPerson || b == tree.NoPerson || gen[a] == gen[b] {
			continue
		}
		g := max(gen[a], gen[b])
		gen[a], gen[b] = g, g
		changed = true
	}
	return changed
}

// compact drops empty layers left behind by partner alignment.
func compact(l Layers) Layers {
	out := l[:0]
	for _, layer := range l {
		if len(layer) > 0 {
			out = append(out, layer)
		}
	}
	return out
}
