// Package layers partitions the persons of a family tree into ordered
// generations.
//
// A [Layers] value is the contract between generation assignment and grid
// construction: an ordered list of layers, each an ordered list of person
// ids, that together contain every person exactly once. Grid construction
// trusts this contract; [Validate] checks it for callers that receive layers
// from outside.
//
// [Assign] is the built-in provider. It places every person one generation
// below its deepest parent and moves partners onto the same generation.
// Order within a layer follows snapshot order; crossings are not minimised.
package layers

import (
	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Layers is an ordered list of generations, oldest first.
type Layers [][]tree.PersonID

// Width returns the length of the longest layer.
func (l Layers) Width() int {
	w := 0
	for _, layer := range l {
		w = max(w, len(layer))
	}
	return w
}

// Len returns the total number of persons across all layers.
func (l Layers) Len() int {
	n := 0
	for _, layer := range l {
		n += len(layer)
	}
	return n
}

// IndexOf maps every person to the index of its layer.
func (l Layers) IndexOf() map[tree.PersonID]int {
	idx := make(map[tree.PersonID]int, l.Len())
	for i, layer := range l {
		for _, pid := range layer {
			idx[pid] = i
		}
	}
	return idx
}

// Clone returns an independent copy.
func (l Layers) Clone() Layers {
	out := make(Layers, len(l))
	for i, layer := range l {
		out[i] = append([]tree.PersonID(nil), layer...)
	}
	return out
}

// Validate reports whether l exactly partitions the persons of s. It fails
// with INVALID_LAYERS on an unknown, duplicated or missing person.
func Validate(l Layers, s *tree.Snapshot) error {
	known := make(map[tree.PersonID]bool, s.Len())
	for _, p := range s.Persons() {
		known[p.ID] = true
	}
	seen := make(map[tree.PersonID]bool, len(known))
	for i, layer := range l {
		for _, pid := range layer {
			if !known[pid] {
				return errors.New(errors.ErrCodeInvalidLayers, "layer %d: unknown person %q", i, pid)
			}
			if seen[pid] {
				return errors.New(errors.ErrCodeInvalidLayers, "layer %d: person %q assigned twice", i, pid)
			}
			seen[pid] = true
		}
	}
	if len(seen) != len(known) {
		for _, p := range s.Persons() {
			if !seen[p.ID] {
				return errors.New(errors.ErrCodeInvalidLayers, "person %q has no layer", p.ID)
			}
		}
	}
	return nil
}
