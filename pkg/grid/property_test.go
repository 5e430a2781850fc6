package grid

import (
	"encoding/json"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// randomTree grows a tree from a seed by applying steps random edits.
// Edits rejected by the consistency check are skipped.
func randomTree(seed uint64, steps int) *tree.Snapshot {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := tree.New()
	for range steps {
		persons, rels := s.Persons(), s.Relationships()
		p := persons[rng.IntN(len(persons))].ID
		r := rels[rng.IntN(len(rels))].ID

		var next *tree.Snapshot
		var err error
		switch rng.IntN(5) {
		case 0:
			next, _, _, err = s.AddParent(r)
		case 1, 2:
			next, _, err = s.AddChild(r)
		case 3:
			next, _, err = s.AddRelationship(p)
		case 4:
			partner := persons[rng.IntN(len(persons))].ID
			next, _, err = s.AddRelationshipWithPartner(p, partner)
		}
		if err == nil {
			s = next
		}
	}
	return s
}

func TestGridProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	build := func(seed uint64, steps int) (*tree.Snapshot, layers.Layers, *Grid, bool) {
		s := randomTree(seed, steps)
		l := layers.Assign(s)
		g, err := Build(s, l)
		if err != nil {
			t.Logf("seed %d steps %d: %v", seed, steps, err)
			return s, l, nil, false
		}
		return s, l, g, true
	}

	properties.Property("grid has three rows per layer of equal width", prop.ForAll(
		func(seed uint64, steps int) bool {
			_, l, g, ok := build(seed, steps)
			if !ok || g.Height() != 3*len(l) || g.Width != l.Width() {
				return false
			}
			for _, row := range g.Rows {
				if len(row) != g.Width {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(0, 40),
	))

	properties.Property("every person appears once at its layer position", prop.ForAll(
		func(seed uint64, steps int) bool {
			s, l, g, ok := build(seed, steps)
			if !ok || layers.Validate(l, s) != nil {
				return false
			}
			pos := g.Positions()
			if len(pos) != s.Len() {
				return false
			}
			for i, layer := range l {
				for j, pid := range layer {
					if pos[pid] != (Position{Row: 3*i + 1, Col: j}) {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(0, 40),
	))

	properties.Property("build is deterministic", prop.ForAll(
		func(seed uint64, steps int) bool {
			s, l, g, ok := build(seed, steps)
			if !ok {
				return false
			}
			again, err := Build(s, l)
			return err == nil && reflect.DeepEqual(g, again)
		},
		gen.UInt64(),
		gen.IntRange(0, 40),
	))

	properties.Property("relationship order does not matter", prop.ForAll(
		func(seed uint64, steps int) bool {
			s, l, g, ok := build(seed, steps)
			if !ok {
				return false
			}
			rels := s.Relationships()
			rand.New(rand.NewPCG(seed, 1)).Shuffle(len(rels), func(i, j int) {
				rels[i], rels[j] = rels[j], rels[i]
			})
			shuffled, err := Assemble(rels, l)
			return err == nil && reflect.DeepEqual(g, shuffled)
		},
		gen.UInt64(),
		gen.IntRange(0, 40),
	))

	properties.Property("markers stay within their row", prop.ForAll(
		func(seed uint64, steps int) bool {
			_, _, g, ok := build(seed, steps)
			if !ok {
				return false
			}
			for i, row := range g.Rows {
				for _, c := range row {
					cc, isConn := c.(ConnectorCell)
					if !isConn {
						if g.Kind(i) != PersonRow {
							return false
						}
						continue
					}
					for k, m := range cc.Markers {
						if m.Connection < 0 || m.Connection >= cc.Total {
							return false
						}
						if (m.Kind == Crossing) != (k > 0) {
							return false
						}
						for _, x := range m.Crosses {
							if x >= m.Connection {
								return false
							}
						}
					}
				}
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(0, 40),
	))

	properties.Property("JSON round trip preserves the grid", prop.ForAll(
		func(seed uint64, steps int) bool {
			_, _, g, ok := build(seed, steps)
			if !ok {
				return false
			}
			data, err := json.Marshal(g)
			if err != nil {
				return false
			}
			var back Grid
			if err := json.Unmarshal(data, &back); err != nil {
				return false
			}
			return reflect.DeepEqual(&back, g)
		},
		gen.UInt64(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}
