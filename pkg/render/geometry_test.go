package render

import (
	"reflect"
	"testing"

	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/tree"
)

func TestSegments(t *testing.T) {
	rels := []tree.Relationship{
		{ID: "r", Parents: [2]tree.PersonID{"A", "C"}, Children: []tree.PersonID{"X", "Y", "Z"}},
		{ID: "s", Parents: [2]tree.PersonID{"B"}, Children: []tree.PersonID{"W"}},
	}
	l := layers.Layers{{"A", "B", "C"}, {"X", "Y", "Z", "W"}}
	g, err := grid.Assemble(rels, l)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		row, col int
		want     []Segment
	}{
		{"person cell", 1, 0, nil},
		{"leftmost parent", 2, 0, []Segment{{Connection: 0, Right: true, Vertical: true}}},
		{"lone parent over passing bar", 2, 1, []Segment{
			{Connection: 0, Left: true, Right: true},
			{Connection: 1, Vertical: true, Crossing: true},
		}},
		{"interior child", 3, 1, []Segment{{Connection: 0, Left: true, Right: true, Vertical: true}}},
		{"lone child", 3, 3, []Segment{{Connection: 1, Vertical: true}}},
		{"empty connector", 5, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Segments(g, tt.row, tt.col); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Segments(%d, %d) = %+v, want %+v", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestDrops(t *testing.T) {
	rels := []tree.Relationship{
		{ID: "r", Parents: [2]tree.PersonID{"A", "B"}, Children: []tree.PersonID{"D", "E"}},
		{ID: "founder", Children: []tree.PersonID{"A"}},
	}
	bands, err := grid.Bands(rels, layers.Layers{{"A", "B"}, {"C", "D", "E"}})
	if err != nil {
		t.Fatal(err)
	}
	want := []Drop{{Relationship: "r", ParentRow: 2, ParentCol: 0, SiblingCol: 1, Connection: 0, SiblingConnection: 0}}
	if got := Drops(bands); !reflect.DeepEqual(got, want) {
		t.Errorf("Drops() = %+v, want %+v", got, want)
	}
	if got := Drops(nil); got != nil {
		t.Errorf("Drops(nil) = %+v, want nil", got)
	}
}

func TestLabels(t *testing.T) {
	s := tree.New()
	pid := s.Persons()[0].ID
	if got := LabelsOf(s).Label(pid); got != string(pid[:8]) {
		t.Errorf("unnamed label = %q, want short id", got)
	}
	named, err := s.InsertInfo(pid, tree.KeyFirstName, "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if got := LabelsOf(named).Label(pid); got != "Ada" {
		t.Errorf("Label() = %q, want Ada", got)
	}
	if got := Labels(nil).Label("abc"); got != "abc" {
		t.Errorf("nil Labels fallback = %q", got)
	}
}
