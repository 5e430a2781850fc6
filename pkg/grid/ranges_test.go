package grid

import (
	"reflect"
	"testing"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/tree"
)

func TestBuildRow(t *testing.T) {
	row, err := BuildRow([]tree.PersonID{"A", "B"}, 4)
	if err != nil {
		t.Fatalf("BuildRow: %v", err)
	}
	want := []Cell{PersonCell{ID: "A"}, PersonCell{ID: "B"}, ConnectorCell{}, ConnectorCell{}}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("BuildRow() = %v, want %v", row, want)
	}

	if row, err := BuildRow(nil, 2); err != nil || len(row) != 2 {
		t.Errorf("BuildRow(empty layer) = %v, %v; want two empty cells", row, err)
	}

	_, err = BuildRow([]tree.PersonID{"A", "B", "C"}, 2)
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("BuildRow(too narrow) error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestResolveRanges(t *testing.T) {
	row, _ := BuildRow([]tree.PersonID{"A", "B", "C", "D"}, 5)

	got, err := ResolveRanges(row, []Group{
		{Relationship: "x", Members: []tree.PersonID{"D", "C"}},
		{Relationship: "y", Members: []tree.PersonID{"B", "A"}},
		{Relationship: "z", Members: []tree.PersonID{"B"}},
	})
	if err != nil {
		t.Fatalf("ResolveRanges: %v", err)
	}
	want := []Range{
		{Connection: 0, Relationship: "y", Columns: []int{0, 1}},
		{Connection: 1, Relationship: "z", Columns: []int{1}},
		{Connection: 2, Relationship: "x", Columns: []int{2, 3}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveRanges() = %+v, want %+v", got, want)
	}
}

func TestResolveRangesTieBreak(t *testing.T) {
	row, _ := BuildRow([]tree.PersonID{"A", "B", "C"}, 3)
	groups := []Group{
		{Relationship: "r2", Members: []tree.PersonID{"A", "C"}},
		{Relationship: "r1", Members: []tree.PersonID{"A", "B", "C"}},
		{Relationship: "r0", Members: []tree.PersonID{"C", "A"}},
	}
	got, err := ResolveRanges(row, groups)
	if err != nil {
		t.Fatal(err)
	}
	order := []tree.RelationshipID{got[0].Relationship, got[1].Relationship, got[2].Relationship}
	want := []tree.RelationshipID{"r1", "r0", "r2"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("connection order = %v, want %v", order, want)
	}
}

func TestResolveRangesErrors(t *testing.T) {
	row, _ := BuildRow([]tree.PersonID{"A", "B"}, 2)
	tests := []struct {
		name  string
		group Group
	}{
		{"missing member", Group{Relationship: "r", Members: []tree.PersonID{"A", "X"}}},
		{"empty group", Group{Relationship: "r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveRanges(row, []Group{tt.group})
			if !errors.Is(err, errors.ErrCodeLookup) {
				t.Errorf("ResolveRanges() error = %v, want LOOKUP_ERROR", err)
			}
		})
	}
}

func TestFindCandidates(t *testing.T) {
	layerOf := map[tree.PersonID]int{"A": 0, "B": 0, "C": 1, "D": 1, "E": 2, "F": 1}
	rels := []tree.Relationship{
		{ID: "founder", Children: []tree.PersonID{"A"}},
		{ID: "orphans", Children: []tree.PersonID{"A", "B"}},
		{ID: "couple", Parents: [2]tree.PersonID{"A", "B"}, Children: []tree.PersonID{"C", "D"}},
		{ID: "split", Parents: [2]tree.PersonID{"B", "C"}, Children: []tree.PersonID{"F", "E"}},
		{ID: "single", Parents: [2]tree.PersonID{tree.NoPerson, "D"}, Children: []tree.PersonID{"E"}},
		{ID: "childless", Parents: [2]tree.PersonID{"C", "D"}},
		{ID: "alone", Parents: [2]tree.PersonID{"F"}},
	}
	got, err := FindCandidates(rels, layerOf, 3)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	ids := func(groups []Group) []tree.RelationshipID {
		var out []tree.RelationshipID
		for _, g := range groups {
			out = append(out, g.Relationship)
		}
		return out
	}
	wantSiblings := [][]tree.RelationshipID{{"orphans"}, {"couple"}, {"single"}}
	wantParents := [][]tree.RelationshipID{{"couple"}, {"single", "childless"}, nil}
	for i := range 3 {
		if s := ids(got.Siblings[i]); !reflect.DeepEqual(s, wantSiblings[i]) {
			t.Errorf("Siblings[%d] = %v, want %v", i, s, wantSiblings[i])
		}
		if p := ids(got.Parents[i]); !reflect.DeepEqual(p, wantParents[i]) {
			t.Errorf("Parents[%d] = %v, want %v", i, p, wantParents[i])
		}
	}

	_, err = FindCandidates([]tree.Relationship{
		{ID: "r", Parents: [2]tree.PersonID{"A", "Z"}, Children: []tree.PersonID{"C"}},
	}, layerOf, 3)
	if !errors.Is(err, errors.ErrCodeLookup) {
		t.Errorf("FindCandidates(unknown member) error = %v, want LOOKUP_ERROR", err)
	}
}
