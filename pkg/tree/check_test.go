package tree

import (
	"strings"
	"testing"

	"github.com/matzehuels/familygrid/pkg/errors"
)

func persons(ids ...PersonID) []Person {
	out := make([]Person, len(ids))
	for i, id := range ids {
		out[i] = Person{ID: id}
	}
	return out
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		data    Data
		wantMsg string
	}{
		{
			name: "empty tree",
			data: Data{},
		},
		{
			name: "consistent couple",
			data: Data{
				Persons: persons("A", "B", "C"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Children: []PersonID{"B"}},
					{ID: "r3", Parents: [2]PersonID{"A", "B"}, Children: []PersonID{"C"}},
				},
			},
		},
		{
			name: "duplicate relationship id",
			data: Data{
				Persons: persons("A", "B"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r1", Parents: [2]PersonID{"A"}, Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgRelationshipIDExists,
		},
		{
			name: "duplicate parent pair",
			data: Data{
				Persons: persons("A", "B", "C", "D"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Children: []PersonID{"B"}},
					{ID: "r3", Parents: [2]PersonID{"A", "B"}, Children: []PersonID{"C"}},
					{ID: "r4", Parents: [2]PersonID{"B", "A"}, Children: []PersonID{"D"}},
				},
			},
			wantMsg: MsgRelationshipExists,
		},
		{
			name: "self reference",
			data: Data{
				Persons: persons("A", "B"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Parents: [2]PersonID{"A", "A"}, Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgSelfReference,
		},
		{
			name: "child is parent",
			data: Data{
				Persons: persons("A"),
				Relationships: []Relationship{
					{ID: "r1", Parents: [2]PersonID{"A"}, Children: []PersonID{"A"}},
				},
			},
			wantMsg: MsgDirectCycle,
		},
		{
			name: "parent is nobody's child",
			data: Data{
				Persons: persons("A", "B"),
				Relationships: []Relationship{
					{ID: "r1", Parents: [2]PersonID{"A"}, Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgMustBeChild,
		},
		{
			name: "child of two relationships",
			data: Data{
				Persons: persons("A", "B"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Parents: [2]PersonID{"A"}, Children: []PersonID{"B"}},
					{ID: "r3", Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgMoreThanOnceChild,
		},
		{
			name: "unconnected",
			data: Data{
				Persons: persons("A", "B"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgUnconnected,
		},
		{
			name: "indirect cycle",
			data: Data{
				Persons: persons("A", "B"),
				Relationships: []Relationship{
					{ID: "r1", Parents: [2]PersonID{"B"}, Children: []PersonID{"A"}},
					{ID: "r2", Parents: [2]PersonID{"A"}, Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgIndirectCycle,
		},
		{
			name: "duplicate person id",
			data: Data{
				Persons: persons("A", "A"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
				},
			},
			wantMsg: MsgPersonIDExists,
		},
		{
			name: "too few persons",
			data: Data{
				Persons: persons("A"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Parents: [2]PersonID{"A"}, Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgDifferentCount,
		},
		{
			name: "different ids",
			data: Data{
				Persons: persons("A", "X"),
				Relationships: []Relationship{
					{ID: "r1", Children: []PersonID{"A"}},
					{ID: "r2", Parents: [2]PersonID{"A"}, Children: []PersonID{"B"}},
				},
			},
			wantMsg: MsgUnmatchedPersons,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromData(tt.data)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("FromData() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, errors.ErrCodeInconsistentTree) {
				t.Fatalf("FromData() error = %v, want INCONSISTENT_TREE", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("FromData() error = %q, want message %q", err, tt.wantMsg)
			}
		})
	}
}
