package tree

import (
	"github.com/matzehuels/familygrid/pkg/errors"
)

// Consistency rule messages reported by [Check].
const (
	MsgPersonIDExists       = "multiple persons with the same id"
	MsgRelationshipIDExists = "more than one relationship with the same id"
	MsgRelationshipExists   = "more than one relationship with the same parents"
	MsgSelfReference        = "self referencing relationship"
	MsgDirectCycle          = "a child cannot be its own parent"
	MsgMustBeChild          = "every person must be child of a relationship"
	MsgMoreThanOnceChild    = "a person is child of more than one relationship"
	MsgUnconnected          = "not all persons are connected"
	MsgIndirectCycle        = "cycle in family tree"
	MsgDifferentCount       = "the number of persons differs"
	MsgUnmatchedPersons     = "relationships and persons do not match"
)

// Check verifies the structural consistency of a snapshot. It returns the
// first violated rule as an INCONSISTENT_TREE error, or nil.
//
// Rules, in evaluation order:
//   - relationship ids are unique
//   - no two relationships share the same pair of parents
//   - the two parent slots do not hold the same person
//   - no child is a parent of its own relationship
//   - every referenced person is a child of exactly one relationship
//   - all persons are connected through relationships
//   - there is no cycle across generations
//   - person ids are unique and match the persons referenced by relationships
func Check(s *Snapshot) error {
	if err := checkRelationships(s.relationships); err != nil {
		return err
	}
	if err := checkPersons(s.persons); err != nil {
		return err
	}

	referenced := referencedPersons(s.relationships)
	if len(referenced) != len(s.persons) {
		return inconsistent(MsgDifferentCount)
	}
	known := make(map[PersonID]bool, len(referenced))
	for _, pid := range referenced {
		known[pid] = true
	}
	for _, p := range s.persons {
		if !known[p.ID] {
			return inconsistent(MsgUnmatchedPersons)
		}
	}
	return nil
}

func checkRelationships(rels []Relationship) error {
	if len(rels) == 0 {
		return nil
	}

	ids := make(map[RelationshipID]bool, len(rels))
	for _, r := range rels {
		if ids[r.ID] {
			return inconsistent(MsgRelationshipIDExists)
		}
		ids[r.ID] = true
	}

	pairs := make(map[[2]PersonID]bool)
	for _, r := range rels {
		if r.Parents[0] == NoPerson || r.Parents[1] == NoPerson {
			continue
		}
		if r.Parents[0] == r.Parents[1] {
			return inconsistent(MsgSelfReference)
		}
		pair := r.Parents
		if pair[1] < pair[0] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if pairs[pair] {
			return inconsistent(MsgRelationshipExists)
		}
		pairs[pair] = true
	}

	for _, r := range rels {
		for _, c := range r.Children {
			if r.HasParent(c) {
				return inconsistent(MsgDirectCycle)
			}
		}
	}

	childCount := make(map[PersonID]int)
	for _, r := range rels {
		for _, c := range r.Children {
			childCount[c]++
		}
	}
	referenced := referencedPersons(rels)
	for _, pid := range referenced {
		if childCount[pid] == 0 {
			return inconsistent(MsgMustBeChild)
		}
	}
	for _, n := range childCount {
		if n > 1 {
			return inconsistent(MsgMoreThanOnceChild)
		}
	}

	if connected(rels) != len(referenced) {
		return inconsistent(MsgUnconnected)
	}

	if hasCycle(rels, referenced) {
		return inconsistent(MsgIndirectCycle)
	}
	return nil
}

func checkPersons(persons []Person) error {
	seen := make(map[PersonID]bool, len(persons))
	for _, p := range persons {
		if seen[p.ID] {
			return inconsistent(MsgPersonIDExists)
		}
		seen[p.ID] = true
	}
	return nil
}

// referencedPersons returns every person named by a relationship, in first
// appearance order.
func referencedPersons(rels []Relationship) []PersonID {
	seen := make(map[PersonID]bool)
	var out []PersonID
	for _, r := range rels {
		for _, pid := range r.Members() {
			if !seen[pid] {
				seen[pid] = true
				out = append(out, pid)
			}
		}
	}
	return out
}

// connected counts the persons reachable from the first relationship.
func connected(rels []Relationship) int {
	byPerson := make(map[PersonID][]int)
	for i, r := range rels {
		for _, pid := range r.Members() {
			byPerson[pid] = append(byPerson[pid], i)
		}
	}

	visitedRel := make([]bool, len(rels))
	visited := make(map[PersonID]bool)
	queue := []int{0}
	visitedRel[0] = true
	for len(queue) > 0 {
		ri := queue[0]
		queue = queue[1:]
		for _, pid := range rels[ri].Members() {
			if visited[pid] {
				continue
			}
			visited[pid] = true
			for _, next := range byPerson[pid] {
				if !visitedRel[next] {
					visitedRel[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return len(visited)
}

// hasCycle runs Kahn's algorithm over parent to child edges and reports
// whether some person could not be ordered.
func hasCycle(rels []Relationship, persons []PersonID) bool {
	inDegree := make(map[PersonID]int, len(persons))
	children := make(map[PersonID][]PersonID)
	for _, r := range rels {
		for _, p := range r.ParentIDs() {
			children[p] = append(children[p], r.Children...)
			for _, c := range r.Children {
				inDegree[c]++
			}
		}
	}

	var queue []PersonID
	for _, pid := range persons {
		if inDegree[pid] == 0 {
			queue = append(queue, pid)
		}
	}
	ordered := 0
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		ordered++
		for _, c := range children[pid] {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	return ordered != len(persons)
}

func inconsistent(msg string) error {
	return errors.New(errors.ErrCodeInconsistentTree, "%s", msg)
}
