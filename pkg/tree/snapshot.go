package tree

import (
	"slices"

	"github.com/matzehuels/familygrid/pkg/errors"
)

// Snapshot is an immutable, versioned family tree.
//
// Accessors return copies; mutations return a new snapshot with the version
// incremented. A Snapshot is safe for concurrent use.
type Snapshot struct {
	version       int
	persons       []Person
	relationships []Relationship
}

// Data is the plain, serializable content of a snapshot.
type Data struct {
	Version       int            `json:"version" yaml:"version" validate:"gte=0"`
	Persons       []Person       `json:"persons" yaml:"persons" validate:"dive"`
	Relationships []Relationship `json:"relationships" yaml:"relationships" validate:"dive"`
}

// New creates a tree holding a single person, the only child of a
// relationship without parents.
func New() *Snapshot {
	pid := NewPersonID()
	return &Snapshot{
		version: 1,
		persons: []Person{{ID: pid}},
		relationships: []Relationship{{
			ID:       NewRelationshipID(),
			Children: []PersonID{pid},
		}},
	}
}

// FromData builds a snapshot from raw data after running [Check].
func FromData(d Data) (*Snapshot, error) {
	s := &Snapshot{
		version:       d.Version,
		persons:       clonePersons(d.Persons),
		relationships: cloneRelationships(d.Relationships),
	}
	if err := Check(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Data returns a deep copy of the snapshot content.
func (s *Snapshot) Data() Data {
	return Data{
		Version:       s.version,
		Persons:       s.Persons(),
		Relationships: s.Relationships(),
	}
}

// Version returns the snapshot version. Each mutation adds one.
func (s *Snapshot) Version() int { return s.version }

// Persons returns a copy of all persons in insertion order.
func (s *Snapshot) Persons() []Person { return clonePersons(s.persons) }

// Relationships returns a copy of all relationships in insertion order.
func (s *Snapshot) Relationships() []Relationship {
	return cloneRelationships(s.relationships)
}

// Person looks up a person by id.
func (s *Snapshot) Person(pid PersonID) (Person, bool) {
	if i := s.personIndex(pid); i >= 0 {
		return s.persons[i].clone(), true
	}
	return Person{}, false
}

// Relationship looks up a relationship by id.
func (s *Snapshot) Relationship(rid RelationshipID) (Relationship, bool) {
	if i := s.relationshipIndex(rid); i >= 0 {
		return s.relationships[i].clone(), true
	}
	return Relationship{}, false
}

// ChildOf returns the relationship that has pid among its children.
func (s *Snapshot) ChildOf(pid PersonID) (Relationship, bool) {
	for _, r := range s.relationships {
		if r.HasChild(pid) {
			return r.clone(), true
		}
	}
	return Relationship{}, false
}

// ParentOf returns the relationships in which pid occupies a parent slot.
func (s *Snapshot) ParentOf(pid PersonID) []Relationship {
	var out []Relationship
	for _, r := range s.relationships {
		if r.HasParent(pid) {
			out = append(out, r.clone())
		}
	}
	return out
}

// Len returns the number of persons.
func (s *Snapshot) Len() int { return len(s.persons) }

// AddParent fills the first free parent slot of rid with a new person. The
// new person becomes the only child of a new relationship without parents.
func (s *Snapshot) AddParent(rid RelationshipID) (*Snapshot, PersonID, RelationshipID, error) {
	ri := s.relationshipIndex(rid)
	if ri < 0 {
		return nil, NoPerson, "", invalidRelationship(rid)
	}
	next := s.next()
	rel := &next.relationships[ri]
	slot := slices.Index(rel.Parents[:], NoPerson)
	if slot < 0 {
		return nil, NoPerson, "", errors.New(errors.ErrCodeAlreadyTwoParents,
			"relationship %s already has two parents", rid)
	}
	pid := NewPersonID()
	rel.Parents[slot] = pid
	newRel := Relationship{ID: NewRelationshipID(), Children: []PersonID{pid}}
	next.persons = append(next.persons, Person{ID: pid})
	next.relationships = append(next.relationships, newRel)
	if err := Check(next); err != nil {
		return nil, NoPerson, "", err
	}
	return next, pid, newRel.ID, nil
}

// AddChild appends a new person to the children of rid.
func (s *Snapshot) AddChild(rid RelationshipID) (*Snapshot, PersonID, error) {
	ri := s.relationshipIndex(rid)
	if ri < 0 {
		return nil, NoPerson, invalidRelationship(rid)
	}
	next := s.next()
	pid := NewPersonID()
	next.relationships[ri].Children = append(next.relationships[ri].Children, pid)
	next.persons = append(next.persons, Person{ID: pid})
	if err := Check(next); err != nil {
		return nil, NoPerson, err
	}
	return next, pid, nil
}

// AddRelationship creates a relationship with pid as the sole parent and no
// children.
func (s *Snapshot) AddRelationship(pid PersonID) (*Snapshot, RelationshipID, error) {
	if s.personIndex(pid) < 0 {
		return nil, "", invalidPerson(pid)
	}
	return s.appendRelationship(Relationship{
		ID:      NewRelationshipID(),
		Parents: [2]PersonID{pid, NoPerson},
	})
}

// AddRelationshipWithPartner creates a childless relationship between two
// existing persons. Fails with INCONSISTENT_TREE if the pair already exists.
func (s *Snapshot) AddRelationshipWithPartner(pid, partner PersonID) (*Snapshot, RelationshipID, error) {
	for _, id := range []PersonID{pid, partner} {
		if s.personIndex(id) < 0 {
			return nil, "", invalidPerson(id)
		}
	}
	return s.appendRelationship(Relationship{
		ID:      NewRelationshipID(),
		Parents: [2]PersonID{pid, partner},
	})
}

func (s *Snapshot) appendRelationship(rel Relationship) (*Snapshot, RelationshipID, error) {
	next := s.next()
	next.relationships = append(next.relationships, rel)
	if err := Check(next); err != nil {
		return nil, "", err
	}
	return next, rel.ID, nil
}

// InsertInfo sets key to value on person pid.
func (s *Snapshot) InsertInfo(pid PersonID, key, value string) (*Snapshot, error) {
	pi := s.personIndex(pid)
	if pi < 0 {
		return nil, invalidPerson(pid)
	}
	if err := errors.ValidateInfoKey(key); err != nil {
		return nil, err
	}
	next := s.next()
	next.persons[pi].Info = next.persons[pi].Info.Set(key, value)
	return next, nil
}

// RemoveInfo deletes key from person pid and returns the removed value.
// Fails with NO_INFO when the person has no info and INVALID_KEY when the
// key is not present.
func (s *Snapshot) RemoveInfo(pid PersonID, key string) (*Snapshot, string, error) {
	pi := s.personIndex(pid)
	if pi < 0 {
		return nil, "", invalidPerson(pid)
	}
	if len(s.persons[pi].Info) == 0 {
		return nil, "", errors.New(errors.ErrCodeNoInfo, "person %s has no info", pid)
	}
	next := s.next()
	info, value, ok := next.persons[pi].Info.Delete(key)
	if !ok {
		return nil, "", errors.New(errors.ErrCodeInvalidKey, "key %q is not present", key)
	}
	next.persons[pi].Info = info
	return next, value, nil
}

// RemovePerson removes a person without descendants. The person leaves every
// parent slot and child list; childless relationships the person was a
// parent in are dropped, as are relationships left without members.
// Removing the last person, or a person whose removal would disconnect the
// tree, fails.
func (s *Snapshot) RemovePerson(pid PersonID) (*Snapshot, error) {
	pi := s.personIndex(pid)
	if pi < 0 {
		return nil, invalidPerson(pid)
	}
	if len(s.persons) == 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot remove the last person")
	}
	for _, r := range s.relationships {
		if r.HasParent(pid) && len(r.Children) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"person %s has children in relationship %s", pid, r.ID)
		}
	}

	next := s.next()
	next.persons = slices.Delete(next.persons, pi, pi+1)
	rels := next.relationships[:0]
	for _, r := range next.relationships {
		wasParent := r.HasParent(pid)
		for i := range r.Parents {
			if r.Parents[i] == pid {
				r.Parents[i] = NoPerson
			}
		}
		r.Children = slices.DeleteFunc(r.Children, func(c PersonID) bool { return c == pid })
		if len(r.Children) == 0 && (wasParent || len(r.ParentIDs()) == 0) {
			continue
		}
		rels = append(rels, r)
	}
	next.relationships = rels
	if err := Check(next); err != nil {
		return nil, err
	}
	return next, nil
}

// next returns a deep copy with the version incremented.
func (s *Snapshot) next() *Snapshot {
	return &Snapshot{
		version:       s.version + 1,
		persons:       clonePersons(s.persons),
		relationships: cloneRelationships(s.relationships),
	}
}

func (s *Snapshot) personIndex(pid PersonID) int {
	return slices.IndexFunc(s.persons, func(p Person) bool { return p.ID == pid })
}

func (s *Snapshot) relationshipIndex(rid RelationshipID) int {
	return slices.IndexFunc(s.relationships, func(r Relationship) bool { return r.ID == rid })
}

func invalidPerson(pid PersonID) error {
	return errors.New(errors.ErrCodeInvalidPersonID, "unknown person %q", pid)
}

func invalidRelationship(rid RelationshipID) error {
	return errors.New(errors.ErrCodeInvalidRelationshipID, "unknown relationship %q", rid)
}

func clonePersons(in []Person) []Person {
	if in == nil {
		return nil
	}
	out := make([]Person, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}

func cloneRelationships(in []Relationship) []Relationship {
	if in == nil {
		return nil
	}
	out := make([]Relationship, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}
