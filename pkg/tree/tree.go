package tree

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PersonID identifies a person. It is opaque; new ids are random UUIDs.
type PersonID string

// RelationshipID identifies a relationship.
type RelationshipID string

// NoPerson marks an absent parent slot.
const NoPerson PersonID = ""

// NewPersonID returns a fresh random person id.
func NewPersonID() PersonID { return PersonID(uuid.NewString()) }

// NewRelationshipID returns a fresh random relationship id.
func NewRelationshipID() RelationshipID { return RelationshipID(uuid.NewString()) }

// Person is a single individual with optional display info.
type Person struct {
	ID   PersonID `json:"id" yaml:"id" validate:"required"`
	Info Info     `json:"info" yaml:"info" validate:"dive"`
}

// Name returns the display name derived from the reserved info keys.
func (p Person) Name() string { return p.Info.Name() }

// Initials returns the display initials derived from the reserved info keys.
func (p Person) Initials() string { return p.Info.Initials() }

func (p Person) clone() Person {
	return Person{ID: p.ID, Info: p.Info.Clone()}
}

// Relationship joins up to two parents with their children.
//
// Parents is an ordered pair of slots; [NoPerson] marks an empty slot.
// Children keeps insertion order.
type Relationship struct {
	ID       RelationshipID `validate:"required"`
	Parents  [2]PersonID
	Children []PersonID `validate:"dive,required"`
}

// ParentIDs returns the present parents in slot order.
func (r Relationship) ParentIDs() []PersonID {
	var out []PersonID
	for _, p := range r.Parents {
		if p != NoPerson {
			out = append(out, p)
		}
	}
	return out
}

// Members returns the present parents followed by the children.
func (r Relationship) Members() []PersonID {
	return append(r.ParentIDs(), r.Children...)
}

// HasParent reports whether pid occupies a parent slot.
func (r Relationship) HasParent(pid PersonID) bool {
	return pid != NoPerson && (r.Parents[0] == pid || r.Parents[1] == pid)
}

// HasChild reports whether pid is one of the children.
func (r Relationship) HasChild(pid PersonID) bool {
	return slices.Contains(r.Children, pid)
}

func (r Relationship) clone() Relationship {
	return Relationship{ID: r.ID, Parents: r.Parents, Children: slices.Clone(r.Children)}
}

// relationshipWire is the serialized form: absent parents are null.
type relationshipWire struct {
	ID       RelationshipID `json:"id" yaml:"id"`
	Parents  [2]*PersonID   `json:"parents" yaml:"parents,flow"`
	Children []PersonID     `json:"children" yaml:"children,flow"`
}

func (r Relationship) toWire() relationshipWire {
	w := relationshipWire{ID: r.ID, Children: r.Children}
	for i, p := range r.Parents {
		if p != NoPerson {
			w.Parents[i] = &p
		}
	}
	if w.Children == nil {
		w.Children = []PersonID{}
	}
	return w
}

func (r *Relationship) fromWire(w relationshipWire) {
	r.ID = w.ID
	r.Parents = [2]PersonID{}
	for i, p := range w.Parents {
		if p != nil {
			r.Parents[i] = *p
		}
	}
	r.Children = w.Children
}

// MarshalJSON implements json.Marshaler.
func (r Relationship) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var w relationshipWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.fromWire(w)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Relationship) MarshalYAML() (any, error) {
	return r.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Relationship) UnmarshalYAML(value *yaml.Node) error {
	var w relationshipWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	r.fromWire(w)
	return nil
}
