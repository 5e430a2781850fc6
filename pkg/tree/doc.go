// Package tree holds the family-tree data model: persons, relationships and
// the immutable, versioned [Snapshot] the layout packages read from.
//
// # Overview
//
// A family tree is a set of persons joined by relationships. A
// [Relationship] has two ordered parent slots, each either a person id or
// absent, and an ordered list of children. Every person is the child of
// exactly one relationship; founders are children of a relationship with no
// parents.
//
// # Snapshots
//
// A [Snapshot] never changes after construction. Every edit operation
// ([Snapshot.AddParent], [Snapshot.AddChild], [Snapshot.InsertInfo], ...)
// returns a new snapshot whose [Snapshot.Version] is one higher and leaves
// the receiver untouched:
//
//	s := tree.New()
//	root := s.Relationships()[0]
//	s2, pid, rid, err := s.AddParent(root.ID)
//
// Layout code receives a snapshot and can therefore never observe a
// relationship mid-edit.
//
// # Consistency
//
// [Check] verifies the structural rules a tree must obey (unique ids,
// no cycles, every person connected and a child of exactly one
// relationship). Every mutation runs it on its result, and [Read] runs it
// on loaded files.
//
// # Person Info
//
// [Info] is an ordered key/value list. Keys starting with "@" drive display:
// [KeyFirstName], [KeyMiddleName], [KeyLastName], [KeyDateOfBirth],
// [KeyDateOfDeath] and [KeyImage]. Any other key is free-form.
//
// # Files
//
// [Read] and [Write] load and store snapshots as JSON or YAML, chosen by the
// file extension.
package tree
