// Package store persists family-tree snapshots under a tree id.
//
// # Backends
//
//   - [FileStore]: one JSON file per tree in a directory, for the CLI and
//     single-instance servers
//   - [MongoStore]: one document per tree in a MongoDB collection, for
//     multi-instance deployments
//
// # Optimistic Versioning
//
// Every snapshot carries a version that each edit increments. [Store.Save]
// takes the version the edit started from: the save succeeds only if the
// stored tree still has that version, and fails with VERSION_CONFLICT
// otherwise. A base of 0 creates a new tree and conflicts with an existing
// one. Callers retry by reloading, re-applying the edit and saving again:
//
//	s, err := st.Load(ctx, id)
//	next, pid, err := s.AddChild(rid)
//	err = st.Save(ctx, id, next, s.Version())
//
// Loads and saves report to the [observability.StoreHooks].
package store

import (
	"context"
	"time"

	"github.com/matzehuels/familygrid/pkg/observability"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Store is a snapshot repository.
type Store interface {
	// Load returns the current snapshot of tree id. Fails with
	// TREE_NOT_FOUND when the tree does not exist.
	Load(ctx context.Context, id string) (*tree.Snapshot, error)

	// Save stores s as the new state of tree id if the stored version
	// equals base. Base 0 creates the tree.
	Save(ctx context.Context, id string, s *tree.Snapshot, base int) error

	// List returns the ids of all stored trees in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes tree id. Deleting a missing tree is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Backend names used in configuration and metrics.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

func observeLoad(ctx context.Context, backend string, start time.Time, err error) {
	observability.Store().OnLoad(ctx, backend, time.Since(start), err)
}

func observeSave(ctx context.Context, backend string, start time.Time, err error) {
	observability.Store().OnSave(ctx, backend, time.Since(start), err)
}
