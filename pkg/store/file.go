package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/observability"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// FileStore keeps each tree as <dir>/<id>.json.
// Saves are serialised within the process.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir.
// If baseDir is empty, defaults to ~/.local/share/familygrid/trees/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "familygrid", "trees")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) treePath(id string) (string, error) {
	if err := errors.ValidateTreeID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func (s *FileStore) Load(ctx context.Context, id string) (snap *tree.Snapshot, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, BackendFile, start, err) }()
	return s.load(id)
}

func (s *FileStore) load(id string) (*tree.Snapshot, error) {
	path, err := s.treePath(id)
	if err != nil {
		return nil, err
	}
	snap, err := tree.Read(path)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return nil, errors.New(errors.ErrCodeTreeNotFound, "tree %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load tree %q: %w", id, err)
	}
	return snap, nil
}

func (s *FileStore) Save(ctx context.Context, id string, snap *tree.Snapshot, base int) (err error) {
	start := time.Now()
	defer func() { observeSave(ctx, BackendFile, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.treePath(id)
	if err != nil {
		return err
	}
	current, err := s.load(id)
	switch {
	case errors.Is(err, errors.ErrCodeTreeNotFound):
		if base != 0 {
			return errors.New(errors.ErrCodeTreeNotFound, "tree %q not found", id)
		}
	case err != nil:
		return err
	case current.Version() != base:
		observability.Store().OnConflict(ctx, BackendFile)
		return conflict(id, base, current.Version())
	}
	if err := tree.Write(path, snap); err != nil {
		return fmt.Errorf("save tree %q: %w", id, err)
	}
	return nil
}

func (s *FileStore) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.treePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove tree file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func conflict(id string, base, current int) error {
	return errors.New(errors.ErrCodeVersionConflict,
		"tree %q changed: edit based on version %d, stored version is %d", id, base, current)
}

var _ Store = (*FileStore)(nil)
