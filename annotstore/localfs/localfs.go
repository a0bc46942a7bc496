// Package localfs is a single-file JSON implementation of the annotation
// store, suitable for the CLI's local-first workflow.
package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kanima1/opentreasury/annotstore"
	"github.com/kanima1/opentreasury/otms"
)

// Store persists all accounts' annotations in one JSON file.
//
// Writes go through a temp file and rename so a crash never leaves a
// half-written store behind.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ annotstore.Store = (*Store)(nil)

// New constructs a store backed by path. The parent directory is created if
// needed; the file itself appears on first Put.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("localfs: store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

func (s *Store) Get(ctx context.Context, accountID string) (map[string]otms.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	m, ok := all[accountID]
	if !ok {
		return nil, annotstore.ErrNotFound
	}
	return m, nil
}

func (s *Store) Put(ctx context.Context, accountID string, annotations map[string]otms.Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	cp := make(map[string]otms.Annotation, len(annotations))
	for k, v := range annotations {
		cp[k] = v
	}
	all[accountID] = cp
	return s.save(all)
}

func (s *Store) load() (map[string]map[string]otms.Annotation, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]map[string]otms.Annotation), nil
		}
		return nil, err
	}
	var all map[string]map[string]otms.Annotation
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("localfs: corrupt store file: %w", err)
	}
	if all == nil {
		all = make(map[string]map[string]otms.Annotation)
	}
	return all, nil
}

func (s *Store) save(all map[string]map[string]otms.Annotation) error {
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".annotations-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
