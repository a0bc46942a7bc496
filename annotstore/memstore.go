package annotstore

import (
	"context"
	"sync"

	"github.com/kanima1/opentreasury/otms"
)

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]map[string]otms.Annotation
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string]otms.Annotation)}
}

func (s *MemStore) Get(ctx context.Context, accountID string) (map[string]otms.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAnnotations(m), nil
}

func (s *MemStore) Put(ctx context.Context, accountID string, annotations map[string]otms.Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[accountID] = copyAnnotations(annotations)
	return nil
}

func copyAnnotations(m map[string]otms.Annotation) map[string]otms.Annotation {
	out := make(map[string]otms.Annotation, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
