package docstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"didgate/pkg/platform/sentinel"
)

// MemoryStore is the in-process backend used by tests and local development.
// It returns copies so callers cannot mutate stored bodies.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
	seq  Revision
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (s *MemoryStore) Put(_ context.Context, doc Document) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.docs[doc.Key]
	switch {
	case doc.Revision == 0 && exists:
		return 0, sentinel.ErrConflict
	case doc.Revision != 0 && (!exists || current.Revision != doc.Revision):
		return 0, sentinel.ErrConflict
	}
	s.seq++
	s.docs[doc.Key] = Document{
		Key:      doc.Key,
		Revision: s.seq,
		Body:     slices.Clone(doc.Body),
	}
	return s.seq, nil
}

func (s *MemoryStore) Remove(_ context.Context, key string, rev Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Revision != rev {
		return sentinel.ErrConflict
	}
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0)
	for key, doc := range s.docs {
		if strings.HasPrefix(key, prefix) {
			out = append(out, cloneDoc(doc))
		}
	}
	slices.SortFunc(out, func(a, b *Document) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func cloneDoc(doc Document) *Document {
	return &Document{Key: doc.Key, Revision: doc.Revision, Body: slices.Clone(doc.Body)}
}
