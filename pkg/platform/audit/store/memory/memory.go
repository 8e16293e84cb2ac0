// Package memory is the in-process audit store used in development and tests.
package memory

import (
	"context"
	"sync"

	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
)

// InMemoryStore keeps events in insertion order. Access records list newest
// first, like the PostgreSQL store.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []audit.Event
	accesses []audit.AccessRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject id.DID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AppendAccess(_ context.Context, record audit.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Attributes = append([]string(nil), record.Attributes...)
	s.accesses = append(s.accesses, record)
	return nil
}

func (s *InMemoryStore) ListByOrganization(_ context.Context, org id.OrganizationID) ([]audit.AccessRecord, error) {
	return s.filterAccess(func(r audit.AccessRecord) bool { return r.Organization == org }), nil
}

func (s *InMemoryStore) ListAccessBySubject(_ context.Context, subject id.DID) ([]audit.AccessRecord, error) {
	return s.filterAccess(func(r audit.AccessRecord) bool { return r.Subject == subject }), nil
}

func (s *InMemoryStore) filterAccess(keep func(audit.AccessRecord) bool) []audit.AccessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.AccessRecord
	for i := len(s.accesses) - 1; i >= 0; i-- {
		if keep(s.accesses[i]) {
			out = append(out, s.accesses[i])
		}
	}
	return out
}
