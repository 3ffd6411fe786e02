// Package store holds the per-thread audit record sets. Each audit run
// replaces a thread's records wholesale; fraud detection reads the
// latest fully-written set. No expiry; the default backend does not
// survive a process restart.
package store

import (
	"context"
	"sync"

	"github.com/compliancehq/compliancebot/internal/models"
)

// Store maps a conversation thread ID to the records produced by the
// most recent audit run in that thread.
type Store interface {
	// Put atomically replaces the record set for the thread.
	Put(ctx context.Context, threadID string, records []models.AuditRecord) error

	// Get returns the current record set for the thread. ok is false
	// when no audit has run in that thread.
	Get(ctx context.Context, threadID string) (records []models.AuditRecord, ok bool, err error)
}

// MemoryStore is the default in-process backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]models.AuditRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]models.AuditRecord),
	}
}

// Put replaces the thread's records under the write lock. The slice is
// copied so later mutation by the caller cannot leak into readers.
func (s *MemoryStore) Put(_ context.Context, threadID string, records []models.AuditRecord) error {
	cp := make([]models.AuditRecord, len(records))
	copy(cp, records)

	s.mu.Lock()
	s.records[threadID] = cp
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the thread's records.
func (s *MemoryStore) Get(_ context.Context, threadID string) ([]models.AuditRecord, bool, error) {
	s.mu.RLock()
	stored, ok := s.records[threadID]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	cp := make([]models.AuditRecord, len(stored))
	copy(cp, stored)
	return cp, true, nil
}
