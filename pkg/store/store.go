// Package store persists the ticket corpus together with its embeddings
// so index rebuilds and process restarts do not re-embed unchanged
// tickets.
package store

import (
	"context"
	"sync"

	"github.com/ticketwise/backend/pkg/ticket"
)

// Record is a persisted ticket with the embedding it was indexed under.
type Record struct {
	Ticket    ticket.Ticket
	Embedding []float32
}

// TicketStore persists the corpus for one embedding model version.
// ReplaceAll swaps the whole corpus atomically; readers never observe a
// partially replaced corpus.
type TicketStore interface {
	ReplaceAll(ctx context.Context, modelVersion string, records []Record) error
	LoadAll(ctx context.Context, modelVersion string) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is an in-memory TicketStore used in tests and single-node
// setups without Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	modelVersion string
	records      []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReplaceAll(_ context.Context, modelVersion string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelVersion = modelVersion
	s.records = make([]Record, len(records))
	copy(s.records, records)
	return nil
}

func (s *MemoryStore) LoadAll(_ context.Context, modelVersion string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.modelVersion != modelVersion {
		return nil, nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
