package retrieval

import (
	"context"
	"sync"
)

// Store persists chunks for retrieval.
type Store interface {
	Migrate(ctx context.Context) error
	InsertChunks(ctx context.Context, chunks []Chunk) error
	ListChunks(ctx context.Context, collection string) ([]Chunk, error)
	Close() error
}

// MemoryStore is an in-memory Store for tests and single-shot CLI runs.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string][]Chunk
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{chunks: make(map[string][]Chunk)}
}

func (s *MemoryStore) Migrate(_ context.Context) error {
	return nil
}

func (s *MemoryStore) InsertChunks(_ context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.Collection] = append(s.chunks[c.Collection], c)
	}
	return nil
}

func (s *MemoryStore) ListChunks(_ context.Context, collection string) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chunk, len(s.chunks[collection]))
	copy(out, s.chunks[collection])
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
