package cart

import (
	"context"
	"sync"
)

// Store persists carts between requests, keyed by an opaque cart id.
// Load of an unknown id returns an empty cart, not an error.
type Store interface {
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, cartID string, c *Cart) error
	Delete(ctx context.Context, cartID string) error
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

func (s *MemoryStore) Load(_ context.Context, cartID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[cartID]; ok {
		return c.Clone(), nil
	}
	return New(), nil
}

func (s *MemoryStore) Save(_ context.Context, cartID string, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cartID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}
