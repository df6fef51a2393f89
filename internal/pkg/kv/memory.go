package kv

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and redis-less
// development runs.
type MemoryStore struct {
	now func() time.Time

	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{now: time.Now, items: make(map[string]memoryItem)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok || s.now().After(item.expiresAt) {
		delete(s.items, key)
		return ErrNotFound
	}
	return json.Unmarshal(item.data, dest)
}

func (s *MemoryStore) Take(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	delete(s.items, key)
	if !ok || s.now().After(item.expiresAt) {
		return ErrNotFound
	}
	return json.Unmarshal(item.data, dest)
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
