package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps encoded records in process memory. Stored records are
// copies, so callers cannot mutate history through a returned pointer.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, rec Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	rec, err := validate(rec)
	if err != nil {
		return err
	}
	data, err := encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[rec.ID]; ok {
		return ErrExists
	}
	s.data[rec.ID] = data
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return decode(data)
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	out := make([]Record, 0, len(s.data))
	for _, data := range s.data {
		rec, err := decode(data)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sortNewest(out)
	return applyLimit(out, limit), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
