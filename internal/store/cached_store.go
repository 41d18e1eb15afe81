package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore serves Get from an LRU in front of another store.
type CachedStore struct {
	inner Store
	cache *lru.Cache[string, Record]
}

func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner store is nil")
	}
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, Record](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (s *CachedStore) Put(ctx context.Context, rec Record) error {
	if err := s.inner.Put(ctx, rec); err != nil {
		return err
	}
	// The next Get reads the stored form.
	s.cache.Remove(rec.ID)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Record, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}
	rec, err := s.inner.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	s.cache.Add(id, rec)
	return rec, nil
}

func (s *CachedStore) List(ctx context.Context, limit int) ([]Record, error) {
	return s.inner.List(ctx, limit)
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return s.inner.Delete(ctx, id)
}

func (s *CachedStore) Close() error { return s.inner.Close() }
