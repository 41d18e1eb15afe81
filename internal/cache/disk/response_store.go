package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const indexName = "index.json"

// Config bounds a ResponseStore. Zero MaxEntries means 1024; zero TTL means
// entries never expire.
type Config struct {
	Dir        string
	MaxEntries int
	TTL        time.Duration
}

type entry struct {
	File       string    `json:"file"`
	Size       int       `json:"size"`
	StoredAt   time.Time `json:"stored_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// ResponseStore keeps generated texts on disk across processes. Each value
// lives in its own file named by the key hash; index.json tracks access
// times for LRU eviction.
type ResponseStore struct {
	mu         sync.Mutex
	dir        string
	maxEntries int
	ttl        time.Duration
	entries    map[string]entry
	now        func() time.Time
}

func Open(cfg Config) (*ResponseStore, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("disk cache: dir is required")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1024
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk cache: %w", err)
	}
	s := &ResponseStore{
		dir:        dir,
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		entries:    map[string]entry{},
		now:        time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return s, s.persistLocked()
}

// Get returns the stored text for key. Expired or missing files count as a miss.
func (s *ResponseStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	now := s.now()
	if s.expired(ent, now) {
		s.removeLocked(key, ent)
		return "", false, s.persistLocked()
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, ent.File))
	if errors.Is(err, os.ErrNotExist) {
		s.removeLocked(key, ent)
		return "", false, s.persistLocked()
	}
	if err != nil {
		return "", false, err
	}
	ent.AccessedAt = now
	s.entries[key] = ent
	return string(raw), true, s.persistLocked()
}

func (s *ResponseStore) Set(_ context.Context, key, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := fileName(key)
	if err := os.WriteFile(filepath.Join(s.dir, file), []byte(text), 0o644); err != nil {
		return err
	}
	now := s.now()
	s.entries[key] = entry{File: file, Size: len(text), StoredAt: now, AccessedAt: now}
	s.pruneLocked()
	return s.persistLocked()
}

func (s *ResponseStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ResponseStore) expired(ent entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(ent.StoredAt) > s.ttl
}

func (s *ResponseStore) load() error {
	raw, err := os.ReadFile(filepath.Join(s.dir, indexName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return fmt.Errorf("disk cache: decode index: %w", err)
	}
	if s.entries == nil {
		s.entries = map[string]entry{}
	}
	return nil
}

func (s *ResponseStore) pruneLocked() {
	now := s.now()
	for key, ent := range s.entries {
		if s.expired(ent, now) {
			s.removeLocked(key, ent)
		}
	}
	if len(s.entries) <= s.maxEntries {
		return
	}
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.entries[keys[i]].AccessedAt, s.entries[keys[j]].AccessedAt
		if a.Equal(b) {
			return keys[i] < keys[j]
		}
		return a.Before(b)
	})
	for _, key := range keys[:len(keys)-s.maxEntries] {
		s.removeLocked(key, s.entries[key])
	}
}

func (s *ResponseStore) removeLocked(key string, ent entry) {
	delete(s.entries, key)
	_ = os.Remove(filepath.Join(s.dir, ent.File))
}

func (s *ResponseStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, indexName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".txt"
}
