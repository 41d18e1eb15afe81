package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"frpengine/internal/types"
)

var (
	ErrNotFound = errors.New("analysis not found")
	// ErrExists is returned by Put for an ID already stored. Records are
	// immutable; a corrected analysis is stored under a new ID.
	ErrExists = errors.New("analysis already exists")
)

// Record is one persisted analysis.
type Record struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Analysis  *types.FRPAnalysis `json:"analysis"`
}

// NewRecord wraps a with a fresh random ID.
func NewRecord(a *types.FRPAnalysis, now time.Time) Record {
	return Record{ID: uuid.NewString(), CreatedAt: now.UTC(), Analysis: a}
}

// Store persists analysis records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns records newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid id %q", id)
	}
	return id, nil
}

func validate(rec Record) (Record, error) {
	id, err := normalizeID(rec.ID)
	if err != nil {
		return Record{}, err
	}
	if rec.Analysis == nil {
		return Record{}, fmt.Errorf("record %s has no analysis", id)
	}
	rec.ID = id
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec, nil
}

func encode(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return data, nil
}

func decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// sortNewest orders records by CreatedAt descending, ties broken by ID.
func sortNewest(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

func applyLimit(recs []Record, limit int) []Record {
	if limit > 0 && len(recs) > limit {
		return recs[:limit]
	}
	return recs
}
