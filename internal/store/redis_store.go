package store

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore keeps each record as a JSON string plus a sorted-set index
// scored by creation time.
type RedisStore struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix for records.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore dials address lazily; the first command opens the connection.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, opts...)
}

func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "frp:analysis:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string { return s.prefix + id }
func (s *RedisStore) indexKey() string     { return s.prefix + "index" }

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	rec, err := validate(rec)
	if err != nil {
		return err
	}
	data, err := encode(rec)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(rec.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	if !ok {
		return ErrExists
	}
	err = s.client.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(rec.CreatedAt.UnixMilli()),
		Member: rec.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("index record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Record{}, err
	}
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load record %s: %w", id, err)
	}
	return decode(val)
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Index entry outlived its value.
			continue
		}
		rec, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sortNewest(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
