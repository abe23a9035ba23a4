package entitysync

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Row is one cached record: the entity key and the record's snake_case JSON
// encoding. The cache never interprets Data; decoding happens at the engine
// boundary.
type Row struct {
	Key  string
	Data []byte
}

// Store is the local cache for entity collections. It is a best-effort
// accelerator: callers log failures and carry on, and a fetch always
// supersedes whatever the store returned. GetAll returns rows in first-insert
// order; Put and PutAll upsert by key.
type Store interface {
	GetAll(ctx context.Context, table string) ([]Row, error)
	Put(ctx context.Context, table string, row Row) error
	PutAll(ctx context.Context, table string, rows []Row) error
	Delete(ctx context.Context, table string, key string) error
	Clear(ctx context.Context, table string) error
}

type memoryTable struct {
	order []string
	rows  map[string][]byte
}

type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]*memoryTable
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]*memoryTable),
	}
}

func (s *MemoryStore) table(name string) *memoryTable {
	t, ok := s.tables[name]
	if !ok {
		t = &memoryTable{rows: make(map[string][]byte)}
		s.tables[name] = t
	}
	return t
}

func (s *MemoryStore) GetAll(ctx context.Context, table string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	out := make([]Row, 0, len(t.order))
	for _, key := range t.order {
		data, ok := t.rows[key]
		if !ok {
			continue
		}
		copied := make([]byte, len(data))
		copy(copied, data)
		out = append(out, Row{Key: key, Data: copied})
	}
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, table string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(s.table(table), row)
	return nil
}

func (s *MemoryStore) PutAll(ctx context.Context, table string, rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	for _, row := range rows {
		s.putLocked(t, row)
	}
	return nil
}

func (s *MemoryStore) putLocked(t *memoryTable, row Row) {
	if _, exists := t.rows[row.Key]; !exists {
		t.order = append(t.order, row.Key)
	}
	data := make([]byte, len(row.Data))
	copy(data, row.Data)
	t.rows[row.Key] = data
}

func (s *MemoryStore) Delete(ctx context.Context, table string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	if _, exists := t.rows[key]; !exists {
		return nil
	}
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, table)
	return nil
}

// RedisStore persists cached collections in Redis: one hash per table keyed
// by entity key, plus a list tracking first-insert order.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cacheKey(table string) string {
	return "synccache:" + table
}

func cacheOrderKey(table string) string {
	return "synccache:" + table + ":order"
}

func (s *RedisStore) GetAll(ctx context.Context, table string) ([]Row, error) {
	keys, err := s.client.LRange(ctx, cacheOrderKey(table), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cache read order %s: %w", table, err)
	}
	if len(keys) == 0 {
		return []Row{}, nil
	}

	values, err := s.client.HGetAll(ctx, cacheKey(table)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache read %s: %w", table, err)
	}

	out := make([]Row, 0, len(keys))
	for _, key := range keys {
		data, ok := values[key]
		if !ok {
			continue
		}
		out = append(out, Row{Key: key, Data: []byte(data)})
	}
	return out, nil
}

func (s *RedisStore) Put(ctx context.Context, table string, row Row) error {
	added, err := s.client.HSet(ctx, cacheKey(table), row.Key, row.Data).Result()
	if err != nil {
		return fmt.Errorf("cache put %s/%s: %w", table, row.Key, err)
	}
	if added > 0 {
		if err := s.client.RPush(ctx, cacheOrderKey(table), row.Key).Err(); err != nil {
			return fmt.Errorf("cache put order %s/%s: %w", table, row.Key, err)
		}
	}
	return nil
}

func (s *RedisStore) PutAll(ctx context.Context, table string, rows []Row) error {
	for _, row := range rows {
		if err := s.Put(ctx, table, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, table string, key string) error {
	if err := s.client.HDel(ctx, cacheKey(table), key).Err(); err != nil {
		return fmt.Errorf("cache delete %s/%s: %w", table, key, err)
	}
	if err := s.client.LRem(ctx, cacheOrderKey(table), 0, key).Err(); err != nil {
		return fmt.Errorf("cache delete order %s/%s: %w", table, key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, table string) error {
	if err := s.client.Del(ctx, cacheKey(table), cacheOrderKey(table)).Err(); err != nil {
		return fmt.Errorf("cache clear %s: %w", table, err)
	}
	return nil
}
