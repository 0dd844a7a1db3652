package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is the byte-level backend behind Cache. Family generations live in
// the store so every Cache sharing it agrees on which entries are current.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	DeletePrefix(ctx context.Context, prefix string) error
	Generation(ctx context.Context, family string) (uint64, error)
	BumpGeneration(ctx context.Context, family string) (uint64, error)
}

const (
	DefaultSize = 512
	DefaultTTL  = 5 * time.Minute
)

type memoryStore struct {
	lru *expirable.LRU[string, []byte]

	// Generations are kept outside the LRU; evicting one would revive
	// entries written under an older generation.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewMemoryStore keeps entries in a process-local LRU with a per-entry TTL.
func NewMemoryStore(size int, ttl time.Duration) Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{
		lru:  expirable.NewLRU[string, []byte](size, nil, ttl),
		gens: map[string]uint64{},
	}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, val []byte) error {
	m.lru.Add(key, val)
	return nil
}

func (m *memoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, k := range m.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			m.lru.Remove(k)
		}
	}
	return nil
}

func (m *memoryStore) Generation(_ context.Context, family string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[family], nil
}

func (m *memoryStore) BumpGeneration(_ context.Context, family string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[family]++
	return m.gens[family], nil
}
