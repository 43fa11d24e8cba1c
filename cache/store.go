// Package cache memoizes embeddings so repeated evaluations do not re-embed the same spans.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Store is a byte-oriented key/value store with optional expiry
type Store interface {
	// Get returns the value and whether it was found
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value; a zero ttl never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ValkeyStore implements Store on a Valkey (or Redis) server
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// DialValkey connects to the given Valkey addresses
func DialValkey(addrs ...string) (valkey.Client, error) {
	return valkey.NewClient(valkey.ClientOption{
		InitAddress: addrs,
	})
}

// NewValkeyStore creates a store whose keys are prefixed with prefix
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements Store
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set implements Store
func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.client.B().Set().Key(s.prefix + key).Value(valkey.BinaryString(value))
	if ttl > 0 {
		seconds := max(1, int64(ttl/time.Second))
		return s.client.Do(ctx, set.ExSeconds(seconds).Build()).Error()
	}
	return s.client.Do(ctx, set.Build()).Error()
}

// Close closes the underlying client
func (s *ValkeyStore) Close() {
	s.client.Close()
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Store
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var (
	_ Store = (*ValkeyStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
