package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStore is an in-memory ObjectStore backing tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailSuffix makes Put fail for keys ending with it. Keys are
	// timestamp-prefixed, so matching on the original filename suffix lets
	// tests target one file. Empty means never fail.
	FailSuffix string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores the object bytes under bucket/key.
func (m *MemoryStore) Put(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	if m.FailSuffix != "" && strings.HasSuffix(key, m.FailSuffix) {
		return fmt.Errorf("simulated upload failure for %q", key)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return nil
}

// Remove deletes the object under bucket/key.
func (m *MemoryStore) Remove(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

// PublicURL returns a stable memory:// URL for the object.
func (m *MemoryStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("memory://%s/%s", bucket, key)
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Has reports whether an object exists under bucket/key.
func (m *MemoryStore) Has(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok
}
