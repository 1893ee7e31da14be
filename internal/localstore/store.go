// internal/localstore/store.go
//
// Device-local key/value storage.
// The engine never touches raw storage: typed accessors in the progress
// package sit on top of this interface. Implementations:
//   - memory (this package): map-backed, optional byte quota; tests + fallback.
//   - sqlite (sqlite.go):    durable file in the app data directory.
package localstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/robalobadob/alchemy/internal/errs"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errs.New(errs.KindNotFound, "localstore: key not found")

// ErrQuotaExceeded is returned by Set when a write would exceed the quota.
var ErrQuotaExceeded = errs.New(errs.KindStorageQuota, "localstore: quota exceeded")

// Store defines device-local persistence.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// memory is an in-memory Store.
type memory struct {
	mu    sync.RWMutex      // guards data
	data  map[string][]byte // keyed by storage key
	quota int               // max total bytes of keys+values; 0 = unlimited
}

// NewMemory constructs an in-memory Store. quota bounds the total bytes of
// keys and values; zero disables the bound.
func NewMemory(quota int) Store {
	return &memory{data: make(map[string][]byte), quota: quota}
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quota > 0 {
		size := 0
		for k, v := range m.data {
			if k == key {
				continue
			}
			size += len(k) + len(v)
		}
		if size+len(key)+len(value) > m.quota {
			return ErrQuotaExceeded
		}
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
