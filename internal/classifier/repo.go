package classifier

import (
	"errors"
	"sync"

	"github.com/robgonnella/plcscout/internal/exception"
)

// MemoryRepo is our in process cache implementation
type MemoryRepo struct {
	entries map[string]*Classification
	mux     sync.RWMutex
}

// NewMemoryRepo returns a new empty in memory cache
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		entries: map[string]*Classification{},
	}
}

// Get returns a cached classification
func (r *MemoryRepo) Get(key string) (*Classification, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	c, ok := r.entries[key]

	if !ok {
		return nil, exception.ErrRecordNotFound
	}

	return copyClassification(c), nil
}

// Put creates or replaces a cached classification
func (r *MemoryRepo) Put(key string, c *Classification) error {
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	r.mux.Lock()
	defer r.mux.Unlock()

	r.entries[key] = copyClassification(c)

	return nil
}

// Delete removes a cached classification
func (r *MemoryRepo) Delete(key string) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	delete(r.entries, key)

	return nil
}

// Clear removes every cached classification
func (r *MemoryRepo) Clear() error {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.entries = map[string]*Classification{}

	return nil
}

// helpers
func copyClassification(c *Classification) *Classification {
	cp := *c
	cp.Capabilities = append([]string{}, c.Capabilities...)
	cp.Fingerprint.Tags = append([]string{}, c.Fingerprint.Tags...)
	return &cp
}
