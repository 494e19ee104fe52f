package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Registry owns the mapping from opaque session keys to engines. Concurrent
// requests for the same key observe the same namespace; distinct keys never
// share state.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// GetOrCreate returns the engine for key, creating one with basePath if
// absent. An existing engine wins: its original base path is kept and the
// basePath argument is ignored.
func (r *Registry) GetOrCreate(key, basePath string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[key]; ok {
		return e
	}
	e := New(basePath)
	r.engines[key] = e
	return e
}

// Create mints a fresh random key with a new engine and returns both.
func (r *Registry) Create(basePath string) (string, *Engine) {
	key := uuid.NewString()
	e := New(basePath)
	r.mu.Lock()
	r.engines[key] = e
	r.mu.Unlock()
	return key, e
}

// Destroy drops the engine for key, freeing its namespace. Unknown keys are
// a no-op.
func (r *Registry) Destroy(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, key)
}

// Reset clears the namespace behind key. A subsequent GetOrCreate with the
// same key observes no leftover variables. Unknown keys are a no-op.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	e, ok := r.engines[key]
	r.mu.Unlock()
	if ok {
		e.Reset()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
