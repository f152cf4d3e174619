package eurlex

import "sync"

// Registry is the thread-safe set of CELEX numbers known to this process.
// It is the only mutable state shared across detail workers, so all access
// goes through one mutex. Reservation is a test-and-set under that lock; a
// separate membership check followed by an insert would race when two
// strategies discover the same act concurrently.
type Registry struct {
	mu    sync.Mutex
	known map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{known: make(map[string]struct{})}
}

// Seed marks the given identifiers as already known. Called at run start
// with the sink's stored CELEX numbers; safe to call repeatedly, the sets
// union.
func (r *Registry) Seed(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.known[id] = struct{}{}
	}
}

// ReserveIfAbsent atomically claims the identifier. It returns true exactly
// once per identifier per process run; every later call returns false.
func (r *Registry) ReserveIfAbsent(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.known[id]; exists {
		return false
	}
	r.known[id] = struct{}{}
	return true
}

// Size returns the number of known identifiers.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.known)
}
