// Package memory keeps archived page bodies in process memory for
// development and testing.
package memory

import (
	"context"
	"sync"
)

// Archive stores page bodies in a map keyed by object name.
type Archive struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory archive.
func New() *Archive {
	return &Archive{data: make(map[string][]byte)}
}

// Save stores a copy of the body under the object name.
func (a *Archive) Save(_ context.Context, objectName string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[objectName] = append([]byte(nil), data...)
	return nil
}

// Get returns the stored body and whether it exists.
func (a *Archive) Get(objectName string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.data[objectName]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many objects are archived.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data)
}
