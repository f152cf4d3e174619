// Package memory contains an in-memory notifier for development and tests.
package memory

import (
	"context"
	"sync"
)

// Notifier records published CELEX numbers for inspection.
type Notifier struct {
	mu      sync.RWMutex
	celexes []string
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Publish records the CELEX number.
func (n *Notifier) Publish(_ context.Context, celex string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.celexes = append(n.celexes, celex)
	return nil
}

// Published returns the recorded CELEX numbers.
func (n *Notifier) Published() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.celexes))
	copy(out, n.celexes)
	return out
}

// Close is a no-op for the in-memory notifier.
func (n *Notifier) Close() error { return nil }
