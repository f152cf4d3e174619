// Package memory provides in-memory store implementations for development
// and testing.
package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
)

// ActStore keeps harvested acts in process memory, keyed by CELEX number.
type ActStore struct {
	mu     sync.RWMutex
	acts   map[string]eurlex.LegalAct
	ids    map[string]string
	order  []string
	nextID int64
}

// NewActStore constructs an empty ActStore.
func NewActStore() *ActStore {
	return &ActStore{
		acts: make(map[string]eurlex.LegalAct),
		ids:  make(map[string]string),
	}
}

// UpsertAct stores the act, replacing any previous row with the same CELEX
// number. The identifier assigned on first insert is stable across replaces.
func (s *ActStore) UpsertAct(_ context.Context, act eurlex.LegalAct) (string, error) {
	if act.Celex == "" {
		return "", errors.New("celex number is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, exists := s.ids[act.Celex]
	if !exists {
		s.nextID++
		id = strconv.FormatInt(s.nextID, 10)
		s.ids[act.Celex] = id
	} else {
		for i, celex := range s.order {
			if celex == act.Celex {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.acts[act.Celex] = act
	s.order = append(s.order, act.Celex)
	return id, nil
}

// CountActs returns the number of stored acts.
func (s *ActStore) CountActs(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.acts), nil
}

// ListCelexNumbers returns every stored CELEX number.
func (s *ActStore) ListCelexNumbers(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.acts))
	for celex := range s.acts {
		ids = append(ids, celex)
	}
	return ids, nil
}

// ListActs returns stored acts, most recently written first. A non-positive
// limit returns everything.
func (s *ActStore) ListActs(_ context.Context, limit int) ([]eurlex.LegalAct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.order)
	if limit <= 0 || limit > n {
		limit = n
	}
	acts := make([]eurlex.LegalAct, 0, limit)
	for i := n - 1; i >= 0 && len(acts) < limit; i-- {
		acts = append(acts, s.acts[s.order[i]])
	}
	return acts, nil
}

// Close is a no-op for the in-memory store.
func (s *ActStore) Close() error { return nil }
