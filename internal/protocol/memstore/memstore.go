// Package memstore provides an in-memory implementation of protocol.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/mikey/internal/protocol"
)

// Store holds the protocol catalog in memory, preserving insertion order.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*protocol.Protocol // protocol ID -> document
	order []string                      // catalog order
}

// New initializes a Store seeded with ps, in order.
func New(ps ...*protocol.Protocol) *Store {
	s := &Store{byID: make(map[string]*protocol.Protocol)}
	for _, p := range ps {
		s.put(p)
	}
	return s
}

// Get retrieves a protocol by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*protocol.Protocol, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

// List returns copies of every protocol in catalog order.
func (s *Store) List(_ context.Context) ([]*protocol.Protocol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*protocol.Protocol, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

// Put stores a copy of p. New IDs are appended to the catalog order,
// existing IDs keep their position.
func (s *Store) Put(_ context.Context, p *protocol.Protocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(p)
	return nil
}

// Replace swaps the whole catalog for ps.
func (s *Store) Replace(_ context.Context, ps []*protocol.Protocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*protocol.Protocol, len(ps))
	s.order = s.order[:0]
	for _, p := range ps {
		s.put(p)
	}
	return nil
}

func (s *Store) put(p *protocol.Protocol) {
	if _, ok := s.byID[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.byID[p.ID] = p.Clone()
}

var _ protocol.Store = (*Store)(nil)
