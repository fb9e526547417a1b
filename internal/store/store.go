// Package store keeps uploaded datasets in memory for the host.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/edaml/dataset"
)

// DefaultCapacity is the number of datasets kept when none is configured.
const DefaultCapacity = 5

// Entry is one uploaded dataset.
type Entry struct {
	ID       string
	Name     string
	Data     *dataset.Dataset
	Uploaded time.Time
}

// Store holds the most recently uploaded datasets. Once full, adding a
// dataset evicts the oldest one.
type Store struct {
	mu       sync.RWMutex
	capacity int
	order    []string // oldest first
	entries  map[string]*Entry
	now      func() time.Time
}

// New creates a Store keeping up to capacity datasets.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		entries:  make(map[string]*Entry, capacity),
		now:      time.Now,
	}
}

// Put stores ds under a fresh UUID and returns its entry.
func (s *Store) Put(name string, ds *dataset.Dataset) *Entry {
	e := &Entry{ID: uuid.New().String(), Name: name, Data: ds}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.Uploaded = s.now()
	s.entries[e.ID] = e
	s.order = append(s.order, e.ID)
	for len(s.order) > s.capacity {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
	return e
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// List returns the stored entries, newest first.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.entries[s.order[i]])
	}
	return out
}

// Len returns the number of stored datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
