package collection

import (
	"sort"
	"sync"
)

// Set is a concurrency safe set of ordered keys.
type Set[K ~string] struct {
	items map[K]struct{}
	mux   sync.RWMutex
}

// Add inserts k and reports whether it was absent.
func (s *Set[K]) Add(k K) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = struct{}{}
	return true
}

// Remove deletes k and reports whether it was present.
func (s *Set[K]) Remove(k K) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.items[k]; !ok {
		return false
	}
	delete(s.items, k)
	return true
}

func (s *Set[K]) Has(k K) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.items[k]
	return ok
}

func (s *Set[K]) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.items)
}

// Keys returns a sorted snapshot.
func (s *Set[K]) Keys() []K {
	s.mux.RLock()
	keys := make([]K, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mux.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clear drops every key.
func (s *Set[K]) Clear() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.items = make(map[K]struct{})
}

func NewSet[K ~string]() *Set[K] {
	return &Set[K]{items: make(map[K]struct{})}
}
