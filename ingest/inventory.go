package ingest

import "sync"

// InventoryStore keeps the latest inventory snapshot from the feed. Updated
// by the feed goroutine, read by the inventory reconciliation detector.
type InventoryStore struct {
	mu     sync.RWMutex
	counts map[string]int
}

// NewInventoryStore creates an empty store.
func NewInventoryStore() *InventoryStore {
	return &InventoryStore{counts: make(map[string]int)}
}

// Update merges a snapshot into the store, overwriting per-SKU counts.
func (s *InventoryStore) Update(snapshot map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sku, count := range snapshot {
		s.counts[sku] = count
	}
}

// Snapshot returns a copy of the current per-SKU counts.
func (s *InventoryStore) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.counts))
	for sku, count := range s.counts {
		out[sku] = count
	}
	return out
}

// Len returns the number of tracked SKUs.
func (s *InventoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counts)
}
