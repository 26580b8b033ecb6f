// Package snapshot keeps ingested source catalogs in memory between
// resolution requests. Entries are replaced wholesale on re-ingestion and
// expire after a TTL so a stale feed never serves forever.
package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/partlens/backend/internal/domain"
)

// Store is a thread-safe TTL store of per-source record snapshots
type Store struct {
	ttl     time.Duration
	mutex   sync.RWMutex
	entries map[string]domain.SourceSnapshot
}

// NewStore creates a snapshot store. A zero ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		ttl:     ttl,
		entries: make(map[string]domain.SourceSnapshot),
	}
	if ttl > 0 {
		go s.cleanupExpired()
	}
	return s
}

// Put stores the snapshot for a source, replacing any previous one
func (s *Store) Put(sourceID string, trustWeight float64, records []domain.ItemRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := make([]domain.ItemRecord, len(records))
	copy(stored, records)
	s.entries[sourceID] = domain.SourceSnapshot{
		SourceID:    sourceID,
		TrustWeight: trustWeight,
		Records:     stored,
		StoredAt:    time.Now(),
	}
}

// Get returns the snapshot for a source, or false when absent or expired
func (s *Store) Get(sourceID string) (domain.SourceSnapshot, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.entries[sourceID]
	if !ok || s.expired(entry) {
		return domain.SourceSnapshot{}, false
	}
	return entry, true
}

// All returns every live snapshot ordered by descending trust weight, with
// source ID as the deterministic tie-break.
func (s *Store) All() []domain.SourceSnapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]domain.SourceSnapshot, 0, len(s.entries))
	for _, entry := range s.entries {
		if s.expired(entry) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TrustWeight != out[j].TrustWeight {
			return out[i].TrustWeight > out[j].TrustWeight
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}

// expired reports whether an entry has outlived the TTL; callers hold the lock
func (s *Store) expired(entry domain.SourceSnapshot) bool {
	return s.ttl > 0 && time.Since(entry.StoredAt) > s.ttl
}

// cleanupExpired removes expired entries every ten minutes
func (s *Store) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		for id, entry := range s.entries {
			if s.expired(entry) {
				delete(s.entries, id)
			}
		}
		s.mutex.Unlock()
	}
}
