package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps booking idempotency keys for the life of the process.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]ports.IdempotencyRecord
	now  func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]ports.IdempotencyRecord), now: time.Now}
}

// WithClock pins the timestamps stamped on new keys.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.keys[key]; ok {
		return &rec, nil
	}
	return nil, nil
}

// Save claims key for record. A key already claimed by a different request
// yields the stored record alongside ports.ErrIdempotencyConflict.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.keys[record.Key]; ok {
		if !stored.Matches(record) {
			return &stored, ports.ErrIdempotencyConflict
		}
		return &stored, nil
	}
	record.CreatedAt = s.now()
	record.UpdatedAt = record.CreatedAt
	s.keys[record.Key] = record
	return &record, nil
}

func (s *IdempotencyStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, rec := range s.keys {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.keys, key)
			n++
		}
	}
	return n, nil
}
