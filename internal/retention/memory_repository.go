package retention

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryStore is an in-memory implementation of RecordStore.
// This is intended for MVP/testing. Production should use a
// database-backed implementation.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record // dataType -> id -> record
}

// NewInMemoryStore creates a new in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]map[string]*Record),
	}
}

// Put inserts or replaces a record. Used to seed the store.
func (s *InMemoryStore) Put(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[record.DataType] == nil {
		s.records[record.DataType] = make(map[string]*Record)
	}
	r := record
	s.records[record.DataType][record.ID] = &r
}

// Get returns a copy of a record, or ErrRecordNotFound. Hard-deleted
// records are gone entirely.
func (s *InMemoryStore) Get(dataType, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[dataType][id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *record
	return &out, nil
}

// Len returns the number of records held for a data type.
func (s *InMemoryStore) Len(dataType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[dataType])
}

// Preview counts eligible records without mutating state.
func (s *InMemoryStore) Preview(_ context.Context, dataType string, th Thresholds) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts Counts
	for _, record := range s.records[dataType] {
		switch s.eligibleTransition(record, th) {
		case StateHardDeleted:
			counts.HardDeleted++
		case StateSoftDeleted:
			counts.SoftDeleted++
		}
	}
	return counts, nil
}

// Apply performs the transitions under a single lock, so a pass is
// atomic with respect to concurrent readers.
func (s *InMemoryStore) Apply(_ context.Context, dataType string, th Thresholds, now time.Time) (Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts Counts
	for id, record := range s.records[dataType] {
		switch s.eligibleTransition(record, th) {
		case StateHardDeleted:
			delete(s.records[dataType], id)
			counts.HardDeleted++
		case StateSoftDeleted:
			at := now
			record.State = StateSoftDeleted
			record.SoftDeletedAt = &at
			counts.SoftDeleted++
		}
	}
	return counts, nil
}

// eligibleTransition returns the state a record should move to under
// the given thresholds, or "" when it stays put.
func (s *InMemoryStore) eligibleTransition(record *Record, th Thresholds) State {
	if record.State == StateHardDeleted {
		return ""
	}
	if !record.CreatedAt.After(th.HardCutoff) {
		return StateHardDeleted
	}
	if th.SoftCutoff != nil && record.State == StateActive && !record.CreatedAt.After(*th.SoftCutoff) {
		return StateSoftDeleted
	}
	return ""
}

// Restore moves a soft-deleted record back to active.
func (s *InMemoryStore) Restore(_ context.Context, dataType, recordID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[dataType][recordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if !CanTransition(record.State, StateActive) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, record.State, StateActive)
	}
	record.State = StateActive
	record.SoftDeletedAt = nil

	out := *record
	return &out, nil
}

// Ensure InMemoryStore implements RecordStore.
var _ RecordStore = (*InMemoryStore)(nil)
