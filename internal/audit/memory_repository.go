package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryTrail is an in-memory implementation of Trail.
// This is intended for MVP/testing. Production should use a
// database-backed implementation.
type InMemoryTrail struct {
	mu      sync.RWMutex
	records []Record
}

// NewInMemoryTrail creates a new in-memory audit trail.
func NewInMemoryTrail() *InMemoryTrail {
	return &InMemoryTrail{}
}

// Append stores a copy of the record. Appends are ordered by arrival.
func (t *InMemoryTrail) Append(_ context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, copyRecord(record))
	return nil
}

// Query returns records with timestamp >= now - sinceDays, newest first.
func (t *InMemoryTrail) Query(_ context.Context, sinceDays int) ([]Record, error) {
	return t.query("", sinceDays), nil
}

// QueryByType is Query restricted to one data type.
func (t *InMemoryTrail) QueryByType(_ context.Context, dataType string, sinceDays int) ([]Record, error) {
	return t.query(dataType, sinceDays), nil
}

func (t *InMemoryTrail) query(dataType string, sinceDays int) []Record {
	cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Record
	for i := range t.records {
		r := &t.records[i]
		if r.Timestamp.Before(cutoff) {
			continue
		}
		if dataType != "" && r.DataType != dataType {
			continue
		}
		out = append(out, copyRecord(r))
	}

	// Appends are arrival-ordered; reads are timestamp-sorted.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Len returns the total number of records appended.
func (t *InMemoryTrail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

func copyRecord(r *Record) Record {
	out := *r
	if r.UserID != nil {
		id := *r.UserID
		out.UserID = &id
	}
	if r.Details != nil {
		details := make(map[string]any, len(r.Details))
		for k, v := range r.Details {
			details[k] = v
		}
		out.Details = details
	}
	return out
}

// Ensure InMemoryTrail implements Trail.
var _ Trail = (*InMemoryTrail)(nil)
