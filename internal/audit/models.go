// Package audit provides the append-only ledger of compliance actions.
package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors.
var (
	ErrNilRecord      = errors.New("audit record is nil")
	ErrMissingID      = errors.New("audit record has no id")
	ErrNegativeCounts = errors.New("audit record has negative counts")
)

// Record is one entry in the deletion audit trail. Records are
// append-only: once written they are never mutated or deleted, and the
// trail itself sits outside any retention policy.
type Record struct {
	ID                 uuid.UUID      `json:"id"`
	Timestamp          time.Time      `json:"timestamp"`
	DataType           string         `json:"data_type"`
	RecordsSoftDeleted int            `json:"records_soft_deleted"`
	RecordsHardDeleted int            `json:"records_hard_deleted"`
	UserID             *string        `json:"user_id,omitempty"`
	Reason             string         `json:"reason"`
	Details            map[string]any `json:"details,omitempty"`
}

// NewRecord creates a record with a fresh ID and timestamp.
func NewRecord(dataType, reason string) *Record {
	return &Record{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		DataType:  dataType,
		Reason:    reason,
		Details:   make(map[string]any),
	}
}

// Validate checks the record invariants before append.
func (r *Record) Validate() error {
	if r == nil {
		return ErrNilRecord
	}
	if r.ID == uuid.Nil {
		return ErrMissingID
	}
	if r.RecordsSoftDeleted < 0 || r.RecordsHardDeleted < 0 {
		return ErrNegativeCounts
	}
	return nil
}
