package retention

import (
	"context"
	"errors"
	"time"
)

// Record store errors.
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrStoreUnavailable  = errors.New("record store unavailable")
)

// RecordStore is the storage contract the manager drives per data
// type. Implementations own their concurrency and atomicity: Apply is
// all-or-nothing, on failure no partial state mutation may remain.
type RecordStore interface {
	// Preview returns the counts a cleanup pass would produce, without
	// mutating anything. Used for dry runs.
	Preview(ctx context.Context, dataType string, th Thresholds) (Counts, error)

	// Apply transitions eligible records: anything created at or before
	// the hard cutoff is hard-deleted (removed or scrubbed), and active
	// records created at or before the soft cutoff are marked
	// soft-deleted at now. Returns the transition counts.
	Apply(ctx context.Context, dataType string, th Thresholds, now time.Time) (Counts, error)

	// Restore moves a soft-deleted record back to active. This is the
	// only backward lifecycle edge and always requires an explicit
	// external action.
	Restore(ctx context.Context, dataType, recordID string) (*Record, error)
}
