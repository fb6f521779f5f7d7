package audit

import "context"

// Trail is the append-only ledger contract. No update or delete
// operation exists: the trail is the evidence that compliance actions
// occurred, so a failed append must propagate to the caller instead of
// being swallowed.
type Trail interface {
	// Append writes one record. Appends from concurrent writers are
	// ordered by arrival.
	Append(ctx context.Context, record *Record) error

	// Query returns records with timestamp >= now - sinceDays, newest
	// first.
	Query(ctx context.Context, sinceDays int) ([]Record, error)

	// QueryByType is Query restricted to one data type.
	QueryByType(ctx context.Context, dataType string, sinceDays int) ([]Record, error)
}
