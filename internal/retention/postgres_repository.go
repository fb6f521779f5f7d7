package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of RecordStore backed by
// the retention_records table. Soft delete sets soft_deleted_at and the
// state flag; hard delete removes the row. A cleanup pass runs inside
// one transaction so a storage failure leaves no partial mutation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL record store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Preview counts eligible records without mutating anything.
func (s *PostgresStore) Preview(ctx context.Context, dataType string, th Thresholds) (Counts, error) {
	var counts Counts

	hardQuery := `
		SELECT COUNT(*) FROM retention_records
		WHERE data_type = $1 AND created_at <= $2 AND state <> $3
	`
	if err := s.pool.QueryRow(ctx, hardQuery, dataType, th.HardCutoff, StateHardDeleted).
		Scan(&counts.HardDeleted); err != nil {
		return Counts{}, fmt.Errorf("count hard-deletable: %w", err)
	}

	if th.SoftCutoff != nil {
		softQuery := `
			SELECT COUNT(*) FROM retention_records
			WHERE data_type = $1 AND state = $2
			  AND created_at <= $3 AND created_at > $4
		`
		if err := s.pool.QueryRow(ctx, softQuery, dataType, StateActive, *th.SoftCutoff, th.HardCutoff).
			Scan(&counts.SoftDeleted); err != nil {
			return Counts{}, fmt.Errorf("count soft-deletable: %w", err)
		}
	}

	return counts, nil
}

// Apply performs both passes in one transaction.
func (s *PostgresStore) Apply(ctx context.Context, dataType string, th Thresholds, now time.Time) (Counts, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("begin cleanup tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var counts Counts

	hardQuery := `
		DELETE FROM retention_records
		WHERE data_type = $1 AND created_at <= $2
	`
	tag, err := tx.Exec(ctx, hardQuery, dataType, th.HardCutoff)
	if err != nil {
		return Counts{}, fmt.Errorf("hard delete: %w", err)
	}
	counts.HardDeleted = int(tag.RowsAffected())

	if th.SoftCutoff != nil {
		softQuery := `
			UPDATE retention_records
			SET state = $1, soft_deleted_at = $2
			WHERE data_type = $3 AND state = $4 AND created_at <= $5
		`
		tag, err = tx.Exec(ctx, softQuery, StateSoftDeleted, now, dataType, StateActive, *th.SoftCutoff)
		if err != nil {
			return Counts{}, fmt.Errorf("soft delete: %w", err)
		}
		counts.SoftDeleted = int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return Counts{}, fmt.Errorf("commit cleanup tx: %w", err)
	}
	return counts, nil
}

// Restore moves a soft-deleted record back to active.
func (s *PostgresStore) Restore(ctx context.Context, dataType, recordID string) (*Record, error) {
	query := `
		UPDATE retention_records
		SET state = $1, soft_deleted_at = NULL
		WHERE data_type = $2 AND id = $3 AND state = $4
		RETURNING id, data_type, state, created_at, soft_deleted_at
	`

	var record Record
	err := s.pool.QueryRow(ctx, query, StateActive, dataType, recordID, StateSoftDeleted).Scan(
		&record.ID,
		&record.DataType,
		&record.State,
		&record.CreatedAt,
		&record.SoftDeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.restoreFailure(ctx, dataType, recordID)
		}
		return nil, err
	}
	return &record, nil
}

// restoreFailure distinguishes a missing record from one that exists
// but is not soft-deleted.
func (s *PostgresStore) restoreFailure(ctx context.Context, dataType, recordID string) error {
	var state State
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM retention_records WHERE data_type = $1 AND id = $2`,
		dataType, recordID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state, StateActive)
}

// Ensure PostgresStore implements RecordStore.
var _ RecordStore = (*PostgresStore)(nil)
