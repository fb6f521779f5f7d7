package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTrail is a PostgreSQL implementation of Trail backed by the
// deletion_audits table. The table is insert-only; no code path issues
// UPDATE or DELETE against it.
type PostgresTrail struct {
	pool *pgxpool.Pool
}

// NewPostgresTrail creates a new PostgreSQL audit trail.
func NewPostgresTrail(pool *pgxpool.Pool) *PostgresTrail {
	return &PostgresTrail{pool: pool}
}

// Append inserts one record.
func (t *PostgresTrail) Append(ctx context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO deletion_audits (
			id, timestamp, data_type,
			records_soft_deleted, records_hard_deleted,
			user_id, reason, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = t.pool.Exec(ctx, query,
		record.ID,
		record.Timestamp,
		record.DataType,
		record.RecordsSoftDeleted,
		record.RecordsHardDeleted,
		record.UserID,
		record.Reason,
		details,
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Query returns records with timestamp >= now - sinceDays, newest first.
func (t *PostgresTrail) Query(ctx context.Context, sinceDays int) ([]Record, error) {
	query := `
		SELECT id, timestamp, data_type,
		       records_soft_deleted, records_hard_deleted,
		       user_id, reason, details
		FROM deletion_audits
		WHERE timestamp >= now() - ($1 * interval '1 day')
		ORDER BY timestamp DESC
	`
	rows, err := t.pool.Query(ctx, query, sinceDays)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// QueryByType is Query restricted to one data type.
func (t *PostgresTrail) QueryByType(ctx context.Context, dataType string, sinceDays int) ([]Record, error) {
	query := `
		SELECT id, timestamp, data_type,
		       records_soft_deleted, records_hard_deleted,
		       user_id, reason, details
		FROM deletion_audits
		WHERE timestamp >= now() - ($1 * interval '1 day')
		  AND data_type = $2
		ORDER BY timestamp DESC
	`
	rows, err := t.pool.Query(ctx, query, sinceDays, dataType)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			record  Record
			details []byte
		)
		if err := rows.Scan(
			&record.ID,
			&record.Timestamp,
			&record.DataType,
			&record.RecordsSoftDeleted,
			&record.RecordsHardDeleted,
			&record.UserID,
			&record.Reason,
			&details,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &record.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}

// Ensure PostgresTrail implements Trail.
var _ Trail = (*PostgresTrail)(nil)
