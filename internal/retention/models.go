// Package retention implements the data-retention lifecycle: per-type
// policies, soft/hard deletion of expired records, and audit emission.
package retention

import (
	"errors"
	"fmt"
	"time"
)

// State is a record's position in the deletion lifecycle.
type State string

// Lifecycle states. HardDeleted is terminal.
const (
	StateActive      State = "active"
	StateSoftDeleted State = "soft_deleted"
	StateHardDeleted State = "hard_deleted"
)

// CanTransition reports whether from -> to is an allowed lifecycle edge.
// The only backward edge is SOFT_DELETED -> ACTIVE, which requires an
// explicit restoration action and is audited like any other transition.
func CanTransition(from, to State) bool {
	switch from {
	case StateActive:
		return to == StateSoftDeleted || to == StateHardDeleted
	case StateSoftDeleted:
		return to == StateHardDeleted || to == StateActive
	default:
		return false
	}
}

// Record is a stored item subject to retention.
type Record struct {
	ID            string     `json:"id"`
	DataType      string     `json:"data_type"`
	State         State      `json:"state"`
	CreatedAt     time.Time  `json:"created_at"`
	SoftDeletedAt *time.Time `json:"soft_deleted_at,omitempty"`
}

// Policy is the retention configuration for one data type.
type Policy struct {
	DataType           string `json:"data_type"`
	RetentionDays      int    `json:"retention_days"`
	SoftDeleteEnabled  bool   `json:"soft_delete_enabled"`
	SoftDeleteLeadDays int    `json:"soft_delete_lead_days"`
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.DataType == "" {
		return errors.New("policy data type is empty")
	}
	if p.RetentionDays < 0 {
		return fmt.Errorf("policy %s: retention days must be >= 0, got %d", p.DataType, p.RetentionDays)
	}
	if p.SoftDeleteLeadDays < 0 {
		return fmt.Errorf("policy %s: soft delete lead days must be >= 0, got %d", p.DataType, p.SoftDeleteLeadDays)
	}
	if p.SoftDeleteLeadDays > p.RetentionDays {
		return fmt.Errorf("policy %s: soft delete lead days %d exceeds retention days %d",
			p.DataType, p.SoftDeleteLeadDays, p.RetentionDays)
	}
	return nil
}

// Thresholds derives the cutoff times for a cleanup pass at now.
// Records created at or before HardCutoff are hard-deleted; active
// records created at or before SoftCutoff (but after HardCutoff) are
// soft-deleted. SoftCutoff is nil when soft delete is disabled, in
// which case records go directly from ACTIVE to HARD_DELETED.
func (p Policy) Thresholds(now time.Time) Thresholds {
	th := Thresholds{
		HardCutoff: now.AddDate(0, 0, -p.RetentionDays),
	}
	if p.SoftDeleteEnabled {
		soft := now.AddDate(0, 0, -(p.RetentionDays - p.SoftDeleteLeadDays))
		th.SoftCutoff = &soft
	}
	return th
}

// Thresholds are the createdAt cutoffs for one cleanup pass.
type Thresholds struct {
	HardCutoff time.Time
	SoftCutoff *time.Time
}

// Counts aggregates the outcome of one cleanup pass.
type Counts struct {
	SoftDeleted int `json:"soft_deleted"`
	HardDeleted int `json:"hard_deleted"`
}

// Result is the outcome of one Cleanup invocation for one data type.
type Result struct {
	DataType string `json:"data_type"`
	Counts
	DryRun bool `json:"dry_run"`
}

// TypeError records a per-type failure during a multi-type run.
type TypeError struct {
	DataType string
	Err      error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.DataType, e.Err)
}

func (e TypeError) Unwrap() error { return e.Err }

// RunResult aggregates a CleanupAll invocation. Failure of one data
// type never prevents processing of the others.
type RunResult struct {
	Results  []Result
	Failures []TypeError
}

// Succeeded reports whether every data type completed.
func (r RunResult) Succeeded() bool { return len(r.Failures) == 0 }
