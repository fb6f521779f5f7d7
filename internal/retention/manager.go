package retention

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/dataveil/dataveil/internal/audit"
)

// ErrAuditWriteFailed marks a cleanup whose deletions succeeded but
// whose audit record could not be written after retries. Callers must
// treat this as critical and flag the run for manual reconciliation:
// deletions that cannot be proven audited undermine the compliance
// guarantee.
var ErrAuditWriteFailed = errors.New("audit write failed after cleanup")

// ReasonRetentionPolicy is the audit reason for scheduled cleanup runs.
const ReasonRetentionPolicy = "retention_policy"

// ReasonRestore is the audit reason for explicit record restorations.
const ReasonRestore = "restore_request"

const defaultConcurrency = 3

// Manager drives the deletion lifecycle across data stores. It owns no
// data and no timers: an external scheduler invokes Cleanup or
// CleanupAll, and the manager mutates state only through the record
// stores handed to it.
type Manager struct {
	policies *PolicyStore
	trail    audit.Trail
	logger   zerolog.Logger

	defaultStore RecordStore
	storesMu     sync.RWMutex
	stores       map[string]RecordStore

	concurrency  int
	auditRetries uint64

	// Per-data-type locks serialize same-type cleanup runs; different
	// types proceed in parallel.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// ManagerConfig holds configuration for creating a Manager.
type ManagerConfig struct {
	Policies *PolicyStore
	Trail    audit.Trail

	// Store is the default record store. Per-type stores registered via
	// RegisterStore take precedence.
	Store RecordStore

	Logger zerolog.Logger

	// Concurrency bounds the worker pool used by CleanupAll.
	// Default: 3
	Concurrency int

	// AuditRetries is the number of retry attempts for a failed audit
	// append before the run is reported as ErrAuditWriteFailed.
	// Default: 3
	AuditRetries int
}

// NewManager creates a new retention manager.
func NewManager(cfg ManagerConfig) *Manager {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	retries := cfg.AuditRetries
	if retries <= 0 {
		retries = 3
	}

	return &Manager{
		policies:     cfg.Policies,
		trail:        cfg.Trail,
		defaultStore: cfg.Store,
		stores:       make(map[string]RecordStore),
		logger:       cfg.Logger,
		concurrency:  concurrency,
		auditRetries: uint64(retries),
		locks:        make(map[string]*sync.Mutex),
	}
}

// RegisterStore binds a dedicated record store to one data type, so
// heterogeneous stores can sit behind a single manager.
func (m *Manager) RegisterStore(dataType string, store RecordStore) {
	m.storesMu.Lock()
	defer m.storesMu.Unlock()
	m.stores[dataType] = store
}

func (m *Manager) storeFor(dataType string) RecordStore {
	m.storesMu.RLock()
	defer m.storesMu.RUnlock()
	if store, ok := m.stores[dataType]; ok {
		return store
	}
	return m.defaultStore
}

func (m *Manager) lockFor(dataType string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.locks[dataType]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[dataType] = lock
	}
	return lock
}

// Cleanup runs one retention pass for one data type. An unknown data
// type fails closed before any store access. When dryRun is set the
// pass is read-only and reports the counts a real run would produce.
// Exactly one audit record is emitted per invocation that reaches the
// store, zero-count passes included; a storage failure aborts the pass
// with no partial mutation and no audit record.
func (m *Manager) Cleanup(ctx context.Context, dataType string, now time.Time, dryRun bool) (Result, error) {
	policy, err := m.policies.GetPolicy(dataType)
	if err != nil {
		return Result{}, err
	}

	lock := m.lockFor(dataType)
	lock.Lock()
	defer lock.Unlock()

	th := policy.Thresholds(now)
	store := m.storeFor(dataType)

	var counts Counts
	if dryRun {
		counts, err = store.Preview(ctx, dataType, th)
	} else {
		counts, err = store.Apply(ctx, dataType, th, now)
	}
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("data_type", dataType).
			Bool("dry_run", dryRun).
			Msg("cleanup pass aborted")
		return Result{}, fmt.Errorf("cleanup %s: %w", dataType, err)
	}

	result := Result{DataType: dataType, Counts: counts, DryRun: dryRun}

	record := audit.NewRecord(dataType, ReasonRetentionPolicy)
	record.RecordsSoftDeleted = counts.SoftDeleted
	record.RecordsHardDeleted = counts.HardDeleted
	record.Details["retention_days"] = policy.RetentionDays
	record.Details["soft_delete_enabled"] = policy.SoftDeleteEnabled
	if dryRun {
		record.Details["dry_run"] = true
	}

	if err := m.appendAudit(ctx, record); err != nil {
		// Deletions already happened; surface the loss of evidence.
		return result, fmt.Errorf("%w (%s): %v", ErrAuditWriteFailed, dataType, err)
	}

	m.logger.Info().
		Str("data_type", dataType).
		Int("soft_deleted", counts.SoftDeleted).
		Int("hard_deleted", counts.HardDeleted).
		Bool("dry_run", dryRun).
		Msg("cleanup pass completed")

	return result, nil
}

// CleanupAll runs Cleanup for every configured data type using a
// bounded worker pool. Failures are collected per type; one failing
// store never blocks the others.
func (m *Manager) CleanupAll(ctx context.Context, now time.Time, dryRun bool) RunResult {
	types := m.policies.Types()

	typesChan := make(chan string, len(types))
	for _, t := range types {
		typesChan <- t
	}
	close(typesChan)

	type typeOutcome struct {
		result Result
		err    error
		typ    string
	}
	outcomes := make(chan typeOutcome, len(types))

	var wg sync.WaitGroup
	for i := 0; i < m.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dataType := range typesChan {
				result, err := m.Cleanup(ctx, dataType, now, dryRun)
				outcomes <- typeOutcome{result: result, err: err, typ: dataType}
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	var run RunResult
	for o := range outcomes {
		if o.err != nil {
			run.Failures = append(run.Failures, TypeError{DataType: o.typ, Err: o.err})
			// An audit-write failure still carries real counts.
			if errors.Is(o.err, ErrAuditWriteFailed) {
				run.Results = append(run.Results, o.result)
			}
			continue
		}
		run.Results = append(run.Results, o.result)
	}

	sort.Slice(run.Results, func(i, j int) bool {
		return run.Results[i].DataType < run.Results[j].DataType
	})
	sort.Slice(run.Failures, func(i, j int) bool {
		return run.Failures[i].DataType < run.Failures[j].DataType
	})

	m.logger.Info().
		Int("types", len(types)).
		Int("failures", len(run.Failures)).
		Bool("dry_run", dryRun).
		Msg("cleanup run completed")

	return run
}

// Restore moves a soft-deleted record back to active on behalf of an
// explicit external request (e.g. a user cancelling deletion). The
// transition is audited like any deletion.
func (m *Manager) Restore(ctx context.Context, dataType, recordID string, userID *string) (*Record, error) {
	// Fail closed on unknown types before touching the store.
	if _, err := m.policies.GetPolicy(dataType); err != nil {
		return nil, err
	}

	record, err := m.storeFor(dataType).Restore(ctx, dataType, recordID)
	if err != nil {
		return nil, fmt.Errorf("restore %s/%s: %w", dataType, recordID, err)
	}

	auditRecord := audit.NewRecord(dataType, ReasonRestore)
	auditRecord.UserID = userID
	auditRecord.Details["record_id"] = recordID
	auditRecord.Details["transition"] = fmt.Sprintf("%s -> %s", StateSoftDeleted, StateActive)

	if err := m.appendAudit(ctx, auditRecord); err != nil {
		return record, fmt.Errorf("%w (%s): %v", ErrAuditWriteFailed, dataType, err)
	}

	m.logger.Info().
		Str("data_type", dataType).
		Str("record_id", recordID).
		Msg("record restored")

	return record, nil
}

// appendAudit writes the record, retrying transient failures with
// exponential backoff before giving up.
func (m *Manager) appendAudit(ctx context.Context, record *audit.Record) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), m.auditRetries),
		ctx,
	)
	return backoff.Retry(func() error {
		return m.trail.Append(ctx, record)
	}, policy)
}
