package retention

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker settings for a guarded store.
type BreakerConfig struct {
	// Name identifies the breaker for logging/metrics.
	Name string

	// MaxRequests is the maximum number of requests allowed in
	// half-open state. Default: 1
	MaxRequests uint32

	// Timeout is the period of open state before switching to
	// half-open. Default: 60 seconds
	Timeout time.Duration

	// ReadyToTrip determines when to trip. If nil, trips at a 50%
	// failure rate with 5+ requests.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called when the breaker state changes.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns sensible defaults for a record store.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
	}
}

// BreakerStore wraps a RecordStore with a circuit breaker so a store
// that keeps failing is short-circuited instead of hammered by every
// cleanup run. A tripped breaker surfaces as ErrStoreUnavailable and
// the manager reports the pass as a per-type failure.
type BreakerStore struct {
	inner   RecordStore
	counts  *gobreaker.CircuitBreaker[Counts]
	records *gobreaker.CircuitBreaker[*Record]
}

// NewBreakerStore wraps store with a circuit breaker.
func NewBreakerStore(store RecordStore, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Timeout == 0 {
		settings.Timeout = 60 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		}
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &BreakerStore{
		inner:   store,
		counts:  gobreaker.NewCircuitBreaker[Counts](settings),
		records: gobreaker.NewCircuitBreaker[*Record](settings),
	}
}

// Preview counts through the breaker.
func (s *BreakerStore) Preview(ctx context.Context, dataType string, th Thresholds) (Counts, error) {
	return s.execCounts(func() (Counts, error) {
		return s.inner.Preview(ctx, dataType, th)
	})
}

// Apply transitions through the breaker.
func (s *BreakerStore) Apply(ctx context.Context, dataType string, th Thresholds, now time.Time) (Counts, error) {
	return s.execCounts(func() (Counts, error) {
		return s.inner.Apply(ctx, dataType, th, now)
	})
}

// Restore restores through the breaker.
func (s *BreakerStore) Restore(ctx context.Context, dataType, recordID string) (*Record, error) {
	record, err := s.records.Execute(func() (*Record, error) {
		return s.inner.Restore(ctx, dataType, recordID)
	})
	return record, s.mapErr(err)
}

func (s *BreakerStore) execCounts(fn func() (Counts, error)) (Counts, error) {
	counts, err := s.counts.Execute(fn)
	return counts, s.mapErr(err)
}

func (s *BreakerStore) mapErr(err error) error {
	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return ErrStoreUnavailable
	default:
		return err
	}
}

// Ensure BreakerStore implements RecordStore.
var _ RecordStore = (*BreakerStore)(nil)
