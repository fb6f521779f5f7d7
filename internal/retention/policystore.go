package retention

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ErrPolicyNotFound is returned for data types with no configured
// policy. Unknown types fail closed: no default is silently applied.
var ErrPolicyNotFound = errors.New("no retention policy for data type")

// defaultSoftDeleteLeadDays is the grace window applied when the flat
// configuration form does not specify one.
const defaultSoftDeleteLeadDays = 7

// PolicyStore holds the authoritative data-type -> Policy mapping.
// It is loaded once at startup and may be hot-reloaded.
type PolicyStore struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	path     string
	policies map[string]Policy
}

// PolicyStoreConfig holds configuration for creating a PolicyStore.
type PolicyStoreConfig struct {
	// Path is the JSON configuration file. Empty means the store starts
	// from the supplied or default policies and cannot Reload.
	Path     string
	Policies []Policy
	Logger   zerolog.Logger
}

// NewPolicyStore creates a policy store. When Path is set the file is
// loaded immediately; otherwise the explicit Policies (or
// DefaultPolicies when none are given) seed the store.
func NewPolicyStore(cfg PolicyStoreConfig) (*PolicyStore, error) {
	s := &PolicyStore{
		logger:   cfg.Logger,
		path:     cfg.Path,
		policies: make(map[string]Policy),
	}

	if cfg.Path != "" {
		if err := s.Reload(); err != nil {
			return nil, err
		}
		return s, nil
	}

	policies := cfg.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		s.policies[p.DataType] = p
	}
	return s, nil
}

// DefaultPolicies returns the standard retention schedule.
func DefaultPolicies() []Policy {
	return []Policy{
		{DataType: "session", RetentionDays: 30, SoftDeleteEnabled: true, SoftDeleteLeadDays: 7},
		{DataType: "analytics", RetentionDays: 90, SoftDeleteEnabled: true, SoftDeleteLeadDays: 7},
		{DataType: "activity_log", RetentionDays: 180, SoftDeleteEnabled: true, SoftDeleteLeadDays: 7},
		{DataType: "auth_log", RetentionDays: 365, SoftDeleteEnabled: true, SoftDeleteLeadDays: 7},
		{DataType: "chat_history", RetentionDays: 365, SoftDeleteEnabled: true, SoftDeleteLeadDays: 7},
		{DataType: "deleted_user", RetentionDays: 30, SoftDeleteEnabled: false},
		{DataType: "temp_files", RetentionDays: 7, SoftDeleteEnabled: false},
	}
}

// GetPolicy returns the policy for a data type, or ErrPolicyNotFound.
func (s *PolicyStore) GetPolicy(dataType string) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[dataType]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrPolicyNotFound, dataType)
	}
	return policy, nil
}

// SetPolicy validates and installs a policy programmatically.
func (s *PolicyStore) SetPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.DataType] = p
	return nil
}

// Types returns the configured data types in sorted order.
func (s *PolicyStore) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.policies))
	for t := range s.policies {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Reload re-reads the configuration file. On any error the previous
// policies stay in effect.
func (s *PolicyStore) Reload() error {
	if s.path == "" {
		return errors.New("policy store has no configuration path")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read retention config: %w", err)
	}
	policies, err := ParsePolicies(data)
	if err != nil {
		return fmt.Errorf("parse retention config %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.policies = policies
	s.mu.Unlock()

	s.logger.Info().
		Str("path", s.path).
		Int("policies", len(policies)).
		Msg("retention policies loaded")
	return nil
}

// policyDoc is the extended per-type configuration form.
type policyDoc struct {
	RetentionDays      int   `json:"retentionDays"`
	SoftDeleteEnabled  *bool `json:"softDeleteEnabled"`
	SoftDeleteLeadDays *int  `json:"softDeleteLeadDays"`
}

// ParsePolicies decodes the retention configuration. Both forms are
// accepted per data type: a bare day count, or an object with
// retentionDays / softDeleteEnabled / softDeleteLeadDays.
func ParsePolicies(data []byte) (map[string]Policy, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	policies := make(map[string]Policy, len(raw))
	for dataType, entry := range raw {
		policy := Policy{
			DataType:           dataType,
			SoftDeleteEnabled:  true,
			SoftDeleteLeadDays: defaultSoftDeleteLeadDays,
		}

		explicitLead := false
		var days int
		if err := json.Unmarshal(entry, &days); err == nil {
			policy.RetentionDays = days
		} else {
			var doc policyDoc
			if err := json.Unmarshal(entry, &doc); err != nil {
				return nil, fmt.Errorf("data type %q: %w", dataType, err)
			}
			policy.RetentionDays = doc.RetentionDays
			if doc.SoftDeleteEnabled != nil {
				policy.SoftDeleteEnabled = *doc.SoftDeleteEnabled
			}
			if doc.SoftDeleteLeadDays != nil {
				policy.SoftDeleteLeadDays = *doc.SoftDeleteLeadDays
				explicitLead = true
			}
		}

		// The default lead shrinks to fit short retention windows; an
		// explicitly configured lead that exceeds them is an error.
		if !explicitLead && policy.SoftDeleteLeadDays > policy.RetentionDays {
			policy.SoftDeleteLeadDays = policy.RetentionDays
		}
		if !policy.SoftDeleteEnabled {
			policy.SoftDeleteLeadDays = 0
		}
		if err := policy.Validate(); err != nil {
			return nil, err
		}
		policies[dataType] = policy
	}
	return policies, nil
}
