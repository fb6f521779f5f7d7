package pii

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

const hashTagLen = 8

// Masker applies a masking strategy to detected spans. It is stateless
// apart from the injected hashing key and safe for concurrent use.
type Masker struct {
	hashKey []byte
	logger  zerolog.Logger
}

// MaskerConfig holds configuration for creating a Masker.
type MaskerConfig struct {
	// HashKey is the secret for the hash strategy. The same key always
	// produces the same tag for a given value, so masked output can be
	// correlated without exposing the original. Required only when the
	// hash strategy is used.
	HashKey []byte
	Logger  zerolog.Logger
}

// NewMasker creates a new Masker.
func NewMasker(cfg MaskerConfig) *Masker {
	return &Masker{
		hashKey: cfg.HashKey,
		logger:  cfg.Logger,
	}
}

// Mask replaces every match span in text according to the strategy and
// returns the masked text together with the unchanged match list, which
// callers keep for audit and metrics. Spans must be disjoint, as
// guaranteed by Detector output. An unknown strategy is a configuration
// error; the failure mode never defaults to a no-op.
func (m *Masker) Mask(text string, matches []Match, strategy Strategy) (string, []Match, error) {
	switch strategy {
	case StrategyRedact, StrategyHash, StrategyPartial, StrategyReplace:
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if strategy == StrategyHash && len(m.hashKey) == 0 {
		return "", nil, ErrMissingHashKey
	}
	if len(matches) == 0 {
		return text, matches, nil
	}

	// Right-to-left application keeps earlier offsets valid while the
	// string is rebuilt; disjoint spans need no offset recomputation.
	ordered := make([]Match, len(matches))
	copy(ordered, matches)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	masked := text
	for _, match := range ordered {
		if match.Start < 0 || match.End > len(masked) || match.Start >= match.End {
			return "", nil, fmt.Errorf("%w: [%d,%d) in text of %d bytes",
				ErrMatchOutOfRange, match.Start, match.End, len(text))
		}
		replacement := m.replacement(masked[match.Start:match.End], match.Type, strategy)
		masked = masked[:match.Start] + replacement + masked[match.End:]
	}

	return masked, matches, nil
}

func (m *Masker) replacement(value string, piiType Type, strategy Strategy) string {
	switch strategy {
	case StrategyRedact:
		return "[REDACTED_" + strings.ToUpper(string(piiType)) + "]"
	case StrategyHash:
		return m.hashTag(value)
	case StrategyPartial:
		return partialMask(value, piiType)
	default: // StrategyReplace
		return strings.Repeat("*", len(value))
	}
}

// hashTag returns "#" plus the first 8 hex characters of a keyed digest
// of the value. Deterministic for a fixed key.
func (m *Masker) hashTag(value string) string {
	mac := hmac.New(sha256.New, m.hashKey)
	mac.Write([]byte(value))
	return "#" + hex.EncodeToString(mac.Sum(nil))[:hashTagLen]
}

// partialMask applies the type-specific reveal policy. Types without a
// rule fall back to a full mask: the failure mode favors more
// redaction, never less.
func partialMask(value string, piiType Type) string {
	switch piiType {
	case TypeEmail:
		// j****@example.com. The local part collapses to a fixed-width
		// mask so its length is not leaked.
		at := strings.IndexByte(value, '@')
		if at > 0 {
			return value[:1] + "****@" + value[at+1:]
		}
	case TypeCreditCard:
		// ****-****-****-3456
		if len(value) > 4 {
			return maskKeepingSeparators(value[:len(value)-4]) + value[len(value)-4:]
		}
	case TypePhone:
		// Reveal the last four digits only.
		digits := digitsOf(value)
		if len(digits) >= 4 && len(value) > 4 {
			return strings.Repeat("*", len(value)-4) + digits[len(digits)-4:]
		}
	case TypeNationalID:
		// **.***.*78-9
		if len(value) > 3 {
			return strings.Repeat("*", len(value)-3) + value[len(value)-3:]
		}
	}
	return strings.Repeat("*", len(value))
}

// maskKeepingSeparators masks digits but preserves separator layout so
// partially masked card numbers keep their familiar grouping.
func maskKeepingSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c == '-' || c == ' ' {
			b.WriteRune(c)
		} else {
			b.WriteByte('*')
		}
	}
	return b.String()
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
