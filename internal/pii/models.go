// Package pii provides detection and masking of personally identifiable
// information in free text.
package pii

import "errors"

// Type identifies a category of personally identifiable information.
type Type string

// Supported PII types.
const (
	TypeEmail           Type = "email"
	TypePhone           Type = "phone"
	TypeNationalID      Type = "national_id"
	TypeCreditCard      Type = "credit_card"
	TypeCredentialedURL Type = "credentialed_url"
	TypeIPAddress       Type = "ip_address"
	TypeGovernmentID    Type = "government_id"
	TypePassport        Type = "passport"
	TypePersonName      Type = "person_name"
)

// Match is a detected PII span in the source text.
// Offsets are byte positions; Start < End always holds for matches
// produced by the Detector.
type Match struct {
	Type        Type    `json:"type"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	MatchedText string  `json:"matched_text"`
	Confidence  float64 `json:"confidence"`
}

// Strategy selects how a detected span is replaced.
type Strategy string

// Supported masking strategies.
const (
	StrategyRedact  Strategy = "redact"
	StrategyHash    Strategy = "hash"
	StrategyPartial Strategy = "partial"
	StrategyReplace Strategy = "replace"
)

// Masking errors.
var (
	ErrUnknownStrategy = errors.New("unknown masking strategy")
	ErrMissingHashKey  = errors.New("hash strategy requires a key")
	ErrMatchOutOfRange = errors.New("match span out of range")
)

// Stats counts detected matches by type.
func Stats(matches []Match) map[Type]int {
	stats := make(map[Type]int)
	for _, m := range matches {
		stats[m.Type]++
	}
	return stats
}
