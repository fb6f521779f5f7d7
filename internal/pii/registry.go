package pii

import (
	"regexp"
	"sort"
	"strings"
)

// Rule is a single detection rule. Rules are data: adding a new PII type
// means registering a new rule set, not changing detector logic.
type Rule struct {
	// Type is the PII type this rule detects.
	Type Type

	// Pattern is the compiled expression run against the input.
	Pattern *regexp.Regexp

	// SubmatchGroup selects a capture group as the reported span.
	// Zero means the whole match.
	SubmatchGroup int

	// Priority orders rule evaluation; lower values run first so that
	// more specific types (credentialed URL) win ties against more
	// general ones (bare email) during overlap resolution.
	Priority int

	// Confidence is the base confidence assigned to raw candidates.
	Confidence float64

	// Validator optionally rejects candidates that match the pattern
	// shape but fail a semantic check (check digits, value ranges).
	Validator func(matched string) bool
}

// Registry holds the ordered rule set for a detector.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule. Rules are kept sorted by priority; registration
// order breaks priority ties.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority < r.rules[j].Priority
	})
}

// Rules returns the rules in evaluation order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// DefaultRegistry returns the standard rule set. Regex rules carry 0.95
// confidence; the person-name heuristic carries 0.60 and only survives
// detection when the caller lowers the confidence threshold.
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	// Credentialed URLs run before emails: the user:pass@host portion
	// would otherwise be classified as a bare email address.
	reg.Register(Rule{
		Type:       TypeCredentialedURL,
		Pattern:    regexp.MustCompile(`(?:https?|ftp)://[^\s:]+:[^\s@]+@[^\s/]+`),
		Priority:   10,
		Confidence: 0.95,
	})
	reg.Register(Rule{
		Type:       TypeEmail,
		Pattern:    regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		Priority:   20,
		Confidence: 0.95,
	})
	reg.Register(Rule{
		Type:       TypeCreditCard,
		Pattern:    regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		Priority:   30,
		Confidence: 0.95,
		Validator:  ValidLuhn,
	})
	// Chilean RUT, XX.XXX.XXX-K shape.
	reg.Register(Rule{
		Type:       TypeNationalID,
		Pattern:    regexp.MustCompile(`\b(?:\d{1,2}\.)?\d{1,3}\.\d{3}-[\dkK]\b`),
		Priority:   40,
		Confidence: 0.95,
	})
	// US SSN shape; range rules enforced by the validator because the
	// expression syntax has no lookahead.
	reg.Register(Rule{
		Type:       TypeGovernmentID,
		Pattern:    regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Priority:   50,
		Confidence: 0.95,
		Validator:  ValidSSN,
	})
	reg.Register(Rule{
		Type:       TypeIPAddress,
		Pattern:    regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
		Priority:   60,
		Confidence: 0.95,
	})
	// Chilean mobile/landline numbers, with or without +56 prefix.
	reg.Register(Rule{
		Type:       TypePhone,
		Pattern:    regexp.MustCompile(`(?:\+?56[-.\s]?)?[92][-.\s]?\d{4}[-.\s]?\d{4}\b`),
		Priority:   70,
		Confidence: 0.95,
	})
	// International numbers with an explicit country code.
	reg.Register(Rule{
		Type:       TypePhone,
		Pattern:    regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{2,4}(?:[-.\s]?\d{2,4}){1,3}\b`),
		Priority:   71,
		Confidence: 0.95,
	})
	reg.Register(Rule{
		Type:       TypePassport,
		Pattern:    regexp.MustCompile(`\b[A-Z]{1,2}\d{6,9}\b`),
		Priority:   80,
		Confidence: 0.95,
	})
	// Capitalized words that are not sentence starters. Heuristic only,
	// hence the low confidence.
	reg.Register(Rule{
		Type:          TypePersonName,
		Pattern:       regexp.MustCompile(`(?:[.!?]\s+|,\s+)([A-Z][a-záéíóúñ]+(?:\s+[A-Z][a-záéíóúñ]+)?)`),
		SubmatchGroup: 1,
		Priority:      90,
		Confidence:    0.60,
	})

	return reg
}

// ValidLuhn reports whether the digits in s pass the Luhn check.
// Non-digit separators are ignored.
func ValidLuhn(s string) bool {
	var digits []int
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits = append(digits, int(c-'0'))
		}
	}
	if len(digits) < 12 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidSSN rejects SSN-shaped numbers outside the assignable ranges:
// area 000, 666 or 900-999, group 00, serial 0000.
func ValidSSN(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	area, group, serial := parts[0], parts[1], parts[2]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// ValidRUT reports whether a Chilean RUT carries a correct mod-11 check
// digit. Not wired into the default rule set, where shape alone is
// treated as sufficient, but available for stricter deployments.
func ValidRUT(s string) bool {
	cleaned := strings.NewReplacer(".", "", "-", "").Replace(s)
	if len(cleaned) < 2 {
		return false
	}
	body := cleaned[:len(cleaned)-1]
	dv := cleaned[len(cleaned)-1]

	sum := 0
	factor := 2
	for i := len(body) - 1; i >= 0; i-- {
		if body[i] < '0' || body[i] > '9' {
			return false
		}
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}

	var expected byte
	switch rem := 11 - sum%11; rem {
	case 11:
		expected = '0'
	case 10:
		expected = 'k'
	default:
		expected = byte('0' + rem)
	}
	if dv == 'K' {
		dv = 'k'
	}
	return dv == expected
}
