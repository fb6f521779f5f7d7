package pii

import (
	"sort"

	"github.com/rs/zerolog"
)

// Confidence threshold bounds. Detect clamps the caller-supplied
// threshold into this range; zero selects the default.
const (
	DefaultThreshold = 0.7
	MinThreshold     = 0.5
	MaxThreshold     = 0.9
)

// Detector scans text for PII using a rule registry. It is stateless
// after construction and safe for concurrent use.
type Detector struct {
	registry *Registry
	logger   zerolog.Logger
}

// DetectorConfig holds configuration for creating a Detector.
type DetectorConfig struct {
	// Registry supplies the detection rules. Defaults to DefaultRegistry.
	Registry *Registry
	Logger   zerolog.Logger
}

// NewDetector creates a new Detector.
func NewDetector(cfg DetectorConfig) *Detector {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Detector{
		registry: registry,
		logger:   cfg.Logger,
	}
}

// candidate is a raw rule hit before overlap resolution.
type candidate struct {
	match    Match
	priority int
}

// Detect scans text and returns matches with confidence >= threshold,
// pairwise disjoint and sorted by start offset. A threshold of zero
// selects DefaultThreshold; other values are clamped to
// [MinThreshold, MaxThreshold]. Output is deterministic for identical
// input and configuration.
func (d *Detector) Detect(text string, threshold float64) []Match {
	if text == "" {
		return nil
	}
	threshold = clampThreshold(threshold)

	var candidates []candidate
	for _, rule := range d.registry.Rules() {
		if rule.Confidence < threshold {
			// Below-threshold candidates are fully discarded before
			// overlap resolution; they never suppress other matches.
			continue
		}
		candidates = append(candidates, d.runRule(text, rule)...)
	}

	resolved := resolveOverlaps(candidates)

	matches := make([]Match, 0, len(resolved))
	for _, c := range resolved {
		matches = append(matches, c.match)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

// runRule collects candidates for one rule. A rule that fails never
// aborts the others; it just contributes zero matches.
func (d *Detector) runRule(text string, rule Rule) (out []candidate) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn().
				Str("pii_type", string(rule.Type)).
				Interface("panic", r).
				Msg("detection rule failed")
			out = nil
		}
	}()

	idxs := rule.Pattern.FindAllStringSubmatchIndex(text, -1)
	for _, idx := range idxs {
		start, end := idx[0], idx[1]
		if g := rule.SubmatchGroup; g > 0 && 2*g+1 < len(idx) {
			start, end = idx[2*g], idx[2*g+1]
		}
		if start < 0 || start >= end {
			continue
		}
		matched := text[start:end]
		if rule.Validator != nil && !rule.Validator(matched) {
			continue
		}
		out = append(out, candidate{
			match: Match{
				Type:        rule.Type,
				Start:       start,
				End:         end,
				MatchedText: matched,
				Confidence:  rule.Confidence,
			},
			priority: rule.Priority,
		})
	}
	return out
}

// resolveOverlaps keeps, for every set of intersecting spans, the
// candidate with higher confidence, then longer span, then earlier rule
// priority, then earlier start. Survivors are pairwise disjoint.
func resolveOverlaps(candidates []candidate) []candidate {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.match.Confidence != b.match.Confidence {
			return a.match.Confidence > b.match.Confidence
		}
		alen := a.match.End - a.match.Start
		blen := b.match.End - b.match.Start
		if alen != blen {
			return alen > blen
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.match.Start < b.match.Start
	})

	var kept []candidate
	for _, c := range ranked {
		overlaps := false
		for _, k := range kept {
			if c.match.Start < k.match.End && k.match.Start < c.match.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

func clampThreshold(t float64) float64 {
	switch {
	case t == 0:
		return DefaultThreshold
	case t < MinThreshold:
		return MinThreshold
	case t > MaxThreshold:
		return MaxThreshold
	default:
		return t
	}
}
