package pii_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataveil/dataveil/internal/pii"
)

func newMasker(t *testing.T) *pii.Masker {
	t.Helper()
	return pii.NewMasker(pii.MaskerConfig{
		HashKey: []byte("test-correlation-key"),
		Logger:  zerolog.Nop(),
	})
}

func TestMasker_Mask_NoMatches(t *testing.T) {
	m := newMasker(t)

	masked, matches, err := m.Mask("nothing sensitive here", nil, pii.StrategyRedact)

	require.NoError(t, err)
	assert.Equal(t, "nothing sensitive here", masked)
	assert.Empty(t, matches)
}

func TestMasker_Mask_Redact(t *testing.T) {
	d := newDetector(t)
	m := newMasker(t)
	text := "El usuario juan@example.com con RUT 12.345.678-9 se conectó"

	detected := d.Detect(text, 0.7)
	require.Len(t, detected, 2)

	masked, returned, err := m.Mask(text, detected, pii.StrategyRedact)

	require.NoError(t, err)
	assert.Equal(t, "El usuario [REDACTED_EMAIL] con [REDACTED_NATIONAL_ID] se conectó", masked)
	// The match list comes back unchanged for audit and metrics.
	assert.Equal(t, detected, returned)
}

func TestMasker_Mask_RedactIdempotent(t *testing.T) {
	d := newDetector(t)
	m := newMasker(t)
	text := "card 4111-1111-1111-1111 mail juan@example.com ip 10.1.2.3"

	once, _, err := m.Mask(text, d.Detect(text, 0.7), pii.StrategyRedact)
	require.NoError(t, err)

	// Masked tokens contain no detectable PII, so a second pass is a no-op.
	rescan := d.Detect(once, 0.7)
	assert.Empty(t, rescan)

	twice, _, err := m.Mask(once, rescan, pii.StrategyRedact)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMasker_Mask_PartialIdempotent(t *testing.T) {
	d := newDetector(t)
	m := newMasker(t)
	text := "reach juan@example.com or card 4111-1111-1111-1111"

	once, _, err := m.Mask(text, d.Detect(text, 0.7), pii.StrategyPartial)
	require.NoError(t, err)
	assert.Empty(t, d.Detect(once, 0.7))
}

func TestMasker_Mask_HashDeterministic(t *testing.T) {
	m := newMasker(t)
	text := "juan@example.com"
	matches := []pii.Match{{Type: pii.TypeEmail, Start: 0, End: len(text), MatchedText: text, Confidence: 0.95}}

	first, _, err := m.Mask(text, matches, pii.StrategyHash)
	require.NoError(t, err)
	second, _, err := m.Mask(text, matches, pii.StrategyHash)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, `^#[0-9a-f]{8}$`, first)

	// A different value yields a different tag.
	other := "pedro@example.com"
	otherMatches := []pii.Match{{Type: pii.TypeEmail, Start: 0, End: len(other), MatchedText: other, Confidence: 0.95}}
	third, _, err := m.Mask(other, otherMatches, pii.StrategyHash)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)

	// A different key yields a different tag for the same value.
	otherKey := pii.NewMasker(pii.MaskerConfig{HashKey: []byte("another-key"), Logger: zerolog.Nop()})
	fourth, _, err := otherKey.Mask(text, matches, pii.StrategyHash)
	require.NoError(t, err)
	assert.NotEqual(t, first, fourth)
}

func TestMasker_Mask_HashRequiresKey(t *testing.T) {
	m := pii.NewMasker(pii.MaskerConfig{Logger: zerolog.Nop()})
	matches := []pii.Match{{Type: pii.TypeEmail, Start: 0, End: 7, MatchedText: "a@b.com", Confidence: 0.95}}

	_, _, err := m.Mask("a@b.com", matches, pii.StrategyHash)

	assert.ErrorIs(t, err, pii.ErrMissingHashKey)
}

func TestMasker_Mask_UnknownStrategy(t *testing.T) {
	m := newMasker(t)

	_, _, err := m.Mask("text", nil, pii.Strategy("rot13"))

	assert.ErrorIs(t, err, pii.ErrUnknownStrategy)
}

func TestMasker_Mask_Partial(t *testing.T) {
	m := newMasker(t)

	tests := []struct {
		name    string
		value   string
		piiType pii.Type
		want    string
	}{
		{"email keeps first char and domain", "juan@example.com", pii.TypeEmail, "j****@example.com"},
		{"card keeps last four", "1234-5678-9012-3456", pii.TypeCreditCard, "****-****-****-3456"},
		{"phone keeps last four digits", "+56 9 1234 5678", pii.TypePhone, "***********5678"},
		{"national id keeps tail", "12.345.678-9", pii.TypeNationalID, "*********8-9"},
		{"unknown type gets full mask", "AB1234567", pii.TypePassport, "*********"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := []pii.Match{{
				Type:        tt.piiType,
				Start:       0,
				End:         len(tt.value),
				MatchedText: tt.value,
				Confidence:  0.95,
			}}

			masked, _, err := m.Mask(tt.value, matches, pii.StrategyPartial)

			require.NoError(t, err)
			assert.Equal(t, tt.want, masked)
		})
	}
}

func TestMasker_Mask_ReplacePreservesLength(t *testing.T) {
	m := newMasker(t)
	text := "mail a@b.com end"
	matches := []pii.Match{{Type: pii.TypeEmail, Start: 5, End: 12, MatchedText: "a@b.com", Confidence: 0.95}}

	masked, _, err := m.Mask(text, matches, pii.StrategyReplace)

	require.NoError(t, err)
	assert.Equal(t, "mail ******* end", masked)
	assert.Len(t, masked, len(text))
}

func TestMasker_Mask_OutOfRangeMatch(t *testing.T) {
	m := newMasker(t)
	matches := []pii.Match{{Type: pii.TypeEmail, Start: 3, End: 99, MatchedText: "x", Confidence: 0.95}}

	_, _, err := m.Mask("short", matches, pii.StrategyRedact)

	assert.ErrorIs(t, err, pii.ErrMatchOutOfRange)
}

func TestMasker_Mask_MultipleSpansRightToLeft(t *testing.T) {
	d := newDetector(t)
	m := newMasker(t)
	text := "a@b.com then c@d.org"

	masked, _, err := m.Mask(text, d.Detect(text, 0.7), pii.StrategyRedact)

	require.NoError(t, err)
	assert.Equal(t, "[REDACTED_EMAIL] then [REDACTED_EMAIL]", masked)
}
