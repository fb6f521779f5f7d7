// Package handler provides HTTP handlers for the DataVeil API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dataveil/dataveil/internal/api/models"
	"github.com/dataveil/dataveil/internal/api/response"
	"github.com/dataveil/dataveil/internal/pii"
)

// maxScanBytes bounds the text accepted by the scanning endpoints.
const maxScanBytes = 1 << 20

// PIIHandler handles detection and masking endpoints.
type PIIHandler struct {
	detector *pii.Detector
	masker   *pii.Masker
}

// NewPIIHandler creates a new PIIHandler.
func NewPIIHandler(detector *pii.Detector, masker *pii.Masker) *PIIHandler {
	return &PIIHandler{
		detector: detector,
		masker:   masker,
	}
}

// Detect handles POST /v1/pii:detect - scan text for PII.
func (h *PIIHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var input models.DetectRequest
	if !decodeScanBody(w, r, &input) {
		return
	}
	if input.Text == "" {
		response.BadRequest(w, r, "text is required", []models.FieldError{
			{Field: "text", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	matches := h.detector.Detect(input.Text, input.Threshold)

	response.JSON(w, r, http.StatusOK, models.DetectResponse{
		Matches: toAPIMatches(matches),
		Stats:   toAPIStats(matches),
	})
}

// Mask handles POST /v1/pii:mask - scan text and replace detected spans.
func (h *PIIHandler) Mask(w http.ResponseWriter, r *http.Request) {
	var input models.MaskRequest
	if !decodeScanBody(w, r, &input) {
		return
	}
	if input.Text == "" {
		response.BadRequest(w, r, "text is required", []models.FieldError{
			{Field: "text", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	strategy := pii.Strategy(input.Strategy)
	if input.Strategy == "" {
		strategy = pii.StrategyRedact
	}

	matches := h.detector.Detect(input.Text, input.Threshold)
	masked, matches, err := h.masker.Mask(input.Text, matches, strategy)
	if err != nil {
		switch {
		case errors.Is(err, pii.ErrUnknownStrategy):
			response.BadRequest(w, r, "unknown masking strategy", []models.FieldError{
				{Field: "strategy", Message: err.Error(), Code: "INVALID"},
			})
		case errors.Is(err, pii.ErrMissingHashKey):
			response.InternalError(w, r, "hash strategy is not configured")
		default:
			response.InternalError(w, r, "masking failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.MaskResponse{
		MaskedText: masked,
		Matches:    toAPIMatches(matches),
	})
}

// decodeScanBody decodes a size-bounded JSON body, writing a 400 on
// failure. Returns false when the request has already been answered.
func decodeScanBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return false
	}
	return true
}

func toAPIMatches(matches []pii.Match) []models.PIIMatch {
	out := make([]models.PIIMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.PIIMatch{
			Type:       string(m.Type),
			Start:      m.Start,
			End:        m.End,
			Text:       m.MatchedText,
			Confidence: m.Confidence,
		})
	}
	return out
}

func toAPIStats(matches []pii.Match) map[string]int {
	stats := make(map[string]int)
	for t, n := range pii.Stats(matches) {
		stats[string(t)] = n
	}
	return stats
}
