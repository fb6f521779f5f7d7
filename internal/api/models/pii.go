package models

// DetectRequest is the request body for POST /v1/pii:detect.
type DetectRequest struct {
	Text string `json:"text"`

	// Threshold is the minimum confidence for a match to be reported.
	// Zero means the server default; out-of-range values are clamped.
	Threshold float64 `json:"threshold,omitempty"`
}

// PIIMatch is one detected span of personal data.
type PIIMatch struct {
	Type       string  `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// DetectResponse is the response body for POST /v1/pii:detect.
type DetectResponse struct {
	Matches []PIIMatch     `json:"matches"`
	Stats   map[string]int `json:"stats"`
}

// MaskRequest is the request body for POST /v1/pii:mask.
type MaskRequest struct {
	Text      string  `json:"text"`
	Strategy  string  `json:"strategy,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// MaskResponse is the response body for POST /v1/pii:mask.
type MaskResponse struct {
	MaskedText string     `json:"maskedText"`
	Matches    []PIIMatch `json:"matches"`
}
