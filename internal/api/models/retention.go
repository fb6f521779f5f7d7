package models

// CleanupResult is the outcome of one retention pass for one data type.
type CleanupResult struct {
	DataType    string `json:"dataType"`
	SoftDeleted int    `json:"softDeleted"`
	HardDeleted int    `json:"hardDeleted"`
	DryRun      bool   `json:"dryRun"`
}

// CleanupFailure reports a data type whose pass did not complete.
type CleanupFailure struct {
	DataType string `json:"dataType"`
	Error    string `json:"error"`
}

// CleanupRunResponse is the response body for a cleanup across all
// configured data types.
type CleanupRunResponse struct {
	Results  []CleanupResult  `json:"results"`
	Failures []CleanupFailure `json:"failures,omitempty"`
}

// RestoreRequest is the request body for restoring a soft-deleted record.
type RestoreRequest struct {
	UserID *string `json:"userId,omitempty"`
}

// RetentionRecord is the API view of a lifecycle-managed record.
type RetentionRecord struct {
	ID            string     `json:"id"`
	DataType      string     `json:"dataType"`
	State         string     `json:"state"`
	CreatedAt     Timestamp  `json:"createdAt"`
	SoftDeletedAt *Timestamp `json:"softDeletedAt,omitempty"`
}

// RetentionPolicy is the API view of one data type's retention policy.
type RetentionPolicy struct {
	DataType           string `json:"dataType"`
	RetentionDays      int    `json:"retentionDays"`
	SoftDeleteEnabled  bool   `json:"softDeleteEnabled"`
	SoftDeleteLeadDays int    `json:"softDeleteLeadDays"`
}

// PoliciesResponse lists the configured retention policies.
type PoliciesResponse struct {
	Policies []RetentionPolicy `json:"policies"`
}
