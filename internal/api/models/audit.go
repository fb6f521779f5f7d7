package models

// AuditRecord is the API view of one audit trail entry.
type AuditRecord struct {
	ID                 string         `json:"id"`
	Timestamp          Timestamp      `json:"timestamp"`
	DataType           string         `json:"dataType"`
	RecordsSoftDeleted int            `json:"recordsSoftDeleted"`
	RecordsHardDeleted int            `json:"recordsHardDeleted"`
	UserID             *string        `json:"userId,omitempty"`
	Reason             string         `json:"reason"`
	Details            map[string]any `json:"details,omitempty"`
}

// AuditRecordsResponse is the response body for audit trail queries.
type AuditRecordsResponse struct {
	Records []AuditRecord `json:"records"`
}
