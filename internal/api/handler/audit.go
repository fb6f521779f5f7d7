package handler

import (
	"net/http"
	"strconv"

	"github.com/dataveil/dataveil/internal/api/models"
	"github.com/dataveil/dataveil/internal/api/response"
	"github.com/dataveil/dataveil/internal/audit"
)

const defaultAuditWindowDays = 30

// AuditHandler handles audit trail query endpoints.
type AuditHandler struct {
	trail audit.Trail
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(trail audit.Trail) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// ListRecords handles GET /v1/audit/records - query the audit trail.
// Supports ?sinceDays= and ?dataType= filters.
func (h *AuditHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	sinceDays := defaultAuditWindowDays
	if raw := r.URL.Query().Get("sinceDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, r, "sinceDays must be a positive integer", []models.FieldError{
				{Field: "sinceDays", Message: "must be a positive integer", Code: "INVALID"},
			})
			return
		}
		sinceDays = parsed
	}

	var (
		records []audit.Record
		err     error
	)
	if dataType := r.URL.Query().Get("dataType"); dataType != "" {
		records, err = h.trail.QueryByType(r.Context(), dataType, sinceDays)
	} else {
		records, err = h.trail.Query(r.Context(), sinceDays)
	}
	if err != nil {
		response.InternalError(w, r, "audit trail query failed")
		return
	}

	resp := models.AuditRecordsResponse{
		Records: make([]models.AuditRecord, 0, len(records)),
	}
	for _, record := range records {
		resp.Records = append(resp.Records, models.AuditRecord{
			ID:                 record.ID.String(),
			Timestamp:          models.Timestamp(record.Timestamp),
			DataType:           record.DataType,
			RecordsSoftDeleted: record.RecordsSoftDeleted,
			RecordsHardDeleted: record.RecordsHardDeleted,
			UserID:             record.UserID,
			Reason:             record.Reason,
			Details:            record.Details,
		})
	}
	response.JSON(w, r, http.StatusOK, resp)
}
