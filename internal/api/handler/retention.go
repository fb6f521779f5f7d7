package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dataveil/dataveil/internal/api/models"
	"github.com/dataveil/dataveil/internal/api/response"
	"github.com/dataveil/dataveil/internal/retention"
)

// RetentionHandler handles retention lifecycle endpoints.
type RetentionHandler struct {
	manager  *retention.Manager
	policies *retention.PolicyStore
}

// NewRetentionHandler creates a new RetentionHandler.
func NewRetentionHandler(manager *retention.Manager, policies *retention.PolicyStore) *RetentionHandler {
	return &RetentionHandler{
		manager:  manager,
		policies: policies,
	}
}

// Cleanup handles POST /v1/retention/{dataType}:cleanup - run one
// retention pass. With ?dryRun=true the pass is read-only.
func (h *RetentionHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	dataType := chi.URLParam(r, "dataType")
	if dataType == "" {
		response.BadRequest(w, r, "dataType is required", nil)
		return
	}
	dryRun := r.URL.Query().Get("dryRun") == "true"

	result, err := h.manager.Cleanup(r.Context(), dataType, time.Now().UTC(), dryRun)
	if err != nil {
		h.writeRetentionError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.CleanupResult{
		DataType:    result.DataType,
		SoftDeleted: result.SoftDeleted,
		HardDeleted: result.HardDeleted,
		DryRun:      result.DryRun,
	})
}

// CleanupAll handles POST /v1/retention:cleanup - run a retention pass
// for every configured data type.
func (h *RetentionHandler) CleanupAll(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dryRun") == "true"

	run := h.manager.CleanupAll(r.Context(), time.Now().UTC(), dryRun)

	resp := models.CleanupRunResponse{
		Results: make([]models.CleanupResult, 0, len(run.Results)),
	}
	for _, result := range run.Results {
		resp.Results = append(resp.Results, models.CleanupResult{
			DataType:    result.DataType,
			SoftDeleted: result.SoftDeleted,
			HardDeleted: result.HardDeleted,
			DryRun:      result.DryRun,
		})
	}
	for _, failure := range run.Failures {
		resp.Failures = append(resp.Failures, models.CleanupFailure{
			DataType: failure.DataType,
			Error:    failure.Err.Error(),
		})
	}

	status := http.StatusOK
	if !run.Succeeded() {
		// Partial completion: some types failed, others went through.
		status = http.StatusMultiStatus
	}
	response.JSON(w, r, status, resp)
}

// Restore handles POST /v1/retention/{dataType}/records/{recordId}:restore.
func (h *RetentionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	dataType := chi.URLParam(r, "dataType")
	recordID := chi.URLParam(r, "recordId")
	if dataType == "" || recordID == "" {
		response.BadRequest(w, r, "dataType and recordId are required", nil)
		return
	}

	var input models.RestoreRequest
	// Body is optional, ignore decode errors
	_ = json.NewDecoder(r.Body).Decode(&input)

	record, err := h.manager.Restore(r.Context(), dataType, recordID, input.UserID)
	if err != nil {
		h.writeRetentionError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIRecord(record))
}

// ListPolicies handles GET /v1/retention/policies.
func (h *RetentionHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	types := h.policies.Types()

	resp := models.PoliciesResponse{
		Policies: make([]models.RetentionPolicy, 0, len(types)),
	}
	for _, dataType := range types {
		policy, err := h.policies.GetPolicy(dataType)
		if err != nil {
			continue
		}
		resp.Policies = append(resp.Policies, models.RetentionPolicy{
			DataType:           policy.DataType,
			RetentionDays:      policy.RetentionDays,
			SoftDeleteEnabled:  policy.SoftDeleteEnabled,
			SoftDeleteLeadDays: policy.SoftDeleteLeadDays,
		})
	}
	response.JSON(w, r, http.StatusOK, resp)
}

func (h *RetentionHandler) writeRetentionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, retention.ErrPolicyNotFound):
		response.NotFound(w, r, "no retention policy for this data type")
	case errors.Is(err, retention.ErrRecordNotFound):
		response.NotFound(w, r, "record not found")
	case errors.Is(err, retention.ErrInvalidTransition):
		response.Conflict(w, r, "record is not soft-deleted")
	case errors.Is(err, retention.ErrStoreUnavailable):
		response.ServiceUnavailable(w, r, "record store unavailable")
	case errors.Is(err, retention.ErrAuditWriteFailed):
		response.InternalError(w, r, "cleanup completed but could not be audited")
	default:
		response.InternalError(w, r, "retention operation failed")
	}
}

func toAPIRecord(record *retention.Record) models.RetentionRecord {
	out := models.RetentionRecord{
		ID:        record.ID,
		DataType:  record.DataType,
		State:     string(record.State),
		CreatedAt: models.Timestamp(record.CreatedAt),
	}
	if record.SoftDeletedAt != nil {
		ts := models.Timestamp(*record.SoftDeletedAt)
		out.SoftDeletedAt = &ts
	}
	return out
}
