package attendance

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/fitspace/backend-fitspace/internal/common"
)

// Handler wires attendance recording to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type recordPayload struct {
	FacilityID string `json:"facilityId" validate:"required"`
}

// Record registers a facility visit for the caller.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "facilityId is required", nil)
			return
		}
	}
	att, err := h.Svc.Record(r.Context(), accountID, payload.FacilityID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"id":         att.ID,
			"accountId":  att.AccountID,
			"facilityId": att.FacilityID,
			"visitedAt":  att.VisitedAt,
		},
	})
}

// History lists the caller's recent visits.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	visits, err := h.Svc.History(r.Context(), accountID, 50)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(visits))
	for _, att := range visits {
		out = append(out, map[string]any{
			"id":         att.ID,
			"facilityId": att.FacilityID,
			"visitedAt":  att.VisitedAt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
