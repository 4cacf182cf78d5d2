package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitspace/backend-fitspace/internal/common"
)

// Handler wires subscription queries to HTTP.
type Handler struct {
	Svc *Service
}

// Get returns one subscription owned by the caller (or any, for admins).
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id := chi.URLParam(r, "subscriptionID")
	sub, err := h.Svc.Get(r.Context(), id, accountID, common.Role(r.Context()))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": response(sub)})
}

// CheckExpiry observes the grant and flags it for renewal when lapsed.
func (h *Handler) CheckExpiry(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id := chi.URLParam(r, "subscriptionID")
	if _, err := h.Svc.Get(r.Context(), id, accountID, common.Role(r.Context())); err != nil {
		common.WriteError(w, err)
		return
	}
	sub, message, err := h.Svc.CheckAndReconcileExpiry(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"subscription": response(sub),
			"message":      message,
		},
	})
}

// Access reports whether the caller currently holds access to a facility.
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	facilityID := chi.URLParam(r, "facilityID")
	active, err := h.Svc.IsActive(r.Context(), facilityID, accountID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"facilityId": facilityID,
			"active":     active,
		},
	})
}

func response(s Subscription) map[string]any {
	return map[string]any{
		"id":         s.ID,
		"accountId":  s.AccountID,
		"billItemId": s.BillItemID,
		"packageId":  s.PackageID,
		"facilityId": s.FacilityID,
		"expires":    s.Expires,
		"status":     s.Status,
		"renew":      s.Renew,
		"createdAt":  s.CreatedAt,
		"updatedAt":  s.UpdatedAt,
	}
}
