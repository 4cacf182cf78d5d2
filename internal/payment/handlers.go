package payment

import (
	"net/http"

	"github.com/fitspace/backend-fitspace/internal/common"
)

// Webhook receives the gateway's charge-authorized callback and records the
// confirmation for the orchestrator to consume.
type Webhook struct {
	Store ConfirmationStore
}

// Confirm marks the caller's next purchase as charge-authorized.
func (h Webhook) Confirm(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if err := h.Store.Confirm(r.Context(), accountID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"authorized": true},
	})
}
