package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitspace/backend-fitspace/internal/common"
)

// Handler wires bill queries to HTTP. Bills are created by the purchase
// orchestrator, never directly through this surface.
type Handler struct {
	Svc *Service
}

// Get returns one bill owned by the caller (or any, for admins).
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id := chi.URLParam(r, "billID")
	bill, err := h.Svc.GetBill(r.Context(), id, accountID, common.Role(r.Context()))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": billResponse(bill)})
}

// List returns the caller's bills, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	bills, err := h.Svc.ListBills(r.Context(), accountID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(bills))
	for _, bill := range bills {
		out = append(out, billResponse(bill))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func billResponse(b Bill) map[string]any {
	return map[string]any{
		"id":             b.ID,
		"accountId":      b.AccountID,
		"billItemIds":    b.BillItemIDs,
		"paymentMethod":  b.PaymentMethod,
		"taxes":          b.Taxes,
		"description":    b.Description,
		"promotions":     b.Promotions,
		"promotionPrice": b.PromotionPrice,
		"totalPrice":     b.TotalPrice,
		"status":         b.Status,
		"createdAt":      b.CreatedAt,
	}
}
