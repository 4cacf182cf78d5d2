package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/common"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type addItemPayload struct {
	PackageID  string              `json:"packageId" validate:"required"`
	Promotions []billing.Promotion `json:"promotions"`
}

// Get returns the caller's current cart, creating it lazily.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	c, err := h.Svc.Current(r.Context(), accountID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(c)})
}

// AddItem appends one package to the caller's cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "packageId is required", nil)
			return
		}
	}
	c, err := h.Svc.AddItem(r.Context(), accountID, payload.PackageID, payload.Promotions)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": cartResponse(c)})
}

// RemoveItem deletes one item from the caller's cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "item id is required", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), accountID, itemID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func cartResponse(c Cart) map[string]any {
	items := make([]map[string]any, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, map[string]any{
			"id":             it.ID,
			"packageId":      it.PackageID,
			"promotions":     it.Promotions,
			"promotionPrice": it.PromotionPrice,
			"totalPrice":     it.TotalPrice,
			"addedAt":        it.AddedAt,
		})
	}
	return map[string]any{
		"accountId":      c.AccountID,
		"items":          items,
		"promotionPrice": c.PromotionPrice,
		"totalPrice":     c.TotalPrice,
		"updatedAt":      c.UpdatedAt,
	}
}
