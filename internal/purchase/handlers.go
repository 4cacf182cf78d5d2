package purchase

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/common"
	"github.com/fitspace/backend-fitspace/internal/subscription"
)

// Handler wires the purchase orchestrator to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type paymentPayload struct {
	Method      string              `json:"method"`
	Taxes       int64               `json:"taxes" validate:"gte=0"`
	Description string              `json:"description"`
	Promotions  []billing.Promotion `json:"promotions"`
}

type purchaseSomePayload struct {
	CartItemIDs []string       `json:"cartItemIds" validate:"required,min=1,dive,required"`
	Payment     paymentPayload `json:"payment"`
}

func (p paymentPayload) options() billing.PaymentOptions {
	return billing.PaymentOptions{
		Method:      p.Method,
		Taxes:       p.Taxes,
		Description: p.Description,
		Promotions:  p.Promotions,
	}
}

// PurchaseAll fulfills the caller's whole cart.
func (h *Handler) PurchaseAll(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload paymentPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	bill, err := h.Svc.PurchaseAll(r.Context(), accountID, payload.options())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": billResponse(bill)})
}

// PurchaseSome fulfills a subset of the caller's cart.
func (h *Handler) PurchaseSome(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload purchaseSomePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartItemIds is required", nil)
			return
		}
	}
	bill, err := h.Svc.PurchaseSome(r.Context(), accountID, payload.CartItemIDs, payload.Payment.options())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": billResponse(bill)})
}

// Renew extends an existing subscription through a fresh purchase.
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.AccountID(r.Context())
	if !ok || accountID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	subscriptionID := chi.URLParam(r, "subscriptionID")
	if subscriptionID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "subscription id is required", nil)
		return
	}
	var payload paymentPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	sub, err := h.Svc.Renew(r.Context(), subscriptionID, accountID, common.Role(r.Context()), payload.options())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": subscriptionResponse(sub)})
}

func billResponse(b billing.Bill) map[string]any {
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

func subscriptionResponse(s subscription.Subscription) map[string]any {
	return map[string]any{
		"id":         s.ID,
		"accountId":  s.AccountID,
		"billItemId": s.BillItemID,
		"packageId":  s.PackageID,
		"facilityId": s.FacilityID,
		"expires":    s.Expires,
		"status":     s.Status,
		"renew":      s.Renew,
	}
}
