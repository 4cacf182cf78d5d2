package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/fitspace/backend-fitspace/internal/common"
)

func testRouter(svc *Service) *chi.Mux {
	h := &Handler{Svc: svc, Validate: validator.New()}
	r := chi.NewRouter()
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Delete("/cart/items/{itemID}", h.RemoveItem)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body, accountID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if accountID != "" {
		req = req.WithContext(common.WithAccountID(req.Context(), accountID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAddItemEndpoint(t *testing.T) {
	r := testRouter(newService(newMemStore(), map[string]int64{"pkg-1": 100_000}))

	rec := doRequest(t, r, http.MethodPost, "/cart/items", `{"packageId":"pkg-1"}`, "acc-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data struct {
			TotalPrice int64 `json:"totalPrice"`
			Items      []struct {
				PackageID string `json:"packageId"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(100_000), body.Data.TotalPrice)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, "pkg-1", body.Data.Items[0].PackageID)
}

func TestAddItemEndpointValidation(t *testing.T) {
	r := testRouter(newService(newMemStore(), nil))

	rec := doRequest(t, r, http.MethodPost, "/cart/items", `{}`, "acc-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/cart/items", `not json`, "acc-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartEndpointsRequireIdentity(t *testing.T) {
	r := testRouter(newService(newMemStore(), nil))

	rec := doRequest(t, r, http.MethodGet, "/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/cart/items", `{"packageId":"pkg-1"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRemoveItemEndpoint(t *testing.T) {
	svc := newService(newMemStore(), map[string]int64{"pkg-1": 100_000})
	r := testRouter(svc)

	rec := doRequest(t, r, http.MethodPost, "/cart/items", `{"packageId":"pkg-1"}`, "acc-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 1)

	rec = doRequest(t, r, http.MethodDelete, "/cart/items/"+body.Data.Items[0].ID, "", "acc-1")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/cart", "", "acc-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Data.Items)
}
