package sales

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/auth"
	"github.com/meridian-pos/meridian/internal/shared"
)

func newTestRouter(repo *memoryRepo, actor shared.Actor) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(newTestService(repo), auth.Middleware{Logger: logger}, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithActor(req.Context(), actor)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/sales", handler.MountRoutes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateSale(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, StatusCompleted, view.Status)
	require.True(t, view.Total.Equal(decimal.RequireFromString("5.00")))
	require.Equal(t, "10", view.CashierID)
	require.Len(t, view.Items, 1)
	require.Equal(t, "1", view.Items[0].ProductID)
}

func TestHandlerCreateSaleValidation(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/", `{"items":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":-2}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/sales/", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCreateSaleRejectsUnknownFields(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":2}],"discount":0.5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCreateSaleRejectsOversizedBody(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	router := newTestRouter(repo, testActor)

	oversized := strings.Repeat("1", 2<<20)
	rec := doJSON(t, router, http.MethodPost, "/sales/",
		fmt.Sprintf(`{"items":[{"product_id":"%s","quantity":2}]}`, oversized))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Empty(t, repo.sales)
}

func TestHandlerCreateSaleInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 1)
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":5}]}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerCreateSaleUnknownProduct(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"42","quantity":1}]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRefundFlow(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	manager := shared.Actor{TenantID: 1, UserID: 11, Role: shared.RoleManager}
	router := newTestRouter(repo, manager)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/sales/%s/refund", view.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result RefundResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, StatusRefunded, result.Status)
	require.Equal(t, view.ID, result.SaleID)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/sales/%s/refund", view.ID), "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRefundForbiddenForCashier(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/sales/%s/refund", view.ID), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerGetSaleNotFound(t *testing.T) {
	router := newTestRouter(newMemoryRepo(), testActor)

	rec := doJSON(t, router, http.MethodGet, "/sales/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/sales/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerReceipt(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	router := newTestRouter(repo, testActor)

	rec := doJSON(t, router, http.MethodPost, "/sales/",
		`{"items":[{"product_id":"1","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/sales/%s/receipt", view.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var receipt Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	require.Equal(t, "Demo Store", receipt.StoreName)
	require.Equal(t, "USD 5.00", receipt.Total)
}

func TestHandlerListSales(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 1, "Espresso", "2.50", 10)
	router := newTestRouter(repo, testActor)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/sales/",
			`{"items":[{"product_id":"1","quantity":1}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/sales/?status=COMPLETED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 3)

	rec = doJSON(t, router, http.MethodGet, "/sales/?status=BOGUS", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
