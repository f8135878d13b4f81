package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/ledgerstore"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"bitbucket.org/mmdatafocus/storefront_backend/models/reports"
	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	store  *ledgerstore.MemoryStore
	app    *App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("API_SECRET", "server-test-secret")
	t.Setenv("RATE_LIMIT_ENABLED", "")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hash, err := utils.HashPassword("open-sesame")
	require.NoError(t, err)

	store := ledgerstore.NewMemoryStore()
	ledger := models.NewSalesLedger(store, logger, time.UTC)
	ledger.Load(context.Background())

	app := &App{}
	app.Ready(NewSession(ledger, models.NewCustomerValidator(false, "IN"), logger, string(hash)))
	return &testServer{router: newRouter(app, logger), store: store, app: app}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestServer_CheckoutFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": "Burger", "price": 5.00})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": "Fries", "price": "₹2.00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/cart", nil)
	cart := decodeBody(t, w)
	assert.Equal(t, 7.0, cart["total"])
	assert.Equal(t, 2.0, cart["count"])

	w = ts.do(t, http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CollectingPaymentInfo", decodeBody(t, w)["state"])

	// Cart is locked while details are collected.
	w = ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": "Cola", "price": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/api/checkout/confirm", map[string]any{
		"name": "Asha", "phone": "123", "address": "Pune",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	failure := decodeBody(t, w)
	assert.Equal(t, "phone", failure["field"])
	assert.Equal(t, "CollectingPaymentInfo", failure["state"])

	w = ts.do(t, http.MethodPost, "/api/checkout/confirm", map[string]any{
		"name": "Asha", "phone": "9876543210", "address": "Pune", "paymentMethod": "UPI",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	confirmed := decodeBody(t, w)
	assert.Equal(t, true, confirmed["persisted"])
	receipt := confirmed["receipt"].(map[string]any)
	assert.Equal(t, 7.0, receipt["subtotal"])
	assert.Equal(t, 1.26, receipt["taxAmount"])
	assert.Equal(t, 8.26, receipt["total"])
	assert.Equal(t, "UPI", receipt["paymentMethod"])

	w = ts.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, true, decodeBody(t, w)["empty"])

	w = ts.do(t, http.MethodGet, "/api/sales", nil)
	sales := decodeBody(t, w)
	assert.Equal(t, 1.0, sales["count"])
	assert.Equal(t, 8.26, sales["totalRevenue"])

	persisted, err := ts.store.Load(context.Background())
	require.NoError(t, err)
	records, err := models.DecodeLedger(persisted)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "8.26", records[0].Total.StringFixed(2))
}

func TestServer_CheckoutRequiresItems(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/checkout/confirm", map[string]any{"name": "A", "phone": "1234567", "address": "B"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_CancelKeepsCart(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": "Tea", "price": "1.50"})
	ts.do(t, http.MethodPost, "/api/checkout", nil)

	w := ts.do(t, http.MethodPost, "/api/checkout/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Idle", body["state"])
	assert.Equal(t, 1.5, body["cart"].(map[string]any)["total"])
}

func TestServer_RemoveItem(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": "Tea", "price": "abc"})
	require.Equal(t, http.StatusCreated, w.Code)
	item := decodeBody(t, w)["item"].(map[string]any)
	assert.Equal(t, 0.0, item["unitPrice"], "unparsable price falls back to 0")

	w = ts.do(t, http.MethodDelete, "/api/cart/items/999", nil)
	assert.Equal(t, false, decodeBody(t, w)["removed"])

	w = ts.do(t, http.MethodDelete, "/api/cart/items/1", nil)
	assert.Equal(t, true, decodeBody(t, w)["removed"])

	w = ts.do(t, http.MethodDelete, "/api/cart/items/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": " ", "price": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_OperatorClear(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": "Tea", "price": 1})
	ts.do(t, http.MethodPost, "/api/checkout", nil)
	ts.do(t, http.MethodPost, "/api/checkout/confirm", map[string]any{"name": "A", "phone": "1234567", "address": "B"})

	w := ts.do(t, http.MethodDelete, "/api/sales?confirm=true", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/operator/login", map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/operator/login", map[string]any{"password": "open-sesame"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decodeBody(t, w)["token"].(string)

	w = ts.do(t, http.MethodDelete, "/api/sales", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "clear needs explicit confirmation")

	w = ts.do(t, http.MethodDelete, "/api/sales?confirm=true", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeBody(t, w)["persisted"])

	w = ts.do(t, http.MethodGet, "/api/sales", nil)
	assert.Equal(t, 0.0, decodeBody(t, w)["count"])
	persisted, _ := ts.store.Load(context.Background())
	assert.Equal(t, "[]", string(persisted))
}

func TestServer_SummaryAndExport(t *testing.T) {
	ts := newTestServer(t)
	for _, name := range []string{"Burger", "Fries", "Burger"} {
		ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"name": name, "price": 2})
	}
	ts.do(t, http.MethodPost, "/api/checkout", nil)
	ts.do(t, http.MethodPost, "/api/checkout/confirm", map[string]any{"name": "A", "phone": "1234567", "address": "B"})

	w := ts.do(t, http.MethodGet, "/api/sales/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody(t, w)
	products := summary["products"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "Burger", products[0].(map[string]any)["name"])
	assert.Equal(t, 2.0, products[0].(map[string]any)["quantity"])

	w = ts.do(t, http.MethodGet, "/api/sales/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reports.WorkbookContentType, w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestServer_NotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := newRouter(&App{}, logger)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
