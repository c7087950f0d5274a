package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/alerts"
	"github.com/shoaibghazii/Ghazi-Medi/internal/cache"
	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
	"github.com/shoaibghazii/Ghazi-Medi/internal/service"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	svc := service.New(repo, cache.NoopSummaryCache{}, alerts.NewEngine(30, decimal.NewFromInt(10)), "test-store", time.Second, nil)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)
	if err := auth.SeedAdmin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	return New(svc, auth, "*", nil)
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	token   string
	csrf    string
}

func newTestClient(t *testing.T, api *API) *testClient {
	t.Helper()
	c := &testClient{t: t, handler: api.Handler()}

	rec := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	c.token = login.AccessToken

	rec = c.do(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	var csrfBody map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&csrfBody); err != nil {
		t.Fatalf("decode csrf: %v", err)
	}
	c.csrf = csrfBody["csrf_token"]
	return c
}

func (c *testClient) do(method, path string, payload any) *httptest.ResponseRecorder {
	c.t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *testClient) addItem(name, batch, qty, price string) domain.InventoryItem {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/inventory", map[string]string{
		"name":          name,
		"batch":         batch,
		"quantity":      qty,
		"purchasePrice": "1.00",
		"sellingPrice":  price,
		"expiryDate":    domain.Today().AddDays(365).String(),
	})
	if rec.Code != http.StatusCreated {
		c.t.Fatalf("add item: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Item domain.InventoryItem `json:"item"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		c.t.Fatalf("decode item: %v", err)
	}
	return body.Item
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInventoryRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestMutationRequiresCSRFToken(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	client.csrf = ""
	rec := client.do(http.MethodPost, "/api/v1/bill/clear", map[string]string{})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestInventoryAddAndSearch(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	client.addItem("Panadol Extra", "PX-100", "10", "30.00")

	rec := client.do(http.MethodGet, "/api/v1/inventory/search?q=pan", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Items []domain.InventoryItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Name != "Panadol Extra" {
		t.Fatalf("expected Panadol Extra, got %+v", body.Items)
	}

	// Short queries return an empty list.
	rec = client.do(http.MethodGet, "/api/v1/inventory/search?q=pa", nil)
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 0 {
		t.Fatalf("short query must return nothing, got %+v", body.Items)
	}
}

func TestInventoryValidationError(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	rec := client.do(http.MethodPost, "/api/v1/inventory", map[string]string{
		"name":          "",
		"batch":         "B1",
		"quantity":      "1",
		"purchasePrice": "1",
		"sellingPrice":  "2",
		"expiryDate":    domain.Today().String(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBillLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	item := client.addItem("Panadol", "B1", "10", "50.00")

	rec := client.do(http.MethodPost, "/api/v1/bill/lines", map[string]string{"itemId": item.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d %s", rec.Code, rec.Body.String())
	}
	rec = client.do(http.MethodPost, "/api/v1/bill/lines", map[string]string{"itemId": item.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d %s", rec.Code, rec.Body.String())
	}

	var state domain.BillState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.Lines) != 1 {
		t.Fatalf("same item must merge into one line, got %d", len(state.Lines))
	}
	if got := state.GrandTotal.StringFixed(2); got != "100.00" {
		t.Fatalf("expected grand total 100.00, got %s", got)
	}

	rec = client.do(http.MethodPatch, "/api/v1/bill/lines/"+item.ID, map[string]string{"quantity": "3"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set quantity: %d %s", rec.Code, rec.Body.String())
	}

	rec = client.do(http.MethodPost, "/api/v1/bill/commit", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit: %d %s", rec.Code, rec.Body.String())
	}
	var commit struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&commit); err != nil {
		t.Fatalf("decode commit: %v", err)
	}
	if got := commit.Sale.GrandTotal.StringFixed(2); got != "150.00" {
		t.Fatalf("expected 150.00, got %s", got)
	}

	rec = client.do(http.MethodGet, fmt.Sprintf("/api/v1/sales/%s/receipt", commit.Sale.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt: %d %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("TOTAL PKR 150.00")) {
		t.Fatalf("receipt missing total:\n%s", rec.Body.String())
	}
}

func TestBillCommitEmptyBill(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	rec := client.do(http.MethodPost, "/api/v1/bill/commit", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty bill, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBillCommitInsufficientStockConflict(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	item := client.addItem("Brufen", "B2", "3", "25.00")
	rec := client.do(http.MethodPost, "/api/v1/bill/lines", map[string]string{"itemId": item.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d", rec.Code)
	}
	rec = client.do(http.MethodPatch, "/api/v1/bill/lines/"+item.ID, map[string]string{"quantity": "5"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set quantity: %d", rec.Code)
	}

	rec = client.do(http.MethodPost, "/api/v1/bill/commit", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBillCommitRejectsNegativeQuantity(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	item := client.addItem("Panadol", "B1", "10", "50.00")
	rec := client.do(http.MethodPost, "/api/v1/bill/lines", map[string]string{"itemId": item.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d", rec.Code)
	}
	// The builder accepts any quantity; commit must refuse it.
	rec = client.do(http.MethodPatch, "/api/v1/bill/lines/"+item.ID, map[string]string{"quantity": "-5"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set quantity: %d", rec.Code)
	}

	rec = client.do(http.MethodPost, "/api/v1/bill/commit", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative quantity, got %d %s", rec.Code, rec.Body.String())
	}

	rec = client.do(http.MethodGet, "/api/v1/inventory", nil)
	var body struct {
		Items []domain.InventoryItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := body.Items[0].Quantity.String(); got != "10" {
		t.Fatalf("stock must be unchanged, got %s", got)
	}
}

func TestDailyReportRejectsBadDate(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	rec := client.do(http.MethodGet, "/api/v1/reports/daily?date=28-08-2026", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRangeReportInvalidRange(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	start := domain.Today().String()
	end := domain.Today().AddDays(-3).String()
	rec := client.do(http.MethodGet, "/api/v1/reports/range?start="+start+"&end="+end, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecoveriesAndExpensesEndpoints(t *testing.T) {
	api := newTestAPI(t)
	client := newTestClient(t, api)

	rec := client.do(http.MethodPost, "/api/v1/recoveries", map[string]string{
		"amount": "150.00",
		"source": "Mr. Khan",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record recovery: %d %s", rec.Code, rec.Body.String())
	}

	rec = client.do(http.MethodPost, "/api/v1/expenses", map[string]string{
		"amount":   "80.00",
		"category": "utilities",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record expense: %d %s", rec.Code, rec.Body.String())
	}

	rec = client.do(http.MethodGet, "/api/v1/reports/daily", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("daily report: %d %s", rec.Code, rec.Body.String())
	}
	var summary domain.DailySummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got := summary.Net.StringFixed(2); got != "-230.00" {
		t.Fatalf("expected net -230.00, got %s", got)
	}
}

func TestLoginRateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "badpass",
	})

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last)
	}
}
