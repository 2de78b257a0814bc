package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warimas/backoffice/internal/auth"
	"github.com/warimas/backoffice/internal/metrics"
)

const (
	testSecret = "test-secret"
	testTeam   = int64(7)
)

type harness struct {
	orders     *MockOrderService
	products   *MockProductService
	categories *MockCategoryService
	customers  *MockCustomerService
	audit      *MockAudit
	idem       *MockIdempotency

	router http.Handler
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		orders:     new(MockOrderService),
		products:   new(MockProductService),
		categories: new(MockCategoryService),
		customers:  new(MockCustomerService),
		audit:      new(MockAudit),
		idem:       new(MockIdempotency),
	}
	h.router = NewRouter(Deps{
		Orders:      h.orders,
		Products:    h.products,
		Categories:  h.categories,
		Customers:   h.customers,
		Audit:       h.audit,
		Idempotency: h.idem,
		JWTSecret:   testSecret,
	})

	token, err := auth.SignToken([]byte(testSecret), auth.Claims{UserID: 1, TeamID: testTeam, Role: "owner"}, time.Hour)
	require.NoError(t, err)
	h.token = token

	t.Cleanup(func() {
		h.orders.AssertExpectations(t)
		h.products.AssertExpectations(t)
		h.categories.AssertExpectations(t)
		h.customers.AssertExpectations(t)
		h.audit.AssertExpectations(t)
		h.idem.AssertExpectations(t)
	})
	return h
}

// do sends an authenticated request; headers are key/value pairs.
func (h *harness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router := NewRouter(Deps{Health: func(ctx context.Context) error { return nil }})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("database down", func(t *testing.T) {
		router := NewRouter(Deps{Health: func(ctx context.Context) error { return errors.New("dial tcp: refused") }})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewOrders()
	m.Created.Inc()
	router := NewRouter(Deps{Metrics: m})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]uint64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body["orders_created_total"])
}

func TestRouter_RequiresAuth(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Error.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/invoices", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_InvalidPathID(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/orders/abc", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
