package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/service"
)

const testSecret = "handler-test-secret-with-32-characters!!"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Platform: config.PlatformConfig{
			URL:            "https://platform.example.com",
			AnonKey:        "anon-key",
			ServiceRoleKey: "service-role-key",
			JWTSecret:      testSecret,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}, MaxAge: time.Hour},
	}
}

func newTestRouter(checks ...Check) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(testConfig(), Services{}, NewHealthHandler(checks...), logger)
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		Email:       "ada@example.com",
		AppMetadata: middleware.AppMetadata{Role: role},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func serve(r http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&service.ValidationError{Field: "quantity", Message: "must be at least 1"}, http.StatusBadRequest},
		{service.ErrEmptyCart, http.StatusBadRequest},
		{service.ErrOrderAccessDenied, http.StatusForbidden},
		{service.ErrProductNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", service.ErrOrderNotFound), http.StatusNotFound},
		{service.ErrCustomerNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: pending -> delivered", service.ErrInvalidTransition), http.StatusConflict},
		{service.ErrStatusUnchanged, http.StatusConflict},
		{service.ErrCategoryInUse, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError(t *testing.T) {
	r := gin.New()
	r.GET("/validation", func(c *gin.Context) {
		respondError(c, &service.ValidationError{Field: "coupon_code", Message: "unknown coupon"})
	})
	r.GET("/internal", func(c *gin.Context) {
		respondError(c, errors.New("pq: password authentication failed"))
	})

	w := serve(r, http.MethodGet, "/validation", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorResponse{Error: "unknown coupon", Field: "coupon_code"}, resp)

	w = serve(r, http.MethodGet, "/internal", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRouter_Health(t *testing.T) {
	healthy := Check{Name: "postgres", Ping: func(context.Context) error { return nil }}
	broken := Check{Name: "redis", Ping: func(context.Context) error { return errors.New("dial tcp") }}

	assert.Equal(t, http.StatusOK, serve(newTestRouter(healthy, broken), http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(newTestRouter(healthy), http.MethodGet, "/readyz", "", "").Code)

	w := serve(newTestRouter(healthy, broken), http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
	assert.Contains(t, w.Body.String(), `"postgres":"connected"`)
}

func TestRouter_ClientConfigHidesServiceRoleKey(t *testing.T) {
	w := serve(newTestRouter(), http.MethodGet, "/api/v1/client-config", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ClientConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://platform.example.com", resp.URL)
	assert.Equal(t, "anon-key", resp.AnonKey)
	assert.NotContains(t, w.Body.String(), "service-role-key")
}

func TestRouter_AuthGates(t *testing.T) {
	r := newTestRouter()
	customer := token(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		want   int
	}{
		{"cart needs a token", http.MethodGet, "/api/v1/cart", "", http.StatusUnauthorized},
		{"orders need a token", http.MethodPost, "/api/v1/orders", "", http.StatusUnauthorized},
		{"admin needs a token", http.MethodGet, "/api/v1/admin/dashboard", "", http.StatusUnauthorized},
		{"customers are not admins", http.MethodGet, "/api/v1/admin/dashboard", customer, http.StatusForbidden},
		{"customers cannot change order status", http.MethodPatch, "/api/v1/admin/orders/" + uuid.NewString() + "/status", customer, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(r, tt.method, tt.path, tt.bearer, "").Code)
		})
	}
}

func TestRouter_RejectsMalformedInput(t *testing.T) {
	r := newTestRouter()
	customer := token(t, "")
	admin := token(t, "admin")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   string
	}{
		{"product id", http.MethodGet, "/api/v1/products/not-a-uuid", "", ""},
		{"product list sort", http.MethodGet, "/api/v1/products?sort=random", "", ""},
		{"cart item without product", http.MethodPost, "/api/v1/cart/items", customer, `{}`},
		{"cart quantity below one", http.MethodPut, "/api/v1/cart/items/" + uuid.NewString(), customer, `{"quantity":0}`},
		{"cart item id", http.MethodDelete, "/api/v1/cart/items/42", customer, ""},
		{"presence ids", http.MethodGet, "/api/v1/presence?product_ids=abc", customer, ""},
		{"address type", http.MethodPost, "/api/v1/addresses", customer, `{"type":"pickup"}`},
		{"order id", http.MethodGet, "/api/v1/orders/xyz", customer, ""},
		{"order body", http.MethodPost, "/api/v1/orders", customer, `{"shipping_address_id":`},
		{"admin order filter", http.MethodGet, "/api/v1/admin/orders?status=lost", admin, ""},
		{"admin status body", http.MethodPatch, "/api/v1/admin/orders/" + uuid.NewString() + "/status", admin, `{}`},
		{"admin product slug", http.MethodPost, "/api/v1/admin/products", admin, `{"name":"Mug","slug":"m","price":"1.00"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.bearer, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestRouter_EchoesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}
