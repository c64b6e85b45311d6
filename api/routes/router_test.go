package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "test-secret", Issuer: "restaurant-server-test", ExpirationMinutes: 30}
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
	return NewRouter(cfg, logg, nil, nil, prometheus.NewRegistry(), Services{})
}

func TestHealthLiveRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Resto-Env") != "test" {
		t.Fatalf("env header missing")
	}
}

func TestMetricsRouteExposed(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	paths := []string{
		"/api/v1/admin/reservations/",
		"/api/v1/admin/menu/",
		"/api/v1/admin/posts/",
		"/api/v1/admin/media/",
		"/api/v1/admin/payments",
	}
	router := testRouter(t)
	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestMpesaWebhookAlwaysAcks(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mpesa", strings.NewReader("not json"))
	testRouter(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook must ack with 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ResultCode":0`) {
		t.Fatalf("unexpected ack body: %s", rec.Body.String())
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
