package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	r.OPTIONS("/healthz", h.Health)
	r.POST("/healthz", h.Health)
	return r
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestHealth_GET(t *testing.T) {
	t.Parallel()

	router := setupRouter(NewHealthHandler(nil))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response healthBody
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", response.Status)
	}
	if response.Checks != nil {
		t.Errorf("expected no checks, got %v", response.Checks)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expected Cache-Control 'no-store', got %q", w.Header().Get("Cache-Control"))
	}
}

func TestHealth_ResponseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method         string
		expectedStatus int
		expectBody     bool
	}{
		{http.MethodGet, http.StatusOK, true},
		{http.MethodHead, http.StatusOK, false},
		{http.MethodOptions, http.StatusNoContent, false},
		{http.MethodPost, http.StatusOK, true},
	}

	router := setupRouter(NewHealthHandler(nil))

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/healthz", nil)

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if got := w.Body.Len() > 0; got != tt.expectBody {
				t.Errorf("expected body=%v, got %d bytes", tt.expectBody, w.Body.Len())
			}
			if w.Header().Get("Cache-Control") != "no-store" {
				t.Errorf("expected Cache-Control 'no-store', got %q", w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestHealth_Checks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name: "all checks pass",
			checks: map[string]CheckFunc{
				"redis": func(ctx context.Context) error { return nil },
			},
			wantStatus: "ok",
			wantChecks: map[string]string{"redis": "ok"},
		},
		{
			name: "failing check degrades",
			checks: map[string]CheckFunc{
				"redis": func(ctx context.Context) error { return errors.New("connection refused") },
				"db":    func(ctx context.Context) error { return nil },
			},
			wantStatus: "degraded",
			wantChecks: map[string]string{"redis": "connection refused", "db": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := setupRouter(NewHealthHandler(tt.checks))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			var response healthBody
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, response.Status)
			}
			for k, v := range tt.wantChecks {
				if response.Checks[k] != v {
					t.Errorf("check %s: expected %q, got %q", k, v, response.Checks[k])
				}
			}
		})
	}
}

func TestRedisCheck(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectPing().SetVal("PONG")
	mock.ExpectPing().SetErr(errors.New("redis down"))

	check := RedisCheck(rdb)
	if err := check(context.Background()); err != nil {
		t.Errorf("expected healthy redis, got %v", err)
	}
	if err := check(context.Background()); err == nil {
		t.Error("expected error from failing redis")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}
