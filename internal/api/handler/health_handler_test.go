package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name   string
		checks []dependencyCheck
		code   int
		status string
	}{
		{"all healthy", []dependencyCheck{{"mongodb", ok}, {"redis", ok}}, http.StatusOK, "ok"},
		{"redis down", []dependencyCheck{{"mongodb", ok}, {"redis", down}}, http.StatusServiceUnavailable, "degraded"},
		{"mongo only", []dependencyCheck{{"mongodb", ok}}, http.StatusOK, "ok"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			h := &HealthDependenciesHandler{checks: tc.checks}
			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tc.status || len(resp.Dependencies) != len(tc.checks) {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}
