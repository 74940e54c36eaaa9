package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serve(t *testing.T, h http.Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, resp
}

func TestHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantBody   string
		wantChecks map[string]string
	}{
		{"liveness", nil, http.StatusOK, "ok", nil},
		{"all ok", map[string]Check{"redis": ok, "relay": nil}, http.StatusOK, "ok",
			map[string]string{"redis": "ok", "relay": "ok"}},
		{"one down", map[string]Check{"redis": down, "relay": ok}, http.StatusServiceUnavailable, "error",
			map[string]string{"redis": "error: connection refused", "relay": "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serve(t, Handler(tt.checks, time.Second, nil))
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantBody)
			}
			for k, want := range tt.wantChecks {
				if resp.Checks[k] != want {
					t.Errorf("checks[%q] = %q, want %q", k, resp.Checks[k], want)
				}
			}
		})
	}
}

func TestHandler_CheckTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	code, _ := serve(t, Handler(map[string]Check{"slow": slow}, 10*time.Millisecond, nil))
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}
