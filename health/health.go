// health/health.go
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/foliokit/contactd/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check probes one dependency and returns nil when it is healthy.
type Check func(ctx context.Context) error

// Response is the body written by Handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler runs every check on each request, each bounded by timeout.
// With no checks it is a plain liveness probe. Any failing check turns the
// response into 503 {"status":"error"}.
func Handler(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(names) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		resp := Response{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := run(r.Context(), checks[name], timeout); err != nil {
				resp.Status = "error"
				resp.Checks[name] = "error: " + err.Error()
				status = http.StatusServiceUnavailable
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	})
}

func run(ctx context.Context, check Check, timeout time.Duration) error {
	if check == nil {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return check(ctx)
}

// Mount attaches GET /health.
func Mount(r chi.Router, checks map[string]Check, timeout time.Duration, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, timeout, logger))
}
