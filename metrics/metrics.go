// metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
	},
	[]string{"path", "method", "status"},
)

// RegisterDefault registers the Go runtime and process collectors, the HTTP
// histogram and the contact-form collectors. Safe to call more than once;
// any other registration failure is fatal.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "contact submissions counter", submissions)
	mustRegister(logger, "relay send histogram", relaySends)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	err := prometheus.Register(c)
	if err == nil {
		return
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return
	}
	if logger != nil {
		logger.Fatal("failed to register "+name, zap.Error(err))
	}
	panic("metrics: failed to register " + name + ": " + err.Error())
}

// maxPathLabelLength caps the path label to keep cardinality bounded.
const maxPathLabelLength = 256

// HTTPMetrics records request duration labelled by chi route pattern,
// method and status. Place it after the recoverer.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		major := r.ProtoMajor
		if major < 1 {
			major = 1
		}
		ww := middleware.NewWrapResponseWriter(w, major)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}

		reqDuration.WithLabelValues(
			routeLabel(r),
			r.Method,
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())
	})
}

// routeLabel prefers the chi pattern ("/contact/field/{field}") over the raw path.
func routeLabel(r *http.Request) string {
	path := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			path = pattern
		}
	}
	if len(path) > maxPathLabelLength {
		path = truncateUTF8(path, maxPathLabelLength-3) + "..."
	}
	return path
}

// Handler exposes the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
