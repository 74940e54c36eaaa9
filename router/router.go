// router/router.go
package router

import (
	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/logging"
	"github.com/foliokit/contactd/metrics"
	"github.com/foliokit/contactd/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New returns a chi.Router with the standard middleware stack applied:
// request id, real ip, panic recovery, security headers, body limit,
// compression, metrics and access logging. 404/405 go through the
// content-negotiating handlers. Routes are mounted by the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(middleware.CompressFromConfig(coreCfg))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
