// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/health"
	"github.com/foliokit/contactd/httputil"
	"github.com/foliokit/contactd/internal/app/features/contact"
	"github.com/foliokit/contactd/internal/app/resources"
	"github.com/foliokit/contactd/internal/app/store"
	"github.com/foliokit/contactd/internal/app/visitor"
	"github.com/foliokit/contactd/metrics"
	"github.com/foliokit/contactd/middleware"
	"github.com/foliokit/contactd/router"
	"github.com/foliokit/contactd/templates"
	"github.com/foliokit/contactd/version"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// BuildHandler assembles the router: operational endpoints, static assets
// and the contact feature behind the visitor cookie.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	httputil.SetJSONLogger(logger)

	engine := templates.New(logger, nil)
	if err := engine.Boot(resources.SharedSet(), contact.TemplateSet()); err != nil {
		return nil, fmt.Errorf("boot templates: %w", err)
	}

	submitter := contact.NewSubmitter(deps.Relay, appCfg.Template, appCfg.Owner, logger)
	h := contact.NewHandler(deps.Holders, submitter, engine, appCfg.Motion, appCfg.SiteTitle, logger)

	r := router.New(coreCfg, logger)

	checks := map[string]health.Check{}
	if deps.Redis != nil {
		checks["redis"] = store.HealthCheck(deps.Redis)
	}
	health.Mount(r, checks, healthCheckTimeout, logger)
	version.Mount(r)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", resources.StaticHandler()))

	r.Group(func(r chi.Router) {
		r.Use(visitor.Middleware(appCfg.StateTTL, coreCfg.HTTP.UseHTTPS))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/contact", http.StatusFound)
		})
		r.Mount("/contact", contact.Routes(h))
		r.Mount("/api/contact", contact.APIRoutes(h, middleware.CORSFromConfig(coreCfg)))
	})

	logger.Info("routes mounted",
		zap.String("relay", appCfg.Relay.Provider),
		zap.String("state_backend", appCfg.StateBackend),
		zap.String("version", version.String()))
	return r, nil
}
