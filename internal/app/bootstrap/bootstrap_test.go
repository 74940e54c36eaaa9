package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/internal/app/relay"
	"github.com/foliokit/contactd/internal/app/store"
	"github.com/foliokit/contactd/internal/domain/models"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	vals := config.AppConfigValues{}
	for _, k := range appKeys {
		vals[k.Name] = k.Default
	}
	vals["owner_name"] = "Owner"
	vals["owner_email"] = "owner@site.dev"
	vals["relay_service_id"] = "svc"
	vals["relay_template_id"] = "tpl"
	vals["relay_public_key"] = "pk"
	return appConfigFrom(vals)
}

func TestAppConfigFrom_Defaults(t *testing.T) {
	cfg := validAppConfig()
	if cfg.Relay.Provider != relay.ProviderEmailJS || cfg.StateBackend != "memory" {
		t.Errorf("provider/backend = %q/%q", cfg.Relay.Provider, cfg.StateBackend)
	}
	if cfg.Relay.Timeout != 30*time.Second || cfg.InFlightTTL != 2*time.Minute {
		t.Errorf("timeouts = %v/%v", cfg.Relay.Timeout, cfg.InFlightTTL)
	}
	if cfg.Motion.Style != "tween" || cfg.Motion.Duration != 1 || cfg.Motion.FormDelay != 0.2 || cfg.Motion.DecorDelay != 0.4 {
		t.Errorf("motion = %+v", cfg.Motion)
	}
	if cfg.Owner != (models.Identity{Name: "Owner", Email: "owner@site.dev"}) {
		t.Errorf("owner = %+v", cfg.Owner)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"owner email", func(c *AppConfig) { c.Owner.Email = "owner" }, "owner_email"},
		{"owner name", func(c *AppConfig) { c.Owner.Name = "" }, "owner_name"},
		{"emailjs ids", func(c *AppConfig) { c.Template.PublicKey = "" }, "relay_public_key"},
		{"smtp host", func(c *AppConfig) { c.Relay.Provider = relay.ProviderSMTP }, "smtp_host"},
		{"memory relay", func(c *AppConfig) { c.Relay.Provider = relay.ProviderMemory; c.Template.ServiceID = "" }, ""},
		{"bad provider", func(c *AppConfig) { c.Relay.Provider = "fax" }, "relay_provider"},
		{"bad backend", func(c *AppConfig) { c.StateBackend = "disk" }, "state_backend"},
		{"redis addr", func(c *AppConfig) { c.StateBackend = "redis"; c.Redis.Addr = "" }, "redis_addr"},
		{"redis valid", func(c *AppConfig) { c.StateBackend = "redis" }, ""},
		{"inflight ttl too short", func(c *AppConfig) {
			c.StateBackend = "redis"
			c.InFlightTTL = 45 * time.Second
		}, "inflight_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CONTACT_OWNER_NAME", "Owner")
	t.Setenv("CONTACT_OWNER_EMAIL", "owner@site.dev")
	t.Setenv("CONTACT_RELAY_PROVIDER", "memory")
	t.Setenv("CONTACT_MOTION_FORM_DELAY", "0.3")

	_, vals, err := config.LoadArgs(nil, nil, AppEnvPrefix, appKeys)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	cfg := appConfigFrom(vals)
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Relay.Provider != relay.ProviderMemory || cfg.Motion.FormDelay != 0.3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func testHandler(t *testing.T) (http.Handler, *relay.Memory) {
	t.Helper()
	mem := relay.NewMemory()
	cfg := validAppConfig()
	cfg.Relay.Provider = relay.ProviderMemory

	deps, err := Connect(context.Background(), &config.CoreConfig{BackendConnectTimeout: time.Second}, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = Shutdown(context.Background(), deps, zap.NewNop()) })
	deps.Relay = mem

	core := &config.CoreConfig{Env: "dev", MaxRequestBodyBytes: 64 << 10}
	h, err := BuildHandler(core, cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h, mem
}

func TestBuildHandler_Routes(t *testing.T) {
	h, _ := testHandler(t)

	tests := []struct {
		method, path string
		wantStatus   int
		wantBody     string
	}{
		{http.MethodGet, "/", http.StatusFound, ""},
		{http.MethodGet, "/contact", http.StatusOK, "Get in touch"},
		{http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/version", http.StatusOK, `"version"`},
		{http.MethodGet, "/metrics", http.StatusOK, ""},
		{http.MethodGet, "/static/contact.css", http.StatusOK, "slide-in"},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
		})
	}
}

func TestBuildHandler_JSONSubmit(t *testing.T) {
	h, mem := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/contact",
		strings.NewReader(`{"name":"Ada","email":"ada@x.io","message":"Hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	sent := mem.Sent()
	if len(sent) != 2 {
		t.Fatalf("sends = %d, want 2", len(sent))
	}
	if sent[0].Params["to_email"] != "owner@site.dev" || sent[1].Params["to_email"] != "ada@x.io" {
		t.Errorf("recipients = %q, %q", sent[0].Params["to_email"], sent[1].Params["to_email"])
	}
}

func TestConnect_MemoryBackend(t *testing.T) {
	cfg := validAppConfig()
	deps, err := Connect(context.Background(), &config.CoreConfig{}, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer Shutdown(context.Background(), deps, zap.NewNop())

	if deps.Memory == nil || deps.Redis != nil {
		t.Fatalf("deps = %+v", deps)
	}
	h := deps.Holders.Holder("v")
	_ = h.SetField(context.Background(), models.FieldName, "Ada")
	if got, _ := deps.Memory.Holder("v").Form(context.Background()); got.Name != "Ada" {
		t.Error("holder source and registry disagree")
	}
}

func TestWarmup_NeverFails(t *testing.T) {
	deps := Deps{Relay: relay.NewMemory(), Memory: store.NewMemoryRegistry(0)}
	if err := Warmup(context.Background(), &config.CoreConfig{}, validAppConfig(), deps, zap.NewNop()); err != nil {
		t.Errorf("Warmup: %v", err)
	}
}
