package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadArgs_Defaults(t *testing.T) {
	cfg, vals, err := LoadArgs(nil, nil, "CONTACT", nil)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want %q", cfg.Env, "dev")
	}
	if cfg.HTTP.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTP.HTTPPort)
	}
	if cfg.HTTP.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.HTTP.ShutdownTimeout)
	}
	if cfg.MaxRequestBodyBytes != 64<<10 {
		t.Errorf("MaxRequestBodyBytes = %d, want %d", cfg.MaxRequestBodyBytes, 64<<10)
	}
	if len(vals) != 0 {
		t.Errorf("app values = %v, want empty", vals)
	}
}

func TestLoadArgs_EnvAndFlagPrecedence(t *testing.T) {
	t.Setenv("CONTACTD_HTTP_PORT", "9090")
	t.Setenv("CONTACTD_LOG_LEVEL", "WARN")
	t.Setenv("CONTACTD_SHUTDOWN_TIMEOUT", "30")

	cfg, _, err := LoadArgs(nil, []string{"--http_port=9191"}, "CONTACT", nil)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	if cfg.HTTP.HTTPPort != 9191 {
		t.Errorf("HTTPPort = %d, want flag value 9191", cfg.HTTP.HTTPPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.HTTP.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoadArgs_AppKeys(t *testing.T) {
	keys := []AppKey{
		{Name: "relay_service_id", Default: "", Desc: "service"},
		{Name: "relay_public_key", Default: "", Desc: "key", Secret: true},
		{Name: "redis_db", Default: 0, Desc: "db"},
		{Name: "relay_timeout", Default: "30s", Desc: "timeout"},
	}
	t.Setenv("CONTACT_RELAY_SERVICE_ID", "service_env")
	t.Setenv("CONTACT_REDIS_DB", "3")

	_, vals, err := LoadArgs(nil, []string{"--relay_public_key=pk_flag"}, "CONTACT", keys)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	if got := vals.String("relay_service_id"); got != "service_env" {
		t.Errorf("relay_service_id = %q, want %q", got, "service_env")
	}
	if got := vals.String("relay_public_key"); got != "pk_flag" {
		t.Errorf("relay_public_key = %q, want %q", got, "pk_flag")
	}
	if got := vals.Int("redis_db"); got != 3 {
		t.Errorf("redis_db = %d, want 3", got)
	}
	if got := vals.Duration("relay_timeout", time.Second); got != 30*time.Second {
		t.Errorf("relay_timeout = %v, want 30s", got)
	}
}

func TestLoadArgs_RejectsConflictingAppKey(t *testing.T) {
	keys := []AppKey{{Name: "http_port", Default: 1}}
	if _, _, err := LoadArgs(nil, nil, "CONTACT", keys); err == nil {
		t.Fatal("expected conflict error for app key shadowing a core flag")
	}
}

func TestValidateCoreConfig(t *testing.T) {
	base := CoreConfig{
		Env:               "dev",
		HTTP:              HTTPConfig{HTTPPort: 8080, HTTPSPort: 443},
		EnableCompression: true,
		CompressionLevel:  5,
	}

	tests := []struct {
		name    string
		mutate  func(*CoreConfig)
		wantErr string
	}{
		{"valid", func(*CoreConfig) {}, ""},
		{"bad env", func(c *CoreConfig) { c.Env = "staging" }, "env must be"},
		{"lets encrypt without https", func(c *CoreConfig) {
			c.TLS.UseLetsEncrypt = true
			c.TLS.Domain = "example.com"
			c.TLS.LetsEncryptEmail = "ops@example.com"
		}, "requires use_https"},
		{"manual tls missing files", func(c *CoreConfig) { c.HTTP.UseHTTPS = true }, "CONTACTD_CERT_FILE"},
		{"port out of range", func(c *CoreConfig) { c.HTTP.HTTPPort = 70000 }, "http_port must be"},
		{"compression level", func(c *CoreConfig) { c.CompressionLevel = 12 }, "compression_level"},
		{"cors wildcard with credentials", func(c *CoreConfig) {
			c.CORS.EnableCORS = true
			c.CORS.CORSAllowedOrigins = []string{"*"}
			c.CORS.CORSAllowCredentials = true
		}, `cannot use "*"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := validateCoreConfig(cfg)
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

func TestParseDurationFlexible(t *testing.T) {
	def := 7 * time.Second
	tests := []struct {
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"90s", 90 * time.Second, false},
		{"120", 120 * time.Second, false},
		{"0.5", 500 * time.Millisecond, false},
		{"", def, false},
		{"soon", def, true},
		{"-1s", def, true},
		{30, 30 * time.Second, false},
		{int64(2), 2 * time.Second, false},
		{1.5, 1500 * time.Millisecond, false},
		{time.Minute, time.Minute, false},
		{nil, def, false},
		{true, def, false},
	}
	for _, tt := range tests {
		got, err := parseDurationFlexible(tt.raw, def)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDurationFlexible(%v) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseDurationFlexible(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestAppConfigValues_Accessors(t *testing.T) {
	vals := AppConfigValues{
		"s":     "x",
		"i64":   int64(4),
		"bstr":  "true",
		"slice": `["a","b"]`,
	}
	if vals.String("s") != "x" {
		t.Errorf("String = %q", vals.String("s"))
	}
	if vals.Int("i64") != 4 {
		t.Errorf("Int = %d", vals.Int("i64"))
	}
	if !vals.Bool("bstr") {
		t.Error("Bool(\"true\") = false")
	}
	if got := vals.StringSlice("slice"); len(got) != 2 || got[1] != "b" {
		t.Errorf("StringSlice = %v", got)
	}
	if vals.String("missing") != "" || vals.Int("missing") != 0 || vals.Bool("missing") {
		t.Error("missing keys should return zero values")
	}
}
