// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is the environment prefix for core keys (CONTACTD_HTTP_PORT, ...).
const EnvPrefix = "CONTACTD"

// HTTPConfig groups listener ports and server timeouts.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// TLSConfig groups manual certificate and Let's Encrypt (http-01) settings.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
	Domain              string `mapstructure:"domain"`
}

// CORSConfig groups CORS behavior for the JSON submit API.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// SecurityConfig controls the security headers middleware.
type SecurityConfig struct {
	EnableSecurityHeaders bool   `mapstructure:"enable_security_headers"`
	ContentSecurityPolicy string `mapstructure:"content_security_policy"`
	HSTSMaxAge            int    `mapstructure:"hsts_max_age"`
}

// CoreConfig holds the service-level configuration shared by every route.
type CoreConfig struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	HTTP     HTTPConfig     `mapstructure:",squash"`
	TLS      TLSConfig      `mapstructure:",squash"`
	CORS     CORSConfig     `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`

	// BackendConnectTimeout bounds startup connections (redis, smtp dial checks).
	BackendConnectTimeout time.Duration `mapstructure:"-"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	EnableCompression   bool  `mapstructure:"enable_compression"`
	CompressionLevel    int   `mapstructure:"compression_level"`
}

// Dump returns a pretty JSON string of the config for debugging.
// CoreConfig carries no secrets; app keys are redacted separately.
func (c CoreConfig) Dump() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// durationKeys maps duration config keys to their defaults.
var durationKeys = map[string]time.Duration{
	"read_timeout":            15 * time.Second,
	"read_header_timeout":     10 * time.Second,
	"write_timeout":           60 * time.Second,
	"idle_timeout":            120 * time.Second,
	"shutdown_timeout":        15 * time.Second,
	"backend_connect_timeout": 10 * time.Second,
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into a
// CoreConfig and the app's own key set, reading flags from os.Args.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
func Load(logger *zap.Logger, appEnvPrefix string, keys []AppKey) (*CoreConfig, AppConfigValues, error) {
	return LoadArgs(logger, os.Args[1:], appEnvPrefix, keys)
}

// LoadArgs is Load with an explicit argument list. Each call uses its own
// flag set, so it can run repeatedly (tests).
func LoadArgs(logger *zap.Logger, args []string, appEnvPrefix string, keys []AppKey) (*CoreConfig, AppConfigValues, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 0) Optionally load .env (real env still wins over .env)
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	// 1) Flags (only explicitly set flags override)
	fs := pflag.NewFlagSet("contactd", pflag.ContinueOnError)
	registerCoreFlags(fs)
	if err := registerAppFlags(fs, keys); err != nil {
		return nil, nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	mergeConfigFiles(logger, v)

	// 4) Defaults
	setDefaults(v)

	// 5) Explicit flags
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed && !isAppKey(keys, f.Name) {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) Normalize list keys (accept JSON strings → []string)
	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
	); err != nil {
		return nil, nil, err
	}

	// 7) Build struct
	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unable to decode core config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	durs := make(map[string]time.Duration, len(durationKeys))
	for key, def := range durationKeys {
		d, err := parseDurationFlexible(v.Get(key), def)
		if err != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", key), zap.Any("value", v.Get(key)),
				zap.Duration("default", def), zap.Error(err))
		}
		durs[key] = d
	}
	cfg.HTTP.ReadTimeout = durs["read_timeout"]
	cfg.HTTP.ReadHeaderTimeout = durs["read_header_timeout"]
	cfg.HTTP.WriteTimeout = durs["write_timeout"]
	cfg.HTTP.IdleTimeout = durs["idle_timeout"]
	cfg.HTTP.ShutdownTimeout = durs["shutdown_timeout"]
	cfg.BackendConnectTimeout = durs["backend_connect_timeout"]

	// 8) Validate
	if err := validateCoreConfig(cfg); err != nil {
		return nil, nil, err
	}

	appVals := loadAppConfig(logger, v, fs, appEnvPrefix, keys)
	return &cfg, appVals, nil
}

func registerCoreFlags(fs *pflag.FlagSet) {
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "debug", "Log level")

	fs.Int("http_port", 8080, "HTTP port")
	fs.Int("https_port", 443, "HTTPS port")
	fs.Bool("use_https", false, "Serve HTTPS")

	fs.Bool("use_lets_encrypt", false, "Use Let's Encrypt (http-01)")
	fs.String("lets_encrypt_email", "", "ACME account e-mail")
	fs.String("lets_encrypt_cache_dir", "letsencrypt-cache", "ACME cache dir")
	fs.String("cert_file", "", "TLS cert file (manual TLS)")
	fs.String("key_file", "", "TLS key file (manual TLS)")
	fs.String("domain", "", "Domain for TLS or ACME")

	fs.String("read_timeout", "15s", "HTTP read timeout")
	fs.String("read_header_timeout", "10s", "HTTP read header timeout")
	fs.String("write_timeout", "60s", "HTTP write timeout")
	fs.String("idle_timeout", "120s", "HTTP idle timeout")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown window")
	fs.String("backend_connect_timeout", "10s", "Startup timeout for backend connections")

	fs.Bool("enable_compression", true, "Enable HTTP compression")
	fs.Int("compression_level", 5, "Compression level 1-9")

	fs.Bool("enable_cors", false, "Enable CORS on the JSON API")
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["POST"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Content-Type"]'`)
	fs.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	fs.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")

	fs.Bool("enable_security_headers", true, "Send security headers")
	fs.String("content_security_policy", "", "Content-Security-Policy header value")
	fs.Int("hsts_max_age", 31536000, "HSTS max-age seconds (0 disables)")

	fs.Int64("max_request_body_bytes", 64<<10, "Max HTTP request body size in bytes (0 = unlimited)")
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "https_port", "use_https",
		"use_lets_encrypt", "lets_encrypt_email", "lets_encrypt_cache_dir",
		"cert_file", "key_file", "domain",
		"read_timeout", "read_header_timeout", "write_timeout", "idle_timeout",
		"shutdown_timeout", "backend_connect_timeout",
		"enable_compression", "compression_level",
		"enable_cors", "cors_allowed_origins", "cors_allowed_methods",
		"cors_allowed_headers", "cors_allow_credentials", "cors_max_age",
		"enable_security_headers", "content_security_policy", "hsts_max_age",
		"max_request_body_bytes",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)

	v.SetDefault("use_lets_encrypt", false)
	v.SetDefault("lets_encrypt_email", "")
	v.SetDefault("lets_encrypt_cache_dir", "letsencrypt-cache")
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")
	v.SetDefault("domain", "")

	for key, def := range durationKeys {
		v.SetDefault(key, def.String())
	}

	v.SetDefault("enable_compression", true)
	v.SetDefault("compression_level", 5)

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)

	v.SetDefault("enable_security_headers", true)
	v.SetDefault("content_security_policy", "")
	v.SetDefault("hsts_max_age", 31536000)

	v.SetDefault("max_request_body_bytes", int64(64<<10))
}

func mergeConfigFiles(logger *zap.Logger, v *viper.Viper) {
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Info("loaded config file", zap.String("file", file))
	}
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
		default:
			logger.Warn("unexpected type for list key; expected JSON array/string",
				zap.String("key", key), zap.Any("value", t))
		}
	}
	return nil
}

func validateCoreConfig(cfg CoreConfig) error {
	var missing []string
	var invalid []string

	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}

	if cfg.TLS.UseLetsEncrypt && !cfg.HTTP.UseHTTPS {
		invalid = append(invalid, "use_lets_encrypt=true requires use_https=true")
	}
	if cfg.TLS.UseLetsEncrypt && (strings.TrimSpace(cfg.TLS.CertFile) != "" || strings.TrimSpace(cfg.TLS.KeyFile) != "") {
		invalid = append(invalid, "use_lets_encrypt=true cannot be combined with cert_file/key_file")
	}
	if cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.Domain) == "" {
			missing = append(missing, "CONTACTD_DOMAIN (or --domain) for Let's Encrypt")
		}
		if s := strings.TrimSpace(cfg.TLS.LetsEncryptEmail); s == "" {
			missing = append(missing, "CONTACTD_LETS_ENCRYPT_EMAIL (or --lets_encrypt_email)")
		} else if !strings.Contains(s, "@") {
			invalid = append(invalid, "lets_encrypt_email must look like an email address")
		}
	}
	if cfg.HTTP.UseHTTPS && !cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "CONTACTD_CERT_FILE and CONTACTD_KEY_FILE (or --cert_file/--key_file) for manual TLS")
		}
	}

	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS && cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
		invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
	}

	if cfg.EnableCompression && (cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9) {
		invalid = append(invalid, "compression_level must be in 1..9")
	}

	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `CORS: cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	if cfg.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("core configuration errors: %s", strings.Join(parts, " | "))
}
