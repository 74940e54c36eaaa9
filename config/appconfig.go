// config/appconfig.go
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares one application configuration key. The loader reads it
// from config files, the environment (uppercased, app prefix) and flags.
type AppKey struct {
	// Name is used as-is for config files and flags ("relay_service_id").
	// The env var is PREFIX_NAME uppercased (CONTACT_RELAY_SERVICE_ID).
	Name string

	// Default value. Supported types: string, int, int64, bool, []string.
	Default any

	// Desc is shown in --help output.
	Desc string

	// Secret keys are redacted when the loaded values are logged.
	Secret bool
}

// AppConfigValues holds loaded app configuration values keyed by AppKey.Name.
type AppConfigValues map[string]any

// String returns a string value or "" if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// Int returns an int value or 0. Viper hands back ints as int, int64 or
// strings depending on the source, so all three are accepted.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscan(strings.TrimSpace(v), &n); err == nil {
			return n
		}
	}
	return 0
}

// Bool returns a bool value or false. Env values arrive as strings.
func (a AppConfigValues) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "yes", "on":
			return true
		}
	}
	return false
}

// StringSlice returns a []string value or nil. JSON array strings are decoded.
func (a AppConfigValues) StringSlice(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return arr
		}
		return []string{s}
	}
	return nil
}

// Duration parses a duration value ("10m", "90s", or plain seconds).
// Returns def when the key is missing, empty, or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig resolves app keys with the same precedence as the core
// config: flags > env > config files > defaults.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) AppConfigValues {
	result := make(AppConfigValues, len(keys))
	if len(keys) == 0 {
		return result
	}

	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)
		_ = appV.BindEnv(key.Name)

		// config files are merged into the core viper instance
		if v.IsSet(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}

		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	for _, key := range keys {
		result[key.Name] = appV.Get(key.Name)
	}

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		if key.Secret || looksSecret(key.Name) {
			if result.String(key.Name) == "" {
				fields = append(fields, zap.String(key.Name, ""))
			} else {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			}
			continue
		}
		fields = append(fields, zap.Any(key.Name, result[key.Name]))
	}
	logger.Info("app config loaded", fields...)

	return result
}

func looksSecret(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "secret") ||
		strings.Contains(n, "password") ||
		strings.Contains(n, "token") ||
		strings.HasSuffix(n, "_key")
}

// registerAppFlags registers a flag for every app key. Must run before Parse.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case []string:
			fs.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}

func isAppKey(keys []AppKey, name string) bool {
	for _, k := range keys {
		if k.Name == name {
			return true
		}
	}
	return false
}
