// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/foliokit/contactd/config"
)

// SecurityHeadersOptions selects which security headers are sent.
// Empty strings (and HSTSMaxAge 0) disable the corresponding header.
type SecurityHeadersOptions struct {
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	HSTSMaxAge            int // seconds; only sent over TLS
	HSTSIncludeSubDomains bool
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions suits the server-rendered contact page:
// no framing, no sniffing, and no access to camera/mic/geolocation.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "SAMEORIGIN",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
	}
}

// SecurityHeaders sets the headers described by opts on every response.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := map[string]string{
		"X-Frame-Options":         opts.XFrameOptions,
		"X-Content-Type-Options":  opts.XContentTypeOptions,
		"Referrer-Policy":         opts.ReferrerPolicy,
		"Content-Security-Policy": opts.ContentSecurityPolicy,
		"Permissions-Policy":      opts.PermissionsPolicy,
	}
	hsts := ""
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range static {
				if value != "" {
					h.Set(name, value)
				}
			}
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig builds SecurityHeaders from CoreConfig. A nil
// config or enable_security_headers=false yields a pass-through middleware.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return passThrough
	}
	opts := DefaultSecurityHeadersOptions()
	opts.HSTSMaxAge = coreCfg.Security.HSTSMaxAge
	opts.ContentSecurityPolicy = coreCfg.Security.ContentSecurityPolicy
	return SecurityHeaders(opts)
}

func passThrough(next http.Handler) http.Handler { return next }
