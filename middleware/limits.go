// middleware/limits.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/httputil"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LimitBodySize caps request bodies at maxBytes. maxBytes <= 0 disables it.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return passThrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// CompressFromConfig enables gzip/deflate for text responses when
// enable_compression is set. The level is validated by config.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return passThrough
	}
	return middleware.Compress(coreCfg.CompressionLevel,
		"text/html", "text/css", "text/plain", "application/javascript", "application/json")
}

// CORSFromConfig applies the configured CORS policy, or nothing when
// enable_cors is false.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return passThrough
	}
	methods := coreCfg.CORS.CORSAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodPost, http.MethodOptions}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}

// RequireJSON answers 415 unless Content-Type is application/json or *+json.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if idx := strings.Index(ct, ";"); idx != -1 {
			ct = ct[:idx]
		}
		ct = strings.ToLower(strings.TrimSpace(ct))
		if ct != "application/json" && !strings.HasSuffix(ct, "+json") {
			httputil.JSONError(w, http.StatusUnsupportedMediaType,
				"unsupported_media_type", "Content-Type must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}
