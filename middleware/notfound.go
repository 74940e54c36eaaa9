// middleware/notfound.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/foliokit/contactd/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler logs a 404. API paths and JSON clients get a JSON body,
// browsers get plain text.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return statusHandler(logger, http.StatusNotFound, "not_found",
		"The requested resource was not found")
}

// MethodNotAllowedHandler is the 405 counterpart of NotFoundHandler.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return statusHandler(logger, http.StatusMethodNotAllowed, "method_not_allowed",
		"The requested HTTP method is not allowed for this resource")
}

func statusHandler(logger *zap.Logger, status int, code, message string) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info(code,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_ip", r.RemoteAddr),
		)
		if wantsJSON(r) {
			httputil.JSONError(w, status, code, message)
			return
		}
		http.Error(w, message, status)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
