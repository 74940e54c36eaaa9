// templates/render.go
package templates

import (
	"net/http"

	"go.uber.org/zap"
)

// Render writes a full page as text/html with the given status.
func (e *Engine) Render(w http.ResponseWriter, status int, page string, data any) {
	e.write(w, status, page, func(w http.ResponseWriter) error { return e.Execute(w, page, data) })
}

// RenderSnippet writes a partial (an htmx swap target) as text/html.
func (e *Engine) RenderSnippet(w http.ResponseWriter, status int, name string, data any) {
	e.write(w, status, name, func(w http.ResponseWriter) error { return e.Execute(w, name, data) })
}

// RenderAuto picks what to write from the htmx request headers: a snippet
// mapped from HX-Target, the page's content block when HX-Target is
// "content", and the full page otherwise.
func (e *Engine) RenderAuto(w http.ResponseWriter, r *http.Request, status int, page string, targets map[string]string, data any) {
	if r.Header.Get("HX-Request") != "" {
		target := r.Header.Get("HX-Target")
		if snip, ok := targets[target]; ok && snip != "" {
			e.RenderSnippet(w, status, snip, data)
			return
		}
		if target == "content" {
			e.write(w, status, page, func(w http.ResponseWriter) error { return e.ExecuteContent(w, page, data) })
			return
		}
	}
	e.Render(w, status, page, data)
}

type bufferedWriter struct {
	http.ResponseWriter
	body []byte
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.body = append(b.body, p...)
	return len(p), nil
}

func (e *Engine) write(w http.ResponseWriter, status int, name string, run func(http.ResponseWriter) error) {
	buf := &bufferedWriter{ResponseWriter: w}
	if err := run(buf); err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.body)
}
