// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Engine holds the compiled page templates. It is immutable after Boot
// and safe for concurrent use.
type Engine struct {
	funcs  template.FuncMap
	base   *template.Template
	byName map[string]*template.Template
	logger *zap.Logger
}

// New returns an Engine with Funcs plus extra merged in.
func New(logger *zap.Logger, extra template.FuncMap) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := Funcs()
	for k, v := range extra {
		funcs[k] = v
	}
	return &Engine{funcs: funcs, byName: map[string]*template.Template{}, logger: logger}
}

// Boot compiles sets. Exactly one set must be named SharedSet.
func (e *Engine) Boot(sets ...Set) error {
	var pages []Set
	for _, s := range sets {
		if s.Name != SharedSet {
			pages = append(pages, s)
			continue
		}
		base, err := e.parseShared(s)
		if err != nil {
			return fmt.Errorf("parse shared: %w", err)
		}
		e.base = base
	}
	if e.base == nil {
		return fmt.Errorf("template set %q not registered", SharedSet)
	}
	for _, s := range pages {
		if err := e.compilePages(s); err != nil {
			return fmt.Errorf("compile set %q: %w", s.Name, err)
		}
	}
	return nil
}

func (e *Engine) parseShared(s Set) (*template.Template, error) {
	root := template.New("root").Funcs(e.funcs)
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		b, err := fs.ReadFile(s.FS, path)
		if err != nil {
			return nil, err
		}
		if _, err := root.Parse(string(b)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return root, nil
}

// compilePages gives every page file its own clone of the shared base, so
// each page can define "content" without clashing. The other files of the
// set are parsed into the clone too (their "content" renamed away) so pages
// can share partials. Only names a file defines itself are indexed to it.
func (e *Engine) compilePages(s Set) error {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		e.logger.Warn("no templates matched", zap.String("set", s.Name))
		return nil
	}

	sources := make(map[string]string, len(files))
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		sources[p] = string(b)
	}

	for _, page := range files {
		owned := defineNames(sources[page])
		delete(owned, "content")

		clone, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}
		for _, p := range files {
			text := sources[p]
			if p != page {
				text = reContentDefine.ReplaceAllString(text, `{{ define "`+ignoredContentName(p)+`" }}`)
			}
			if _, err := clone.Funcs(e.funcs).Parse(text); err != nil {
				return fmt.Errorf("parse %s (for %s): %w", p, page, err)
			}
		}
		for name := range owned {
			e.byName[name] = clone
		}
		e.logger.Debug("template page compiled",
			zap.String("set", s.Name), zap.String("page", filepath.Base(page)))
	}
	return nil
}

var (
	reContentDefine = regexp.MustCompile(`{{-?\s*define\s+"content"\s*-?}}`)
	reDefineName    = regexp.MustCompile(`{{-?\s*define\s+"([^"]+)"`)
)

func ignoredContentName(path string) string {
	base := filepath.Base(path)
	return "_content_ignored_" + strings.TrimSuffix(base, filepath.Ext(base))
}

func defineNames(src string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range reDefineName.FindAllStringSubmatch(src, -1) {
		out[g[1]] = struct{}{}
	}
	return out
}

func globAll(filesystem fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(filesystem, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Execute runs the named template (page entry or partial) into w. Output is
// buffered so a failing template writes nothing.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	return e.execute(w, name, name, data)
}

// ExecuteContent runs the "content" block of the page whose entry is entry.
func (e *Engine) ExecuteContent(w io.Writer, entry string, data any) error {
	return e.execute(w, entry, "content", data)
}

func (e *Engine) execute(w io.Writer, lookup, name string, data any) error {
	t, ok := e.byName[lookup]
	if !ok {
		return fmt.Errorf("template %q not found", lookup)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Has reports whether name was indexed by Boot.
func (e *Engine) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}
