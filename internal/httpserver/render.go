package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	mw "github.com/sps-portfolio/portfolio-web/internal/middleware"
	"github.com/sps-portfolio/portfolio-web/internal/observability"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// renderer holds the parsed templates. In dev mode templates are reparsed
// from disk on each request.
type renderer struct {
	dev    bool
	dir    string
	cached *template.Template
}

func newRenderer(dev bool, dir string) (*renderer, error) {
	if dev && dir != "" {
		rd := &renderer{dev: true, dir: dir}
		if _, err := parseTemplates(os.DirFS(dir), dir); err != nil {
			return nil, err
		}
		return rd, nil
	}
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}
	t, err := parseTemplates(sub, "embedded templates")
	if err != nil {
		return nil, err
	}
	return &renderer{cached: t}, nil
}

func (rd *renderer) templates() (*template.Template, error) {
	if rd.dev {
		return parseTemplates(os.DirFS(rd.dir), rd.dir)
	}
	return rd.cached, nil
}

func parseTemplates(fsys fs.FS, origin string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"now": time.Now,
		"oob": withOOB,
	}
	// ParseFS patterns don't recurse, so walk for nested .tmpl files.
	var files []string
	if err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("httpserver: walk %s: %w", origin, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("httpserver: no templates found under %s", origin)
	}
	t, err := template.New("_root").Funcs(funcMap).ParseFS(fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("httpserver: parse templates: %w", err)
	}
	return t, nil
}

// render executes the named template into a buffer so a failure can still
// produce a clean 500.
func (a *app) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	log := observability.FromContext(r.Context())
	t, err := a.views.templates()
	if err != nil {
		log.Error("template parse failed", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "template parse error")
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error("template exec failed", zap.String("template", name), zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "template exec error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
