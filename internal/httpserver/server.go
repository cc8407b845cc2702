package httpserver

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sps-portfolio/portfolio-web/internal/comments"
	"github.com/sps-portfolio/portfolio-web/internal/content"
	"github.com/sps-portfolio/portfolio-web/internal/maps"
	mw "github.com/sps-portfolio/portfolio-web/internal/middleware"
	"github.com/sps-portfolio/portfolio-web/internal/mode"
	"github.com/sps-portfolio/portfolio-web/internal/nav"
	"github.com/sps-portfolio/portfolio-web/internal/seo"
	"github.com/sps-portfolio/portfolio-web/public"
)

// Config wires the server to its collaborators. Zero durations disable the
// corresponding timeout.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration

	Logger   *zap.Logger
	Comments comments.Backend
	Modes    *mode.Controller
	Maps     *maps.Presenter
	Sections []content.Section
	Assets   fs.FS

	DefaultLimit int
	MapsAPIKey   string
	CookieSecure bool

	SiteName        string
	SiteURL         string
	SiteDescription string
	OwnerName       string
	OwnerSameAs     []string

	// Dev reparses templates from TemplatesDir on every request.
	Dev          bool
	TemplatesDir string
}

// New builds the HTTP server for cfg.
func New(cfg Config) (*http.Server, error) {
	h, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}, nil
}

// NewHandler builds the router with every route and middleware mounted.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Comments == nil {
		return nil, errors.New("httpserver: comments backend is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Modes == nil {
		cfg.Modes = mode.NewController(mode.DefaultDarkStylesheet)
	}
	if cfg.Maps == nil {
		p, err := maps.NewPresenter()
		if err != nil {
			return nil, err
		}
		cfg.Maps = p
	}
	if cfg.Assets == nil {
		assets, err := public.AssetsFS()
		if err != nil {
			return nil, err
		}
		cfg.Assets = assets
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > comments.MaxLimit {
		cfg.DefaultLimit = comments.DefaultLimit
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Portfolio"
	}

	views, err := newRenderer(cfg.Dev, cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}

	a := &app{
		views:        views,
		sync:         comments.NewSync(cfg.Comments),
		modes:        cfg.Modes,
		maps:         cfg.Maps,
		sections:     cfg.Sections,
		nav:          nav.Build(cfg.Sections),
		meta:         buildMeta(cfg),
		defaultLimit: cfg.DefaultLimit,
		mapsAPIKey:   cfg.MapsAPIKey,
		cookies:      mode.CookieOptions{Secure: cfg.CookieSecure},
		siteName:     cfg.SiteName,
		ownerName:    cfg.OwnerName,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	r.Use(chimw.RealIP)
	r.Use(mw.HTMX)
	r.Use(mw.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(cfg.Assets)))

	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF(cfg.CookieSecure))
		r.Get("/", a.home)
		r.Get("/comments", a.commentsFragment)
		r.Post("/comments", a.createComment)
		r.Post("/comments/delete", a.deleteComment)
		r.Post("/mode/toggle", a.toggleMode)
	})
	return r, nil
}

func buildMeta(cfg Config) seo.Meta {
	title := cfg.SiteName
	if cfg.OwnerName != "" {
		title = cfg.OwnerName + " | " + cfg.SiteName
	}
	m := seo.Meta{
		Title:       title,
		Description: cfg.SiteDescription,
		Canonical:   cfg.SiteURL,
		JSONLD:      []template.JS{seo.Script(seo.WebSite(cfg.SiteName, cfg.SiteURL))},
	}
	if cfg.OwnerName != "" {
		m.JSONLD = append(m.JSONLD, seo.Script(seo.Person(cfg.OwnerName, cfg.SiteURL, cfg.OwnerSameAs)))
	}
	return m
}
