package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sps-portfolio/portfolio-web/internal/comments"
	"github.com/sps-portfolio/portfolio-web/internal/config"
	"github.com/sps-portfolio/portfolio-web/internal/content"
	"github.com/sps-portfolio/portfolio-web/internal/httpserver"
	"github.com/sps-portfolio/portfolio-web/internal/maps"
	"github.com/sps-portfolio/portfolio-web/internal/mode"
	"github.com/sps-portfolio/portfolio-web/internal/observability"
)

func main() {
	var (
		configPath string
		addr       string
	)
	flag.StringVar(&configPath, "config", config.DefaultFile, "YAML config file (optional)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	// DEV is honoured as a shorthand for PORTFOLIO_DEV
	cfg.Dev = cfg.Dev || os.Getenv("DEV") != ""
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	srv, err := buildServer(cfg, logger)
	if err != nil {
		logger.Fatal("build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("web listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Bool("dev", cfg.Dev),
		zap.Bool("comments_fake", cfg.Comments.BaseURL == ""),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}

func buildServer(cfg *config.Config, logger *zap.Logger) (*http.Server, error) {
	sections, err := loadSections(cfg)
	if err != nil {
		return nil, err
	}
	presenter, err := maps.NewPresenter()
	if err != nil {
		return nil, err
	}
	if cfg.Comments.BaseURL == "" {
		logger.Warn("comments.base_url not set; serving a logged-out comment board")
	}
	client := comments.NewClient(cfg.Comments.BaseURL, comments.WithTimeout(cfg.Comments.Timeout))

	return httpserver.New(httpserver.Config{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		RequestTimeout:    cfg.Server.RequestTimeout,

		Logger:   logger,
		Comments: client,
		Modes:    mode.NewController(mode.DefaultDarkStylesheet),
		Maps:     presenter,
		Sections: sections,

		DefaultLimit: cfg.Comments.DefaultLimit,
		MapsAPIKey:   cfg.Maps.APIKey,
		CookieSecure: cfg.Cookies.Secure,

		SiteName:        cfg.Site.Name,
		SiteURL:         cfg.Site.URL,
		SiteDescription: cfg.Site.Description,
		OwnerName:       cfg.Site.Owner,
		OwnerSameAs:     cfg.Site.SameAs,

		Dev:          cfg.Dev,
		TemplatesDir: cfg.TemplatesDir,
	})
}

// loadSections reads markdown from ContentDir in dev mode and falls back to
// the embedded copy otherwise.
func loadSections(cfg *config.Config) ([]content.Section, error) {
	if cfg.Dev && cfg.ContentDir != "" {
		return content.LoadDir(cfg.ContentDir)
	}
	return content.Embedded()
}
