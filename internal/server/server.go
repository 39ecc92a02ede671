// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the citation API over HTTP. Every endpoint is a
// function returning a response.Response or a classified error; one
// wrapper turns both into the HTTP answer.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/cite-engine/internal/citation"
	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/export"
	"github.com/pdiddy/cite-engine/internal/format"
	"github.com/pdiddy/cite-engine/internal/library"
	"github.com/pdiddy/cite-engine/internal/resolve"
	"github.com/pdiddy/cite-engine/internal/selector"
	"github.com/pdiddy/cite-engine/internal/stylepool"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server wires the library, resolvers, style engines and exporters behind
// the HTTP routes.
type Server struct {
	cfg     types.ServerConfig
	logger  *slog.Logger
	version string

	store      *library.Store
	pane       *library.Pane
	styles     *citeproc.Registry
	dispatcher *selector.Dispatcher
	citations  *citation.Service
	formatter  *format.Formatter

	engine *gin.Engine
}

// New builds a Server over store. styles supplies the installed citation
// styles and locales.
func New(cfg types.Config, store *library.Store, styles *citeproc.Registry, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	resolver := resolve.New(store, cfg.Resolver.MaxConcurrency)
	pane := library.NewPane()
	pool := stylepool.New(func(styleURL, locale string) (citeproc.Engine, error) {
		return styles.NewEngine(styleURL, locale, store)
	}, cfg.Styles, stylepool.WithLocaleResolver(styles.CanonicalLocale))

	s := &Server{
		cfg:        cfg.Server,
		logger:     logger,
		version:    version,
		store:      store,
		pane:       pane,
		styles:     styles,
		dispatcher: selector.New(resolver, store, pane),
		citations:  citation.New(resolver, pool),
		formatter:  format.New(export.NewRegistry(cfg.Exporters), pool),
	}

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.recovery())
	if cfg.Server.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Requested-With"}
		s.engine.Use(cors.New(corsConfig))
	}
	s.setupRoutes()
	return s
}

// Pane returns the selection pane shared by /select and /items?selected.
func (s *Server) Pane() *library.Pane {
	return s.pane
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	if s.cfg.EnableMetrics {
		s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := s.engine.Group(strings.TrimRight(s.cfg.BasePath, "/"))
	{
		api.GET("/items", s.handle("items", s.handleItems))
		api.GET("/search", s.handle("search", s.handleSearch))
		api.GET("/complete", s.handle("complete", s.handleComplete))
		api.POST("/bibliography", s.handle("bibliography", s.handleBibliography))
		api.GET("/select", s.handle("select", s.handleSelect))
		api.GET("/version", s.handle("version", s.handleVersion))
		api.GET("/locales", s.handle("locales", s.handleLocales))
		api.GET("/styles", s.handle("styles", s.handleStyles))
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	host := s.cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := s.cfg.Port
	if port == 0 {
		port = 23119
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr, "base_path", s.cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("serving on %s: %w", srv.Addr, err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errc
}
