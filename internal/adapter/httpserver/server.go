package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/catalog"
	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/internal/platform/config"
	"github.com/sbcarpet/showroom/internal/site"
	"github.com/sbcarpet/showroom/web"
)

// Deps are the collaborators the server wires into its handlers.
type Deps struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Relay    domain.MailRelay
	Clock    clockwork.Clock
	Registry *prometheus.Registry

	HTTPMetrics    *metrics.HTTPMetrics
	PageMetrics    *metrics.PageMetrics
	ContactMetrics *metrics.ContactMetrics

	HealthChecks []HealthCheck
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	catalog   *catalog.Catalog
	links     site.Links
	templates *template.Template

	relay      domain.MailRelay
	connLimits *ConnectionLimits
	upgrader   websocket.Upgrader

	registry       *prometheus.Registry
	httpMetrics    *metrics.HTTPMetrics
	pageMetrics    *metrics.PageMetrics
	contactMetrics *metrics.ContactMetrics

	healthChecks []HealthCheck
	startTime    time.Time

	// Page sessions outlive their upgrade request; they are bound to the server instead.
	sessionCtx    context.Context
	cancelSession context.CancelFunc
	sessions      sync.WaitGroup
}

var templateFuncs = template.FuncMap{
	// tel: links are built from config, never from request input.
	"safeURL": func(s string) template.URL { return template.URL(s) },
}

func NewServer(deps Deps) (*Server, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	cfg := deps.Config
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	registry := deps.Registry
	if registry == nil {
		registry = metrics.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	sessionCtx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		echo:      e,
		config:    cfg,
		clock:     clock,
		catalog:   deps.Catalog,
		templates: templates,
		links: site.NewLinks(site.Store{
			Address:         cfg.StoreAddress,
			Email:           cfg.StoreEmail,
			Telephone:       cfg.ContactNumber,
			WhatsAppNumber:  cfg.WhatsAppNumber,
			WhatsAppMessage: cfg.WhatsAppMessage,
		}),
		relay:      deps.Relay,
		connLimits: NewConnectionLimits(clock, int64(cfg.MaxPageSessions), cfg.MaxPageSessionsPerIP, cfg.PageSessionRate, cfg.PageSessionBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(cfg.AppURL, cfg.IsDevelopment()),
		},
		registry:       registry,
		httpMetrics:    deps.HTTPMetrics,
		pageMetrics:    deps.PageMetrics,
		contactMetrics: deps.ContactMetrics,
		healthChecks:   deps.HealthChecks,
		startTime:      clock.Now(),
		sessionCtx:     sessionCtx,
		cancelSession:  cancel,
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then ends every live page session and
// waits for them (and any submission they still run) within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.cancelSession()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("page sessions still open at shutdown: %w", ctx.Err())
	}
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
