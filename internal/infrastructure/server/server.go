package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	echoSwagger "github.com/swaggo/echo-swagger"

	// Registers the generated OpenAPI document served under /swagger
	_ "github.com/notesweb/core/docs"

	httpHandlers "github.com/notesweb/core/internal/adapters/http"
	"github.com/notesweb/core/internal/adapters/markdown"
	"github.com/notesweb/core/internal/adapters/repository"
	"github.com/notesweb/core/internal/application/services"
	"github.com/notesweb/core/internal/application/templates"
	"github.com/notesweb/core/internal/infrastructure/config"
	"github.com/notesweb/core/internal/infrastructure/logger"
	"github.com/notesweb/core/internal/infrastructure/metrics"
	"github.com/notesweb/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	notes   ports.NoteRepository
	pages   *templates.Templater
	metrics *metrics.Metrics
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance. Notes and static assets are read from fs.
func New(cfg *config.Config, fs afero.Fs, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	pages, err := NewTemplater(cfg.Page)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	noteRepo := repository.NewNoteRepository(fs, cfg.Notes.Root, cfg.Notes.Extension)

	renderer := NewRenderer(cfg.Markdown)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		notes:  noteRepo,
		pages:  pages,
	}

	// A nil *metrics.Metrics must not reach the services as a non-nil interface
	var noteMetrics ports.NoteMetrics
	if cfg.Metrics.Enabled {
		server.metrics = metrics.New()
		noteMetrics = server.metrics
	}

	// Initialize services
	noteService := services.NewNoteService(noteRepo, renderer, noteMetrics, appLogger.WithComponent("notes"), services.NoteServiceConfig{
		RootAlias:  cfg.Notes.RootAlias,
		TableClass: cfg.Markdown.TableClass,
	})
	indexService := services.NewIndexService(noteRepo, noteMetrics, appLogger.WithComponent("index"), services.IndexServiceConfig{
		RootAlias:        cfg.Notes.RootAlias,
		ReservedPrefixes: reservedPrefixes(cfg),
	})

	// Initialize handlers
	noteHandler := httpHandlers.NewNoteHandler(noteService, indexService, pages, appLogger, cfg.Notes.StrictStatus)

	// Custom error handler
	e.HTTPErrorHandler = server.errorHandler

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(fs, noteHandler)

	return server, nil
}

// NewTemplater builds the page chrome shared by the server and the CLI
func NewTemplater(cfg config.PageConfig) (*templates.Templater, error) {
	pages, err := templates.New(templates.Config{
		Title:           cfg.Title,
		HomeURL:         cfg.HomeURL,
		LocalStylesheet: cfg.LocalStylesheet,
		Stylesheets:     cfg.Stylesheets,
		Scripts:         cfg.Scripts,
		InlineScript:    cfg.InlineScript,
		Footer:          cfg.Footer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build page templates: %w", err)
	}
	return pages, nil
}

// NewRenderer builds the Markdown renderer shared by the server and the CLI
func NewRenderer(cfg config.MarkdownConfig) *markdown.GoldmarkRenderer {
	return markdown.NewGoldmarkRenderer(markdown.Options{
		Autolink:   cfg.Autolink,
		Tables:     cfg.Tables,
		UnsafeHTML: cfg.UnsafeHTML,
	})
}

func staticPrefix(cfg *config.Config) string {
	return strings.TrimSuffix(cfg.Static.Prefix, "/") + "/"
}

// reservedPrefixes lists the wildcard routes registered ahead of the note
// catch-all
func reservedPrefixes(cfg *config.Config) []string {
	prefixes := []string{staticPrefix(cfg)}
	if cfg.Docs.Enabled {
		prefixes = append(prefixes, "/swagger/")
	}
	return prefixes
}

// setupRoutes configures all routes. Fixed routes win over the note
// catch-all, so their first segments cannot be used as folder names.
func (s *Server) setupRoutes(fs afero.Fs, noteHandler *httpHandlers.NoteHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	if s.metrics != nil {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.echo.GET(path, echo.WrapHandler(s.metrics.Handler()))
	}

	// Swagger documentation
	if s.config.Docs.Enabled {
		s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// Static assets
	s.echo.StaticFS(staticPrefix(s.config), afero.NewIOFS(afero.NewBasePathFs(fs, s.config.Static.Dir)))

	// Notes
	s.echo.GET("/", noteHandler.Index)
	s.echo.GET("/*", noteHandler.Show)
}

// Health check handlers
// @Summary Liveness check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": s.config.App.Version,
	})
}

// @Summary Readiness check
// @Description Reports whether the notes root can be listed
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.notes.Ping(); err != nil {
		s.logger.Warnw("Notes root not ready", "root", s.notes.Root(), "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "notes_root_unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ServeHTTP lets the server be driven directly by net/http and httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	address := s.config.Server.Address()
	s.logger.Infow("Starting server", "address", address, "notes_root", s.config.Notes.Root)

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// errorHandler renders HTTP errors as HTML pages in the site chrome
func (s *Server) errorHandler(err error, c echo.Context) {
	var (
		code = http.StatusInternalServerError
		msg  = http.StatusText(http.StatusInternalServerError)
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
		if he.Internal != nil {
			err = fmt.Errorf("%v, %v", err, he.Internal)
		}
	}

	// already sent and logged, e.g. by the Timeout middleware
	if c.Response().Committed {
		return
	}

	if code >= http.StatusInternalServerError {
		s.logger.ForContext(c.Request().Context()).Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = s.renderError(c, code, msg)
	}
	if err != nil {
		s.logger.Errorw("Error sending response", "error", err)
	}
}

func (s *Server) renderError(c echo.Context, code int, msg string) error {
	fragment, err := s.pages.Error(code, msg)
	if err != nil {
		return c.String(code, msg)
	}

	page, err := s.pages.Page("Error", fragment)
	if err != nil {
		return c.String(code, msg)
	}

	return c.HTML(code, page)
}
