// Package httpapi serves the read-only query API over entities and sentiment
// time-series, plus the health endpoints consumers probe for degradation.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/globaltime"
	"vibecheck.dev/vibecheck/internal/scheduler"
)

const (
	defaultSentimentLimit = 100
	maxSentimentLimit     = 1000
)

// HealthReporter derives scheduler health without touching the database.
type HealthReporter interface {
	HealthReport(now time.Time) scheduler.HealthReport
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type Server struct {
	pool     *db.Pool
	reporter HealthReporter
	logger   zerolog.Logger
	opts     Options
}

func NewServer(pool *db.Pool, reporter HealthReporter, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:     pool,
		reporter: reporter,
		logger:   logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  opts.AllowedOrigins,
		},
	}
}

// Start runs the server until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	if len(s.opts.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.opts.AllowedOrigins,
		}))
	}

	e.GET("/health", s.handleHealth)
	e.GET("/health/scheduler", s.handleSchedulerHealth)
	e.GET("/api/entities", s.handleEntities)
	e.GET("/api/entities/:entity_id", s.handleEntityDetail)
	e.GET("/api/entities/:entity_id/sentiment", s.handleEntitySentiment)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("vibecheck API server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("vibecheck API server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.Ping(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check database ping failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": "connected",
	})
}

// handleSchedulerHealth degrades to 503 precisely when a job has missed two
// full intervals without a success.
func (s *Server) handleSchedulerHealth(c echo.Context) error {
	report := s.reporter.HealthReport(globaltime.UTC())

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
