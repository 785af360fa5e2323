package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devcabi-net/mirage-community-sub000/moderation/engine"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

type Server struct {
	eng    *engine.Engine
	echo   *echo.Echo
	httpd  *http.Server
	logger *slog.Logger
}

type Config struct {
	Logger *slog.Logger
	Bind   string
}

func NewServer(eng *engine.Engine, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	e := echo.New()

	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)

	srv := &Server{
		eng:    eng,
		echo:   e,
		logger: logger,
	}
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           config.Bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.HTTPErrorHandler = srv.errorHandler

	e.GET("/_health", srv.HandleHealthCheck)
	e.POST("/classify", srv.HandleClassify)

	return srv, nil
}

func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var httpError *echo.HTTPError
	if errors.As(err, &httpError) {
		code = httpError.Code
	}
	if code >= 500 {
		srv.logger.Warn("warden-http-internal-error", "err", err)
	}
	_ = c.JSON(code, map[string]any{
		"error": http.StatusText(code),
	})
}

type healthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, healthStatus{Status: "ok"})
}

type classifyRequest struct {
	Content string `json:"content"`
}

// HandleClassify runs the fallback chain on the submitted content. Always
// responds 200 with a verdict for well-formed requests: the engine is total,
// so provider outages never surface here.
func (srv *Server) HandleClassify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res := srv.eng.Classify(c.Request().Context(), req.Content)
	return c.JSON(http.StatusOK, res)
}

// RunAPI serves the HTTP API until ctx is cancelled or a shutdown signal
// arrives.
func (srv *Server) RunAPI(ctx context.Context) error {
	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-quit:
		srv.logger.Info("received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.httpd.Shutdown(shutdownCtx)
}
