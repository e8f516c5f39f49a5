// Package server exposes a grid over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vogtb/gridcalc/internal/ctxlog"
	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

const ApiVersion = "v1"

// Grid is the part of the engine the HTTP layer needs. *spreadsheet.Locked
// implements it; a bare *spreadsheet.Spreadsheet does too but is not safe
// behind concurrent requests.
type Grid interface {
	Shape() spreadsheet.Shape
	GetValueAt(id string) (float64, error)
	SetValueAt(id string, expression string) error
	ExpressionAt(id string) (string, error)
	Calculate() [][]spreadsheet.CellResult
}

type Server struct {
	router *gin.Engine
	logger *slog.Logger
}

// New builds the router for grid. Requests are logged to logger.
func New(grid Grid, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		router: SetupRouter(NewApiController(grid), logger),
		logger: logger,
	}
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down, giving
// in-flight requests up to shutdownTimeout to finish.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", addr)
		// ListenAndServe returns ErrServerClosed on graceful shutdown
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// SetupRouter wires the routes of controller onto a fresh gin engine.
func SetupRouter(controller *ApiController, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	apiRouterGroup := router.Group("/api/" + ApiVersion)
	apiRouterGroup.GET("/cells", controller.GetCellListAction)
	apiRouterGroup.GET("/cells/:cell_id", controller.GetCellAction)
	apiRouterGroup.POST("/cells/:cell_id", controller.SetCellAction)

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "health")
	})

	return router
}

// requestLogger puts logger into each request context and logs one line
// per completed request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), logger))

		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
