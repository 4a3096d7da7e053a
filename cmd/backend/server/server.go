package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userdesk/cmd/backend/di"
	ginrouter "userdesk/internal/adapter/gin/router"
)

// Server owns the backend HTTP listener.
type Server struct {
	Logger *zap.Logger
	HTTP   *http.Server
}

// New builds the gin router from the container and wraps it in an http.Server.
func New(c *di.Container) *Server {
	if c.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(c.GinHandler, c.RateLimiter, c.HealthChecks, c.Logger)
	addr := ":" + c.Config.App.HTTPPort

	c.Logger.Info("backend configured",
		zap.String("address", addr),
		zap.String("swagger", "http://localhost"+addr+"/swagger/index.html"),
	)

	return &Server{
		Logger: c.Logger,
		HTTP: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start listens and serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("backend running", zap.String("address", lis.Addr().String()))
	if err := s.HTTP.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTP.Shutdown(ctx)
}
