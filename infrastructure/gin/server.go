package gin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
)

// Server is the API's HTTP server.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger logger.Logger
	config *Config
}

// NewServer applies the standard middleware, then setupRoutes.
func NewServer(cfg *Config, log logger.Logger, setupRoutes func(*gin.Engine)) *Server {
	cfg.SetDefaults()

	mode := gin.ReleaseMode
	if cfg.Debug {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	router := gin.New()
	// Recovery wraps everything; the request logger reads the id set
	// before it.
	router.Use(
		RecoveryMiddleware(log),
		RequestIDLoggerMiddleware(log),
		LoggerMiddleware(log),
		CORSMiddleware(cfg.CORS),
	)
	if setupRoutes != nil {
		setupRoutes(router)
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		logger: log,
		config: cfg,
	}
}

// Router returns the underlying Gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// RunWithGracefulShutdown serves until SIGINT, SIGTERM or ctx cancellation,
// then drains connections within ShutdownTimeout.
func (s *Server) RunWithGracefulShutdown(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("Starting HTTP server",
		logger.String("address", ln.Addr().String()),
		logger.String("service", s.config.ServiceName),
		logger.String("version", s.config.ServiceVersion),
		logger.Duration("write_timeout", s.server.WriteTimeout),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-sigCtx.Done():
		s.logger.Info("Shutting down HTTP server", logger.Duration("timeout", s.config.ShutdownTimeout))
	}

	// ctx may already be cancelled; draining gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
