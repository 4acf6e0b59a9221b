package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrnavastar/modman-agent/services"
	"github.com/mrnavastar/modman-agent/util"
	"github.com/rs/zerolog"
)

type Options struct {
	Addr     string
	Version  string
	DeviceId string
	// ExitDelay is the pause between answering an autoClose install and calling Terminate.
	ExitDelay time.Duration
	// Terminate is called once after a successful autoClose install. Nil disables auto exit.
	Terminate func()
}

type Server struct {
	installer *services.Installer
	opts      Options
	engine    *gin.Engine
	logger    zerolog.Logger
	exitOnce  sync.Once
}

func New(installer *services.Installer, opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		installer: installer,
		opts:      opts,
		engine:    gin.New(),
		logger:    logger,
	}

	s.engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.fail(c, util.Errorf(util.ErrInternal, "internal error: %v", recovered))
		c.Abort()
	}))
	s.engine.Use(s.loggingMiddleware())
	s.engine.Use(corsMiddleware())
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/status", s.handleStatus)
	s.engine.POST("/install", s.handleInstallArchive)
	s.engine.POST("/install-files", s.handleInstallFiles)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}

// scheduleExit arranges a single Terminate call once the response has had time to flush.
func (s *Server) scheduleExit() {
	if s.opts.Terminate == nil {
		return
	}
	s.exitOnce.Do(func() {
		s.logger.Info().Dur("delay", s.opts.ExitDelay).Msg("Auto close requested, shutting down")
		time.AfterFunc(s.opts.ExitDelay, s.opts.Terminate)
	})
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

// corsMiddleware lets any origin call the agent, including pages asking for
// private network access to localhost.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Private-Network", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
