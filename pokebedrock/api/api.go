// Package api exposes the whitelist over HTTP for tools running outside the
// game, such as gatectl and the proxy.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// Server serves the whitelist API.
type Server struct {
	log      *slog.Logger
	key      string
	op       *whitelist.Operator
	sweeper  *whitelist.Sweeper
	resolver whitelist.Resolver

	router *gin.Engine
}

// NewServer builds the router. Every request must carry key in its
// authorization header; an empty key rejects everything.
func NewServer(log *slog.Logger, key string, op *whitelist.Operator, sweeper *whitelist.Sweeper, resolver whitelist.Resolver) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		log:      log,
		key:      key,
		op:       op,
		sweeper:  sweeper,
		resolver: resolver,
		router:   gin.New(),
	}
	s.router.Use(gin.CustomRecovery(s.recovery), s.authorize)

	s.router.GET("/identity/:name", s.identity)

	s.router.GET("/players", s.list)
	s.router.GET("/players/:query", s.request((*whitelist.Operator).Status))
	s.router.POST("/players/:query", s.request((*whitelist.Operator).Add))
	s.router.DELETE("/players/:query", s.request((*whitelist.Operator).Remove))

	s.router.POST("/sweep", s.sweep)
	s.router.GET("/sweep", s.lastSweep)

	s.router.GET("/enabled", s.enabled)
	s.router.PUT("/enabled", s.setEnabled)
	return s
}

// Handler ...
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.log.Info("API listening", "address", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), internal.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// authorize ...
func (s *Server) authorize(c *gin.Context) {
	got := c.GetHeader("authorization")
	if s.key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.key)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

// recovery ...
func (s *Server) recovery(c *gin.Context, recovered any) {
	s.log.Error("API handler panicked", "path", c.FullPath(), "panic", recovered)
	sentry.CurrentHub().Recover(recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
