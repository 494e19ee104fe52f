// Package server exposes the notebook store and execution engines over HTTP.
//
// Session identity rides on the nbsession cookie or the X-Session-Key
// header; a uuid is minted when neither is present. One engine exists per
// session key, shared across notebooks, matching the one-kernel-per-user
// model.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/notebookd/notebookd/internal/engine"
	"github.com/notebookd/notebookd/internal/store"
)

const sessionCookie = "nbsession"

// Server wires the store and engine registry into a gin router.
type Server struct {
	store    *store.Store
	registry *engine.Registry
	basePath string
	log      *slog.Logger
}

func New(st *store.Store, reg *engine.Registry, basePath string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: st, registry: reg, basePath: basePath, log: log}
}

// Router builds the HTTP routes. Exposed separately from Run so tests can
// drive it with httptest.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/notebooks", s.listNotebooks)
	api.GET("/notebooks/:slug", s.getNotebook)
	api.POST("/notebooks/:slug/setup", s.runSetup)
	api.POST("/notebooks/:slug/reset", s.resetSession)
	api.GET("/notebooks/:slug/history", s.history)
	api.GET("/notebooks/:slug/export", s.exportNotebook)
	api.POST("/cells/:id/run", s.runCell)
	api.POST("/execute", s.executeRaw)

	return r
}

// Run serves until the context is canceled or an interrupt arrives, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	s.log.Info("listening", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-quit:
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sessionKey resolves the caller's session identity, minting and setting a
// cookie when none exists. The header wins over the cookie.
func (s *Server) sessionKey(c *gin.Context) string {
	if key := c.GetHeader("X-Session-Key"); key != "" {
		return key
	}
	if key, err := c.Cookie(sessionCookie); err == nil && key != "" {
		return key
	}
	key := uuid.NewString()
	c.SetCookie(sessionCookie, key, 86400*7, "/", "", false, true)
	return key
}
