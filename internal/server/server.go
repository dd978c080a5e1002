// Package server is the REST backend the network gateway talks to.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the server-side storage: a gateway plus the bulk upsert.
type Repository interface {
	editstore.Gateway
	UpsertAll(ctx context.Context, items []model.Item) ([]model.Item, error)
}

type Server struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time

	// mu serializes writes so name-uniqueness checks and inserts are atomic.
	mu sync.Mutex
}

func New(repo Repository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{repo: repo, log: logger, now: time.Now}
}

// Router wires the gin engine with the inventory routes and middlewares.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(s.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/inventory", s.list)
	api.POST("/inventory", s.create)
	api.PUT("/inventory/bulk/update", s.bulkUpdate)
	api.PUT("/inventory/:id", s.update)
	api.DELETE("/inventory/:id", s.remove)

	s.log.Info("router initialized")
	return r
}

const requestIDHeader = "X-Request-ID"

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func ok[T any](c *gin.Context, status int, data T) {
	c.JSON(status, model.Envelope[T]{Success: true, Data: data})
}

// fail maps err onto a status: validation 400, missing id 404, else 500.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	field := ""
	msg := err.Error()

	var ve *inventory.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		field = ve.Field
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
		msg = "Item not found"
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		msg = "Internal server error"
	}
	c.JSON(status, model.Envelope[any]{Success: false, Error: msg, Field: field})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, model.Envelope[any]{Success: false, Error: msg})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
