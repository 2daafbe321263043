package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/pktframe/internal/observability"
	"github.com/danmuck/pktframe/internal/receiver"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StatsProvider is satisfied by *receiver.Receiver.
type StatsProvider interface {
	Stats() receiver.Stats
	Config() receiver.Config
}

// Admin is the read-only HTTP surface of a running receiver.
type Admin struct {
	Service  string
	Addr     string
	Appeared time.Time

	stats  StatsProvider
	ready  func() bool
	router *gin.Engine
}

func Appear(service, addr string, corsOrigins []string, stats StatsProvider, ready func() bool) *Admin {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(service, log.Logger.With().Str("component", "admin").Logger()))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if ready == nil {
		ready = func() bool { return true }
	}
	return &Admin{
		Service:  service,
		Addr:     addr,
		Appeared: time.Now(),
		stats:    stats,
		ready:    ready,
		router:   r,
	}
}

func (a *Admin) HTTPRouter() *gin.Engine {
	return a.router
}

// Serve registers routes and listens until ctx ends.
func (a *Admin) Serve(ctx context.Context) error {
	a.RegisterRoutes()
	srv := &http.Server{
		Addr:              a.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("service", a.Service).Str("addr", a.Addr).Msg("admin listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
