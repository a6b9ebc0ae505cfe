// Package httpapi is the internal trigger surface: a manual sweep endpoint,
// the requirement extension mutation, health, and metrics. It is not a
// client-facing API; deployments keep it on the private network.
package httpapi

import (
	"context"
	"net/http"

	"tramita_backend/platform/config"
	"tramita_backend/platform/logger"
	"tramita_backend/platform/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Locker guards against concurrent sweeps triggered over HTTP while the
// scheduled worker is running one.
type Locker interface {
	Acquire(ctx context.Context) (bool, func(), error)
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps holds the handler dependencies wired by the composition root.
type Deps struct {
	Config config.HTTPConfig
	Engine EngineSurface
	Lock   Locker
	Health HealthChecker
	Logger *logger.Logger
}

// New builds the gin engine with all routes registered.
func New(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.Config))

	h := &handlers{
		engine: deps.Engine,
		lock:   deps.Lock,
		health: deps.Health,
		val:    validator.New(),
		log:    deps.Logger,
	}

	router.GET("/healthz", h.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal/v1")
	internal.POST("/sweeps", h.triggerSweep)
	internal.POST("/requirements/:id/extensions", h.requestExtension)

	return router
}

// Serve runs the HTTP server until the context is cancelled.
func Serve(ctx context.Context, cfg config.HTTPConfig, router *gin.Engine, log *logger.Logger) error {
	srv := &http.Server{
		Addr:    cfg.GetHTTPAddr(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.WithoutCancel(ctx))
	}()

	log.Info("http server listening", "addr", cfg.GetHTTPAddr())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	return cors.New(corsCfg)
}
