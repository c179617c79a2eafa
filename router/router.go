// router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/controller"
	"github.com/securenet/dyngroups/metrics"
	"github.com/securenet/dyngroups/middleware"
)

type Options struct {
	Limiter           middleware.Limiter
	RateLimitRequests int
	RateLimitDuration time.Duration
	JWTSecret         string
	AdminGroup        string
	Metrics           *metrics.Collector
}

// SetupRouter builds the HTTP API. Rate limiting is skipped without a
// limiter and authentication is skipped without a JWT secret.
func SetupRouter(controllers *controller.Controllers, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log, opts.Metrics))

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	if opts.Limiter != nil {
		api.Use(middleware.RateLimiter(opts.Limiter, opts.RateLimitRequests, opts.RateLimitDuration, log))
	}
	if opts.JWTSecret != "" {
		api.Use(middleware.GroupAuthMiddleware(opts.JWTSecret, []string{opts.AdminGroup}, log))
	} else {
		log.Warn("API authentication disabled, no JWT secret configured")
	}

	controllers.Rule.RegisterRoutes(api)
	controllers.Membership.RegisterRoutes(api)
	controllers.Audit.RegisterRoutes(api)

	return router
}
