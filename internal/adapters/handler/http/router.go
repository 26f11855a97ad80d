package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/comitanigiacomo/habitflow-sync-engine/docs"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/adapters/handler/http/middleware"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDependencies struct {
	AuthHandler  *AuthHandler
	HabitHandler *HabitHandler
	StatsHandler *StatsHandler
	SyncHandler  *SyncHandler
	TokenService middleware.TokenValidator
	Redis        *redis.Client
	Logger       *zap.Logger
	HealthChecks map[string]HealthCheck
	RateLimit    int
	RateWindow   time.Duration
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging(logger))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", healthHandler(deps.HealthChecks, deps.StartTime))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var limiter []gin.HandlerFunc
	if deps.Redis != nil {
		limit := deps.RateLimit
		if limit <= 0 {
			limit = 100
		}
		window := deps.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		limiter = append(limiter, middleware.RateLimiterMiddleware(deps.Redis, limit, window, logger))
	}

	apiV1 := router.Group("/api/v1")

	public := apiV1.Group("")
	public.Use(limiter...)
	deps.AuthHandler.RegisterRoutes(public)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	protected.Use(limiter...)
	{
		deps.AuthHandler.RegisterProtectedRoutes(protected)
		deps.HabitHandler.RegisterRoutes(protected)
		deps.StatsHandler.RegisterRoutes(protected)
		deps.SyncHandler.RegisterRoutes(protected)
	}

	return router
}

func healthHandler(checks map[string]HealthCheck, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		body := gin.H{
			"status": "ok",
			"uptime": time.Since(startTime).Round(time.Second).String(),
		}
		statusCode := http.StatusOK

		for name, check := range checks {
			if err := check(ctx); err != nil {
				body[name] = "unreachable"
				body["status"] = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			body[name] = "connected"
		}

		c.JSON(statusCode, body)
	}
}
