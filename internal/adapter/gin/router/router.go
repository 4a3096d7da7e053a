package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"userdesk/api/swagger"
	"userdesk/internal/adapter/gin/handler"
	"userdesk/internal/adapter/gin/middleware"
)

const (
	swaggerDocPath = "/openapi/backend.swagger.json"
	healthTimeout  = 2 * time.Second
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// SetupRouter configures and returns a Gin router with all routes and middleware.
// A nil rateLimiter disables rate limiting.
func SetupRouter(
	userHandler *handler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	checks map[string]HealthCheck,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	// Forwarding headers are ignored; rate limit buckets key on the peer address.
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to clear trusted proxies", zap.Error(err))
	}

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	router.GET("/health", healthHandler(checks))
	router.GET(swaggerDocPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", swagger.BackendJSON)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerDocPath))))

	api := router.Group("/", rateLimiter.Handler())
	{
		api.GET("/list.php", userHandler.ListUsers)
		api.GET("/details.php", userHandler.GetUser)
		api.POST("/create.php", userHandler.CreateUser)
		api.POST("/update.php", userHandler.UpdateUser)
		api.POST("/delete.php", userHandler.DeleteUser)
	}

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "method not allowed"})
	})

	return router
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		deps := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"service":      "userdesk-backend",
			"dependencies": deps,
		})
	}
}
