package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"users-console/api/swagger"
	"users-console/internal/adapter/gin/handler"
	"users-console/internal/adapter/gin/middleware"
	"users-console/internal/metrics"
	"users-console/pkg/logger"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func() error

// Options carries the optional parts of the users API router.
type Options struct {
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	Health      map[string]HealthCheck
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(logger.Recovery(log))
	router.Use(logger.AccessLog(log))
	router.Use(metrics.Middleware("api"))
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.GET("/health", health(opts.Health))
	router.GET("/metrics", metrics.Handler())

	ui := gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swagger.DocPath)))
	router.GET("/swagger/*any", func(c *gin.Context) {
		if c.Request.URL.Path == swagger.DocPath {
			c.Data(http.StatusOK, "application/json", swagger.Doc)
			return
		}
		ui(c)
	})

	users := router.Group("/api/users")
	users.Use(opts.RateLimiter.Handler())
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUsers)
		users.GET("/page", userHandler.ListPage)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(); err != nil {
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
			"service":      "usersapi",
			"dependencies": deps,
		})
	}
}
