// Package web exposes the console over HTTP. Every action is a plain form
// post handled by one controller operation followed by a redirect to the table.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-console/internal/console/view"
	"users-console/internal/metrics"
	"users-console/pkg/logger"
)

// NewRouter configures the console routes.
func NewRouter(h *Handler, log *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(logger.RequestID())
	router.Use(logger.Recovery(log))
	router.Use(logger.AccessLog(log))
	router.Use(metrics.Middleware("console"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "console",
		})
	})
	router.GET("/metrics", metrics.Handler())

	ui := router.Group("", h.Session())
	{
		ui.GET(view.RootURL, h.Index)
		ui.POST(view.FormURL, h.SetFields)
		ui.POST(view.SubmitURL, h.Submit)
		ui.POST(view.ClearURL, h.Clear)
		ui.POST("/users/:id/edit", h.BeginEdit)
		ui.POST(view.CancelEditURL, h.CancelEdit)
		ui.GET("/users/:id/delete", h.ConfirmDelete)
		ui.POST("/users/:id/delete", h.Delete)
		ui.POST(view.RefreshURL, h.Refresh)
		ui.GET(view.PagePath, h.Page)
	}

	return router
}
