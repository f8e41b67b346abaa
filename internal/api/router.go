package api

import (
	"net/http"

	"github.com/s00d/author-today-cli/internal/api/controllers"
	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/queue"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

func RegisterRoutes(e *echo.Echo, appCtx *app.Context, manager *queue.Manager) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			appCtx.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	libraryCtrl := &controllers.LibraryController{App: appCtx}
	queueCtrl := &controllers.QueueController{App: appCtx, Manager: manager}
	downloadsCtrl := &controllers.DownloadsController{App: appCtx}

	e.GET("/api/library", libraryCtrl.HandleList)

	e.GET("/api/queue", queueCtrl.HandleList)
	e.POST("/api/queue", queueCtrl.HandleEnqueue)
	e.GET("/api/queue/:id", queueCtrl.HandleGet)

	e.GET("/api/downloads", downloadsCtrl.HandleList)

	e.GET("/healthz", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
