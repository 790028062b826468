package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-med-remind/internal/infra/handler"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/logging"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/metrics"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/middleware"
)

const tracerName = "github.com/KasumiMercury/primind-med-remind"

func setupRouter(reminderHandler *handler.ReminderHandler, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	router := gin.New()

	router.Use(middleware.PanicRecoveryGin())
	router.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths: []string{"/ping"},
		ModuleResolver: middleware.ModuleByPrefix(map[string]logging.Module{
			"/api/v1/notifications": logging.ModuleScheduler,
			"/api/v1/reconcile":     logging.ModuleReconciler,
		}, logging.ModuleReminder),
		TracerName:  tracerName,
		HTTPMetrics: httpMetrics,
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	v1 := router.Group("/api/v1")
	reminderHandler.RegisterRoutes(v1)

	return router
}
