package routes

import (
	"rescuenet/controllers"
	"rescuenet/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// SetupAlertRoutes configures the alert lifecycle and location endpoints.
func SetupAlertRoutes(router *gin.RouterGroup, alertController *controllers.AlertController, redisClient *redis.Client) {
	alerts := router.Group("/alerts")
	{
		alerts.POST("", middleware.AlertRateLimit(redisClient), alertController.CreateAlert)
		alerts.GET("", alertController.GetAlerts)
		alerts.GET("/stats/summary", alertController.GetStats)
		alerts.GET("/user/:userId", alertController.GetUserAlerts)
		alerts.GET("/:id", alertController.GetAlert)
		alerts.PATCH("/:id/status", alertController.UpdateStatus)
		alerts.PATCH("/:id/location", middleware.LocationRateLimit(redisClient), alertController.UpdateLocation)
		alerts.PATCH("/:id/offline", alertController.MarkOffline)
	}
}
