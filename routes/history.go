package routes

import (
	"rescuenet/controllers"

	"github.com/gin-gonic/gin"
)

// SetupHistoryRoutes configures the archived alert endpoints.
func SetupHistoryRoutes(router *gin.RouterGroup, historyController *controllers.HistoryController) {
	history := router.Group("/history")
	{
		history.POST("/archive", historyController.Archive)
		history.GET("/user/:userId", historyController.GetUserHistory)
		history.GET("/user/:userId/stats", historyController.GetUserStats)
		history.GET("/:id", historyController.GetEntry)
		history.DELETE("/:id", historyController.DeleteEntry)
	}
}
