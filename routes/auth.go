package routes

import (
	"rescuenet/controllers"
	"rescuenet/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// SetupAuthRoutes configures registration and login for both roles.
func SetupAuthRoutes(router *gin.RouterGroup, authController *controllers.AuthController, redisClient *redis.Client) {
	auth := router.Group("/auth")
	auth.Use(middleware.AuthRateLimit(redisClient))
	{
		auth.POST("/register/user", authController.RegisterUser)
		auth.POST("/register/responder", authController.RegisterResponder)
		auth.POST("/login/user", authController.LoginUser)
		auth.POST("/login/responder", authController.LoginResponder)
	}
}
