package routes

import (
	"rescuenet/controllers"

	"github.com/gin-gonic/gin"
)

// SetupContactRoutes configures the emergency contact list endpoints.
// Mounted behind RequireAuth.
func SetupContactRoutes(router *gin.RouterGroup, contactController *controllers.ContactController) {
	contacts := router.Group("/contacts")
	{
		contacts.POST("", contactController.CreateContact)
		contacts.GET("", contactController.GetContacts)
		contacts.PUT("/:id", contactController.UpdateContact)
		contacts.DELETE("/:id", contactController.DeleteContact)
	}
}
