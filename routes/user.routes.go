package routes

import (
	"healthtrends/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterUserRoutes(router *gin.Engine, auth gin.HandlerFunc, userController *controllers.UserController) {
	userRoutes := router.Group("/users", auth)
	{
		userRoutes.GET("/me", userController.GetCurrentUser)
		userRoutes.POST("/lookup", userController.LookupUser)
	}
}
