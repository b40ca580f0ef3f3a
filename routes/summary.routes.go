package routes

import (
	"healthtrends/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterSummaryRoutes exposes current and trend views for both data
// domains. Each accepts query parameters (GET) or a JSON body (POST).
func RegisterSummaryRoutes(router *gin.Engine, auth gin.HandlerFunc, summaryController *controllers.SummaryController) {
	activityRoutes := router.Group("/activity", auth)
	{
		activityRoutes.GET("/current", summaryController.ActivityCurrent)
		activityRoutes.POST("/current", summaryController.ActivityCurrent)
		activityRoutes.GET("/trend", summaryController.ActivityTrend)
		activityRoutes.POST("/trend", summaryController.ActivityTrend)
	}

	workoutRoutes := router.Group("/workout", auth)
	{
		workoutRoutes.GET("/current", summaryController.WorkoutCurrent)
		workoutRoutes.POST("/current", summaryController.WorkoutCurrent)
		workoutRoutes.GET("/trend", summaryController.WorkoutTrend)
		workoutRoutes.POST("/trend", summaryController.WorkoutTrend)
	}
}
