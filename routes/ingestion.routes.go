package routes

import (
	"healthtrends/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterIngestionRoutes(router *gin.Engine, auth gin.HandlerFunc, uploadController *controllers.UploadController, jobController *controllers.JobController) {
	router.POST("/upload", auth, uploadController.UploadExport)

	jobRoutes := router.Group("/jobs", auth)
	{
		jobRoutes.GET("", jobController.ListJobs)
		jobRoutes.GET("/:id", jobController.GetJob)
	}
}
