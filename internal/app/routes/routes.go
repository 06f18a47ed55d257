package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vmelnikov/unifed/internal/app/controllers"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	syncController *controllers.SyncController,
	reportController *controllers.ReportController,
) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.POST("/generate", syncController.Generate)

	reports := v1.Group("/reports")
	{
		reports.GET("/attendance", reportController.Attendance)
		reports.GET("/audience", reportController.Audience)
		reports.GET("/group", reportController.Group)
	}
}
