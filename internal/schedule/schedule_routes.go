package schedule

import (
	"go-timeclock/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	schedules := r.Group("/schedules")
	schedules.Use(middleware.RequireManager())
	{
		schedules.POST("/templates", handler.CreateTemplate)
		schedules.GET("/templates/:id", handler.GetTemplate)
		schedules.POST("/assignments", handler.CreateAssignment)
	}
}
