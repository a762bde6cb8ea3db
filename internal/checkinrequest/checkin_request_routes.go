package checkinrequest

import (
	"go-timeclock/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	requests := r.Group("/checkin-requests")
	{
		requests.POST("", handler.Create)
		requests.GET("/mine", handler.ListMine)

		manage := requests.Group("", middleware.RequireManager())
		manage.GET("", handler.ListPending)
		manage.POST("/:id/approve", handler.Approve)
		manage.POST("/:id/deny", handler.Deny)
	}
}
