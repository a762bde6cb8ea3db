package shift

import (
	"go-timeclock/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the shift endpoints. clockGuards run ahead of clock-in and
// clock-out only.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, clockGuards ...gin.HandlerFunc) {
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, clockGuards...), h)
	}

	shifts := r.Group("/shifts")
	{
		shifts.POST("/clock-in", guarded(handler.ClockIn)...)
		shifts.POST("/clock-out", guarded(handler.ClockOut)...)
		shifts.GET("/open", handler.GetOpen)
		shifts.GET("", handler.List)
		shifts.POST("/:id/resolve", handler.Resolve)

		review := shifts.Group("/:id", middleware.RequireManager())
		review.POST("/approve", handler.Approve)
		review.POST("/reject", handler.Reject)
	}
}
