package notification

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/push-tokens", handler.RegisterToken)
	r.GET("/notifications", handler.ListInbox)
}
