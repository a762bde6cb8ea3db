package checkinrequest

import (
	"context"
	"net/http"

	"go-timeclock/internal/middleware"
	"go-timeclock/internal/shared/apperror"
	"go-timeclock/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("checkinrequest.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("checkinrequest.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("check-in request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	created, err := h.service.Create(c.Request.Context(),
		c.GetString(middleware.KeyOrganizationID),
		c.GetString(middleware.KeyUserID),
		CreateInput{
			RequestType:        req.RequestType,
			Location:           req.Location.ToLocation(),
			LocationID:         req.LocationID,
			Reason:             req.Reason,
			RequestedTimestamp: req.RequestedTimestamp,
		})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toResponse(created), nil)
}

func (h *Handler) ListMine(c *gin.Context) {
	rows, err := h.service.ListMine(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponses(rows), nil)
}

func (h *Handler) ListPending(c *gin.Context) {
	rows, err := h.service.ListPending(c.Request.Context(), c.GetString(middleware.KeyOrganizationID))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponses(rows), nil)
}

func (h *Handler) Approve(c *gin.Context) {
	h.review(c, h.service.Approve)
}

func (h *Handler) Deny(c *gin.Context) {
	h.review(c, h.service.Deny)
}

type reviewFunc func(ctx context.Context, organizationID, id, reviewerID, note string) (*CheckInRequest, error)

func (h *Handler) review(c *gin.Context, fn reviewFunc) {
	var req ReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	out, err := fn(c.Request.Context(),
		c.GetString(middleware.KeyOrganizationID),
		c.Param("id"),
		c.GetString(middleware.KeyUserID),
		req.Note,
	)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(out), nil)
}
