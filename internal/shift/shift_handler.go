package shift

import (
	"net/http"
	"strconv"

	"go-timeclock/internal/employee"
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
	l := zap.L().Named("shift.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("shift.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("shift request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) ClockIn(c *gin.Context) {
	var req ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	sh, err := h.service.ClockIn(c.Request.Context(), c.GetString(middleware.KeyUserID), ClockInInput{
		Location:   req.Location.ToLocation(),
		LocationID: req.LocationID,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toShiftResponse(sh), nil)
}

func (h *Handler) ClockOut(c *gin.Context) {
	var req ClockOutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	in := ClockOutInput{}
	if req.Location != nil {
		loc := req.Location.ToLocation()
		in.Location = &loc
	}
	sh, err := h.service.ClockOut(c.Request.Context(), c.GetString(middleware.KeyUserID), in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toShiftResponse(sh), nil)
}

func (h *Handler) GetOpen(c *gin.Context) {
	sh, err := h.service.GetOpenShift(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toShiftResponse(sh), nil)
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.service.ListByEmployee(c.Request.Context(), c.GetString(middleware.KeyUserID), limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toShiftResponses(rows), response.NewListMeta(len(rows), limit))
}

func (h *Handler) Resolve(c *gin.Context) {
	var req ResolveStaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	role := employee.Role(c.GetString(middleware.KeyUserRole))
	sh, err := h.service.ResolveStale(c.Request.Context(), c.Param("id"), ResolveInput{
		Resolution:       req.Resolution,
		ActualClockOutAt: req.ActualClockOutAt,
		Reason:           req.Reason,
		ActorID:          c.GetString(middleware.KeyUserID),
		ActorIsManager:   role.IsManager(),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toShiftResponse(sh), nil)
}

func (h *Handler) Approve(c *gin.Context) {
	sh, err := h.service.ApproveRevision(c.Request.Context(), c.Param("id"), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toShiftResponse(sh), nil)
}

func (h *Handler) Reject(c *gin.Context) {
	var req RejectRevisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	sh, err := h.service.RejectRevision(c.Request.Context(), c.Param("id"), c.GetString(middleware.KeyUserID), req.Note)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toShiftResponse(sh), nil)
}
