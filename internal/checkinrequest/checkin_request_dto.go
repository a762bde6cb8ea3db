package checkinrequest

import (
	"time"

	"go-timeclock/internal/shift"

	"github.com/google/uuid"
)

type CreateRequest struct {
	RequestType        RequestType           `json:"request_type" binding:"required,oneof=clock_in clock_out"`
	Location           shift.LocationRequest `json:"location" binding:"required"`
	LocationID         *uuid.UUID            `json:"location_id"`
	Reason             string                `json:"reason" binding:"required,max=1000"`
	RequestedTimestamp time.Time             `json:"requested_timestamp" binding:"required"`
}

type ReviewRequest struct {
	Note string `json:"note" binding:"max=500"`
}

type Response struct {
	ID                   string     `json:"id"`
	EmployeeID           string     `json:"employee_id"`
	RequestType          string     `json:"request_type"`
	Status               string     `json:"status"`
	Reason               string     `json:"reason"`
	RequestedTimestamp   time.Time  `json:"requested_timestamp"`
	DistanceFromGeofence *float64   `json:"distance_from_geofence_m,omitempty"`
	ReviewedBy           *string    `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote           *string    `json:"review_note,omitempty"`
	ShiftID              *string    `json:"shift_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toResponse(r *CheckInRequest) Response {
	resp := Response{
		ID:                   r.ID.String(),
		EmployeeID:           r.EmployeeID.String(),
		RequestType:          string(r.RequestType),
		Status:               string(r.Status),
		Reason:               r.Reason,
		RequestedTimestamp:   r.RequestedTimestamp,
		DistanceFromGeofence: r.DistanceFromGeofence,
		ReviewedAt:           r.ReviewedAt,
		ReviewNote:           r.ReviewNote,
		CreatedAt:            r.CreatedAt,
	}
	if r.ReviewedBy != nil {
		v := r.ReviewedBy.String()
		resp.ReviewedBy = &v
	}
	if r.ShiftID != nil {
		v := r.ShiftID.String()
		resp.ShiftID = &v
	}
	return resp
}

func toResponses(rows []CheckInRequest) []Response {
	out := make([]Response, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	return out
}
