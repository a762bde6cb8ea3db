package shift

import (
	"time"

	"github.com/google/uuid"
)

type LocationRequest struct {
	Latitude       *float64  `json:"lat" binding:"required,min=-90,max=90"`
	Longitude      *float64  `json:"lon" binding:"required,min=-180,max=180"`
	AccuracyMeters float64   `json:"accuracy" binding:"min=0"`
	Timestamp      time.Time `json:"timestamp" binding:"required"`
}

func (r LocationRequest) ToLocation() Location {
	return Location{
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		Timestamp:      r.Timestamp.UTC(),
	}
}

type ClockInRequest struct {
	Location   LocationRequest `json:"location" binding:"required"`
	LocationID *uuid.UUID      `json:"location_id"`
}

type ClockOutRequest struct {
	Location *LocationRequest `json:"location"`
}

type ResolveStaleRequest struct {
	Resolution       Resolution `json:"resolution" binding:"required,oneof=forgot actual"`
	ActualClockOutAt *time.Time `json:"actual_clock_out_at"`
	Reason           string     `json:"reason" binding:"required"`
}

type RejectRevisionRequest struct {
	Note string `json:"note" binding:"max=500"`
}

type ShiftResponse struct {
	ID                 string     `json:"id"`
	EmployeeID         string     `json:"employee_id"`
	Status             Status     `json:"status"`
	ShiftDate          string     `json:"shift_date"`
	ClockInAt          time.Time  `json:"clock_in_at"`
	ClockOutAt         *time.Time `json:"clock_out_at,omitempty"`
	ClockInInRange     *bool      `json:"clock_in_in_range,omitempty"`
	ClockInDistanceM   *float64   `json:"clock_in_distance_m,omitempty"`
	DurationMinutes    int        `json:"duration_minutes"`
	BreakMinutes       int        `json:"break_minutes"`
	NetDurationMinutes int        `json:"net_duration_minutes"`
	IsRevised          bool       `json:"is_revised"`
	Resolution         *string    `json:"resolution,omitempty"`
	ProposedClockOutAt *time.Time `json:"proposed_clock_out_at,omitempty"`
	RevisionReason     *string    `json:"revision_reason,omitempty"`
	RevisionNote       *string    `json:"revision_note,omitempty"`
}

func toShiftResponse(s *Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:                 s.ID.String(),
		EmployeeID:         s.EmployeeID.String(),
		Status:             s.Status,
		ShiftDate:          s.ShiftDate.Format("2006-01-02"),
		ClockInAt:          s.ClockInAt,
		ClockOutAt:         s.ClockOutAt,
		ClockInInRange:     s.ClockInInRange,
		ClockInDistanceM:   s.ClockInDistanceM,
		DurationMinutes:    s.DurationMinutes,
		BreakMinutes:       s.BreakMinutes,
		NetDurationMinutes: s.NetDurationMinutes,
		IsRevised:          s.IsRevised,
		ProposedClockOutAt: s.ProposedClockOutAt,
		RevisionReason:     s.RevisionReason,
		RevisionNote:       s.RevisionNote,
	}
	if s.Resolution != nil {
		r := string(*s.Resolution)
		resp.Resolution = &r
	}
	return resp
}

func toShiftResponses(rows []Shift) []ShiftResponse {
	out := make([]ShiftResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toShiftResponse(&rows[i]))
	}
	return out
}
