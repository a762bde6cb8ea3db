package checkinrequest

import (
	"time"

	"go-timeclock/internal/shift"

	"github.com/google/uuid"
)

type RequestType string

const (
	TypeClockIn  RequestType = "clock_in"
	TypeClockOut RequestType = "clock_out"
)

func (t RequestType) Valid() bool {
	return t == TypeClockIn || t == TypeClockOut
}

type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusDenied      Status = "denied"
	StatusAutoExpired Status = "auto_expired"
)

// CheckInRequest asks a manager to record a clock event the employee could not make
// on site or on time.
type CheckInRequest struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrganizationID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	EmployeeID           uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uq_checkin_requests_pending,priority:1,where:status = 'pending'"`
	RequestType          RequestType    `gorm:"type:varchar(20);not null;uniqueIndex:uq_checkin_requests_pending,priority:2,where:status = 'pending'"`
	Status               Status         `gorm:"type:varchar(20);not null;default:pending"`
	RequestedLocation    shift.Location `gorm:"type:jsonb;serializer:json;not null"`
	LocationID           *uuid.UUID     `gorm:"type:uuid"`
	DistanceFromGeofence *float64
	Reason               string    `gorm:"type:text;not null"`
	RequestedTimestamp   time.Time `gorm:"not null"`
	ReviewedBy           *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt           *time.Time
	ReviewNote           *string
	ShiftID              *uuid.UUID `gorm:"type:uuid"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (CheckInRequest) TableName() string {
	return "checkin_requests"
}

// Review is the outcome stamped onto a request when it leaves pending.
type Review struct {
	By   *uuid.UUID
	At   *time.Time
	Note *string
}

type CreateInput struct {
	RequestType        RequestType
	Location           shift.Location
	LocationID         *uuid.UUID
	Reason             string
	RequestedTimestamp time.Time
}
