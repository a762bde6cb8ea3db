package shift

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen            Status = "open"
	StatusClosed          Status = "closed"
	StatusStale           Status = "stale"
	StatusPendingRevision Status = "pending_revision"
	StatusRevised         Status = "revised"
)

var transitions = map[Status][]Status{
	StatusOpen:            {StatusClosed, StatusStale},
	StatusStale:           {StatusPendingRevision, StatusRevised},
	StatusPendingRevision: {StatusRevised, StatusStale},
}

// CanTransition reports whether a shift may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Resolution string

const (
	// ResolutionForgot closes a stale shift at a nominal duration after clock-in.
	ResolutionForgot Resolution = "forgot"
	// ResolutionActual closes a stale shift at a clock-out time the employee supplies.
	ResolutionActual Resolution = "actual"
)

type Location struct {
	Latitude       float64   `json:"lat" validate:"min=-90,max=90"`
	Longitude      float64   `json:"lon" validate:"min=-180,max=180"`
	AccuracyMeters float64   `json:"accuracy" validate:"min=0"`
	Timestamp      time.Time `json:"timestamp" validate:"required"`
}

type Shift struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrganizationID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_shifts_open_employee,where:status = 'open'"`
	LocationID         *uuid.UUID `gorm:"type:uuid"`
	Status             Status     `gorm:"type:varchar(20);not null"`
	ClockInAt          time.Time  `gorm:"not null"`
	ClockInLocation    Location   `gorm:"type:jsonb;serializer:json;not null"`
	ClockInInRange     *bool
	ClockInDistanceM   *float64
	ClockOutAt         *time.Time
	ClockOutLocation   *Location `gorm:"type:jsonb;serializer:json"`
	DurationMinutes    int       `gorm:"not null;default:0"`
	BreakMinutes       int       `gorm:"not null;default:0"`
	NetDurationMinutes int       `gorm:"not null;default:0"`
	// ShiftDate is the clock-in date in the organization's zone.
	ShiftDate     time.Time `gorm:"type:date;not null"`
	MarkedStaleAt *time.Time

	IsRevised          bool        `gorm:"not null;default:false"`
	Resolution         *Resolution `gorm:"type:varchar(10)"`
	ProposedClockOutAt *time.Time
	OriginalClockOutAt *time.Time
	RevisionReason     *string
	RevisionNote       *string
	RevisionRequestBy  *uuid.UUID `gorm:"type:uuid"`
	RevisedBy          *uuid.UUID `gorm:"type:uuid"`
	RevisedAt          *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Shift) TableName() string {
	return "shifts"
}

// close stamps clock-out and derives the duration fields.
func (s *Shift) close(out time.Time, policy BreakPolicy) {
	out = out.UTC()
	s.ClockOutAt = &out
	s.DurationMinutes = int(out.Sub(s.ClockInAt) / time.Minute)
	s.BreakMinutes, s.NetDurationMinutes = policy.Apply(s.DurationMinutes)
}

// BreakPolicy deducts DeductMinutes from any shift longer than ThresholdMinutes.
type BreakPolicy struct {
	ThresholdMinutes int
	DeductMinutes    int
}

func (p BreakPolicy) Apply(duration int) (breakMinutes, net int) {
	if p.DeductMinutes > 0 && duration > p.ThresholdMinutes {
		breakMinutes = p.DeductMinutes
		if breakMinutes > duration {
			breakMinutes = duration
		}
	}
	return breakMinutes, duration - breakMinutes
}

// WorkLocation is a geofenced site employees clock in at.
type WorkLocation struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name           string    `gorm:"type:varchar(150);not null"`
	Latitude       float64   `gorm:"not null"`
	Longitude      float64   `gorm:"not null"`
	RadiusMeters   float64   `gorm:"not null"`
	IsActive       bool      `gorm:"not null;default:true"`
}

func (WorkLocation) TableName() string {
	return "work_locations"
}

type Policy struct {
	Break            BreakPolicy
	StaleThreshold   time.Duration
	ForgotNominal    time.Duration
	MinReasonLength  int
	RevisionWindow   time.Duration
	AllowedClockSkew time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Break:            BreakPolicy{ThresholdMinutes: 6 * 60, DeductMinutes: 30},
		StaleThreshold:   16 * time.Hour,
		ForgotNominal:    time.Minute,
		MinReasonLength:  10,
		RevisionWindow:   30 * 24 * time.Hour,
		AllowedClockSkew: time.Minute,
	}
}

type ClockInInput struct {
	Location   Location
	LocationID *uuid.UUID
	// Timestamp defaults to now. Check-in request approval passes the requested time.
	Timestamp time.Time
}

type ClockOutInput struct {
	Location  *Location
	Timestamp time.Time
}

type ResolveInput struct {
	Resolution       Resolution
	ActualClockOutAt *time.Time
	Reason           string
	ActorID          string
	// ActorIsManager resolves the shift directly instead of proposing a revision.
	ActorIsManager bool
}

// SweepResult counts one stale sweep.
type SweepResult struct {
	Processed int
	Marked    int
	Errors    int
}
