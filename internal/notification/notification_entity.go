package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeClockInReminder  Type = "clock_in_reminder"
	TypeLateAlert        Type = "late_alert"
	TypeClockOutReminder Type = "clock_out_reminder"
	TypeWeeklySummary    Type = "weekly_summary"
	TypeShiftStale       Type = "shift_stale"
	TypeCheckInDecision  Type = "checkin_request_decision"
)

// MaxTokenFailures is the failure count at which a push token is deactivated.
const MaxTokenFailures = 3

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

type PushToken struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Token         string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Platform      Platform  `gorm:"type:varchar(10);not null"`
	IsActive      bool      `gorm:"not null;default:true"`
	FailureCount  int       `gorm:"not null;default:0"`
	LastFailureAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PushToken) TableName() string {
	return "push_tokens"
}

// Data is the structured payload carried by an inbox row and the push message.
type Data struct {
	Subtype        string     `json:"subtype,omitempty"`
	ShiftID        string     `json:"shift_id,omitempty"`
	EmployeeID     string     `json:"employee_id,omitempty"`
	SlotID         string     `json:"slot_id,omitempty"`
	RequestID      string     `json:"request_id,omitempty"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	PeriodStart    string     `json:"period_start,omitempty"`
	PeriodEnd      string     `json:"period_end,omitempty"`
	ShiftCount     int        `json:"shift_count,omitempty"`
	NetMinutes     int        `json:"net_minutes,omitempty"`
	MinutesOverdue int        `json:"minutes_overdue,omitempty"`
}

type Notification struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type           Type      `gorm:"type:varchar(40);not null"`
	Title          string    `gorm:"type:varchar(200);not null"`
	Body           string    `gorm:"type:text;not null"`
	Data           Data      `gorm:"type:jsonb;serializer:json"`
	PushSent       bool      `gorm:"not null;default:false"`
	ReadAt         *time.Time
	CreatedAt      time.Time
}

func (Notification) TableName() string {
	return "notifications"
}

// Request asks Delivery to notify one user.
type Request struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Type           Type
	Title          string
	Body           string
	Data           Data
}

// Result counts what one Send did. Delivered is indexed like the request slice and
// reports whether at least one device accepted the push.
type Result struct {
	Notifications int
	Tokens        int
	Accepted      int
	Failed        int
	Deactivated   int
	Delivered     []bool
}
