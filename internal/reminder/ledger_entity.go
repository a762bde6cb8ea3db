package reminder

import (
	"time"

	"github.com/google/uuid"
)

type Subtype string

const (
	SubtypeClockInBefore15  Subtype = "clock_in_before15"
	SubtypeClockInBefore5   Subtype = "clock_in_before5"
	SubtypeClockInAtTime    Subtype = "clock_in_at_time"
	SubtypeClockInAfter15   Subtype = "clock_in_after15"
	SubtypeLateManagerAlert Subtype = "late_manager_alert"
	SubtypeClockOutAfter15  Subtype = "clock_out_after15"
	SubtypeWeeklySummary    Subtype = "weekly_summary"
)

type LedgerStatus string

const (
	LedgerPending LedgerStatus = "pending"
	LedgerSent    LedgerStatus = "sent"
	LedgerSkipped LedgerStatus = "skipped"
	LedgerFailed  LedgerStatus = "failed"
)

const SkipAlreadyClockedIn = "already_clocked_in"

// Key identifies one reminder. Weekly summaries use uuid.Nil for the slot.
type Key struct {
	EmployeeID uuid.UUID
	SlotID     uuid.UUID
	Subtype    Subtype
	// Date is the slot occurrence date, or the week boundary for summaries.
	Date time.Time
}

// ScheduledNotification is one row of the delivery ledger. The unique key is what
// Claim and Skip conflict on.
type ScheduledNotification struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;index"`
	EmployeeID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_scheduled_notifications_key,priority:1"`
	SlotID         uuid.UUID    `gorm:"column:schedule_slot_id;type:uuid;not null;uniqueIndex:uq_scheduled_notifications_key,priority:2"`
	Subtype        Subtype      `gorm:"type:varchar(30);not null;uniqueIndex:uq_scheduled_notifications_key,priority:3"`
	CalendarDate   time.Time    `gorm:"type:date;not null;uniqueIndex:uq_scheduled_notifications_key,priority:4"`
	Status         LedgerStatus `gorm:"type:varchar(10);not null;default:pending"`
	ScheduledFor   time.Time    `gorm:"not null"`
	SkipReason     *string
	ProcessedAt    *time.Time
	Attempts       int `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ScheduledNotification) TableName() string {
	return "scheduled_notifications"
}
