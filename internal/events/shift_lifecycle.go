package events

import "time"

const ShiftLifecycleTopic = "timeclock.shift.lifecycle.v1"

const (
	ShiftClockedIn         = "shift.clocked_in"
	ShiftClosed            = "shift.closed"
	ShiftStale             = "shift.stale"
	ShiftRevisionRequested = "shift.revision_requested"
	ShiftRevised           = "shift.revised"
	ShiftRevisionRejected  = "shift.revision_rejected"
)

// ShiftLifecycleEvent is published for every shift status transition. It is keyed
// by shift id so all events of one shift land on the same partition.
type ShiftLifecycleEvent struct {
	EventType      string     `json:"event_type"`
	ShiftID        string     `json:"shift_id"`
	EmployeeID     string     `json:"employee_id"`
	OrganizationID string     `json:"organization_id"`
	Status         string     `json:"status"`
	ClockInAt      time.Time  `json:"clock_in_at"`
	ClockOutAt     *time.Time `json:"clock_out_at,omitempty"`
	ActorID        string     `json:"actor_id,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
