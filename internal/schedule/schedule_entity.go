package schedule

import (
	"fmt"
	"time"

	"go-timeclock/internal/shared/dateutil"

	"github.com/google/uuid"
)

type Template struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name           string    `gorm:"type:varchar(150);not null"`
	IsActive       bool      `gorm:"not null;default:true"`
	Slots          []Slot    `gorm:"foreignKey:TemplateID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Template) TableName() string {
	return "schedule_templates"
}

// SlotsOn returns the template's slots for weekday in position order.
func (t Template) SlotsOn(weekday time.Weekday) []Slot {
	var out []Slot
	for _, s := range t.Slots {
		if s.DayOfWeek == int(weekday) {
			out = append(out, s)
		}
	}
	return out
}

// Slot is one recurring weekly work period. Times are minutes past local midnight;
// a slot that crosses midnight ends on the following calendar day.
type Slot struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TemplateID      uuid.UUID `gorm:"type:uuid;not null;index"`
	DayOfWeek       int       `gorm:"not null"`
	StartMinute     int       `gorm:"not null"`
	EndMinute       int       `gorm:"not null"`
	CrossesMidnight bool      `gorm:"not null;default:false"`
	BreakMinutes    int       `gorm:"not null;default:0"`
	Position        int       `gorm:"not null;default:0"`
}

func (Slot) TableName() string {
	return "schedule_slots"
}

func (s Slot) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range", s.DayOfWeek)
	}
	if s.StartMinute < 0 || s.StartMinute >= 1440 || s.EndMinute < 0 || s.EndMinute >= 1440 {
		return fmt.Errorf("slot times must be within a day")
	}
	if s.StartMinute == s.EndMinute {
		return fmt.Errorf("slot start and end must differ")
	}
	if s.CrossesMidnight != (s.EndMinute < s.StartMinute) {
		return fmt.Errorf("crosses_midnight must be set exactly when end is before start")
	}
	if s.BreakMinutes < 0 {
		return fmt.Errorf("break_minutes must not be negative")
	}
	return nil
}

type TargetKind string

const (
	TargetTeam TargetKind = "team"
	TargetUser TargetKind = "user"
)

// Target is who an assignment applies to: exactly one team or one user.
type Target interface {
	Kind() TargetKind
	TargetID() uuid.UUID
	isTarget()
}

type TeamTarget struct{ ID uuid.UUID }

func (t TeamTarget) Kind() TargetKind    { return TargetTeam }
func (t TeamTarget) TargetID() uuid.UUID { return t.ID }
func (TeamTarget) isTarget()             {}

type UserTarget struct{ ID uuid.UUID }

func (t UserTarget) Kind() TargetKind    { return TargetUser }
func (t UserTarget) TargetID() uuid.UUID { return t.ID }
func (UserTarget) isTarget()             {}

func NewTarget(kind TargetKind, id uuid.UUID) (Target, error) {
	switch kind {
	case TargetTeam:
		return TeamTarget{ID: id}, nil
	case TargetUser:
		return UserTarget{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown assignment target kind %q", kind)
	}
}

type Assignment struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TemplateID     uuid.UUID
	Target         Target
	// EffectiveFrom and EffectiveTo are inclusive calendar dates; nil is unbounded.
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// EffectiveOn reports whether the assignment governs the calendar date day.
func (a Assignment) EffectiveOn(day time.Time) bool {
	if !a.IsActive {
		return false
	}
	d := dateutil.DateOf(day)
	if a.EffectiveFrom != nil && d.Before(dateutil.DateOf(*a.EffectiveFrom)) {
		return false
	}
	if a.EffectiveTo != nil && d.After(dateutil.DateOf(*a.EffectiveTo)) {
		return false
	}
	return true
}

// Overlaps reports whether two effective ranges share at least one day.
func (a Assignment) Overlaps(b Assignment) bool {
	if a.EffectiveTo != nil && b.EffectiveFrom != nil && dateutil.DateOf(*a.EffectiveTo).Before(dateutil.DateOf(*b.EffectiveFrom)) {
		return false
	}
	if b.EffectiveTo != nil && a.EffectiveFrom != nil && dateutil.DateOf(*b.EffectiveTo).Before(dateutil.DateOf(*a.EffectiveFrom)) {
		return false
	}
	return true
}

// assignmentRecord is the persisted form. A check constraint keeps target_kind in
// (team, user); the Target union keeps the either/or out of callers.
type assignmentRecord struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID  `gorm:"column:organization_id;type:uuid;not null;index"`
	TemplateID     uuid.UUID  `gorm:"column:template_id;type:uuid;not null"`
	TargetKind     TargetKind `gorm:"column:target_kind;type:varchar(10);not null"`
	TargetID       uuid.UUID  `gorm:"column:target_id;type:uuid;not null;index"`
	EffectiveFrom  *time.Time `gorm:"column:effective_from;type:date"`
	EffectiveTo    *time.Time `gorm:"column:effective_to;type:date"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (assignmentRecord) TableName() string {
	return "schedule_assignments"
}

func (r assignmentRecord) toDomain() (Assignment, error) {
	target, err := NewTarget(r.TargetKind, r.TargetID)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		TemplateID:     r.TemplateID,
		Target:         target,
		EffectiveFrom:  r.EffectiveFrom,
		EffectiveTo:    r.EffectiveTo,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
	}, nil
}

func fromDomain(a Assignment) assignmentRecord {
	return assignmentRecord{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		TemplateID:     a.TemplateID,
		TargetKind:     a.Target.Kind(),
		TargetID:       a.Target.TargetID(),
		EffectiveFrom:  a.EffectiveFrom,
		EffectiveTo:    a.EffectiveTo,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
	}
}

// Source tells whether an occurrence came from an individual or a team assignment.
type Source string

const (
	SourceUser Source = "user"
	SourceTeam Source = "team"
)

// DayRole describes how a slot occurrence relates to the local day being evaluated.
type DayRole string

const (
	RoleSameDay           DayRole = "same_day"
	RoleSameDayOvernight  DayRole = "same_day_overnight"
	RolePreviousOvernight DayRole = "previous_day_overnight"
	RolePreviousDay       DayRole = "previous_day"
	RoleNextDay           DayRole = "next_day"
)

// Occurrence is one concrete instance of a slot on a calendar date.
type Occurrence struct {
	Slot       Slot
	TemplateID uuid.UUID
	Source     Source
	Role       DayRole
	// Date is the calendar date the slot starts on.
	Date time.Time
}

func (o Occurrence) StartAt(loc *time.Location) time.Time {
	return dateutil.At(o.Date, o.Slot.StartMinute, loc)
}

func (o Occurrence) EndAt(loc *time.Location) time.Time {
	end := o.Slot.EndMinute
	if o.Slot.CrossesMidnight {
		end += 1440
	}
	return dateutil.At(o.Date, end, loc)
}
