package schedule

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-timeclock/internal/employee"
	scheduleerrors "go-timeclock/internal/schedule/errors"
	"go-timeclock/internal/shared/dateutil"
	"go-timeclock/internal/window"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const halfDayMinutes = 720

// Resolved is the template that governs an employee on a date and where it came from.
type Resolved struct {
	Template   *Template
	Assignment Assignment
	Source     Source
}

// ShiftRef is the part of a shift the resolver needs to match an ending slot.
type ShiftRef struct {
	ShiftDate time.Time
	ClockInAt time.Time
}

type Resolver interface {
	TemplateFor(ctx context.Context, emp employee.Employee, day time.Time) (*Resolved, error)
	ClockInCandidates(ctx context.Context, emp employee.Employee, localNow time.Time) ([]Occurrence, error)
	EndingSlot(ctx context.Context, emp employee.Employee, localDay time.Time) (*Occurrence, error)
	EndingCandidates(ctx context.Context, emp employee.Employee, localNow time.Time) ([]Occurrence, error)
	EndingSlotForShift(ctx context.Context, emp employee.Employee, ref ShiftRef, localNow time.Time) (*Occurrence, error)
}

type resolver struct {
	repo   Repository
	logger *zap.Logger
}

func NewResolver(repo Repository, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("schedule.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("schedule.resolver")
	}
	return &resolver{repo: repo, logger: l}
}

// TemplateFor returns nil when neither a user nor a team assignment covers day.
func (r *resolver) TemplateFor(ctx context.Context, emp employee.Employee, day time.Time) (*Resolved, error) {
	day = dateutil.DateOf(day)

	userAssignments, err := r.repo.FindActiveAssignmentsByTarget(ctx, UserTarget{ID: emp.ID})
	if err != nil {
		return nil, err
	}
	if a, ok := firstEffective(userAssignments, day); ok {
		return r.load(ctx, a, SourceUser)
	}

	teamIDs := append([]uuid.UUID(nil), emp.TeamIDs...)
	sort.Slice(teamIDs, func(i, j int) bool { return teamIDs[i].String() < teamIDs[j].String() })
	teamAssignments, err := r.repo.FindActiveAssignmentsForTeams(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	if a, ok := firstEffective(teamAssignments, day); ok {
		return r.load(ctx, a, SourceTeam)
	}
	return nil, nil
}

func (r *resolver) load(ctx context.Context, a Assignment, source Source) (*Resolved, error) {
	tpl, err := r.repo.FindTemplateWithSlots(ctx, a.TemplateID)
	if errors.Is(err, scheduleerrors.ErrTemplateNotFound) {
		r.logger.Warn("assignment references missing template",
			zap.String("assignment_id", a.ID.String()),
			zap.String("template_id", a.TemplateID.String()),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, nil
	}
	return &Resolved{Template: tpl, Assignment: a, Source: source}, nil
}

func firstEffective(list []Assignment, day time.Time) (Assignment, bool) {
	for _, a := range list {
		if a.EffectiveOn(day) {
			return a, true
		}
	}
	return Assignment{}, false
}

// ClockInCandidates lists slot occurrences whose start lies within twelve hours of
// localNow. Occurrences on the previous and next day are included only when their
// true offset is already in the normalized range, so every start is counted once.
func (r *resolver) ClockInCandidates(ctx context.Context, emp employee.Employee, localNow time.Time) ([]Occurrence, error) {
	today := dateutil.DateOf(localNow)
	now := int(window.FromTime(localNow))

	var out []Occurrence
	for _, offset := range []int{0, 1, -1} {
		date := dateutil.AddDays(today, offset)
		resolved, err := r.TemplateFor(ctx, emp, date)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			continue
		}
		for _, slot := range resolved.Template.SlotsOn(date.Weekday()) {
			diff := slot.StartMinute + offset*1440 - now
			if window.Normalize(diff) != diff {
				continue
			}
			out = append(out, Occurrence{
				Slot:       slot,
				TemplateID: resolved.Template.ID,
				Source:     resolved.Source,
				Role:       startRole(offset, slot),
				Date:       date,
			})
		}
	}
	return out, nil
}

func startRole(offset int, slot Slot) DayRole {
	switch {
	case offset == 0 && slot.CrossesMidnight:
		return RoleSameDayOvernight
	case offset == 0:
		return RoleSameDay
	case offset > 0:
		return RoleNextDay
	case slot.CrossesMidnight:
		return RolePreviousOvernight
	default:
		return RolePreviousDay
	}
}

// EndingSlot picks the slot that ends on localDay: a same-day slot that does not
// cross midnight first, then an overnight slot that started the day before.
func (r *resolver) EndingSlot(ctx context.Context, emp employee.Employee, localDay time.Time) (*Occurrence, error) {
	list, err := r.endingOccurrences(ctx, emp, dateutil.DateOf(localDay), false)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// EndingCandidates lists occurrences whose end lies within twelve hours of localNow,
// most likely first.
func (r *resolver) EndingCandidates(ctx context.Context, emp employee.Employee, localNow time.Time) ([]Occurrence, error) {
	today := dateutil.DateOf(localNow)
	list, err := r.endingOccurrences(ctx, emp, today, true)
	if err != nil {
		return nil, err
	}

	now := int(window.FromTime(localNow))
	out := list[:0]
	for _, occ := range list {
		diff := endMinuteFrom(today, occ) - now
		if diff >= -halfDayMinutes && diff < halfDayMinutes {
			out = append(out, occ)
		}
	}
	return out, nil
}

// EndingSlotForShift matches an open shift to the occurrence it is working. An
// occurrence starting on the shift's date wins; ties and fallbacks go to the start
// closest to clock-in, never further than twelve hours away.
func (r *resolver) EndingSlotForShift(ctx context.Context, emp employee.Employee, ref ShiftRef, localNow time.Time) (*Occurrence, error) {
	list, err := r.EndingCandidates(ctx, emp, localNow)
	if err != nil || len(list) == 0 {
		return nil, err
	}

	loc := localNow.Location()
	shiftDate := dateutil.DateOf(ref.ShiftDate)
	var best *Occurrence
	bestSameDate := false
	var bestGap time.Duration
	for i := range list {
		occ := list[i]
		gap := absDuration(occ.StartAt(loc).Sub(ref.ClockInAt))
		if gap > 12*time.Hour {
			continue
		}
		sameDate := occ.Date.Equal(shiftDate)
		if best == nil ||
			(sameDate && !bestSameDate) ||
			(sameDate == bestSameDate && gap < bestGap) {
			best = &list[i]
			bestSameDate = sameDate
			bestGap = gap
		}
	}
	return best, nil
}

// endingOccurrences orders same-day non-crossing slots, then overnight slots from
// the previous day. With all set it appends the remaining neighbours.
func (r *resolver) endingOccurrences(ctx context.Context, emp employee.Employee, day time.Time, all bool) ([]Occurrence, error) {
	yesterday := dateutil.AddDays(day, -1)

	todayTpl, err := r.TemplateFor(ctx, emp, day)
	if err != nil {
		return nil, err
	}
	yesterdayTpl, err := r.TemplateFor(ctx, emp, yesterday)
	if err != nil {
		return nil, err
	}

	var primary, overnight, rest []Occurrence
	if todayTpl != nil {
		for _, s := range todayTpl.Template.SlotsOn(day.Weekday()) {
			occ := Occurrence{Slot: s, TemplateID: todayTpl.Template.ID, Source: todayTpl.Source, Date: day}
			if s.CrossesMidnight {
				occ.Role = RoleSameDayOvernight
				rest = append(rest, occ)
				continue
			}
			occ.Role = RoleSameDay
			primary = append(primary, occ)
		}
	}
	if yesterdayTpl != nil {
		for _, s := range yesterdayTpl.Template.SlotsOn(yesterday.Weekday()) {
			occ := Occurrence{Slot: s, TemplateID: yesterdayTpl.Template.ID, Source: yesterdayTpl.Source, Date: yesterday}
			if s.CrossesMidnight {
				occ.Role = RolePreviousOvernight
				overnight = append(overnight, occ)
				continue
			}
			occ.Role = RolePreviousDay
			rest = append(rest, occ)
		}
	}

	out := append(primary, overnight...)
	if all {
		out = append(out, rest...)
	}
	return out, nil
}

// endMinuteFrom is the occurrence end in minutes relative to midnight of day.
func endMinuteFrom(day time.Time, occ Occurrence) int {
	days := int(occ.Date.Sub(day).Hours() / 24)
	end := occ.Slot.EndMinute + days*1440
	if occ.Slot.CrossesMidnight {
		end += 1440
	}
	return end
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
