package reminder

import (
	"context"
	"fmt"
	"time"

	"go-timeclock/internal/notification"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/shared/dateutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const summaryGrace = 24 * time.Hour

type weekTotal struct {
	shifts     int
	netMinutes int
}

// WeekBoundary returns the local midnight that opened the organization's current
// week as a calendar date and as an instant.
func WeekBoundary(localNow time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	today := dateutil.DateOf(localNow)
	back := (int(today.Weekday()) - int(weekStart) + 7) % 7
	date := dateutil.AddDays(today, -back)
	return date, dateutil.At(date, 0, localNow.Location())
}

func (s *Scheduler) summarizeOrg(ctx context.Context, org organization.Organization, now time.Time, loc *time.Location) TickResult {
	var res TickResult
	log := s.logger.With(zap.String("organization_id", org.ID.String()))
	localNow := now.In(loc)

	boundaryDate, boundary := WeekBoundary(localNow, org.WeekStart())
	if localNow.Sub(boundary) >= summaryGrace {
		return res
	}
	periodStart := dateutil.AddDays(boundaryDate, -7)
	from := dateutil.At(periodStart, 0, loc)

	shifts, err := s.deps.Shifts.FindCompletedInRange(ctx, org.ID.String(), from.UTC(), boundary.UTC())
	if err != nil {
		log.Error("weekly summary: load shifts failed", zap.Error(err))
		res.Errors++
		return res
	}
	employees, err := s.deps.Employees.FindAllActiveByOrganization(ctx, org.ID.String())
	if err != nil {
		log.Error("weekly summary: list employees failed", zap.Error(err))
		res.Errors++
		return res
	}

	totals := map[uuid.UUID]*weekTotal{}
	for _, sh := range shifts {
		t, ok := totals[sh.EmployeeID]
		if !ok {
			t = &weekTotal{}
			totals[sh.EmployeeID] = t
		}
		t.shifts++
		t.netMinutes += sh.NetDurationMinutes
	}

	for _, emp := range employees {
		t, ok := totals[emp.ID]
		if !ok || t.shifts == 0 {
			continue
		}
		res.Processed++

		key := Key{EmployeeID: emp.ID, SlotID: uuid.Nil, Subtype: SubtypeWeeklySummary, Date: boundaryDate}
		req := notification.Request{
			UserID:         emp.ID,
			OrganizationID: org.ID,
			Type:           notification.TypeWeeklySummary,
			Title:          "Your week in review",
			Body: fmt.Sprintf("%d shifts, %dh %02dm worked from %s to %s.",
				t.shifts, t.netMinutes/60, t.netMinutes%60,
				dateutil.Format(periodStart), dateutil.Format(dateutil.AddDays(boundaryDate, -1))),
			Data: notification.Data{
				Subtype:     string(SubtypeWeeklySummary),
				PeriodStart: dateutil.Format(periodStart),
				PeriodEnd:   dateutil.Format(dateutil.AddDays(boundaryDate, -1)),
				ShiftCount:  t.shifts,
				NetMinutes:  t.netMinutes,
			},
		}
		res.add(s.deliver(ctx, org, key, boundary, []notification.Request{req}))
	}
	return res
}
