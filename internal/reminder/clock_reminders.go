package reminder

import (
	"context"
	"fmt"
	"time"

	"go-timeclock/internal/employee"
	"go-timeclock/internal/notification"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/schedule"
	"go-timeclock/internal/shift"
	"go-timeclock/internal/window"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var clockInSubtypes = map[window.Window]Subtype{
	window.Before15: SubtypeClockInBefore15,
	window.Before5:  SubtypeClockInBefore5,
	window.AtTime:   SubtypeClockInAtTime,
	window.After15:  SubtypeClockInAfter15,
}

func (s *Scheduler) remindOrg(ctx context.Context, org organization.Organization, now time.Time, loc *time.Location) TickResult {
	var res TickResult
	log := s.logger.With(zap.String("organization_id", org.ID.String()))
	localNow := now.In(loc)

	employees, err := s.deps.Employees.FindAllActiveByOrganization(ctx, org.ID.String())
	if err != nil {
		log.Error("list employees failed", zap.Error(err))
		res.Errors++
		return res
	}
	open, err := s.deps.Shifts.FindOpenByOrganization(ctx, org.ID.String())
	if err != nil {
		log.Error("list open shifts failed", zap.Error(err))
		res.Errors++
		return res
	}

	clockedIn := make(map[uuid.UUID]bool, len(open))
	for _, sh := range open {
		clockedIn[sh.EmployeeID] = true
	}
	byID := make(map[uuid.UUID]employee.Employee, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}

	managers := &managerList{repo: s.deps.Employees, organizationID: org.ID.String()}
	for _, emp := range employees {
		res.add(s.remindClockIn(ctx, org, emp, clockedIn[emp.ID], localNow, managers))
	}
	for _, sh := range open {
		emp, ok := byID[sh.EmployeeID]
		if !ok {
			continue
		}
		res.add(s.remindClockOut(ctx, org, emp, sh, localNow))
	}
	return res
}

func (s *Scheduler) remindClockIn(
	ctx context.Context,
	org organization.Organization,
	emp employee.Employee,
	clockedIn bool,
	localNow time.Time,
	managers *managerList,
) TickResult {
	var res TickResult
	occurrences, err := s.deps.Resolver.ClockInCandidates(ctx, emp, localNow)
	if err != nil {
		s.logger.Error("resolve clock-in slots failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
		res.Errors++
		return res
	}

	current := window.FromTime(localNow)
	for _, occ := range occurrences {
		w := window.Classify(current, window.MinuteOfDay(occ.Slot.StartMinute))
		if w == window.None {
			continue
		}
		res.Processed++

		start := occ.StartAt(localNow.Location())
		key := Key{EmployeeID: emp.ID, SlotID: occ.Slot.ID, Subtype: clockInSubtypes[w], Date: occ.Date}
		if clockedIn {
			if _, err := s.deps.Ledger.Skip(ctx, org.ID, key, start, SkipAlreadyClockedIn); err != nil {
				s.logger.Error("ledger skip failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
				res.Errors++
				continue
			}
			res.Skipped++
			continue
		}

		res.add(s.deliver(ctx, org, key, start, []notification.Request{clockInRequest(org, emp, occ, w, start)}))

		if w != window.After15 {
			continue
		}
		recipients, err := managers.get(ctx)
		if err != nil {
			s.logger.Error("list managers failed", zap.String("organization_id", org.ID.String()), zap.Error(err))
			res.Errors++
			continue
		}
		reqs := lateAlertRequests(org, emp, occ, start, recipients)
		if len(reqs) == 0 {
			continue
		}
		res.Processed++
		alertKey := Key{EmployeeID: emp.ID, SlotID: occ.Slot.ID, Subtype: SubtypeLateManagerAlert, Date: occ.Date}
		res.add(s.deliver(ctx, org, alertKey, start, reqs))
	}
	return res
}

func (s *Scheduler) remindClockOut(ctx context.Context, org organization.Organization, emp employee.Employee, sh shift.Shift, localNow time.Time) TickResult {
	var res TickResult
	occ, err := s.deps.Resolver.EndingSlotForShift(ctx, emp, schedule.ShiftRef{ShiftDate: sh.ShiftDate, ClockInAt: sh.ClockInAt}, localNow)
	if err != nil {
		s.logger.Error("resolve ending slot failed", zap.String("shift_id", sh.ID.String()), zap.Error(err))
		res.Errors++
		return res
	}
	if occ == nil {
		return res
	}

	end := occ.EndAt(localNow.Location())
	if !window.ShouldRemindClockOut(window.FromTime(localNow), window.FromTime(end)) {
		return res
	}
	res.Processed++

	key := Key{EmployeeID: emp.ID, SlotID: occ.Slot.ID, Subtype: SubtypeClockOutAfter15, Date: occ.Date}
	overdue := int(localNow.Sub(end) / time.Minute)
	req := notification.Request{
		UserID:         emp.ID,
		OrganizationID: org.ID,
		Type:           notification.TypeClockOutReminder,
		Title:          "Still clocked in?",
		Body:           fmt.Sprintf("Your shift ended at %s. Remember to clock out.", end.Format("15:04")),
		Data: notification.Data{
			Subtype:        string(SubtypeClockOutAfter15),
			ShiftID:        sh.ID.String(),
			SlotID:         occ.Slot.ID.String(),
			ScheduledFor:   &end,
			MinutesOverdue: overdue,
		},
	}
	res.add(s.deliver(ctx, org, key, end, []notification.Request{req}))
	return res
}

func clockInRequest(org organization.Organization, emp employee.Employee, occ schedule.Occurrence, w window.Window, start time.Time) notification.Request {
	subtype := clockInSubtypes[w]
	req := notification.Request{
		UserID:         emp.ID,
		OrganizationID: org.ID,
		Type:           notification.TypeClockInReminder,
		Data: notification.Data{
			Subtype:      string(subtype),
			SlotID:       occ.Slot.ID.String(),
			ScheduledFor: &start,
		},
	}
	at := start.Format("15:04")
	switch w {
	case window.Before15:
		req.Title = "Shift starts in 15 minutes"
		req.Body = fmt.Sprintf("Your shift starts at %s.", at)
	case window.Before5:
		req.Title = "Shift starts in 5 minutes"
		req.Body = fmt.Sprintf("Your shift starts at %s. Get ready to clock in.", at)
	case window.AtTime:
		req.Title = "Time to clock in"
		req.Body = fmt.Sprintf("Your shift started at %s.", at)
	case window.After15:
		req.Title = "You have not clocked in"
		req.Body = fmt.Sprintf("Your shift started at %s. Clock in now or send a check-in request.", at)
	}
	return req
}

func lateAlertRequests(org organization.Organization, emp employee.Employee, occ schedule.Occurrence, start time.Time, managers []employee.Employee) []notification.Request {
	reqs := make([]notification.Request, 0, len(managers))
	for _, m := range managers {
		if m.ID == emp.ID {
			continue
		}
		reqs = append(reqs, notification.Request{
			UserID:         m.ID,
			OrganizationID: org.ID,
			Type:           notification.TypeLateAlert,
			Title:          "Employee not clocked in",
			Body:           fmt.Sprintf("%s has not clocked in for the %s shift.", emp.FullName, start.Format("15:04")),
			Data: notification.Data{
				Subtype:      string(SubtypeLateManagerAlert),
				EmployeeID:   emp.ID.String(),
				SlotID:       occ.Slot.ID.String(),
				ScheduledFor: &start,
			},
		})
	}
	return reqs
}

// managerList loads an organization's managers on first use.
type managerList struct {
	repo           employee.Repository
	organizationID string
	loaded         bool
	rows           []employee.Employee
}

func (m *managerList) get(ctx context.Context) ([]employee.Employee, error) {
	if m.loaded {
		return m.rows, nil
	}
	rows, err := m.repo.FindManagersByOrganization(ctx, m.organizationID)
	if err != nil {
		return nil, err
	}
	m.rows, m.loaded = rows, true
	return rows, nil
}
