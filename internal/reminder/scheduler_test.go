package reminder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-timeclock/internal/employee"
	"go-timeclock/internal/notification"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/reminder"
	"go-timeclock/internal/schedule"
	"go-timeclock/internal/shared/lock"
	"go-timeclock/internal/shift"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utc8 = time.FixedZone("UTC+8", 8*60*60)

// 2026-10-12 is a Monday.
func local(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, utc8)
}

type world struct {
	org       organization.Organization
	worker    employee.Employee
	manager   employee.Employee
	schedules *scheduleRepo
	dir       *directory
	shifts    *shiftSource
	ledger    *memLedger
	notifier  *recordingNotifier
	orgs      orgSource
	locker    denyLocker
}

func newWorld() *world {
	org := organization.Organization{ID: uuid.New(), Name: "Harbour Cafe", Timezone: "Asia/Singapore", WeekStartDay: 1, IsActive: true}
	worker := employee.Employee{ID: uuid.New(), OrganizationID: org.ID, FullName: "Ana", Role: employee.RoleEmployee, IsActive: true}
	manager := employee.Employee{ID: uuid.New(), OrganizationID: org.ID, FullName: "Ben", Role: employee.RoleOrgManager, IsActive: true}
	return &world{
		org:       org,
		worker:    worker,
		manager:   manager,
		schedules: newScheduleRepo(),
		dir:       &directory{employees: []employee.Employee{worker, manager}},
		shifts:    &shiftSource{},
		ledger:    newMemLedger(),
		notifier:  &recordingNotifier{},
		orgs:      orgSource{orgs: []organization.Organization{org}},
		locker:    denyLocker{held: map[string]bool{}},
	}
}

func (w *world) scheduler() *reminder.Scheduler {
	return w.schedulerWith(w.locker)
}

func (w *world) schedulerWith(locker lock.Locker) *reminder.Scheduler {
	return reminder.NewScheduler(reminder.Deps{
		Organizations: w.orgs,
		Zones:         zoneLocator{"Asia/Singapore": utc8},
		Employees:     w.dir,
		Resolver:      schedule.NewResolver(w.schedules),
		Shifts:        w.shifts,
		Ledger:        w.ledger,
		Notifier:      w.notifier,
		Locker:        locker,
	}, reminder.Config{Parallelism: 2})
}

func (w *world) clockIn(emp employee.Employee, at time.Time) shift.Shift {
	sh := shift.Shift{
		ID:             uuid.New(),
		OrganizationID: emp.OrganizationID,
		EmployeeID:     emp.ID,
		Status:         shift.StatusOpen,
		ClockInAt:      at.UTC(),
		ShiftDate:      time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC),
	}
	w.shifts.shifts = append(w.shifts.shifts, sh)
	return sh
}

func TestReminderTick_ClockInWindowsInUTCPlus8(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	tpl := w.schedules.assignEveryDay(w.worker, 9*60, 17*60)
	svc := w.scheduler()

	// 08:45 local is 00:45 UTC.
	now := local(12, 8, 45).UTC()
	assert.Equal(t, 0, now.Hour())

	res, err := svc.RunReminderTick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 1, Sent: 1}, res)
	assert.Equal(t, []string{"clock_in_before15"}, w.notifier.subtypes(w.worker.ID))

	res, err = svc.RunReminderTick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 1, Skipped: 1}, res)

	// the band is three minutes wide; the next minute hits the same key
	res, err = svc.RunReminderTick(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)

	_, err = svc.RunReminderTick(ctx, local(12, 8, 55).UTC())
	require.NoError(t, err)
	_, err = svc.RunReminderTick(ctx, local(12, 9, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, []string{"clock_in_before15", "clock_in_before5", "clock_in_at_time"}, w.notifier.subtypes(w.worker.ID))

	res, err = svc.RunReminderTick(ctx, local(12, 9, 15).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 2, Sent: 2}, res)
	assert.Equal(t, []string{"late_manager_alert"}, w.notifier.subtypes(w.manager.ID))

	mondaySlot := tpl.SlotsOn(time.Monday)[0]
	st, _ := w.ledger.status(reminder.Key{
		EmployeeID: w.worker.ID,
		SlotID:     mondaySlot.ID,
		Subtype:    reminder.SubtypeLateManagerAlert,
		Date:       time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, reminder.LedgerSent, st)

	res, err = svc.RunReminderTick(ctx, local(12, 10, 30).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{}, res)
}

// Two workers without a lock run the same minute; the ledger alone keeps delivery
// to one send per key.
func TestReminderTick_ConcurrentWorkersSendOnce(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	staff := []employee.Employee{w.worker}
	for i := 0; i < 24; i++ {
		e := employee.Employee{ID: uuid.New(), OrganizationID: w.org.ID, Role: employee.RoleEmployee, IsActive: true}
		w.dir.employees = append(w.dir.employees, e)
		staff = append(staff, e)
	}
	for _, e := range staff {
		w.schedules.assignEveryDay(e, 9*60, 17*60)
	}
	workers := []*reminder.Scheduler{w.schedulerWith(nil), w.schedulerWith(nil)}
	now := local(12, 8, 45).UTC()

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		mu    sync.Mutex
		sent  int
	)
	for _, sch := range workers {
		wg.Add(1)
		go func(sch *reminder.Scheduler) {
			defer wg.Done()
			<-start
			res, err := sch.RunReminderTick(ctx, now)
			assert.NoError(t, err)
			mu.Lock()
			sent += res.Sent
			mu.Unlock()
		}(sch)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, len(staff), sent)
	for _, e := range staff {
		assert.Equal(t, []string{"clock_in_before15"}, w.notifier.subtypes(e.ID))
	}
}

func TestReminderTick_SkipsEmployeeAlreadyClockedIn(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	tpl := w.schedules.assignEveryDay(w.worker, 9*60, 17*60)
	w.clockIn(w.worker, local(12, 8, 40))

	res, err := w.scheduler().RunReminderTick(ctx, local(12, 8, 45).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 1, Skipped: 1}, res)
	assert.Empty(t, w.notifier.subtypes(w.worker.ID))

	st, reason := w.ledger.status(reminder.Key{
		EmployeeID: w.worker.ID,
		SlotID:     tpl.SlotsOn(time.Monday)[0].ID,
		Subtype:    reminder.SubtypeClockInBefore15,
		Date:       time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, reminder.LedgerSkipped, st)
	assert.Equal(t, reminder.SkipAlreadyClockedIn, reason)

	res, err = w.scheduler().RunReminderTick(ctx, local(12, 9, 15).UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, w.notifier.subtypes(w.manager.ID))
}

func TestReminderTick_ClockOut(t *testing.T) {
	ctx := context.Background()

	t.Run("day shift", func(t *testing.T) {
		w := newWorld()
		w.schedules.assignEveryDay(w.worker, 9*60, 17*60)
		w.clockIn(w.worker, local(12, 9, 2))
		svc := w.scheduler()

		res, err := svc.RunReminderTick(ctx, local(12, 17, 15).UTC())
		require.NoError(t, err)
		assert.Equal(t, reminder.TickResult{Processed: 1, Sent: 1}, res)
		assert.Equal(t, []string{"clock_out_after15"}, w.notifier.subtypes(w.worker.ID))

		res, err = svc.RunReminderTick(ctx, local(12, 17, 16).UTC())
		require.NoError(t, err)
		assert.Equal(t, reminder.TickResult{Processed: 1, Skipped: 1}, res)
	})

	t.Run("overnight shift keyed to start date", func(t *testing.T) {
		w := newWorld()
		tpl := w.schedules.assignEveryDay(w.worker, 22*60, 6*60)
		w.clockIn(w.worker, local(12, 22, 0))

		res, err := w.scheduler().RunReminderTick(ctx, local(13, 6, 15).UTC())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)

		st, _ := w.ledger.status(reminder.Key{
			EmployeeID: w.worker.ID,
			SlotID:     tpl.SlotsOn(time.Monday)[0].ID,
			Subtype:    reminder.SubtypeClockOutAfter15,
			Date:       time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		})
		assert.Equal(t, reminder.LedgerSent, st)
	})
}

func TestReminderTick_ErrorIsolationAndRetry(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	other := employee.Employee{ID: uuid.New(), OrganizationID: w.org.ID, FullName: "Cai", Role: employee.RoleEmployee, IsActive: true}
	w.dir.employees = append(w.dir.employees, other)
	w.schedules.assignEveryDay(w.worker, 9*60, 17*60)
	w.schedules.assignEveryDay(other, 9*60, 17*60)

	down := true
	w.notifier.failFn = func(r notification.Request) error {
		if down && r.UserID == w.worker.ID {
			return errors.New("inbox write failed")
		}
		return nil
	}
	svc := w.scheduler()
	now := local(12, 8, 45).UTC()

	res, err := svc.RunReminderTick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 2, Sent: 1, Errors: 1}, res)
	assert.Equal(t, []string{"clock_in_before15"}, w.notifier.subtypes(other.ID))

	down = false
	res, err = svc.RunReminderTick(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 2, Sent: 1, Skipped: 1}, res)
	assert.Equal(t, []string{"clock_in_before15"}, w.notifier.subtypes(w.worker.ID))
}

func TestReminderTick_OrganizationIsolation(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.schedules.assignEveryDay(w.worker, 9*60, 17*60)

	broken := organization.Organization{ID: uuid.New(), Timezone: "Mars/Olympus", IsActive: true}
	leased := organization.Organization{ID: uuid.New(), Timezone: "Asia/Singapore", IsActive: true}
	leasedEmp := employee.Employee{ID: uuid.New(), OrganizationID: leased.ID, IsActive: true}
	w.dir.employees = append(w.dir.employees, leasedEmp)
	w.schedules.assignEveryDay(leasedEmp, 9*60, 17*60)
	w.orgs.orgs = append(w.orgs.orgs, broken, leased)
	w.locker.held["reminder:"+leased.ID.String()] = true

	res, err := w.scheduler().RunReminderTick(ctx, local(12, 8, 45).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 1, Sent: 1, Errors: 1}, res)
	assert.Empty(t, w.notifier.subtypes(leasedEmp.ID))
}

func TestWeeklySummaryTick(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	closed := func(emp employee.Employee, in time.Time, net int) shift.Shift {
		out := in.Add(time.Duration(net+30) * time.Minute).UTC()
		return shift.Shift{
			ID:                 uuid.New(),
			OrganizationID:     emp.OrganizationID,
			EmployeeID:         emp.ID,
			Status:             shift.StatusClosed,
			ClockInAt:          in.UTC(),
			ClockOutAt:         &out,
			NetDurationMinutes: net,
		}
	}
	w.shifts.shifts = []shift.Shift{
		closed(w.worker, local(5, 9, 0), 450),
		closed(w.worker, local(11, 23, 0), 480),
		// clocked in after the boundary; belongs to the new week
		closed(w.worker, local(12, 0, 30), 60),
		// clocked in before the period
		closed(w.worker, local(4, 23, 30), 100),
	}
	svc := w.scheduler()

	res, err := svc.RunWeeklySummaryTick(ctx, local(12, 8, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 1, Sent: 1}, res)

	require.Len(t, w.notifier.sent, 1)
	summary := w.notifier.sent[0]
	assert.Equal(t, w.worker.ID, summary.UserID)
	assert.Equal(t, notification.TypeWeeklySummary, summary.Type)
	assert.Equal(t, 2, summary.Data.ShiftCount)
	assert.Equal(t, 930, summary.Data.NetMinutes)
	assert.Equal(t, "2026-10-05", summary.Data.PeriodStart)
	assert.Equal(t, "2026-10-11", summary.Data.PeriodEnd)

	res, err = svc.RunWeeklySummaryTick(ctx, local(12, 9, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Processed: 1, Skipped: 1}, res)

	res, err = svc.RunWeeklySummaryTick(ctx, local(13, 0, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{}, res)
	assert.Len(t, w.notifier.sent, 1)
}

func TestWeekBoundary(t *testing.T) {
	date, at := reminder.WeekBoundary(local(14, 10, 0), time.Monday)
	assert.Equal(t, "2026-10-12", date.Format("2006-01-02"))
	assert.True(t, at.Equal(local(12, 0, 0)))

	date, _ = reminder.WeekBoundary(local(12, 0, 0), time.Monday)
	assert.Equal(t, "2026-10-12", date.Format("2006-01-02"))

	date, _ = reminder.WeekBoundary(local(12, 10, 0), time.Sunday)
	assert.Equal(t, "2026-10-11", date.Format("2006-01-02"))
}
