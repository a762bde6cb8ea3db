package reminder_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-timeclock/internal/employee"
	"go-timeclock/internal/notification"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/reminder"
	"go-timeclock/internal/schedule"
	scheduleerrors "go-timeclock/internal/schedule/errors"
	"go-timeclock/internal/shared/lock"
	"go-timeclock/internal/shift"

	"github.com/google/uuid"
)

type scheduleRepo struct {
	templates   map[uuid.UUID]*schedule.Template
	assignments []schedule.Assignment
}

func newScheduleRepo() *scheduleRepo {
	return &scheduleRepo{templates: map[uuid.UUID]*schedule.Template{}}
}

// assignEveryDay gives emp a template with one slot on every weekday.
func (r *scheduleRepo) assignEveryDay(emp employee.Employee, start, end int) schedule.Template {
	tpl := &schedule.Template{ID: uuid.New(), OrganizationID: emp.OrganizationID, Name: "roster", IsActive: true}
	for d := 0; d < 7; d++ {
		tpl.Slots = append(tpl.Slots, schedule.Slot{
			ID:              uuid.New(),
			TemplateID:      tpl.ID,
			DayOfWeek:       d,
			StartMinute:     start,
			EndMinute:       end,
			CrossesMidnight: end < start,
		})
	}
	r.templates[tpl.ID] = tpl
	r.assignments = append(r.assignments, schedule.Assignment{
		ID:             uuid.New(),
		OrganizationID: emp.OrganizationID,
		TemplateID:     tpl.ID,
		Target:         schedule.UserTarget{ID: emp.ID},
		IsActive:       true,
	})
	return *tpl
}

func (r *scheduleRepo) WithTx(*sql.Tx) schedule.Repository                       { return r }
func (r *scheduleRepo) LockTarget(context.Context, schedule.Target) error        { return nil }
func (r *scheduleRepo) CreateTemplate(context.Context, *schedule.Template) error { return nil }
func (r *scheduleRepo) CreateAssignment(context.Context, *schedule.Assignment) error {
	return nil
}

func (r *scheduleRepo) FindTemplateWithSlots(_ context.Context, id uuid.UUID) (*schedule.Template, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return nil, scheduleerrors.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *scheduleRepo) FindActiveAssignmentsByTarget(_ context.Context, target schedule.Target) ([]schedule.Assignment, error) {
	var out []schedule.Assignment
	for _, a := range r.assignments {
		if a.IsActive && a.Target == target {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *scheduleRepo) FindActiveAssignmentsForTeams(context.Context, []uuid.UUID) ([]schedule.Assignment, error) {
	return nil, nil
}

type orgSource struct {
	orgs []organization.Organization
}

func (o orgSource) FindAllActive(context.Context) ([]organization.Organization, error) {
	return o.orgs, nil
}

// zoneLocator maps organization timezones through a fixed table so tests do not
// depend on the host zoneinfo.
type zoneLocator map[string]*time.Location

func (z zoneLocator) Location(context.Context, string) (*time.Location, error) {
	return nil, errors.New("not used")
}

func (z zoneLocator) ZoneOf(org organization.Organization) (*time.Location, error) {
	loc, ok := z[org.Timezone]
	if !ok {
		return nil, fmt.Errorf("unknown zone %q", org.Timezone)
	}
	return loc, nil
}

type directory struct {
	employees []employee.Employee
}

func (d *directory) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	for _, e := range d.employees {
		if e.ID.String() == id {
			return &e, nil
		}
	}
	return nil, errors.New("not found")
}

func (d *directory) FindAllActiveByOrganization(_ context.Context, organizationID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range d.employees {
		if e.OrganizationID.String() == organizationID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *directory) FindManagersByOrganization(_ context.Context, organizationID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range d.employees {
		if e.OrganizationID.String() == organizationID && e.IsActive && e.Role.IsManager() {
			out = append(out, e)
		}
	}
	return out, nil
}

type shiftSource struct {
	shifts []shift.Shift
}

func (s *shiftSource) FindOpenByOrganization(_ context.Context, organizationID string) ([]shift.Shift, error) {
	var out []shift.Shift
	for _, sh := range s.shifts {
		if sh.OrganizationID.String() == organizationID && sh.Status == shift.StatusOpen {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *shiftSource) FindCompletedInRange(_ context.Context, organizationID string, from, to time.Time) ([]shift.Shift, error) {
	var out []shift.Shift
	for _, sh := range s.shifts {
		if sh.OrganizationID.String() != organizationID {
			continue
		}
		if sh.Status != shift.StatusClosed && sh.Status != shift.StatusRevised {
			continue
		}
		if !sh.ClockInAt.Before(from) && sh.ClockInAt.Before(to) {
			out = append(out, sh)
		}
	}
	return out, nil
}

type ledgerRow struct {
	id     uuid.UUID
	status reminder.LedgerStatus
	reason string
}

// memLedger follows the claim rules of scheduled_notifications: one row per key,
// only failed rows can be claimed again.
type memLedger struct {
	mu   sync.Mutex
	rows map[string]*ledgerRow
	byID map[uuid.UUID]*ledgerRow
}

func newMemLedger() *memLedger {
	return &memLedger{rows: map[string]*ledgerRow{}, byID: map[uuid.UUID]*ledgerRow{}}
}

func keyString(k reminder.Key) string {
	return fmt.Sprintf("%s/%s/%s/%s", k.EmployeeID, k.SlotID, k.Subtype, k.Date.Format("2006-01-02"))
}

func (l *memLedger) Claim(_ context.Context, _ uuid.UUID, key reminder.Key, _ time.Time) (uuid.UUID, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[keyString(key)]
	if ok && row.status != reminder.LedgerFailed {
		return uuid.Nil, false, nil
	}
	if !ok {
		row = &ledgerRow{id: uuid.New()}
		l.rows[keyString(key)] = row
		l.byID[row.id] = row
	}
	row.status = reminder.LedgerPending
	return row.id, true, nil
}

func (l *memLedger) MarkSent(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[id].status = reminder.LedgerSent
	return nil
}

func (l *memLedger) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[id].status = reminder.LedgerFailed
	l.byID[id].reason = reason
	return nil
}

func (l *memLedger) Skip(_ context.Context, _ uuid.UUID, key reminder.Key, _ time.Time, reason string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[keyString(key)]; ok {
		return false, nil
	}
	row := &ledgerRow{id: uuid.New(), status: reminder.LedgerSkipped, reason: reason}
	l.rows[keyString(key)] = row
	l.byID[row.id] = row
	return true, nil
}

func (l *memLedger) status(key reminder.Key) (reminder.LedgerStatus, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[keyString(key)]
	if !ok {
		return "", ""
	}
	return row.status, row.reason
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notification.Request
	failFn func(req notification.Request) error
}

func (n *recordingNotifier) Send(_ context.Context, reqs []notification.Request) (notification.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFn != nil {
		for _, r := range reqs {
			if err := n.failFn(r); err != nil {
				return notification.Result{}, err
			}
		}
	}
	n.sent = append(n.sent, reqs...)
	return notification.Result{Notifications: len(reqs), Delivered: make([]bool, len(reqs))}, nil
}

func (n *recordingNotifier) subtypes(userID uuid.UUID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, r := range n.sent {
		if r.UserID == userID {
			out = append(out, r.Data.Subtype)
		}
	}
	return out
}

type denyLocker struct {
	held map[string]bool
}

func (d denyLocker) Acquire(_ context.Context, key string, _ time.Duration) (*lock.Lease, error) {
	if d.held[key] {
		return nil, lock.ErrNotAcquired
	}
	return nil, nil
}
