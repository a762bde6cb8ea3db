package shift

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"go-timeclock/internal/employee"
	employeeerrors "go-timeclock/internal/employee/errors"
	"go-timeclock/internal/geofence"
	"go-timeclock/internal/messaging/kafka"
	"go-timeclock/internal/organization"
	shifterrors "go-timeclock/internal/shift/errors"

	"github.com/google/uuid"
)

// memRepo keeps shifts in memory and enforces the one-open-shift index on Create.
type memRepo struct {
	mu        sync.Mutex
	shifts    map[uuid.UUID]Shift
	zones     []geofence.Zone
	createErr error
	updateErr func(s *Shift) error
}

func newMemRepo() *memRepo {
	return &memRepo{shifts: map[uuid.UUID]Shift{}}
}

func (m *memRepo) WithTx(*sql.Tx) Repository { return m }

func (m *memRepo) LockEmployee(context.Context, uuid.UUID) error { return nil }

func (m *memRepo) Create(_ context.Context, s *Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.shifts {
		if existing.EmployeeID == s.EmployeeID && existing.Status == StatusOpen {
			return shifterrors.ErrShiftAlreadyOpen
		}
	}
	m.shifts[s.ID] = *s
	return nil
}

func (m *memRepo) put(s Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[s.ID] = s
}

func (m *memRepo) get(id uuid.UUID) Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shifts[id]
}

func (m *memRepo) FindByID(_ context.Context, id string) (*Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, shifterrors.ErrShiftNotFound
	}
	s, ok := m.shifts[uid]
	if !ok {
		return nil, shifterrors.ErrShiftNotFound
	}
	return &s, nil
}

func (m *memRepo) FindByIDForUpdate(ctx context.Context, id string) (*Shift, error) {
	return m.FindByID(ctx, id)
}

func (m *memRepo) FindOpenByEmployee(_ context.Context, employeeID uuid.UUID) (*Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts {
		if s.EmployeeID == employeeID && s.Status == StatusOpen {
			return &s, nil
		}
	}
	return nil, shifterrors.ErrNoOpenShift
}

func (m *memRepo) FindOpenByEmployeeForUpdate(ctx context.Context, employeeID uuid.UUID) (*Shift, error) {
	return m.FindOpenByEmployee(ctx, employeeID)
}

func (m *memRepo) FindOpenStartedBefore(_ context.Context, cutoff time.Time, after SweepCursor, limit int) ([]Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Shift
	for _, s := range m.shifts {
		if s.Status != StatusOpen || !s.ClockInAt.Before(cutoff) {
			continue
		}
		if after.ID != uuid.Nil && !sweepLess(after, SweepCursor{ClockInAt: s.ClockInAt, ID: s.ID}) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return sweepLess(SweepCursor{ClockInAt: out[i].ClockInAt, ID: out[i].ID}, SweepCursor{ClockInAt: out[j].ClockInAt, ID: out[j].ID})
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sweepLess(a, b SweepCursor) bool {
	if !a.ClockInAt.Equal(b.ClockInAt) {
		return a.ClockInAt.Before(b.ClockInAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func (m *memRepo) FindOpenByOrganization(_ context.Context, organizationID string) ([]Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Shift
	for _, s := range m.shifts {
		if s.OrganizationID.String() == organizationID && s.Status == StatusOpen {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) FindCompletedInRange(_ context.Context, organizationID string, from, to time.Time) ([]Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Shift
	for _, s := range m.shifts {
		if s.OrganizationID.String() != organizationID || s.ClockOutAt == nil {
			continue
		}
		if !s.ShiftDate.Before(from) && !s.ShiftDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) ListByEmployee(_ context.Context, employeeID string, limit int) ([]Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Shift
	for _, s := range m.shifts {
		if s.EmployeeID.String() == employeeID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockInAt.After(out[j].ClockInAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpdateFrom(_ context.Context, s *Shift, from ...Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		if err := m.updateErr(s); err != nil {
			return err
		}
	}
	stored, ok := m.shifts[s.ID]
	if !ok {
		return shifterrors.ErrInvalidTransition
	}
	for _, st := range from {
		if stored.Status == st {
			m.shifts[s.ID] = *s
			return nil
		}
	}
	return shifterrors.ErrInvalidTransition
}

func (m *memRepo) FindZones(context.Context, uuid.UUID, *uuid.UUID) ([]geofence.Zone, error) {
	return m.zones, nil
}

func (m *memRepo) countOpen(employeeID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.shifts {
		if s.EmployeeID == employeeID && s.Status == StatusOpen {
			n++
		}
	}
	return n
}

type fakeEmployees struct {
	rows map[string]employee.Employee
}

func (f *fakeEmployees) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	e, ok := f.rows[id]
	if !ok {
		return nil, employeeerrors.ErrEmployeeNotFound
	}
	return &e, nil
}

func (f *fakeEmployees) FindAllActiveByOrganization(context.Context, string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployees) FindManagersByOrganization(context.Context, string) ([]employee.Employee, error) {
	return nil, nil
}

type fixedLocator struct {
	loc *time.Location
}

func (f fixedLocator) Location(context.Context, string) (*time.Location, error) { return f.loc, nil }

func (f fixedLocator) ZoneOf(organization.Organization) (*time.Location, error) { return f.loc, nil }

type fakeOutbox struct {
	mu     sync.Mutex
	events []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(*sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutbox) Create(_ context.Context, e kafka.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeOutbox) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) { return nil, nil }

func (f *fakeOutbox) MarkSent(context.Context, string) error { return nil }

func (f *fakeOutbox) MarkFailed(context.Context, string, string) error { return nil }

func (f *fakeOutbox) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}
