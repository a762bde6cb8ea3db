package checkinrequest_test

import (
	"context"
	"sync"
	"time"

	"go-timeclock/internal/checkinrequest"
	checkinrequesterrors "go-timeclock/internal/checkinrequest/errors"
	"go-timeclock/internal/employee"
	employeeerrors "go-timeclock/internal/employee/errors"
	"go-timeclock/internal/geofence"

	"github.com/google/uuid"
)

type memRepo struct {
	mu          sync.Mutex
	rows        map[string]checkinrequest.CheckInRequest
	transitions []checkinrequest.Status
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]checkinrequest.CheckInRequest{}}
}

func (m *memRepo) Create(_ context.Context, r *checkinrequest.CheckInRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.EmployeeID == r.EmployeeID && existing.RequestType == r.RequestType && existing.Status == checkinrequest.StatusPending {
			return checkinrequesterrors.ErrPendingRequestExists
		}
	}
	r.CreatedAt = time.Now().UTC()
	m.rows[r.ID.String()] = *r
	return nil
}

func (m *memRepo) put(r checkinrequest.CheckInRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID.String()] = r
}

func (m *memRepo) get(id uuid.UUID) checkinrequest.CheckInRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id.String()]
}

func (m *memRepo) FindByID(_ context.Context, organizationID, id string) (*checkinrequest.CheckInRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.OrganizationID.String() != organizationID {
		return nil, checkinrequesterrors.ErrRequestNotFound
	}
	return &r, nil
}

func (m *memRepo) ListByOrganization(_ context.Context, organizationID string, status checkinrequest.Status) ([]checkinrequest.CheckInRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []checkinrequest.CheckInRequest
	for _, r := range m.rows {
		if r.OrganizationID.String() == organizationID && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) ListByEmployee(_ context.Context, employeeID string) ([]checkinrequest.CheckInRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []checkinrequest.CheckInRequest
	for _, r := range m.rows {
		if r.EmployeeID.String() == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Transition(_ context.Context, id string, from, to checkinrequest.Status, review checkinrequest.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != from {
		return checkinrequesterrors.ErrAlreadyReviewed
	}
	r.Status = to
	r.ReviewedBy, r.ReviewedAt, r.ReviewNote = review.By, review.At, review.Note
	m.rows[id] = r
	m.transitions = append(m.transitions, to)
	return nil
}

func (m *memRepo) AttachShift(_ context.Context, id, shiftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rows[id]
	sid := uuid.MustParse(shiftID)
	r.ShiftID = &sid
	m.rows[id] = r
	return nil
}

func (m *memRepo) ExpirePendingBefore(_ context.Context, cutoff, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.rows {
		if r.Status == checkinrequest.StatusPending && r.CreatedAt.Before(cutoff) {
			r.Status = checkinrequest.StatusAutoExpired
			r.ReviewedAt = &now
			m.rows[id] = r
			n++
		}
	}
	return n, nil
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

type staticZones []geofence.Zone

func (z staticZones) FindZones(context.Context, uuid.UUID, *uuid.UUID) ([]geofence.Zone, error) {
	return z, nil
}
