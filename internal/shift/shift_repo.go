package shift

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-timeclock/internal/geofence"
	"go-timeclock/internal/shared/dbtx"
	shifterrors "go-timeclock/internal/shift/errors"
	"go-timeclock/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SweepCursor is the last shift a stale sweep page returned.
type SweepCursor struct {
	ClockInAt time.Time
	ID        uuid.UUID
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	LockEmployee(ctx context.Context, employeeID uuid.UUID) error
	Create(ctx context.Context, s *Shift) error
	FindByID(ctx context.Context, id string) (*Shift, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Shift, error)
	FindOpenByEmployee(ctx context.Context, employeeID uuid.UUID) (*Shift, error)
	FindOpenByEmployeeForUpdate(ctx context.Context, employeeID uuid.UUID) (*Shift, error)
	// FindOpenStartedBefore pages open shifts by (clock_in_at, id) strictly after the cursor.
	FindOpenStartedBefore(ctx context.Context, cutoff time.Time, after SweepCursor, limit int) ([]Shift, error)
	FindOpenByOrganization(ctx context.Context, organizationID string) ([]Shift, error)
	FindCompletedInRange(ctx context.Context, organizationID string, from, to time.Time) ([]Shift, error)
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]Shift, error)
	// UpdateFrom saves s only while its stored status is one of from.
	UpdateFrom(ctx context.Context, s *Shift, from ...Status) error
	FindZones(ctx context.Context, organizationID uuid.UUID, locationID *uuid.UUID) ([]geofence.Zone, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: dbtx.Bind(r.db, tx)}
}

func (r *repository) LockEmployee(ctx context.Context, employeeID uuid.UUID) error {
	return dbtx.AdvisoryLock(ctx, r.db, "shift:"+employeeID.String())
}

func (r *repository) Create(ctx context.Context, s *Shift) error {
	return mapRepositoryError(r.db.WithContext(ctx).Create(s).Error)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return &s, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return &s, nil
}

func (r *repository) FindOpenByEmployee(ctx context.Context, employeeID uuid.UUID) (*Shift, error) {
	return r.findOpen(r.db.WithContext(ctx), employeeID)
}

func (r *repository) FindOpenByEmployeeForUpdate(ctx context.Context, employeeID uuid.UUID) (*Shift, error) {
	return r.findOpen(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), employeeID)
}

func (r *repository) findOpen(db *gorm.DB, employeeID uuid.UUID) (*Shift, error) {
	var s Shift
	err := db.
		Where("employee_id = ? AND status = ?", employeeID, StatusOpen).
		Order("clock_in_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shifterrors.ErrNoOpenShift
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindOpenStartedBefore(ctx context.Context, cutoff time.Time, after SweepCursor, limit int) ([]Shift, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND clock_in_at < ?", StatusOpen, cutoff)
	if after.ID != uuid.Nil {
		q = q.Where("(clock_in_at, id) > (?, ?)", after.ClockInAt, after.ID)
	}

	var rows []Shift
	err := q.Order("clock_in_at, id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindOpenByOrganization(ctx context.Context, organizationID string) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("status = ?", StatusOpen).
		Order("employee_id").
		Find(&rows).Error
	return rows, err
}

// FindCompletedInRange returns closed and revised shifts that clocked in within [from, to).
func (r *repository) FindCompletedInRange(ctx context.Context, organizationID string, from, to time.Time) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("status IN ?", []Status{StatusClosed, StatusRevised}).
		Where("clock_in_at >= ? AND clock_in_at < ?", from, to).
		Order("employee_id, clock_in_at").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("clock_in_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateFrom(ctx context.Context, s *Shift, from ...Status) error {
	res := r.db.WithContext(ctx).
		Model(&Shift{}).
		Where("id = ? AND status IN ?", s.ID, from).
		Select("*").
		Omit("id", "created_at").
		Updates(s)
	if res.Error != nil {
		return mapRepositoryError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shifterrors.ErrInvalidTransition
	}
	return nil
}

func (r *repository) FindZones(ctx context.Context, organizationID uuid.UUID, locationID *uuid.UUID) ([]geofence.Zone, error) {
	q := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID.String())).
		Where("is_active = ?", true)
	if locationID != nil {
		q = q.Where("id = ?", *locationID)
	}

	var sites []WorkLocation
	if err := q.Order("id").Find(&sites).Error; err != nil {
		return nil, err
	}
	zones := make([]geofence.Zone, len(sites))
	for i, s := range sites {
		zones[i] = geofence.Zone{
			ID:           s.ID.String(),
			Latitude:     s.Latitude,
			Longitude:    s.Longitude,
			RadiusMeters: s.RadiusMeters,
		}
	}
	return zones, nil
}
