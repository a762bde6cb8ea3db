package checkinrequest

import (
	"context"
	"errors"
	"strings"
	"time"

	checkinrequesterrors "go-timeclock/internal/checkinrequest/errors"
	"go-timeclock/internal/tenant"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pendingConstraint = "uq_checkin_requests_pending"

type Repository interface {
	Create(ctx context.Context, r *CheckInRequest) error
	FindByID(ctx context.Context, organizationID, id string) (*CheckInRequest, error)
	ListByOrganization(ctx context.Context, organizationID string, status Status) ([]CheckInRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]CheckInRequest, error)
	// Transition moves the request from one status to another and fails with
	// ErrAlreadyReviewed when it is no longer in from.
	Transition(ctx context.Context, id string, from, to Status, review Review) error
	AttachShift(ctx context.Context, id, shiftID string) error
	ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req *CheckInRequest) error {
	err := r.db.WithContext(ctx).Create(req).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == pendingConstraint {
		return checkinrequesterrors.ErrPendingRequestExists
	}
	if err != nil && strings.Contains(err.Error(), pendingConstraint) {
		return checkinrequesterrors.ErrPendingRequestExists
	}
	return err
}

func (r *repository) FindByID(ctx context.Context, organizationID, id string) (*CheckInRequest, error) {
	var req CheckInRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, checkinrequesterrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListByOrganization(ctx context.Context, organizationID string, status Status) ([]CheckInRequest, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []CheckInRequest
	err := q.Order("created_at DESC").Limit(200).Find(&rows).Error
	return rows, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]CheckInRequest, error) {
	var rows []CheckInRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(100).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Transition(ctx context.Context, id string, from, to Status, review Review) error {
	res := r.db.WithContext(ctx).
		Model(&CheckInRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":      to,
			"reviewed_by": review.By,
			"reviewed_at": review.At,
			"review_note": review.Note,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return checkinrequesterrors.ErrAlreadyReviewed
	}
	return nil
}

func (r *repository) AttachShift(ctx context.Context, id, shiftID string) error {
	return r.db.WithContext(ctx).
		Model(&CheckInRequest{}).
		Where("id = ?", id).
		Update("shift_id", shiftID).Error
}

func (r *repository) ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&CheckInRequest{}).
		Where("status = ? AND created_at < ?", StatusPending, cutoff).
		Updates(map[string]any{
			"status":      StatusAutoExpired,
			"reviewed_at": now,
			"updated_at":  now,
		})
	return res.RowsAffected, res.Error
}
