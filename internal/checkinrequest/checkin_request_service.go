package checkinrequest

import (
	"context"
	"strings"
	"time"

	checkinrequesterrors "go-timeclock/internal/checkinrequest/errors"
	"go-timeclock/internal/employee"
	employeeerrors "go-timeclock/internal/employee/errors"
	"go-timeclock/internal/geofence"
	"go-timeclock/internal/shared/apperror"
	"go-timeclock/internal/shared/contextutil"
	"go-timeclock/internal/shift"
	shifterrors "go-timeclock/internal/shift/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ZoneFinder returns the geofences a requested location is measured against.
type ZoneFinder interface {
	FindZones(ctx context.Context, organizationID uuid.UUID, locationID *uuid.UUID) ([]geofence.Zone, error)
}

type Policy struct {
	MinReasonLength  int
	HistoricalWindow time.Duration
	MaxPendingAge    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MinReasonLength:  10,
		HistoricalWindow: 30 * 24 * time.Hour,
		MaxPendingAge:    72 * time.Hour,
	}
}

type Service interface {
	Create(ctx context.Context, organizationID, employeeID string, in CreateInput) (*CheckInRequest, error)
	Approve(ctx context.Context, organizationID, id, reviewerID, note string) (*CheckInRequest, error)
	Deny(ctx context.Context, organizationID, id, reviewerID, note string) (*CheckInRequest, error)
	ExpirePending(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error)
	ListPending(ctx context.Context, organizationID string) ([]CheckInRequest, error)
	ListMine(ctx context.Context, employeeID string) ([]CheckInRequest, error)
}

type service struct {
	repo      Repository
	shifts    shift.Service
	employees employee.Repository
	zones     ZoneFinder
	policy    Policy
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	shifts shift.Service,
	employees employee.Repository,
	zones ZoneFinder,
	policy Policy,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("checkinrequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("checkinrequest.service")
	}
	return &service{
		repo:      repo,
		shifts:    shifts,
		employees: employees,
		zones:     zones,
		policy:    policy,
		validate:  apperror.NewValidator(),
		logger:    l,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, organizationID, employeeID string, in CreateInput) (*CheckInRequest, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if !in.RequestType.Valid() {
		return nil, checkinrequesterrors.ErrInvalidRequestType
	}
	reason := strings.TrimSpace(in.Reason)
	if len([]rune(reason)) < s.policy.MinReasonLength {
		return nil, checkinrequesterrors.ErrReasonTooShort
	}
	now := s.now().UTC()
	requested := in.RequestedTimestamp.UTC()
	if requested.After(now) {
		return nil, checkinrequesterrors.ErrTimestampInFuture
	}
	if requested.Before(now.Add(-s.policy.HistoricalWindow)) {
		return nil, checkinrequesterrors.ErrTimestampTooOld
	}
	if err := s.validate.Struct(in.Location); err != nil {
		e := shifterrors.ErrInvalidLocation
		return nil, apperror.Wrap(err, e.Code, e.Message, e.HTTPStatus)
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.OrganizationID.String() != organizationID || !emp.IsActive {
		return nil, employeeerrors.ErrEmployeeNotFound
	}

	req := &CheckInRequest{
		ID:                 uuid.New(),
		OrganizationID:     emp.OrganizationID,
		EmployeeID:         emp.ID,
		RequestType:        in.RequestType,
		Status:             StatusPending,
		RequestedLocation:  in.Location,
		LocationID:         in.LocationID,
		Reason:             reason,
		RequestedTimestamp: requested,
	}

	zones, err := s.zones.FindZones(ctx, emp.OrganizationID, in.LocationID)
	if err != nil {
		return nil, err
	}
	if len(zones) > 0 {
		fence := geofence.Evaluate(geofence.Point{
			Latitude:       in.Location.Latitude,
			Longitude:      in.Location.Longitude,
			AccuracyMeters: in.Location.AccuracyMeters,
		}, zones)
		d := fence.DistanceOutside()
		req.DistanceFromGeofence = &d
	}

	if err := s.repo.Create(ctx, req); err != nil {
		log.Warn("create check-in request failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	log.Info("check-in request created",
		zap.String("request_id", req.ID.String()),
		zap.String("employee_id", employeeID),
		zap.String("type", string(req.RequestType)),
	)
	return req, nil
}

// Approve claims the request, then records the clock event through the shift
// service. A failed clock event puts the request back to pending.
func (s *service) Approve(ctx context.Context, organizationID, id, reviewerID, note string) (*CheckInRequest, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	req, review, err := s.claim(ctx, organizationID, id, reviewerID, note, StatusApproved)
	if err != nil {
		return nil, err
	}

	var sh *shift.Shift
	loc := req.RequestedLocation
	switch req.RequestType {
	case TypeClockIn:
		sh, err = s.shifts.ClockIn(ctx, req.EmployeeID.String(), shift.ClockInInput{
			Location:   loc,
			LocationID: req.LocationID,
			Timestamp:  req.RequestedTimestamp,
		})
	case TypeClockOut:
		sh, err = s.shifts.ClockOut(ctx, req.EmployeeID.String(), shift.ClockOutInput{
			Location:  &loc,
			Timestamp: req.RequestedTimestamp,
		})
	}
	if err != nil {
		log.Warn("approve check-in request: clock event rejected",
			zap.String("request_id", id),
			zap.Error(err),
		)
		if revertErr := s.repo.Transition(ctx, id, StatusApproved, StatusPending, Review{}); revertErr != nil {
			log.Error("approve check-in request: revert failed", zap.String("request_id", id), zap.Error(revertErr))
		}
		return nil, err
	}

	if err := s.repo.AttachShift(ctx, id, sh.ID.String()); err != nil {
		log.Error("approve check-in request: attach shift failed",
			zap.String("request_id", id),
			zap.String("shift_id", sh.ID.String()),
			zap.Error(err),
		)
	}

	req.Status = StatusApproved
	req.ReviewedBy, req.ReviewedAt, req.ReviewNote = review.By, review.At, review.Note
	req.ShiftID = &sh.ID
	log.Info("check-in request approved",
		zap.String("request_id", id),
		zap.String("shift_id", sh.ID.String()),
	)
	return req, nil
}

func (s *service) Deny(ctx context.Context, organizationID, id, reviewerID, note string) (*CheckInRequest, error) {
	req, review, err := s.claim(ctx, organizationID, id, reviewerID, note, StatusDenied)
	if err != nil {
		return nil, err
	}
	req.Status = StatusDenied
	req.ReviewedBy, req.ReviewedAt, req.ReviewNote = review.By, review.At, review.Note
	contextutil.GetLogger(ctx, s.logger).Info("check-in request denied", zap.String("request_id", id))
	return req, nil
}

func (s *service) claim(ctx context.Context, organizationID, id, reviewerID, note string, to Status) (*CheckInRequest, Review, error) {
	reviewer, err := uuid.Parse(reviewerID)
	if err != nil {
		return nil, Review{}, apperror.InvalidField("reviewer_id")
	}
	req, err := s.repo.FindByID(ctx, organizationID, id)
	if err != nil {
		return nil, Review{}, err
	}
	if req.Status != StatusPending {
		return nil, Review{}, checkinrequesterrors.ErrAlreadyReviewed
	}

	now := s.now().UTC()
	review := Review{By: &reviewer, At: &now}
	if note = strings.TrimSpace(note); note != "" {
		review.Note = &note
	}
	if err := s.repo.Transition(ctx, id, StatusPending, to, review); err != nil {
		return nil, Review{}, err
	}
	return req, review, nil
}

func (s *service) ExpirePending(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = s.policy.MaxPendingAge
	}
	now = now.UTC()
	n, err := s.repo.ExpirePendingBefore(ctx, now.Add(-maxAge), now)
	if err != nil {
		s.logger.Error("expire pending check-in requests failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired pending check-in requests", zap.Int64("count", n))
	}
	return n, nil
}

func (s *service) ListPending(ctx context.Context, organizationID string) ([]CheckInRequest, error) {
	return s.repo.ListByOrganization(ctx, organizationID, StatusPending)
}

func (s *service) ListMine(ctx context.Context, employeeID string) ([]CheckInRequest, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}
