package shift

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-timeclock/internal/employee"
	employeeerrors "go-timeclock/internal/employee/errors"
	"go-timeclock/internal/events"
	"go-timeclock/internal/geofence"
	"go-timeclock/internal/messaging/kafka"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/shared/apperror"
	"go-timeclock/internal/shared/contextutil"
	"go-timeclock/internal/shared/dateutil"
	shifterrors "go-timeclock/internal/shift/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const staleSweepBatch = 500

//go:generate mockgen -source=shift_service.go -destination=mock/shift_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, employeeID string, in ClockInInput) (*Shift, error)
	ClockOut(ctx context.Context, employeeID string, in ClockOutInput) (*Shift, error)
	MarkStale(ctx context.Context, now time.Time, threshold time.Duration) (SweepResult, error)
	ResolveStale(ctx context.Context, shiftID string, in ResolveInput) (*Shift, error)
	ApproveRevision(ctx context.Context, shiftID, reviewerID string) (*Shift, error)
	RejectRevision(ctx context.Context, shiftID, reviewerID, note string) (*Shift, error)
	GetOpenShift(ctx context.Context, employeeID string) (*Shift, error)
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]Shift, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	zones     organization.Locator
	outbox    kafka.OutboxRepository
	policy    Policy
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	zones organization.Locator,
	outbox kafka.OutboxRepository,
	policy Policy,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("shift.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("shift.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		zones:     zones,
		outbox:    outbox,
		policy:    policy,
		validate:  apperror.NewValidator(),
		logger:    l,
		now:       time.Now,
	}
}

func (s *service) log(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) ClockIn(ctx context.Context, employeeID string, in ClockInInput) (*Shift, error) {
	log := s.log(ctx)
	log.Debug("clock in requested", zap.String("employee_id", employeeID))

	emp, err := s.activeEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	loc, err := s.zones.Location(ctx, emp.OrganizationID.String())
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in.Location); err != nil {
		log.Warn("clock in location rejected", zap.Error(err))
		return nil, apperror.Wrap(err, shifterrors.ErrInvalidLocation.Code, shifterrors.ErrInvalidLocation.Message, shifterrors.ErrInvalidLocation.HTTPStatus)
	}

	now := s.now().UTC()
	at := in.Timestamp
	if at.IsZero() {
		at = now
	}
	at = at.UTC()
	if at.After(now.Add(s.policy.AllowedClockSkew)) {
		return nil, shifterrors.ErrTimestampInFuture
	}

	zones, err := s.repo.FindZones(ctx, emp.OrganizationID, in.LocationID)
	if err != nil {
		log.Error("clock in zone lookup failed", zap.Error(err))
		return nil, err
	}

	sh := &Shift{
		ID:              uuid.New(),
		OrganizationID:  emp.OrganizationID,
		EmployeeID:      emp.ID,
		LocationID:      in.LocationID,
		Status:          StatusOpen,
		ClockInAt:       at,
		ClockInLocation: in.Location,
		ShiftDate:       dateutil.DateOf(at.In(loc)),
	}
	if len(zones) > 0 {
		fence := geofence.Evaluate(geofence.Point{
			Latitude:       in.Location.Latitude,
			Longitude:      in.Location.Longitude,
			AccuracyMeters: in.Location.AccuracyMeters,
		}, zones)
		inRange := fence.InRange
		distance := fence.DistanceOutside()
		sh.ClockInInRange = &inRange
		sh.ClockInDistanceM = &distance
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("clock in begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.LockEmployee(ctx, emp.ID); err != nil {
		log.Error("clock in lock failed", zap.Error(err))
		return nil, err
	}

	existing, err := qtx.FindOpenByEmployee(ctx, emp.ID)
	if err == nil {
		log.Warn("clock in rejected: shift already open",
			zap.String("employee_id", employeeID),
			zap.String("shift_id", existing.ID.String()),
		)
		return nil, shifterrors.ErrShiftAlreadyOpen
	}
	if !errors.Is(err, shifterrors.ErrNoOpenShift) {
		return nil, err
	}

	if err := qtx.Create(ctx, sh); err != nil {
		if errors.Is(err, shifterrors.ErrShiftAlreadyOpen) {
			log.Warn("clock in lost race on open shift index", zap.String("employee_id", employeeID))
		} else {
			log.Error("clock in persist failed", zap.Error(err))
		}
		return nil, err
	}
	if err := s.publish(ctx, tx, events.ShiftClockedIn, sh, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("clock in commit failed", zap.Error(err))
		return nil, err
	}
	log.Info("clock in success",
		zap.String("employee_id", employeeID),
		zap.String("shift_id", sh.ID.String()),
		zap.String("shift_date", dateutil.Format(sh.ShiftDate)),
	)
	return sh, nil
}

func (s *service) ClockOut(ctx context.Context, employeeID string, in ClockOutInput) (*Shift, error) {
	log := s.log(ctx)

	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, apperror.InvalidField("employee_id")
	}
	if in.Location != nil {
		if err := s.validate.Struct(in.Location); err != nil {
			return nil, apperror.Wrap(err, shifterrors.ErrInvalidLocation.Code, shifterrors.ErrInvalidLocation.Message, shifterrors.ErrInvalidLocation.HTTPStatus)
		}
	}

	now := s.now().UTC()
	at := in.Timestamp
	if at.IsZero() {
		at = now
	}
	if at.After(now.Add(s.policy.AllowedClockSkew)) {
		return nil, shifterrors.ErrTimestampInFuture
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("clock out begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sh, err := qtx.FindOpenByEmployeeForUpdate(ctx, empID)
	if err != nil {
		if errors.Is(err, shifterrors.ErrNoOpenShift) {
			log.Warn("clock out rejected: no open shift", zap.String("employee_id", employeeID))
		}
		return nil, err
	}
	if !at.After(sh.ClockInAt) {
		return nil, shifterrors.ErrClockOutBeforeClockIn
	}

	sh.close(at, s.policy.Break)
	sh.ClockOutLocation = in.Location
	sh.Status = StatusClosed
	if err := saveTransition(ctx, qtx, sh, StatusOpen); err != nil {
		log.Error("clock out persist failed", zap.Error(err))
		return nil, err
	}
	if err := s.publish(ctx, tx, events.ShiftClosed, sh, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("clock out commit failed", zap.Error(err))
		return nil, err
	}
	log.Info("clock out success",
		zap.String("employee_id", employeeID),
		zap.String("shift_id", sh.ID.String()),
		zap.Int("duration_minutes", sh.DurationMinutes),
		zap.Int("net_minutes", sh.NetDurationMinutes),
	)
	return sh, nil
}

// MarkStale moves every shift open for longer than threshold to stale. Each shift
// commits on its own; a failure is counted and the sweep continues. Pages advance
// by cursor so shifts that fail or were closed meanwhile are not fetched again.
func (s *service) MarkStale(ctx context.Context, now time.Time, threshold time.Duration) (SweepResult, error) {
	if threshold <= 0 {
		threshold = s.policy.StaleThreshold
	}
	now = now.UTC()
	cutoff := now.Add(-threshold)

	var (
		res   SweepResult
		after SweepCursor
	)
	for {
		page, err := s.repo.FindOpenStartedBefore(ctx, cutoff, after, staleSweepBatch)
		if err != nil {
			s.logger.Error("stale sweep query failed", zap.Int("processed", res.Processed), zap.Error(err))
			return res, err
		}
		for i := range page {
			res.Processed++
			marked, err := s.markOneStale(ctx, page[i], now)
			if err != nil {
				res.Errors++
				s.logger.Error("mark stale failed", zap.String("shift_id", page[i].ID.String()), zap.Error(err))
				continue
			}
			if marked {
				res.Marked++
			}
		}
		if len(page) < staleSweepBatch {
			break
		}
		last := page[len(page)-1]
		after = SweepCursor{ClockInAt: last.ClockInAt, ID: last.ID}
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}

	s.logger.Info("stale sweep finished",
		zap.Time("cutoff", cutoff),
		zap.Int("processed", res.Processed),
		zap.Int("marked", res.Marked),
		zap.Int("errors", res.Errors),
	)
	return res, nil
}

func (s *service) markOneStale(ctx context.Context, sh Shift, now time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	sh.Status = StatusStale
	sh.MarkedStaleAt = &now
	err = saveTransition(ctx, s.repo.WithTx(tx), &sh, StatusOpen)
	if errors.Is(err, shifterrors.ErrInvalidTransition) {
		// closed between the query and the update
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.publish(ctx, tx, events.ShiftStale, &sh, ""); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ResolveStale settles a stale shift. The owner proposes a clock-out that a manager
// must approve; a manager's resolution is applied at once.
func (s *service) ResolveStale(ctx context.Context, shiftID string, in ResolveInput) (*Shift, error) {
	log := s.log(ctx)

	if len([]rune(strings.TrimSpace(in.Reason))) < s.policy.MinReasonLength {
		return nil, shifterrors.ErrReasonTooShort
	}
	actorID, err := uuid.Parse(in.ActorID)
	if err != nil {
		return nil, apperror.InvalidField("actor_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("resolve stale begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sh, err := qtx.FindByIDForUpdate(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.EmployeeID != actorID && !in.ActorIsManager {
		return nil, shifterrors.ErrNotShiftOwner
	}
	if sh.Status != StatusStale {
		return nil, shifterrors.ErrInvalidTransition
	}

	proposed, err := s.proposedClockOut(sh, in)
	if err != nil {
		log.Warn("resolve stale rejected", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	reason := strings.TrimSpace(in.Reason)
	resolution := in.Resolution
	sh.Resolution = &resolution
	sh.RevisionReason = &reason
	sh.RevisionRequestBy = &actorID
	sh.ProposedClockOutAt = &proposed

	eventType := events.ShiftRevisionRequested
	if in.ActorIsManager {
		s.applyRevision(sh, actorID)
		eventType = events.ShiftRevised
	} else {
		sh.Status = StatusPendingRevision
	}

	if err := saveTransition(ctx, qtx, sh, StatusStale); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, tx, eventType, sh, in.ActorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		log.Error("resolve stale commit failed", zap.Error(err))
		return nil, err
	}

	log.Info("resolve stale success",
		zap.String("shift_id", shiftID),
		zap.String("resolution", string(in.Resolution)),
		zap.String("status", string(sh.Status)),
	)
	return sh, nil
}

// saveTransition persists sh, whose Status already holds the target, provided the
// table allows from -> target and the stored row is still in from.
func saveTransition(ctx context.Context, repo Repository, sh *Shift, from Status) error {
	if !from.CanTransition(sh.Status) {
		return shifterrors.ErrInvalidTransition
	}
	return repo.UpdateFrom(ctx, sh, from)
}

func (s *service) proposedClockOut(sh *Shift, in ResolveInput) (time.Time, error) {
	switch in.Resolution {
	case ResolutionForgot:
		return sh.ClockInAt.Add(s.policy.ForgotNominal), nil
	case ResolutionActual:
		if in.ActualClockOutAt == nil {
			return time.Time{}, apperror.RequiredField("actual_clock_out_at")
		}
		out := in.ActualClockOutAt.UTC()
		if !out.After(sh.ClockInAt) {
			return time.Time{}, shifterrors.ErrClockOutBeforeClockIn
		}
		if out.After(s.now().UTC()) {
			return time.Time{}, shifterrors.ErrTimestampInFuture
		}
		if out.Sub(sh.ClockInAt) > s.policy.RevisionWindow {
			return time.Time{}, shifterrors.ErrRevisionOutOfWindow
		}
		return out, nil
	default:
		return time.Time{}, shifterrors.ErrInvalidResolution
	}
}

func (s *service) applyRevision(sh *Shift, reviewer uuid.UUID) {
	now := s.now().UTC()
	original := sh.ClockOutAt
	sh.OriginalClockOutAt = original
	sh.close(*sh.ProposedClockOutAt, s.policy.Break)
	sh.Status = StatusRevised
	sh.IsRevised = true
	sh.RevisedBy = &reviewer
	sh.RevisedAt = &now
}

func (s *service) ApproveRevision(ctx context.Context, shiftID, reviewerID string) (*Shift, error) {
	return s.review(ctx, shiftID, reviewerID, true, "")
}

func (s *service) RejectRevision(ctx context.Context, shiftID, reviewerID, note string) (*Shift, error) {
	return s.review(ctx, shiftID, reviewerID, false, note)
}

func (s *service) review(ctx context.Context, shiftID, reviewerID string, approve bool, note string) (*Shift, error) {
	log := s.log(ctx)
	reviewer, err := uuid.Parse(reviewerID)
	if err != nil {
		return nil, apperror.InvalidField("reviewer_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sh, err := qtx.FindByIDForUpdate(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.Status != StatusPendingRevision || sh.ProposedClockOutAt == nil {
		return nil, shifterrors.ErrInvalidTransition
	}

	eventType := events.ShiftRevised
	if approve {
		s.applyRevision(sh, reviewer)
	} else {
		eventType = events.ShiftRevisionRejected
		sh.Status = StatusStale
		sh.ProposedClockOutAt = nil
		sh.Resolution = nil
		if note != "" {
			sh.RevisionNote = &note
		}
	}

	if err := saveTransition(ctx, qtx, sh, StatusPendingRevision); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, tx, eventType, sh, reviewerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		log.Error("review revision commit failed", zap.Error(err))
		return nil, err
	}
	log.Info("review revision success",
		zap.String("shift_id", shiftID),
		zap.Bool("approved", approve),
		zap.String("reviewer_id", reviewerID),
	)
	return sh, nil
}

func (s *service) GetOpenShift(ctx context.Context, employeeID string) (*Shift, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, apperror.InvalidField("employee_id")
	}
	return s.repo.FindOpenByEmployee(ctx, empID)
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]Shift, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByEmployee(ctx, employeeID, limit)
}

func (s *service) activeEmployee(ctx context.Context, employeeID string) (*employee.Employee, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, apperror.InvalidField("employee_id")
	}
	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, employeeerrors.ErrEmployeeInactive
	}
	return emp, nil
}

func (s *service) publish(ctx context.Context, tx *sql.Tx, eventType string, sh *Shift, actorID string) error {
	if s.outbox == nil {
		return nil
	}
	event, err := kafka.NewEvent(
		contextutil.GetRequestID(ctx),
		"shift",
		sh.ID.String(),
		eventType,
		events.ShiftLifecycleTopic,
		events.ShiftLifecycleEvent{
			EventType:      eventType,
			ShiftID:        sh.ID.String(),
			EmployeeID:     sh.EmployeeID.String(),
			OrganizationID: sh.OrganizationID.String(),
			Status:         string(sh.Status),
			ClockInAt:      sh.ClockInAt,
			ClockOutAt:     sh.ClockOutAt,
			ActorID:        actorID,
			OccurredAt:     s.now().UTC(),
		},
	)
	if err != nil {
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		s.logger.Error("shift outbox persist failed",
			zap.String("shift_id", sh.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}
