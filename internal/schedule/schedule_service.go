package schedule

import (
	"context"
	"database/sql"
	"time"

	"go-timeclock/internal/employee"
	scheduleerrors "go-timeclock/internal/schedule/errors"
	"go-timeclock/internal/shared/apperror"
	"go-timeclock/internal/shared/dateutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateTemplate(ctx context.Context, organizationID string, req CreateTemplateRequest) (TemplateResponse, error)
	GetTemplate(ctx context.Context, organizationID, id string) (TemplateResponse, error)
	CreateAssignment(ctx context.Context, organizationID string, req CreateAssignmentRequest) (AssignmentResponse, error)
}

// Members looks up the employee behind a user assignment, team membership included.
type Members interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	members Members
	logger  *zap.Logger
}

// NewService accepts a nil members, which turns off the team override warning.
func NewService(db *sql.DB, repo Repository, members Members, logger ...*zap.Logger) Service {
	l := zap.L().Named("schedule.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("schedule.service")
	}
	return &service{db: db, repo: repo, members: members, logger: l}
}

func (s *service) CreateTemplate(ctx context.Context, organizationID string, req CreateTemplateRequest) (TemplateResponse, error) {
	orgUUID, err := uuid.Parse(organizationID)
	if err != nil {
		return TemplateResponse{}, apperror.InvalidField("organization_id")
	}

	tpl := &Template{
		ID:             uuid.New(),
		OrganizationID: orgUUID,
		Name:           req.Name,
		IsActive:       true,
	}
	perDay := map[int]int{}
	for _, sr := range req.Slots {
		slot := Slot{
			ID:              uuid.New(),
			TemplateID:      tpl.ID,
			DayOfWeek:       sr.DayOfWeek,
			StartMinute:     sr.StartMinute,
			EndMinute:       sr.EndMinute,
			CrossesMidnight: sr.CrossesMidnight,
			BreakMinutes:    sr.BreakMinutes,
			Position:        perDay[sr.DayOfWeek],
		}
		if err := slot.Validate(); err != nil {
			s.logger.Warn("create template slot rejected", zap.Error(err))
			return TemplateResponse{}, apperror.Wrap(err, scheduleerrors.ErrInvalidSlot.Code, scheduleerrors.ErrInvalidSlot.Message, scheduleerrors.ErrInvalidSlot.HTTPStatus)
		}
		perDay[sr.DayOfWeek]++
		tpl.Slots = append(tpl.Slots, slot)
	}

	if err := s.repo.CreateTemplate(ctx, tpl); err != nil {
		s.logger.Error("create template persist failed", zap.Error(err))
		return TemplateResponse{}, err
	}

	s.logger.Info("create template success",
		zap.String("organization_id", organizationID),
		zap.String("template_id", tpl.ID.String()),
		zap.Int("slots", len(tpl.Slots)),
	)
	return mapTemplate(tpl), nil
}

func (s *service) GetTemplate(ctx context.Context, organizationID, id string) (TemplateResponse, error) {
	templateID, err := uuid.Parse(id)
	if err != nil {
		return TemplateResponse{}, scheduleerrors.ErrTemplateNotFound
	}
	tpl, err := s.repo.FindTemplateWithSlots(ctx, templateID)
	if err != nil {
		return TemplateResponse{}, err
	}
	if tpl.OrganizationID.String() != organizationID {
		return TemplateResponse{}, scheduleerrors.ErrTemplateNotFound
	}
	return mapTemplate(tpl), nil
}

// CreateAssignment rejects an active assignment whose effective range overlaps
// another active assignment on the same target. A user assignment may still
// override a team assignment covering the same dates; that case is logged.
func (s *service) CreateAssignment(ctx context.Context, organizationID string, req CreateAssignmentRequest) (AssignmentResponse, error) {
	a, err := buildAssignment(organizationID, req)
	if err != nil {
		s.logger.Warn("create assignment validation failed", zap.Error(err))
		return AssignmentResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create assignment begin tx failed", zap.Error(err))
		return AssignmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	tpl, err := qtx.FindTemplateWithSlots(ctx, a.TemplateID)
	if err != nil {
		return AssignmentResponse{}, err
	}
	if tpl.OrganizationID != a.OrganizationID {
		return AssignmentResponse{}, scheduleerrors.ErrTemplateNotFound
	}

	if err := qtx.LockTarget(ctx, a.Target); err != nil {
		s.logger.Error("create assignment lock failed", zap.Error(err))
		return AssignmentResponse{}, err
	}

	existing, err := qtx.FindActiveAssignmentsByTarget(ctx, a.Target)
	if err != nil {
		s.logger.Error("create assignment overlap check failed", zap.Error(err))
		return AssignmentResponse{}, err
	}
	for _, other := range existing {
		if other.Overlaps(a) {
			s.logger.Warn("create assignment overlap detected",
				zap.String("organization_id", organizationID),
				zap.String("target_kind", string(a.Target.Kind())),
				zap.String("target_id", a.Target.TargetID().String()),
				zap.String("existing_id", other.ID.String()),
			)
			return AssignmentResponse{}, scheduleerrors.ErrAssignmentOverlap
		}
	}

	s.warnTeamOverride(ctx, qtx, a)

	if err := qtx.CreateAssignment(ctx, &a); err != nil {
		s.logger.Error("create assignment persist failed", zap.Error(err))
		return AssignmentResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create assignment commit failed", zap.Error(err))
		return AssignmentResponse{}, err
	}
	s.logger.Info("create assignment success",
		zap.String("organization_id", organizationID),
		zap.String("assignment_id", a.ID.String()),
	)
	return mapAssignment(a), nil
}

// warnTeamOverride logs each active team assignment of the user's teams that a is
// about to shadow. Lookup failures are logged and never block the assignment.
func (s *service) warnTeamOverride(ctx context.Context, repo Repository, a Assignment) {
	if s.members == nil || a.Target.Kind() != TargetUser {
		return
	}
	userID := a.Target.TargetID().String()
	emp, err := s.members.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("create assignment team lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if len(emp.TeamIDs) == 0 {
		return
	}
	teamAssignments, err := repo.FindActiveAssignmentsForTeams(ctx, emp.TeamIDs)
	if err != nil {
		s.logger.Warn("create assignment team lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	for _, other := range teamAssignments {
		if !other.Overlaps(a) {
			continue
		}
		s.logger.Warn("user assignment overrides team assignment",
			zap.String("organization_id", a.OrganizationID.String()),
			zap.String("user_id", userID),
			zap.String("team_id", other.Target.TargetID().String()),
			zap.String("team_assignment_id", other.ID.String()),
		)
	}
}

func buildAssignment(organizationID string, req CreateAssignmentRequest) (Assignment, error) {
	orgUUID, err := uuid.Parse(organizationID)
	if err != nil {
		return Assignment{}, apperror.InvalidField("organization_id")
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		return Assignment{}, apperror.InvalidField("template_id")
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return Assignment{}, apperror.InvalidField("target_id")
	}
	target, err := NewTarget(TargetKind(req.TargetKind), targetID)
	if err != nil {
		return Assignment{}, scheduleerrors.ErrInvalidTarget
	}

	from, err := parseOptionalDate(req.EffectiveFrom, "effective_from")
	if err != nil {
		return Assignment{}, err
	}
	to, err := parseOptionalDate(req.EffectiveTo, "effective_to")
	if err != nil {
		return Assignment{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return Assignment{}, scheduleerrors.ErrInvalidDateRange
	}

	return Assignment{
		OrganizationID: orgUUID,
		TemplateID:     templateID,
		Target:         target,
		EffectiveFrom:  from,
		EffectiveTo:    to,
		IsActive:       true,
	}, nil
}

func parseOptionalDate(v *string, field string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	d, err := dateutil.Parse(*v)
	if err != nil {
		return nil, apperror.InvalidField(field)
	}
	return &d, nil
}

func mapTemplate(t *Template) TemplateResponse {
	resp := TemplateResponse{
		ID:             t.ID.String(),
		OrganizationID: t.OrganizationID.String(),
		Name:           t.Name,
		IsActive:       t.IsActive,
		Slots:          make([]SlotResponse, 0, len(t.Slots)),
	}
	for _, s := range t.Slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			ID:              s.ID.String(),
			DayOfWeek:       s.DayOfWeek,
			StartMinute:     s.StartMinute,
			EndMinute:       s.EndMinute,
			CrossesMidnight: s.CrossesMidnight,
			BreakMinutes:    s.BreakMinutes,
			Position:        s.Position,
		})
	}
	return resp
}

func mapAssignment(a Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:             a.ID.String(),
		OrganizationID: a.OrganizationID.String(),
		TemplateID:     a.TemplateID.String(),
		TargetKind:     string(a.Target.Kind()),
		TargetID:       a.Target.TargetID().String(),
		IsActive:       a.IsActive,
	}
	if a.EffectiveFrom != nil {
		v := dateutil.Format(*a.EffectiveFrom)
		resp.EffectiveFrom = &v
	}
	if a.EffectiveTo != nil {
		v := dateutil.Format(*a.EffectiveTo)
		resp.EffectiveTo = &v
	}
	return resp
}
