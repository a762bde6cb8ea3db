package schedule

import (
	"context"
	"database/sql"
	"errors"

	scheduleerrors "go-timeclock/internal/schedule/errors"
	"go-timeclock/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	LockTarget(ctx context.Context, target Target) error
	CreateTemplate(ctx context.Context, t *Template) error
	FindTemplateWithSlots(ctx context.Context, id uuid.UUID) (*Template, error)
	CreateAssignment(ctx context.Context, a *Assignment) error
	FindActiveAssignmentsByTarget(ctx context.Context, target Target) ([]Assignment, error)
	FindActiveAssignmentsForTeams(ctx context.Context, teamIDs []uuid.UUID) ([]Assignment, error)
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

func (r *repository) LockTarget(ctx context.Context, target Target) error {
	return dbtx.AdvisoryLock(ctx, r.db, "schedule_assignment:"+string(target.Kind())+":"+target.TargetID().String())
}

func (r *repository) CreateTemplate(ctx context.Context, t *Template) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindTemplateWithSlots(ctx context.Context, id uuid.UUID) (*Template, error) {
	var t Template
	err := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week, position, start_minute")
		}).
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scheduleerrors.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) CreateAssignment(ctx context.Context, a *Assignment) error {
	rec := fromDomain(*a)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	a.ID = rec.ID
	a.CreatedAt = rec.CreatedAt
	return nil
}

func (r *repository) FindActiveAssignmentsByTarget(ctx context.Context, target Target) ([]Assignment, error) {
	var rows []assignmentRecord
	err := r.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", target.Kind(), target.TargetID()).
		Where("is_active = ?", true).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows)
}

func (r *repository) FindActiveAssignmentsForTeams(ctx context.Context, teamIDs []uuid.UUID) ([]Assignment, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	var rows []assignmentRecord
	err := r.db.WithContext(ctx).
		Where("target_kind = ? AND target_id IN ?", TargetTeam, teamIDs).
		Where("is_active = ?", true).
		Order("target_id, created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows)
}

func toDomainList(rows []assignmentRecord) ([]Assignment, error) {
	out := make([]Assignment, 0, len(rows))
	for _, rec := range rows {
		a, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
