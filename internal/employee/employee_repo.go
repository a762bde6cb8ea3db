package employee

import (
	"context"
	"errors"

	employeeerrors "go-timeclock/internal/employee/errors"
	"go-timeclock/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindAllActiveByOrganization(ctx context.Context, organizationID string) ([]Employee, error)
	FindManagersByOrganization(ctx context.Context, organizationID string) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee
	err := r.db.WithContext(ctx).First(&emp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, employeeerrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}

	rows := []Employee{emp}
	if err := r.attachTeams(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (r *repository) FindAllActiveByOrganization(ctx context.Context, organizationID string) ([]Employee, error) {
	var rows []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("is_active = ?", true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachTeams(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindManagersByOrganization(ctx context.Context, organizationID string) ([]Employee, error) {
	var rows []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("is_active = ?", true).
		Where("role IN ?", []Role{RoleOrgAdmin, RoleOrgManager}).
		Order("id").
		Find(&rows).Error
	return rows, err
}

func (r *repository) attachTeams(ctx context.Context, rows []Employee) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i, e := range rows {
		ids[i] = e.ID
		index[e.ID] = i
	}

	var members []TeamMember
	err := r.db.WithContext(ctx).
		Where("employee_id IN ?", ids).
		Order("team_id").
		Find(&members).Error
	if err != nil {
		return err
	}
	for _, m := range members {
		i := index[m.EmployeeID]
		rows[i].TeamIDs = append(rows[i].TeamIDs, m.TeamID)
	}
	return nil
}
