package organization

import (
	"context"
	"errors"

	organizationerrors "go-timeclock/internal/organization/errors"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*Organization, error)
	FindAllActive(ctx context.Context) ([]Organization, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, organizationerrors.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) FindAllActive(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&orgs).Error
	return orgs, err
}
