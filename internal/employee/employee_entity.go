package employee

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleOrgManager Role = "org_manager"
	RoleOrgAdmin   Role = "org_admin"
)

func (r Role) IsManager() bool {
	return r == RoleOrgManager || r == RoleOrgAdmin
}

type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	FullName       string    `gorm:"type:varchar(150);not null"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex"`
	Role           Role      `gorm:"type:varchar(20);not null;default:employee"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// TeamIDs is filled from team_members by the repository.
	TeamIDs []uuid.UUID `gorm:"-"`
}

func (Employee) TableName() string {
	return "employees"
}

type TeamMember struct {
	TeamID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
}

func (TeamMember) TableName() string {
	return "team_members"
}
