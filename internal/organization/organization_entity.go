package organization

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"type:varchar(150);not null"`
	Timezone string    `gorm:"type:varchar(64);not null;default:UTC"`
	// WeekStartDay follows time.Weekday: 0 = Sunday.
	WeekStartDay int       `gorm:"not null;default:1"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
	UpdatedAt    time.Time `gorm:"not null;default:now()"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o Organization) WeekStart() time.Weekday {
	if o.WeekStartDay < 0 || o.WeekStartDay > 6 {
		return time.Monday
	}
	return time.Weekday(o.WeekStartDay)
}
