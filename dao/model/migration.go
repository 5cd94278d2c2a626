package model

import (
	"time"

	"gorm.io/gorm"
)

// MigrationStatus tracks the enforcement rollout phase of one project.
// Exactly one row per project; MigratedAt is non-null iff Phase is complete.
type MigrationStatus struct {
	gorm.Model
	ProjectID      string     `gorm:"uniqueIndex;type:varchar(64);not null;comment:project id" json:"projectID"`
	Phase          Phase      `gorm:"type:varchar(32);not null;default:pending;comment:rollout phase (pending, shadow, enforcing, complete)" json:"phase"`
	Enabled        bool       `gorm:"type:boolean;not null;default:true;comment:rollout toggle" json:"enabled"`
	PhaseEnteredAt time.Time  `gorm:"not null;comment:time the current phase was entered" json:"phaseEnteredAt"`
	MigratedAt     *time.Time `gorm:"comment:time the project reached complete" json:"migratedAt"`
}

func (MigrationStatus) TableName() string {
	return "migration_statuses"
}
