package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SweepRecordStatus string

const (
	SweepRecordStatusSuccess SweepRecordStatus = "success"
	SweepRecordStatusFailed  SweepRecordStatus = "failed"
)

// SweepRecord stores one run of the periodic eligibility sweep.
type SweepRecord struct {
	gorm.Model
	Name        string            `gorm:"type:varchar(128);not null;index;comment:sweep job name" json:"name"`
	ExecuteTime time.Time         `gorm:"not null;index;comment:run time" json:"executeTime"`
	Status      SweepRecordStatus `gorm:"type:varchar(32);not null;index;default:success;comment:run outcome" json:"status"`
	Message     string            `gorm:"type:text;comment:error detail when failed" json:"message"`
	Summary     datatypes.JSON    `gorm:"type:jsonb;comment:per-project eligibility summary" json:"summary"`
}

func (SweepRecord) TableName() string {
	return "sweep_records"
}
