package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of shadow-phase would-be denials and
// enforcing-phase hard denials. Rows are never updated after insert; the
// eligibility gate and check-violations both scan this table by time range.
type AuditLog struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	LoggedAt          time.Time      `gorm:"not null;index;comment:time the entry was recorded" json:"loggedAt"`
	CallerProjectID   string         `gorm:"type:varchar(64);not null;index;comment:project that issued the operation" json:"callerProjectID"`
	CollectionName    string         `gorm:"type:varchar(128);not null;comment:guarded collection" json:"collectionName"`
	Operation         Operation      `gorm:"type:varchar(16);not null;comment:operation kind (read, write)" json:"operation"`
	RowOwnerProjectID string         `gorm:"type:varchar(64);not null;comment:owner of the touched row" json:"rowOwnerProjectID"`
	WouldBeDenied     bool           `gorm:"type:boolean;not null;index;comment:true when enforcing rules would deny" json:"wouldBeDenied"`
	BeforeState       datatypes.JSON `gorm:"type:jsonb;comment:row snapshot before the write" json:"beforeState,omitempty"`
	AfterState        datatypes.JSON `gorm:"type:jsonb;comment:row snapshot after the write" json:"afterState,omitempty"`
	ActingIdentity    string         `gorm:"type:varchar(128);comment:authenticated identity behind the call" json:"actingIdentity"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
