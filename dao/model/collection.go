package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Insight and Memory are the guarded collections served by this module.
// Names are unique per owner, not globally: two projects may each own an
// insight called "retention", and each only ever sees its own.

type Insight struct {
	gorm.Model
	OwnerID string         `gorm:"index;type:varchar(64);comment:owning project id" json:"ownerID"`
	Name    string         `gorm:"type:varchar(128);not null;comment:human-readable label" json:"name"`
	Content datatypes.JSON `gorm:"type:jsonb;comment:insight payload" json:"content"`
}

func (i *Insight) OwnerProjectID() string { return i.OwnerID }

type Memory struct {
	gorm.Model
	OwnerID string         `gorm:"index;type:varchar(64);comment:owning project id" json:"ownerID"`
	Name    string         `gorm:"type:varchar(128);not null;comment:human-readable label" json:"name"`
	Content datatypes.JSON `gorm:"type:jsonb;comment:memory payload" json:"content"`
}

func (m *Memory) OwnerProjectID() string { return m.OwnerID }
