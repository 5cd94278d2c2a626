package model

import "gorm.io/gorm"

// Project is a tenant namespace. ProjectID is the stable external identifier
// used on rows, grants and audit entries; the numeric gorm ID never leaves
// the database layer.
type Project struct {
	gorm.Model
	ProjectID   string      `gorm:"uniqueIndex;type:varchar(64);not null;comment:stable external project id" json:"projectID"`
	Name        string      `gorm:"type:varchar(128);not null;comment:display name" json:"name"`
	Description *string     `gorm:"type:varchar(256);comment:project description" json:"description"`
	AccessLevel AccessLevel `gorm:"type:varchar(32);not null;default:isolated;comment:access tier (isolated, shared, super)" json:"accessLevel"`
	Status      Status      `gorm:"type:varchar(32);not null;default:active;comment:project status (active, inactive)" json:"status"`
}

// ReadPermission grants Reader read access to rows owned by Target.
// Only consulted for shared-tier readers; self-grants are rejected before
// insert and the pair is unique.
type ReadPermission struct {
	gorm.Model
	ReaderProjectID string `gorm:"uniqueIndex:idx_reader_target;type:varchar(64);not null;comment:granted reader" json:"readerProjectID"`
	TargetProjectID string `gorm:"uniqueIndex:idx_reader_target;type:varchar(64);not null;comment:grant target" json:"targetProjectID"`
	GrantedBy       string `gorm:"type:varchar(64);comment:operator who created the grant" json:"grantedBy"`
}
