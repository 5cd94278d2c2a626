package model

import "gorm.io/gorm"

// Operator is a human identity for the admin API and wardenctl. Operators
// are not projects; they administer grants and rollout phases, and their
// name is stamped as acting_identity on audit rows.
type Operator struct {
	gorm.Model
	Name     string  `gorm:"uniqueIndex;type:varchar(64);not null;comment:operator login" json:"name"`
	Password *string `gorm:"type:varchar(128);comment:bcrypt hash" json:"-"`
	Role     Role    `gorm:"not null;default:1;comment:platform role (user, admin)" json:"role"`
}
