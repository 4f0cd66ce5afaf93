package models

import "gorm.io/gorm"

// User is owned by the external identity service; only the columns this
// subsystem reads are mapped here.
type User struct {
	gorm.Model
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"index"`
	Mobile    string `json:"mobile"`
	Role      string `json:"role" gorm:"default:'USER'"` // USER, ADMIN, SUPER-ADMIN
	IsDeleted bool   `gorm:"default:false"`
}
