package models

import "time"

// User represents the site owner/admin. The dashboard is single-tenant,
// but IsAdmin is checked explicitly on every admin action rather than
// assumed from login.
type User struct {
	Base
	Username    string     `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Password    string     `json:"-"        gorm:"not null"` // bcrypt hash
	IsAdmin     bool       `json:"is_admin" gorm:"default:false"`
	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"        gorm:"size:64"`
}

func (User) TableName() string { return "users" }
