// Package models defines the persistent entities of the blog service.
package models

import "time"

// User is the custom account model. Posts reference it as their owner.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:150" json:"full_name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the account table distinct from other "users" schemas sharing a database.
func (User) TableName() string {
	return "custom_users"
}
