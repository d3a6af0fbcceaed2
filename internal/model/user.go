package model

import "time"

// User represents an account. Email is the login key; Username is a
// non-unique display name.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username     string     `json:"username" gorm:"size:150"`
	FirstName    string     `json:"first_name" gorm:"size:150"`
	LastName     string     `json:"last_name" gorm:"size:150"`
	PhoneNumber  string     `json:"phone_number,omitempty" gorm:"size:20"`
	ProfilePhoto string     `json:"profile_photo,omitempty" gorm:"size:255"`
	PhotoURL     string     `json:"profile_photo_url,omitempty" gorm:"-"`
	Role         string     `json:"role,omitempty" gorm:"size:50"`
	Location     string     `json:"location,omitempty" gorm:"size:255"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsActive     bool       `json:"is_active" gorm:"default:true;index"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
