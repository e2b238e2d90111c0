package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	FullName     string    `gorm:"size:255;not null" json:"full_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
