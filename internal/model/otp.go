package model

import "time"

// OTP is an email verification code. Email is matched by value, not by foreign key.
type OTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	Code      string    `gorm:"column:otp_code;size:6;not null" json:"-"`
	IsUsed    bool      `gorm:"not null;default:false" json:"is_used"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *OTP) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
