package model

import "time"

// EmailJob is the payload queued for asynchronous verification mail delivery.
type EmailJob struct {
	Email      string    `json:"email"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
