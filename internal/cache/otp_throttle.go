package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// OTPThrottle allows one verification code per email per cooldown window.
type OTPThrottle struct {
	client   *redisv9.Client
	cooldown time.Duration
}

func NewOTPThrottle(client *redisv9.Client, cooldown time.Duration) *OTPThrottle {
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &OTPThrottle{client: client, cooldown: cooldown}
}

func (t *OTPThrottle) Allow(ctx context.Context, email string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.cooldownKey(email), "1", t.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("redis set otp cooldown failed: %w", err)
	}
	return ok, nil
}

func (t *OTPThrottle) cooldownKey(email string) string {
	return fmt.Sprintf("auth:otp:cooldown:%s", email)
}
