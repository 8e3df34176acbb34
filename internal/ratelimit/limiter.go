package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipWindow       = 15 * time.Minute
	ipMaxRequests  = 10
	emailCooldown  = 60 * time.Second
	defaultPurpose = "default"
)

// Limiter enforces per-IP request limits and per-email cooldowns using
// Redis counters. Failing open is the caller's decision; every method
// reports Redis errors instead of swallowing them.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", email)
}

// CheckIPRateLimit reports whether the IP has exhausted its request window
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, defaultPurpose)
}

// CheckIPRateLimitWithPurpose reports whether the IP has exhausted its
// request window for a specific endpoint purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read IP rate limit counter: %w", err)
	}
	return count >= ipMaxRequests, nil
}

// RecordIPRequest counts one request against the IP's default window
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, defaultPurpose)
}

// RecordIPRequestWithPurpose counts one request against the IP's window for
// a specific endpoint purpose. The window TTL is set on first increment.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment IP rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, ipWindow).Err(); err != nil {
			return fmt.Errorf("failed to set IP rate limit window: %w", err)
		}
	}
	return nil
}

// CheckEmailCooldown reports whether the email was targeted too recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	err := l.client.Get(ctx, emailKey(email)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read email cooldown: %w", err)
	}
	return true, nil
}

// SetEmailCooldown starts the cooldown window for an email address
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailKey(email), "1", emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}
