package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pairline/pairline/internal/models"
	"github.com/pairline/pairline/internal/observability"
	"github.com/pairline/pairline/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitStatus reports whether a caller may attempt a pairing
type RateLimitStatus struct {
	Allowed     bool       `json:"allowed"`
	Remaining   int        `json:"remaining_attempts"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// RateLimiter enforces a timed lockout after repeated failed pairing
// attempts from one caller phone number. Lockouts are keyed by caller
// identity, not by session or code, so starting a new web session does not
// reset the budget.
type RateLimiter struct {
	redis       *redisclient.Client
	maxAttempts int
	lockout     time.Duration
	logger      *zap.Logger
}

// NewRateLimiter creates a rate limiter backed by the given Redis client
func NewRateLimiter(redisClient *redisclient.Client, maxAttempts int, lockout time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		logger:      logger,
	}
}

// Check reports whether the caller may attempt a pairing. An expired
// lockout is reset lazily here; no background sweep exists for this entity.
func (rl *RateLimiter) Check(ctx context.Context, callerID string) (RateLimitStatus, error) {
	record, err := rl.load(ctx, callerID)
	if err != nil {
		return RateLimitStatus{}, err
	}
	if record == nil {
		return RateLimitStatus{Allowed: true, Remaining: rl.maxAttempts}, nil
	}

	now := time.Now()
	if record.LockedUntil != nil {
		if record.LockedUntil.After(now) {
			rl.logger.Info("caller is locked out",
				zap.String("caller", observability.MaskPhone(callerID)),
				zap.Time("locked_until", *record.LockedUntil))
			return RateLimitStatus{Allowed: false, LockedUntil: record.LockedUntil}, nil
		}

		// Lockout elapsed: reset counters and start a fresh budget
		if err := rl.Clear(ctx, callerID); err != nil {
			return RateLimitStatus{}, err
		}
		return RateLimitStatus{Allowed: true, Remaining: rl.maxAttempts}, nil
	}

	remaining := rl.maxAttempts - record.Failures
	if remaining <= 0 {
		return RateLimitStatus{Allowed: false}, nil
	}
	return RateLimitStatus{Allowed: true, Remaining: remaining}, nil
}

// RecordFailure increments the caller's failure counter and starts a
// lockout when the configured maximum is reached.
func (rl *RateLimiter) RecordFailure(ctx context.Context, callerID string) (RateLimitStatus, error) {
	record, err := rl.load(ctx, callerID)
	if err != nil {
		return RateLimitStatus{}, err
	}
	if record == nil {
		record = &models.RateLimitRecord{}
	}

	now := time.Now()
	record.Failures++
	record.LastAttempt = now

	status := RateLimitStatus{Allowed: true, Remaining: rl.maxAttempts - record.Failures}
	if record.Failures >= rl.maxAttempts {
		lockedUntil := now.Add(rl.lockout)
		record.LockedUntil = &lockedUntil
		status = RateLimitStatus{Allowed: false, LockedUntil: &lockedUntil}

		observability.Lockouts.Inc()
		rl.logger.Warn("caller locked out after repeated failures",
			zap.String("caller", observability.MaskPhone(callerID)),
			zap.Int("failures", record.Failures),
			zap.Time("locked_until", lockedUntil))
	}

	if err := rl.store(ctx, callerID, record); err != nil {
		return RateLimitStatus{}, err
	}
	return status, nil
}

// Clear deletes the caller's record entirely. Called on successful pairing.
func (rl *RateLimiter) Clear(ctx context.Context, callerID string) error {
	if err := rl.redis.Del(ctx, rateLimitKeyPrefix+callerID).Err(); err != nil {
		return fmt.Errorf("failed to clear rate limit record: %w", err)
	}
	return nil
}

func (rl *RateLimiter) load(ctx context.Context, callerID string) (*models.RateLimitRecord, error) {
	data, err := rl.redis.Get(ctx, rateLimitKeyPrefix+callerID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit record: %w", err)
	}

	var record models.RateLimitRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		// A corrupt record counts as absent rather than blocking the caller
		rl.logger.Warn("discarding corrupt rate limit record",
			zap.String("caller", observability.MaskPhone(callerID)),
			zap.Error(err))
		return nil, nil
	}
	return &record, nil
}

func (rl *RateLimiter) store(ctx context.Context, callerID string, record *models.RateLimitRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal rate limit record: %w", err)
	}

	// TTL safety net well past the lockout window; correctness does not
	// depend on it since reads reset expired lockouts
	ttl := rl.lockout * 2
	if err := rl.redis.Set(ctx, rateLimitKeyPrefix+callerID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate limit record: %w", err)
	}
	return nil
}
