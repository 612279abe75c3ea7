package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRateLimiter_FreshCallerAllowed(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), 5, 15*time.Minute, zap.NewNop())
	ctx := context.Background()

	status, err := rl.Check(ctx, "+15550001111")
	require.NoError(t, err)

	assert.True(t, status.Allowed)
	assert.Equal(t, 5, status.Remaining)
	assert.Nil(t, status.LockedUntil)
}

func TestRateLimiter_FailuresConsumeBudget(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), 3, 15*time.Minute, zap.NewNop())
	ctx := context.Background()
	caller := "+15550002222"

	status, err := rl.RecordFailure(ctx, caller)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 2, status.Remaining)

	status, err = rl.RecordFailure(ctx, caller)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 1, status.Remaining)

	// Third failure triggers the lockout
	status, err = rl.RecordFailure(ctx, caller)
	require.NoError(t, err)
	assert.False(t, status.Allowed)
	require.NotNil(t, status.LockedUntil)
	assert.True(t, status.LockedUntil.After(time.Now()))

	status, err = rl.Check(ctx, caller)
	require.NoError(t, err)
	assert.False(t, status.Allowed)
}

func TestRateLimiter_ExpiredLockoutResetsLazily(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), 2, 50*time.Millisecond, zap.NewNop())
	ctx := context.Background()
	caller := "+15550003333"

	_, err := rl.RecordFailure(ctx, caller)
	require.NoError(t, err)
	status, err := rl.RecordFailure(ctx, caller)
	require.NoError(t, err)
	require.False(t, status.Allowed)

	time.Sleep(60 * time.Millisecond)

	// The elapsed lockout clears on read and the budget is fresh
	status, err = rl.Check(ctx, caller)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 2, status.Remaining)
}

func TestRateLimiter_ClearResetsBudget(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), 3, 15*time.Minute, zap.NewNop())
	ctx := context.Background()
	caller := "+15550004444"

	_, err := rl.RecordFailure(ctx, caller)
	require.NoError(t, err)
	_, err = rl.RecordFailure(ctx, caller)
	require.NoError(t, err)

	require.NoError(t, rl.Clear(ctx, caller))

	status, err := rl.Check(ctx, caller)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 3, status.Remaining)
}

func TestRateLimiter_CorruptRecordTreatedAsAbsent(t *testing.T) {
	rc := testRedis(t)
	rl := NewRateLimiter(rc, 5, 15*time.Minute, zap.NewNop())
	ctx := context.Background()
	caller := "+15550005555"

	require.NoError(t, rc.Set(ctx, rateLimitKeyPrefix+caller, "not json", time.Minute).Err())

	status, err := rl.Check(ctx, caller)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 5, status.Remaining)
}

func TestRateLimiter_CallersAreIndependent(t *testing.T) {
	rl := NewRateLimiter(testRedis(t), 2, 15*time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := rl.RecordFailure(ctx, "+15550006666")
	require.NoError(t, err)
	status, err := rl.RecordFailure(ctx, "+15550006666")
	require.NoError(t, err)
	require.False(t, status.Allowed)

	status, err = rl.Check(ctx, "+15550007777")
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 2, status.Remaining)
}
