package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/memory"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/redis"
	"github.com/jas0n325/captone-ui-sub006/pkg/settings"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "T01", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:T01"), "lock key should be set")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:T01"), "lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(waitCtx, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestRedisLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "T01", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("test:lock:T01", "someone-else"))

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:T01"), "unlock must not delete a lock held by another owner")
}

func TestRedisLocker_WithSettingsManager(t *testing.T) {
	_, client := newClient(t)
	mgr := settings.NewManager(memory.NewStore(), settings.WithLocker(redis.NewLocker(client, "pos:")))
	ctx := context.Background()

	require.NoError(t, mgr.PropagateTransactionNumber(ctx, "T01", 7))
	n, err := mgr.TransactionNumber(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
