package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== RedisLocker 测试 ====================

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	s := setupMiniRedis(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	ctx := context.Background()
	key := BuildKey(KeyPrefixProgress, "1", "2")

	release, err := locker.Acquire(ctx, key, time.Second, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, s.Exists(key))

	t.Run("已被持有时超时失败", func(t *testing.T) {
		_, err := locker.Acquire(ctx, key, time.Second, 50*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotObtained)
	})

	require.NoError(t, release(ctx))
	assert.False(t, s.Exists(key))

	t.Run("释放后可再次获取", func(t *testing.T) {
		release2, err := locker.Acquire(ctx, key, time.Second, 50*time.Millisecond)
		require.NoError(t, err)
		assert.NoError(t, release2(ctx))
	})
}

func TestRedisLocker_ReleaseDoesNotDeleteForeignLock(t *testing.T) {
	s := setupMiniRedis(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	ctx := context.Background()
	key := "lock:progress:9:9"

	release, err := locker.Acquire(ctx, key, time.Second, 0)
	require.NoError(t, err)

	// 锁过期后被其他持有者获取
	s.FastForward(2 * time.Second)
	require.NoError(t, s.Set(key, "other-owner"))

	require.NoError(t, release(ctx))
	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other-owner", got)
}

func TestRedisLocker_ContextCanceled(t *testing.T) {
	s := setupMiniRedis(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	require.NoError(t, s.Set("lock:busy", "someone"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locker.Acquire(ctx, "lock:busy", time.Second, time.Second)
	assert.Error(t, err)
}

// ==================== LocalLocker 测试 ====================

func TestLocalLocker_Exclusive(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k", 0, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "k", 0, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockNotObtained)

	// 不同 key 互不影响
	releaseOther, err := locker.Acquire(ctx, "other", 0, 10*time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, releaseOther(ctx))

	assert.NoError(t, release(ctx))
	// 重复释放无副作用
	assert.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "k", 0, 10*time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func TestLocalLocker_Serializes(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "seller:campaign", 0, 5*time.Second)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = release(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_ReleasesSlots(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		release, err := locker.Acquire(ctx, fmt.Sprintf("seller:%d", i), 0, time.Second)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	}
	assert.Equal(t, 0, locker.size())

	t.Run("等待超时后不残留", func(t *testing.T) {
		release, err := locker.Acquire(ctx, "k", 0, time.Second)
		require.NoError(t, err)
		_, err = locker.Acquire(ctx, "k", 0, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotObtained)
		assert.Equal(t, 1, locker.size())

		require.NoError(t, release(ctx))
		require.NoError(t, release(ctx))
		assert.Equal(t, 0, locker.size())
	})

	t.Run("并发获取结束后清空", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := locker.Acquire(ctx, "shared", 0, 5*time.Second)
				if err == nil {
					_ = release(ctx)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 0, locker.size())
	})
}

func TestNewLocker(t *testing.T) {
	assert.IsType(t, &LocalLocker{}, NewLocker(nil))

	s := setupMiniRedis(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	assert.IsType(t, &RedisLocker{}, NewLocker(client))
}
