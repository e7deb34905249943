package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained 在等待时间内未获取到锁
var ErrLockNotObtained = errors.New("cache: lock not obtained")

// lockRetryInterval 重试获取锁的间隔
const lockRetryInterval = 20 * time.Millisecond

// releaseScript 仅当锁仍由自己持有时才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseFunc 释放锁
type ReleaseFunc func(ctx context.Context) error

// Locker 互斥锁
type Locker interface {
	// Acquire 获取 key 对应的锁，最多等待 wait；ttl 为锁的自动过期时间
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (ReleaseFunc, error)
}

// RedisLocker 基于 SET NX PX 的分布式锁
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker 创建分布式锁
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire 获取分布式锁
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (ReleaseFunc, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockNotObtained
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// LocalLocker 进程内按 key 互斥，未配置 Redis 时使用
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

// localSlot 引用计数归零时从 slots 中移除
type localSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot)}
}

// Acquire 获取进程内锁，ttl 不生效
func (l *LocalLocker) Acquire(ctx context.Context, key string, _, wait time.Duration) (ReleaseFunc, error) {
	slot := l.ref(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func(context.Context) error {
			once.Do(func() {
				<-slot.ch
				l.unref(key)
			})
			return nil
		}, nil
	case <-timer.C:
		l.unref(key)
		return nil, ErrLockNotObtained
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) ref(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs <= 0 {
		delete(l.slots, key)
	}
}

// size 当前持有或等待中的 key 数量
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// NewLocker 根据 Redis 是否可用选择锁实现
func NewLocker(client *redis.Client) Locker {
	if client == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(client)
}
