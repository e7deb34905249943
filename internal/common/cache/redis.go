// Package cache 提供 Redis 连接、JSON 缓存与分布式锁
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/incentive-backend/internal/common/config"
)

// 键前缀
const (
	KeyPrefixCampaign  = "campaign:tree:"
	KeyPrefixRateLimit = "ratelimit:"
	KeyPrefixProgress  = "lock:progress:"
	KeyPrefixEvents    = "lock:events:"
)

// pingTimeout 启动时连通性检查超时
const pingTimeout = 5 * time.Second

// Init 按配置建立 Redis 连接并检查连通性
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败 %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// BuildKey 以冒号拼接键
func BuildKey(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}

// JSONStore 以 JSON 序列化保存对象，client 为空时所有操作都是空操作
type JSONStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewJSONStore 创建 JSON 缓存
func NewJSONStore(client *redis.Client, prefix string, ttl time.Duration) *JSONStore {
	return &JSONStore{client: client, prefix: prefix, ttl: ttl}
}

// Enabled 是否配置了 Redis
func (s *JSONStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Load 读取并反序列化到 dest，键不存在时返回 false
func (s *JSONStore) Load(ctx context.Context, id string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	data, err := s.client.Get(ctx, BuildKey(s.prefix, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("解析缓存 %s: %w", id, err)
	}
	return true, nil
}

// Save 序列化后写入
func (s *JSONStore) Save(ctx context.Context, id string, v any) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化缓存 %s: %w", id, err)
	}
	return s.client.Set(ctx, BuildKey(s.prefix, id), data, s.ttl).Err()
}

// Delete 删除缓存
func (s *JSONStore) Delete(ctx context.Context, id string) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Del(ctx, BuildKey(s.prefix, id)).Err()
}
