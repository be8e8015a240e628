package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCacheConfig 远程缓存配置
type RedisCacheConfig struct {
	Addr           string        `mapstructure:"addr"`            // Redis 服务器地址
	Password       string        `mapstructure:"password"`        // 密码，可为空
	DB             int           `mapstructure:"db"`              // 数据库编号
	KeyPrefix      string        `mapstructure:"key_prefix"`      // 键前缀，用于命名空间隔离
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`    // 连接超时
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 单次请求超时
}

// RedisCache 基于 Redis 的远程缓存实现。
// 值以 JSON 字符串存储，TTL 交由 Redis 原生管理；命中统计在客户端维护。
type RedisCache struct {
	mu     sync.RWMutex
	client *redis.Client
	config RedisCacheConfig

	hitCount  int64
	missCount int64
}

// NewRedisCache 创建远程缓存实例并验证连通性。
func NewRedisCache(config RedisCacheConfig) (*RedisCache, error) {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ytplayer:"
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, WrapCacheError(ErrCacheUnavailable, "redis connection failed", err)
	}

	return &RedisCache{
		client: client,
		config: config,
	}, nil
}

// Get 从 Redis 获取数据
func (rc *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, rc.config.RequestTimeout)
	defer cancel()

	data, err := rc.client.Get(ctx, rc.config.KeyPrefix+key).Bytes()
	if err == redis.Nil {
		rc.recordMiss()
		return nil, ErrCacheMissNotFound
	}
	if err != nil {
		rc.recordMiss()
		return nil, WrapCacheError(ErrCacheUnavailable, "redis get failed", err)
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		rc.recordMiss()
		return nil, WrapCacheError(ErrCacheCorrupted, "redis entry corrupted", err)
	}

	rc.recordHit()
	return value, nil
}

// Set 向 Redis 写入数据，ttl <= 0 表示不设置过期时间。
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return WrapCacheError(ErrCacheSerialize, "cache value not serializable", err)
	}

	ctx, cancel := context.WithTimeout(ctx, rc.config.RequestTimeout)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := rc.client.Set(ctx, rc.config.KeyPrefix+key, data, ttl).Err(); err != nil {
		return WrapCacheError(ErrCacheUnavailable, "redis set failed", err)
	}
	return nil
}

// Delete 从 Redis 删除数据
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, rc.config.RequestTimeout)
	defer cancel()

	if err := rc.client.Del(ctx, rc.config.KeyPrefix+key).Err(); err != nil {
		return WrapCacheError(ErrCacheUnavailable, "redis delete failed", err)
	}
	return nil
}

// Clear 删除本实例前缀下的所有键。
func (rc *RedisCache) Clear(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, rc.config.KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			return WrapCacheError(ErrCacheUnavailable, "redis clear failed", err)
		}
	}
	if err := iter.Err(); err != nil {
		return WrapCacheError(ErrCacheUnavailable, "redis scan failed", err)
	}

	rc.mu.Lock()
	rc.hitCount = 0
	rc.missCount = 0
	rc.mu.Unlock()
	return nil
}

// Ping 检查连接状态
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Stats 获取缓存统计信息（条目数为本前缀下的键数量，统计失败时为 -1）。
func (rc *RedisCache) Stats() CacheStats {
	rc.mu.RLock()
	hitCount := rc.hitCount
	missCount := rc.missCount
	rc.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), rc.config.RequestTimeout)
	defer cancel()

	size := int64(-1)
	if keys, err := rc.client.Keys(ctx, rc.config.KeyPrefix+"*").Result(); err == nil {
		size = int64(len(keys))
	}

	stats := CacheStats{
		Size:      size,
		HitCount:  hitCount,
		MissCount: missCount,
	}
	if total := hitCount + missCount; total > 0 {
		stats.HitRate = float64(hitCount) / float64(total)
	}
	return stats
}

// Close 关闭 Redis 连接
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func (rc *RedisCache) recordHit() {
	rc.mu.Lock()
	rc.hitCount++
	rc.mu.Unlock()
}

func (rc *RedisCache) recordMiss() {
	rc.mu.Lock()
	rc.missCount++
	rc.mu.Unlock()
}

var _ Cache = (*RedisCache)(nil)
