package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestRedisCache 连接本地 Redis，不可用时跳过测试。
func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	rc, err := NewRedisCache(RedisCacheConfig{
		Addr:        "localhost:6379",
		DB:          15,
		KeyPrefix:   "ytplayer_test:",
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Skipf("Redis 不可用，跳过测试: %v", err)
	}

	t.Cleanup(func() {
		rc.Clear(context.Background())
		rc.Close()
	})
	return rc
}

// 测试远程缓存基本操作
func TestRedisCache_BasicOperations(t *testing.T) {
	rc := newTestRedisCache(t)
	ctx := context.Background()

	err := rc.Set(ctx, "key1", "value1", time.Minute)
	assert.NoError(t, err)

	value, err := rc.Get(ctx, "key1")
	assert.NoError(t, err)
	assert.Equal(t, "value1", value)

	_, err = rc.Get(ctx, "nonexistent")
	assert.True(t, IsMiss(err))

	err = rc.Delete(ctx, "key1")
	assert.NoError(t, err)
	_, err = rc.Get(ctx, "key1")
	assert.True(t, IsMiss(err))
}

// 测试 TTL 由 Redis 原生管理
func TestRedisCache_TTL(t *testing.T) {
	rc := newTestRedisCache(t)
	ctx := context.Background()

	err := rc.Set(ctx, "short", "v", 100*time.Millisecond)
	assert.NoError(t, err)

	value, err := rc.Get(ctx, "short")
	assert.NoError(t, err)
	assert.Equal(t, "v", value)

	time.Sleep(200 * time.Millisecond)
	_, err = rc.Get(ctx, "short")
	assert.True(t, IsMiss(err))
}

// 测试 Clear 只清除本前缀下的键
func TestRedisCache_Clear(t *testing.T) {
	rc := newTestRedisCache(t)
	ctx := context.Background()

	assert.NoError(t, rc.Set(ctx, "key1", "v", 0))
	assert.NoError(t, rc.Set(ctx, "key2", "v", 0))

	assert.NoError(t, rc.Clear(ctx))

	_, err := rc.Get(ctx, "key1")
	assert.True(t, IsMiss(err))
	_, err = rc.Get(ctx, "key2")
	assert.True(t, IsMiss(err))
}

// 连接失败时构造报错而不是返回半可用的实例
func TestRedisCache_ConnectFailure(t *testing.T) {
	_, err := NewRedisCache(RedisCacheConfig{
		Addr:        "localhost:1", // 不存在的端口
		DialTimeout: 200 * time.Millisecond,
	})
	assert.Error(t, err)
}
