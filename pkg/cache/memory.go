package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCacheConfig 内存缓存配置
type MemoryCacheConfig struct {
	MaxSize         int64         // 最大条目数量
	DefaultTTL      time.Duration // 默认TTL，<= 0 表示永不过期
	CleanupInterval time.Duration // 清理间隔，<= 0 关闭后台清理
}

// MemoryCache 线程安全的内存缓存实现，在分层缓存中作为最快的一层使用。
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*CacheEntry
	maxSize    int64
	hitCount   int64
	missCount  int64
	defaultTTL time.Duration

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	lastCleanup   time.Time
}

// NewMemoryCache 创建新的内存缓存
func NewMemoryCache(config MemoryCacheConfig) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]*CacheEntry),
		maxSize:     config.MaxSize,
		defaultTTL:  config.DefaultTTL,
		stopCleanup: make(chan struct{}),
		lastCleanup: time.Now(),
	}

	if config.CleanupInterval > 0 {
		cache.cleanupTicker = time.NewTicker(config.CleanupInterval)
		go cache.startCleanup()
	}

	return cache
}

// Get 获取缓存值
func (mc *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	mc.mu.RLock()
	entry, exists := mc.entries[key]
	mc.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&mc.missCount, 1)
		return nil, ErrCacheMissNotFound
	}

	if entry.Expired(time.Now()) {
		mc.mu.Lock()
		delete(mc.entries, key)
		mc.mu.Unlock()
		atomic.AddInt64(&mc.missCount, 1)
		return nil, ErrCacheMissNotFound
	}

	entry.AccessTime = time.Now()
	atomic.AddInt64(&entry.HitCount, 1)
	atomic.AddInt64(&mc.hitCount, 1)

	return entry.Value, nil
}

// Set 设置缓存值，ttl <= 0 表示永不过期
func (mc *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	now := time.Now()
	entry := &CacheEntry{
		Value:      value,
		AccessTime: now,
		CreateTime: now,
		HitCount:   0,
	}
	if ttl > 0 {
		entry.ExpireTime = now.Add(ttl)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.maxSize > 0 && int64(len(mc.entries)) >= mc.maxSize {
		mc.evictOldest()
	}

	mc.entries[key] = entry
	return nil
}

// Delete 删除缓存值
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.entries, key)
	return nil
}

// Clear 清空缓存
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries = make(map[string]*CacheEntry)
	atomic.StoreInt64(&mc.hitCount, 0)
	atomic.StoreInt64(&mc.missCount, 0)
	return nil
}

// Stats 获取缓存统计信息
func (mc *MemoryCache) Stats() CacheStats {
	mc.mu.RLock()
	size := int64(len(mc.entries))
	lastCleanup := mc.lastCleanup
	mc.mu.RUnlock()

	hitCount := atomic.LoadInt64(&mc.hitCount)
	missCount := atomic.LoadInt64(&mc.missCount)

	var hitRate float64
	if total := hitCount + missCount; total > 0 {
		hitRate = float64(hitCount) / float64(total)
	}

	return CacheStats{
		Size:        size,
		MaxSize:     mc.maxSize,
		HitCount:    hitCount,
		MissCount:   missCount,
		HitRate:     hitRate,
		TTL:         mc.defaultTTL,
		LastCleanup: lastCleanup,
	}
}

// Close 关闭缓存，停止后台清理协程
func (mc *MemoryCache) Close() error {
	if mc.cleanupTicker != nil {
		mc.cleanupTicker.Stop()
	}
	close(mc.stopCleanup)
	return nil
}

func (mc *MemoryCache) startCleanup() {
	for {
		select {
		case <-mc.cleanupTicker.C:
			mc.cleanup()
		case <-mc.stopCleanup:
			return
		}
	}
}

// cleanup 清理过期条目
func (mc *MemoryCache) cleanup() {
	now := time.Now()
	expiredKeys := make([]string, 0)

	mc.mu.RLock()
	for key, entry := range mc.entries {
		if entry.Expired(now) {
			expiredKeys = append(expiredKeys, key)
		}
	}
	mc.mu.RUnlock()

	if len(expiredKeys) > 0 {
		mc.mu.Lock()
		for _, key := range expiredKeys {
			delete(mc.entries, key)
		}
		mc.lastCleanup = now
		mc.mu.Unlock()
	}
}

// evictOldest 淘汰创建时间最早的条目。调用方必须持有写锁。
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	found := false

	for key, entry := range mc.entries {
		if !found || entry.CreateTime.Before(oldestTime) {
			found = true
			oldestKey = key
			oldestTime = entry.CreateTime
		}
	}

	if found {
		delete(mc.entries, oldestKey)
	}
}

var _ Cache = (*MemoryCache)(nil)
