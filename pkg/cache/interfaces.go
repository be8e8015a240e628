// Package cache 提供播放器的缓存层实现：持久化 JSON 文件缓存（核心）、
// 内存缓存、分层缓存以及可选的 Redis 远程缓存。
package cache

import (
	"context"
	"time"
)

// Cache 定义了所有缓存实现都必须遵循的通用接口。
// TTL 约定：ttl <= 0 表示条目永不过期。
type Cache interface {
	// Get 根据键从缓存中检索一个条目。
	Get(ctx context.Context, key string) (interface{}, error)
	// Set 将一个键值对存入缓存，ttl <= 0 表示永不过期。
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete 从缓存中删除一个指定的键。
	Delete(ctx context.Context, key string) error
	// Clear 清空缓存中的所有条目。
	Clear(ctx context.Context) error
	// Stats 返回当前缓存的统计信息。
	Stats() CacheStats
}

// CacheEntry 代表内存缓存中的一个条目。
type CacheEntry struct {
	Value      interface{} // 缓存的值
	ExpireTime time.Time   // 过期时间，零值表示永不过期
	AccessTime time.Time   // 最后访问时间
	CreateTime time.Time   // 创建时间
	HitCount   int64       // 命中次数
}

// Expired 判断条目在 now 时刻是否已过期。
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpireTime.IsZero() && now.After(e.ExpireTime)
}

// CacheStats 包含了缓存实现的详细统计数据。
type CacheStats struct {
	Size        int64         `json:"size"`         // 当前缓存中的条目数
	MaxSize     int64         `json:"max_size"`     // 缓存配置的最大容量
	HitCount    int64         `json:"hit_count"`    // 命中次数
	MissCount   int64         `json:"miss_count"`   // 未命中次数
	HitRate     float64       `json:"hit_rate"`     // 命中率 (HitCount / (HitCount + MissCount))
	TTL         time.Duration `json:"ttl"`          // 默认的生存时间
	LastCleanup time.Time     `json:"last_cleanup"` // 最后一次清理过期条目的时间
}
