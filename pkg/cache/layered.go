package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"ytplayer/pkg/logger"
)

// LayeredCacheConfig 分层缓存配置
type LayeredCacheConfig struct {
	PromoteEnabled bool          // 命中慢层时是否回填到更快的层
	PromoteTTL     time.Duration // 回填时使用的 TTL，<= 0 表示不过期
}

// LayeredCache 分层缓存：按顺序查询各层（快 -> 慢），写入时穿透所有层。
// 慢层命中的数据可以被提升到前面的快层，加速后续访问。
type LayeredCache struct {
	layers []Cache
	config LayeredCacheConfig

	promoteCount int64
	log          *logrus.Entry
}

// NewLayeredCache 创建分层缓存，layers 按访问速度从快到慢排列。
func NewLayeredCache(config LayeredCacheConfig, layers ...Cache) (*LayeredCache, error) {
	if len(layers) == 0 {
		return nil, NewCacheError(ErrCacheUnavailable, "layered cache requires at least one layer")
	}

	return &LayeredCache{
		layers: layers,
		config: config,
		log:    logger.WithComponent("cache.layered"),
	}, nil
}

// Get 依次查询各层，慢层命中时按配置回填到它之前的所有层。
func (lc *LayeredCache) Get(ctx context.Context, key string) (interface{}, error) {
	for i, layer := range lc.layers {
		value, err := layer.Get(ctx, key)
		if err != nil {
			continue
		}

		if lc.config.PromoteEnabled && i > 0 {
			for j := 0; j < i; j++ {
				if perr := lc.layers[j].Set(ctx, key, value, lc.config.PromoteTTL); perr != nil {
					lc.log.Warnf("回填缓存层 %d 失败: %v", j, perr)
				}
			}
			atomic.AddInt64(&lc.promoteCount, 1)
		}

		return value, nil
	}

	return nil, ErrCacheMissNotFound
}

// Set 写穿透：将值写入所有层。只要有任意一层成功即视为成功。
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var lastErr error
	ok := false
	for i, layer := range lc.layers {
		if err := layer.Set(ctx, key, value, ttl); err != nil {
			lc.log.Warnf("写入缓存层 %d 失败: %v", i, err)
			lastErr = err
			continue
		}
		ok = true
	}
	if !ok {
		return lastErr
	}
	return nil
}

// Delete 从所有层删除指定键。
func (lc *LayeredCache) Delete(ctx context.Context, key string) error {
	for _, layer := range lc.layers {
		if err := layer.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Clear 清空所有层。
func (lc *LayeredCache) Clear(ctx context.Context) error {
	for _, layer := range lc.layers {
		if err := layer.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stats 聚合各层的统计信息：容量与条目数取各层之和，命中概况取最快层。
func (lc *LayeredCache) Stats() CacheStats {
	stats := lc.layers[0].Stats()
	for _, layer := range lc.layers[1:] {
		layerStats := layer.Stats()
		stats.Size += layerStats.Size
		stats.MaxSize += layerStats.MaxSize
	}
	return stats
}

// PromoteCount 返回累计的跨层回填次数。
func (lc *LayeredCache) PromoteCount() int64 {
	return atomic.LoadInt64(&lc.promoteCount)
}

var _ Cache = (*LayeredCache)(nil)
