// Package resolver 将提取器与缓存组合起来：解析前先查缓存，
// 成功提取后写回缓存。缓存只是性能优化，任何缓存故障都降级为直接提取。
package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"ytplayer/pkg/cache"
	"ytplayer/pkg/logger"
	"ytplayer/pkg/provider"
)

// 缓存键按结果类型加前缀，不同类型的结果互不冲突。
const (
	playlistKeyPrefix = "playlist::"
	streamKeyPrefix   = "stream::"
)

// PlaylistKey 构造播放清单缓存键。
func PlaylistKey(url string) string {
	return playlistKeyPrefix + url
}

// StreamKey 构造串流信息缓存键。
func StreamKey(url string) string {
	return streamKeyPrefix + url
}

// Resolver 带缓存的播放清单/串流解析器
type Resolver struct {
	provider provider.MediaProvider
	cache    cache.Cache
	ttl      time.Duration
	log      *logrus.Entry
}

// New 创建解析器。c 可以为 nil，此时所有解析都直接走提取器。
func New(p provider.MediaProvider, c cache.Cache, ttl time.Duration) *Resolver {
	return &Resolver{
		provider: p,
		cache:    c,
		ttl:      ttl,
		log:      logger.WithComponent("resolver"),
	}
}

// ResolvePlaylist 解析播放清单。返回的 bool 表示结果是否来自缓存。
func (r *Resolver) ResolvePlaylist(ctx context.Context, url string) (*provider.PlaylistResult, bool, error) {
	key := PlaylistKey(url)

	var cached provider.PlaylistResult
	if r.lookup(ctx, key, &cached) {
		r.log.Infof("从缓存加载播放清单: %s", url)
		return &cached, true, nil
	}

	result, err := r.provider.FetchPlaylist(ctx, url)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, key, result)
	return result, false, nil
}

// ResolveStream 解析单个媒体的串流信息。返回的 bool 表示结果是否来自缓存。
func (r *Resolver) ResolveStream(ctx context.Context, url string) (*provider.StreamResult, bool, error) {
	key := StreamKey(url)

	var cached provider.StreamResult
	if r.lookup(ctx, key, &cached) {
		r.log.Infof("从缓存加载串流信息: %s", url)
		return &cached, true, nil
	}

	result, err := r.provider.FetchStream(ctx, url)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, key, result)
	return result, false, nil
}

// lookup 查缓存并把通用 JSON 值解码回结果结构。
// 任何失败（未命中、损坏、后端不可用）都按未命中处理。
func (r *Resolver) lookup(ctx context.Context, key string, target interface{}) bool {
	if r.cache == nil {
		return false
	}

	value, err := r.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) {
			r.log.Warnf("读取缓存失败 (%s): %v", key, err)
		}
		return false
	}

	if err := decode(value, target); err != nil {
		r.log.Warnf("缓存条目 %s 无法解码，忽略: %v", key, err)
		return false
	}
	return true
}

// store 写回缓存。写入失败只记录日志，不影响调用方。
func (r *Resolver) store(ctx context.Context, key string, value interface{}) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, value, r.ttl); err != nil {
		r.log.Warnf("写入缓存失败 (%s): %v", key, err)
		return
	}
	r.log.Infof("已将结果存入缓存: %s", key)
}

// decode 将缓存层返回的通用 JSON 值转回具体结构。
func decode(value interface{}, target interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
