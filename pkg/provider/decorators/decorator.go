// Package decorators 提供提取器装饰器：在不改变提取器实现的前提下
// 叠加熔断等横切能力。
package decorators

import (
	"context"
	"time"

	"ytplayer/pkg/provider"
)

// Decorator 装饰器基础接口
type Decorator interface {
	provider.Provider

	// GetBaseProvider 获取被装饰的基础提取器
	GetBaseProvider() provider.Provider
}

// BaseDecorator 装饰器基础实现，转发所有基础接口方法。
type BaseDecorator struct {
	base provider.MediaProvider
}

// NewBaseDecorator 创建基础装饰器
func NewBaseDecorator(base provider.MediaProvider) *BaseDecorator {
	return &BaseDecorator{base: base}
}

// Name 实现 Provider 接口
func (d *BaseDecorator) Name() string {
	return d.base.Name()
}

// GetRateLimit 实现 Provider 接口
func (d *BaseDecorator) GetRateLimit() time.Duration {
	return d.base.GetRateLimit()
}

// IsHealthy 实现 Provider 接口
func (d *BaseDecorator) IsHealthy() bool {
	return d.base.IsHealthy()
}

// GetBaseProvider 实现 Decorator 接口
func (d *BaseDecorator) GetBaseProvider() provider.Provider {
	return d.base
}

// FetchPlaylist 实现 PlaylistProvider 接口
func (d *BaseDecorator) FetchPlaylist(ctx context.Context, url string) (*provider.PlaylistResult, error) {
	return d.base.FetchPlaylist(ctx, url)
}

// FetchStream 实现 StreamProvider 接口
func (d *BaseDecorator) FetchStream(ctx context.Context, url string) (*provider.StreamResult, error) {
	return d.base.FetchStream(ctx, url)
}
