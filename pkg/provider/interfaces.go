// Package provider 定义了播放清单与串流信息提取器的接口和数据类型。
package provider

import (
	"context"
	"time"
)

// Provider 提取器基础接口
type Provider interface {
	// Name 返回提取器名称，用于标识和日志记录
	Name() string

	// GetRateLimit 获取请求频率限制：两次请求之间的最小间隔时间
	GetRateLimit() time.Duration

	// IsHealthy 检查提取器健康状态
	IsHealthy() bool
}

// PlaylistProvider 播放清单提取接口
type PlaylistProvider interface {
	Provider

	// FetchPlaylist 解析播放清单 URL，返回其中所有条目的地址与标题。
	FetchPlaylist(ctx context.Context, url string) (*PlaylistResult, error)
}

// StreamProvider 串流信息提取接口
type StreamProvider interface {
	Provider

	// FetchStream 解析单个媒体 URL，返回标题与可播放的串流地址。
	FetchStream(ctx context.Context, url string) (*StreamResult, error)
}

// MediaProvider 同时支持播放清单与串流提取的完整提取器。
type MediaProvider interface {
	PlaylistProvider
	StreamProvider
}

// Closable 可关闭接口，需要清理资源的提取器应实现此接口。
type Closable interface {
	Close() error
}

// PlaylistResult 播放清单解析结果。URLs 与 Titles 是等长的平行序列。
type PlaylistResult struct {
	URLs   []string `json:"urls"`
	Titles []string `json:"titles"`
}

// Len 返回清单中的条目数。
func (r *PlaylistResult) Len() int {
	return len(r.URLs)
}

// StreamResult 串流信息解析结果。
type StreamResult struct {
	Title     string `json:"title"`
	StreamURL string `json:"stream_url"`
}
