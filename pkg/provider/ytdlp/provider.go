// Package ytdlp 通过 yt-dlp 子进程实现播放清单与串流信息提取。
package ytdlp

import (
	"context"
	"time"

	"ytplayer/pkg/provider"
)

// ProviderConfig 提取器配置
type ProviderConfig struct {
	Binary     string        // yt-dlp 可执行文件路径，为空时自动查找
	Timeout    time.Duration // 单次提取超时
	MaxRetries int           // 最大重试次数
	RateLimit  time.Duration // 两次请求的最小间隔
	Format     string        // 串流格式选择表达式
}

// DefaultProviderConfig 默认提取器配置
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RateLimit:  200 * time.Millisecond,
		Format:     "bestaudio/best",
	}
}

// YtdlpProvider 基于 yt-dlp 的提取器实现
type YtdlpProvider struct {
	client *Client
	config ProviderConfig
}

// NewProvider 创建提取器实例。找不到 yt-dlp 可执行文件时返回错误。
func NewProvider(config ProviderConfig) (*YtdlpProvider, error) {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Format == "" {
		config.Format = "bestaudio/best"
	}

	client, err := NewClient(config.Binary)
	if err != nil {
		return nil, err
	}

	return &YtdlpProvider{
		client: client,
		config: config,
	}, nil
}

// Name 返回提取器名称
func (p *YtdlpProvider) Name() string {
	return "yt-dlp"
}

// GetRateLimit 获取请求频率限制
func (p *YtdlpProvider) GetRateLimit() time.Duration {
	return p.config.RateLimit
}

// IsHealthy 检查提取器健康状态
func (p *YtdlpProvider) IsHealthy() bool {
	return p.client != nil
}

// FetchPlaylist 解析播放清单 URL。
// 使用 --flat-playlist，只取条目的 id/title，不逐条解析串流。
func (p *YtdlpProvider) FetchPlaylist(ctx context.Context, url string) (*provider.PlaylistResult, error) {
	data, err := p.runWithRetry(ctx, "--flat-playlist", "--skip-download", "--no-warnings", "-J", url)
	if err != nil {
		return nil, err
	}
	return parsePlaylist(data)
}

// FetchStream 解析单个媒体 URL 的串流地址。
func (p *YtdlpProvider) FetchStream(ctx context.Context, url string) (*provider.StreamResult, error) {
	data, err := p.runWithRetry(ctx, "--no-warnings", "-f", p.config.Format, "-j", url)
	if err != nil {
		return nil, err
	}
	return parseStream(data)
}

// runWithRetry 带重试地执行 yt-dlp。超时和取消不重试。
func (p *YtdlpProvider) runWithRetry(ctx context.Context, args ...string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, provider.WrapProviderError(provider.ErrProviderTimeout, "fetch canceled", ctx.Err())
			case <-time.After(p.config.RateLimit):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		data, err := p.client.run(attemptCtx, args...)
		cancel()

		if err == nil {
			return data, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

var _ provider.MediaProvider = (*YtdlpProvider)(nil)
