package decorators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"ytplayer/pkg/logger"
	"ytplayer/pkg/provider"
)

// CircuitBreakerProvider 熔断器装饰器
// 使用 sony/gobreaker 在提取器连续失败时快速拒绝请求
type CircuitBreakerProvider struct {
	*BaseDecorator

	cb     *gobreaker.CircuitBreaker
	config *CircuitBreakerConfig

	mu    sync.RWMutex
	stats CircuitBreakerStats
	log   *logrus.Entry
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	Name        string        `mapstructure:"name"`          // 熔断器名称
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口时间
	Timeout     time.Duration `mapstructure:"timeout"`       // 熔断器打开后的超时时间
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 触发熔断的连续失败次数阈值
	Enabled     bool          `mapstructure:"enabled"`       // 是否启用熔断器
}

// CircuitBreakerStats 熔断器统计信息
type CircuitBreakerStats struct {
	TotalRequests     int64     `json:"total_requests"`
	SuccessfulRequest int64     `json:"successful_requests"`
	FailedRequests    int64     `json:"failed_requests"`
	LastFailure       time.Time `json:"last_failure"`
}

// DefaultCircuitBreakerConfig 默认熔断器配置
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:        "MediaProvider",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: 3,
		Enabled:     true,
	}
}

// NewCircuitBreakerProvider 创建熔断器装饰器
func NewCircuitBreakerProvider(base provider.MediaProvider, config *CircuitBreakerConfig) *CircuitBreakerProvider {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}

	log := logger.WithComponent("provider.breaker")

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ReadyToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("熔断器 %s 状态从 %v 变更为 %v", name, from, to)
		},
	}

	return &CircuitBreakerProvider{
		BaseDecorator: NewBaseDecorator(base),
		cb:            gobreaker.NewCircuitBreaker(settings),
		config:        config,
		log:           log,
	}
}

// Name 返回装饰器名称
func (c *CircuitBreakerProvider) Name() string {
	return fmt.Sprintf("CircuitBreaker(%s)", c.base.Name())
}

// IsHealthy 检查健康状态，熔断器打开状态视为不健康。
func (c *CircuitBreakerProvider) IsHealthy() bool {
	if !c.config.Enabled {
		return c.base.IsHealthy()
	}
	return c.cb.State() != gobreaker.StateOpen && c.base.IsHealthy()
}

// FetchPlaylist 实现带熔断器的播放清单提取
func (c *CircuitBreakerProvider) FetchPlaylist(ctx context.Context, url string) (*provider.PlaylistResult, error) {
	if !c.config.Enabled {
		return c.base.FetchPlaylist(ctx, url)
	}

	result, err := c.execute(func() (interface{}, error) {
		return c.base.FetchPlaylist(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return result.(*provider.PlaylistResult), nil
}

// FetchStream 实现带熔断器的串流信息提取
func (c *CircuitBreakerProvider) FetchStream(ctx context.Context, url string) (*provider.StreamResult, error) {
	if !c.config.Enabled {
		return c.base.FetchStream(ctx, url)
	}

	result, err := c.execute(func() (interface{}, error) {
		return c.base.FetchStream(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return result.(*provider.StreamResult), nil
}

func (c *CircuitBreakerProvider) execute(fn func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	c.stats.TotalRequests++
	c.mu.Unlock()

	result, err := c.cb.Execute(fn)

	c.mu.Lock()
	if err != nil {
		c.stats.FailedRequests++
		c.stats.LastFailure = time.Now()
	} else {
		c.stats.SuccessfulRequest++
	}
	c.mu.Unlock()

	return result, err
}

// GetStats 获取熔断器统计信息
func (c *CircuitBreakerProvider) GetStats() CircuitBreakerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// State 返回当前熔断器状态
func (c *CircuitBreakerProvider) State() gobreaker.State {
	return c.cb.State()
}

var _ provider.MediaProvider = (*CircuitBreakerProvider)(nil)
