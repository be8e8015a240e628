// Package config 提供应用配置（viper 加载）与持久化用户设置两部分。
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config 主配置结构
type Config struct {
	// 缓存配置
	Cache CacheConfig `mapstructure:"cache"`

	// 提取器配置
	Provider ProviderConfig `mapstructure:"provider"`

	// 播放历史配置
	History HistoryConfig `mapstructure:"history"`

	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Namespace       string      `mapstructure:"namespace"`        // 应用命名空间（存储目录名）
	Filename        string      `mapstructure:"filename"`         // 持久化缓存文件名
	BaseDir         string      `mapstructure:"base_dir"`         // 存储目录覆盖，为空时用平台默认
	MaxSize         int         `mapstructure:"max_size"`         // 最大条目数（软上限）
	DefaultTTL      int         `mapstructure:"default_ttl"`      // 默认TTL（秒），<= 0 表示永不过期
	CleanupSchedule string      `mapstructure:"cleanup_schedule"` // 定期清理调度，空字符串关闭
	MemoryLayer     bool        `mapstructure:"memory_layer"`     // 是否在持久层之前加一层内存缓存
	MemoryMaxSize   int         `mapstructure:"memory_max_size"`  // 内存层最大条目数
	Redis           RedisConfig `mapstructure:"redis"`            // 可选的远程缓存层
}

// RedisConfig 远程缓存层配置
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`    // 是否启用
	Addr      string `mapstructure:"addr"`       // 服务器地址
	Password  string `mapstructure:"password"`   // 密码
	DB        int    `mapstructure:"db"`         // 数据库编号
	KeyPrefix string `mapstructure:"key_prefix"` // 键前缀
}

// ProviderConfig 播放清单提取器配置
type ProviderConfig struct {
	Binary     string `mapstructure:"binary"`      // yt-dlp 可执行文件路径，为空时自动查找
	Timeout    int    `mapstructure:"timeout"`     // 单次提取超时（秒）
	MaxRetries int    `mapstructure:"max_retries"` // 最大重试次数
	RateLimit  int    `mapstructure:"rate_limit"`  // 两次请求的最小间隔（毫秒）
	Format     string `mapstructure:"format"`      // 串流格式选择表达式
}

// HistoryConfig 播放历史配置
type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries"` // 保留的历史记录上限
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别 (debug, info, warn, error)
	Format string `mapstructure:"format"` // 日志格式 (text, json)
}

// DefaultTTLDuration 返回默认TTL对应的 time.Duration。
func (c CacheConfig) DefaultTTLDuration() time.Duration {
	return time.Duration(c.DefaultTTL) * time.Second
}

// TimeoutDuration 返回提取超时对应的 time.Duration。
func (c ProviderConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RateLimitDuration 返回请求间隔对应的 time.Duration。
func (c ProviderConfig) RateLimitDuration() time.Duration {
	return time.Duration(c.RateLimit) * time.Millisecond
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Namespace:       "ytplayer",
			Filename:        "cache.json",
			MaxSize:         400,
			DefaultTTL:      3600,
			CleanupSchedule: "@every 10m",
			MemoryLayer:     true,
			MemoryMaxSize:   128,
			Redis: RedisConfig{
				Enabled:   false,
				Addr:      "localhost:6379",
				KeyPrefix: "ytplayer:",
			},
		},
		Provider: ProviderConfig{
			Timeout:    30,
			MaxRetries: 2,
			RateLimit:  200,
			Format:     "bestaudio/best",
		},
		History: HistoryConfig{
			MaxEntries: 50,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 加载配置。path 非空时读取指定文件；否则在当前目录和 ./config
// 下查找 ytplayer.yaml，找不到时使用默认值。环境变量（YTPLAYER_ 前缀）
// 可覆盖任意配置项。
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("cache.namespace", defaults.Cache.Namespace)
	v.SetDefault("cache.filename", defaults.Cache.Filename)
	v.SetDefault("cache.base_dir", "")
	v.SetDefault("cache.max_size", defaults.Cache.MaxSize)
	v.SetDefault("cache.default_ttl", defaults.Cache.DefaultTTL)
	v.SetDefault("cache.cleanup_schedule", defaults.Cache.CleanupSchedule)
	v.SetDefault("cache.memory_layer", defaults.Cache.MemoryLayer)
	v.SetDefault("cache.memory_max_size", defaults.Cache.MemoryMaxSize)
	v.SetDefault("cache.redis.enabled", defaults.Cache.Redis.Enabled)
	v.SetDefault("cache.redis.addr", defaults.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", defaults.Cache.Redis.KeyPrefix)
	v.SetDefault("provider.binary", "")
	v.SetDefault("provider.timeout", defaults.Provider.Timeout)
	v.SetDefault("provider.max_retries", defaults.Provider.MaxRetries)
	v.SetDefault("provider.rate_limit", defaults.Provider.RateLimit)
	v.SetDefault("provider.format", defaults.Provider.Format)
	v.SetDefault("history.max_entries", defaults.History.MaxEntries)
	v.SetDefault("logger.level", defaults.Logger.Level)
	v.SetDefault("logger.format", defaults.Logger.Format)

	v.SetEnvPrefix("YTPLAYER")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("ytplayer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Cache.Namespace == "" {
		return errors.New("cache namespace cannot be empty")
	}

	if c.Cache.Filename == "" {
		return errors.New("cache filename cannot be empty")
	}

	if c.Cache.MaxSize <= 0 {
		return errors.New("cache max_size must be positive")
	}

	if c.Cache.MemoryLayer && c.Cache.MemoryMaxSize <= 0 {
		return errors.New("cache memory_max_size must be positive")
	}

	if c.Provider.Timeout <= 0 {
		return errors.New("provider timeout must be positive")
	}

	if c.Provider.MaxRetries < 0 {
		return errors.New("provider max_retries cannot be negative")
	}

	if c.Provider.RateLimit < 0 {
		return errors.New("provider rate_limit cannot be negative")
	}

	if c.History.MaxEntries <= 0 {
		return errors.New("history max_entries must be positive")
	}

	return nil
}
