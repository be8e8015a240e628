package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ytplayer/pkg/cache"
	"ytplayer/pkg/config"
	"ytplayer/pkg/history"
	"ytplayer/pkg/logger"
	"ytplayer/pkg/provider/decorators"
	"ytplayer/pkg/provider/ytdlp"
	"ytplayer/pkg/resolver"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (默认查找 ./ytplayer.yaml)")
	logLevel   = flag.String("log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")
	logFormat  = flag.String("log-format", "", "日志格式 (json or text)，覆盖配置文件")
	useLast    = flag.Bool("last", false, "解析最近使用的播放清单")
	asStream   = flag.Bool("stream", false, "把 URL 当作单个影片解析串流地址")
	clearCache = flag.Bool("clear-cache", false, "清空持久化缓存后退出")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logger.Level
	if *logLevel != "" {
		level = *logLevel
	}
	format := cfg.Logger.Format
	if *logFormat != "" {
		format = *logFormat
	}
	logger.Init(logger.Config{Level: level, Format: format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Errorf("运行失败: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := cache.NewPersistentCache(cache.StoreConfig{
		Namespace:  cfg.Cache.Namespace,
		Filename:   cfg.Cache.Filename,
		BaseDir:    cfg.Cache.BaseDir,
		MaxSize:    cfg.Cache.MaxSize,
		DefaultTTL: cfg.Cache.DefaultTTLDuration(),
	})
	if err != nil {
		return err
	}
	logger.Infof("持久化缓存: %s", store.Path())

	if *clearCache {
		if err := store.Clear(ctx); err != nil {
			return err
		}
		logger.Info("缓存已清空")
		return nil
	}

	if cfg.Cache.CleanupSchedule != "" {
		janitor, err := cache.NewJanitor(store, cfg.Cache.CleanupSchedule)
		if err != nil {
			return err
		}
		janitor.Start()
		defer janitor.Stop()
	}

	playerCache, err := assembleCache(cfg, store)
	if err != nil {
		return err
	}

	settings, err := config.NewSettings(cfg.Cache.Namespace, cfg.Cache.BaseDir)
	if err != nil {
		return err
	}
	hist := history.NewManager(settings, cfg.History.MaxEntries)

	url, err := targetURL(hist)
	if err != nil {
		return err
	}

	mediaProvider, err := ytdlp.NewProvider(ytdlp.ProviderConfig{
		Binary:     cfg.Provider.Binary,
		Timeout:    cfg.Provider.TimeoutDuration(),
		MaxRetries: cfg.Provider.MaxRetries,
		RateLimit:  cfg.Provider.RateLimitDuration(),
		Format:     cfg.Provider.Format,
	})
	if err != nil {
		return err
	}
	guarded := decorators.NewCircuitBreakerProvider(mediaProvider, nil)

	res := resolver.New(guarded, playerCache, cfg.Cache.DefaultTTLDuration())

	if *asStream {
		return resolveStream(ctx, res, url)
	}
	return resolvePlaylist(ctx, res, hist, url)
}

// assembleCache 按配置组装缓存层：内存层（可选）-> 持久层 -> Redis 层（可选）。
func assembleCache(cfg *config.Config, store *cache.PersistentCache) (cache.Cache, error) {
	layers := make([]cache.Cache, 0, 3)

	if cfg.Cache.MemoryLayer {
		layers = append(layers, cache.NewMemoryCache(cache.MemoryCacheConfig{
			MaxSize:    int64(cfg.Cache.MemoryMaxSize),
			DefaultTTL: cfg.Cache.DefaultTTLDuration(),
		}))
	}

	layers = append(layers, store)

	if cfg.Cache.Redis.Enabled {
		remote, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		})
		if err != nil {
			logger.Warnf("Redis 缓存层不可用，已跳过: %v", err)
		} else {
			layers = append(layers, remote)
		}
	}

	if len(layers) == 1 {
		return layers[0], nil
	}
	return cache.NewLayeredCache(cache.LayeredCacheConfig{
		PromoteEnabled: true,
		PromoteTTL:     cfg.Cache.DefaultTTLDuration(),
	}, layers...)
}

// targetURL 确定要解析的 URL：命令行参数优先，-last 退回最近的历史记录。
func targetURL(hist *history.Manager) (string, error) {
	if args := flag.Args(); len(args) > 0 {
		return args[0], nil
	}
	if *useLast {
		if url, ok := hist.Last(); ok {
			return url, nil
		}
		return "", fmt.Errorf("播放历史为空，无法使用 -last")
	}
	return "", fmt.Errorf("用法: ytplayer [flags] <播放清单或影片URL>")
}

func resolvePlaylist(ctx context.Context, res *resolver.Resolver, hist *history.Manager, url string) error {
	if err := hist.Touch(url); err != nil {
		logger.Warnf("更新播放历史失败: %v", err)
	}

	result, fromCache, err := res.ResolvePlaylist(ctx, url)
	if err != nil {
		return err
	}

	for i, title := range result.Titles {
		fmt.Printf("%d. %s\n", i+1, title)
	}
	if fromCache {
		logger.Infof("已加载 %d 首影片（来自缓存）", result.Len())
	} else {
		logger.Infof("已加载 %d 首影片", result.Len())
	}
	return nil
}

func resolveStream(ctx context.Context, res *resolver.Resolver, url string) error {
	result, fromCache, err := res.ResolveStream(ctx, url)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n%s\n", result.Title, result.StreamURL)
	if fromCache {
		logger.Info("串流信息来自缓存")
	}
	return nil
}
