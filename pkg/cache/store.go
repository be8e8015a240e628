package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ytplayer/pkg/logger"
)

// StoreConfig 持久化缓存配置
type StoreConfig struct {
	Namespace  string        `mapstructure:"namespace"`   // 应用命名空间，决定存储目录
	Filename   string        `mapstructure:"filename"`    // 缓存文件名
	BaseDir    string        `mapstructure:"base_dir"`    // 存储基础目录，为空时使用平台用户配置目录
	MaxSize    int           `mapstructure:"max_size"`    // 最大缓存条目数（软上限）
	DefaultTTL time.Duration `mapstructure:"default_ttl"` // 默认生存时间
}

// persistentEntry 磁盘文件中的一个条目。
// created/expires_at 以秒为单位的 Unix 时间戳存储，expires_at 为 null 表示永不过期。
type persistentEntry struct {
	Value     json.RawMessage `json:"value"`
	Created   float64         `json:"created"`
	ExpiresAt *float64        `json:"expires_at"`
	Hit       int64           `json:"hit"`
}

// PersistentCache 持久化 JSON 文件缓存。
//
// 整个存储由单把互斥锁保护：任意时刻只有一个操作在访问映射和磁盘文件，
// 操作之间因此是全序的。每次变更（Set、Get 的过期删除、Delete、Clear）
// 都会在持锁状态下同步写盘，磁盘文件始终反映最近一次完成的变更。
type PersistentCache struct {
	mu      sync.Mutex
	config  StoreConfig
	path    string
	entries map[string]*persistentEntry

	hitCount  int64
	missCount int64

	now func() time.Time // 测试时可替换
	log *logrus.Entry
}

// NewPersistentCache 创建持久化缓存实例。
// 构造时解析并创建命名空间目录，随后尝试从磁盘加载既有状态；
// 文件缺失或损坏不是致命错误，仅记录警告并以空缓存启动。
func NewPersistentCache(config StoreConfig) (*PersistentCache, error) {
	if config.Namespace == "" {
		config.Namespace = "ytplayer"
	}
	if config.Filename == "" {
		config.Filename = "cache.json"
	}
	if config.MaxSize <= 0 {
		config.MaxSize = 400
	}

	baseDir := config.BaseDir
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("解析用户配置目录失败: %w", err)
		}
		baseDir = dir
	}

	cacheDir := filepath.Join(baseDir, config.Namespace)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}

	pc := &PersistentCache{
		config:  config,
		path:    filepath.Join(cacheDir, config.Filename),
		entries: make(map[string]*persistentEntry),
		now:     time.Now,
		log:     logger.WithComponent("cache"),
	}

	pc.load()
	return pc, nil
}

// Path 返回缓存文件的完整路径。
func (pc *PersistentCache) Path() string {
	return pc.path
}

// load 从磁盘加载缓存，任何失败都降级为空缓存。
func (pc *PersistentCache) load() {
	data, err := os.ReadFile(pc.path)
	if err != nil {
		if os.IsNotExist(err) {
			pc.log.Debugf("缓存文件 %s 不存在，以空缓存启动", pc.path)
		} else {
			pc.log.Warnf("读取缓存文件失败 (%v)，以空缓存启动", err)
		}
		return
	}

	entries := make(map[string]*persistentEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		pc.log.Warnf("解析缓存文件失败 (%v)，以空缓存启动", err)
		return
	}

	pc.entries = entries
	pc.log.Infof("已从 %s 加载 %d 个持久化缓存条目", pc.path, len(entries))
}

// save 将当前映射同步写入磁盘。写入失败只记录错误，内存状态仍然有效，
// 下一次成功写入会让磁盘重新追上内存。调用方必须持有锁。
func (pc *PersistentCache) save() {
	data, err := json.MarshalIndent(pc.entries, "", "  ")
	if err != nil {
		pc.log.Errorf("序列化缓存失败: %v", err)
		return
	}

	tempFile := pc.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		pc.log.Errorf("保存缓存文件失败: %v", err)
		return
	}
	if err := os.Rename(tempFile, pc.path); err != nil {
		pc.log.Errorf("保存缓存文件失败: %v", err)
	}
}

// Get 从缓存中获取数据。命中时只在内存中累加命中计数（不触发写盘）；
// 发现过期条目时先删除并同步写盘，再返回未命中。
func (pc *PersistentCache) Get(ctx context.Context, key string) (interface{}, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.entries[key]
	if !exists {
		pc.missCount++
		return nil, ErrCacheMissNotFound
	}

	now := float64(pc.now().UnixNano()) / float64(time.Second)
	if entry.ExpiresAt != nil && now > *entry.ExpiresAt {
		pc.log.Infof("缓存条目 '%s' 已过期，将其移除", key)
		delete(pc.entries, key)
		pc.save()
		pc.missCount++
		return nil, ErrCacheMissNotFound
	}

	var value interface{}
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		pc.log.Warnf("缓存条目 '%s' 数据损坏，将其移除: %v", key, err)
		delete(pc.entries, key)
		pc.save()
		pc.missCount++
		return nil, WrapCacheError(ErrCacheCorrupted, "cache entry corrupted", err)
	}

	entry.Hit++
	pc.hitCount++
	return value, nil
}

// Set 将数据存入缓存。ttl <= 0 表示永不过期。
// 插入后若超出容量则执行一次淘汰，随后同步写盘。
// 覆盖已有键会重置其命中历史。
func (pc *PersistentCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return WrapCacheError(ErrCacheSerialize, "cache value not serializable", err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := float64(pc.now().UnixNano()) / float64(time.Second)
	entry := &persistentEntry{
		Value:   raw,
		Created: now,
		Hit:     0,
	}
	if ttl > 0 {
		expires := now + ttl.Seconds()
		entry.ExpiresAt = &expires
	}

	pc.entries[key] = entry
	if len(pc.entries) > pc.config.MaxSize {
		pc.evictOne(now)
	}
	pc.save()
	return nil
}

// SetDefault 以存储的默认 TTL 存入数据。
func (pc *PersistentCache) SetDefault(ctx context.Context, key string, value interface{}) error {
	return pc.Set(ctx, key, value, pc.config.DefaultTTL)
}

// evictOne 执行一次淘汰。优先清除所有已过期条目（它们本就无效，移除没有代价）；
// 若没有过期条目，则按 (命中次数升序, 创建时间升序) 淘汰恰好一个条目。
// 即使淘汰后仍超出容量也不再继续——MaxSize 是软上限，下一次 Set 会再次淘汰。
// 调用方必须持有锁。
func (pc *PersistentCache) evictOne(now float64) {
	expired := make([]string, 0)
	for key, entry := range pc.entries {
		if entry.ExpiresAt != nil && *entry.ExpiresAt < now {
			expired = append(expired, key)
		}
	}
	if len(expired) > 0 {
		for _, key := range expired {
			delete(pc.entries, key)
		}
		pc.log.Infof("缓存已满，清除了 %d 个过期条目", len(expired))
		return
	}

	if len(pc.entries) <= pc.config.MaxSize {
		return
	}

	var victim string
	var victimHit int64
	var victimCreated float64
	found := false
	for key, entry := range pc.entries {
		if !found ||
			entry.Hit < victimHit ||
			(entry.Hit == victimHit && entry.Created < victimCreated) {
			found = true
			victim = key
			victimHit = entry.Hit
			victimCreated = entry.Created
		}
	}
	if found {
		delete(pc.entries, victim)
		pc.log.Infof("缓存已满，依据淘汰策略移除条目: %s", victim)
	}
}

// Delete 从缓存中删除一个键并同步写盘。
func (pc *PersistentCache) Delete(ctx context.Context, key string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if _, exists := pc.entries[key]; exists {
		delete(pc.entries, key)
		pc.save()
	}
	return nil
}

// Clear 清空所有缓存条目并同步写盘。对空缓存调用是无害的。
func (pc *PersistentCache) Clear(ctx context.Context) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.entries = make(map[string]*persistentEntry)
	pc.hitCount = 0
	pc.missCount = 0
	pc.save()
	return nil
}

// PruneExpired 移除所有已过期条目，返回移除数量。
// 有条目被移除时同步写盘一次。供定期清理任务调用。
func (pc *PersistentCache) PruneExpired() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := float64(pc.now().UnixNano()) / float64(time.Second)
	removed := 0
	for key, entry := range pc.entries {
		if entry.ExpiresAt != nil && now > *entry.ExpiresAt {
			delete(pc.entries, key)
			removed++
		}
	}
	if removed > 0 {
		pc.log.Infof("定期清理移除了 %d 个过期条目", removed)
		pc.save()
	}
	return removed
}

// Stats 获取缓存统计信息
func (pc *PersistentCache) Stats() CacheStats {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	stats := CacheStats{
		Size:      int64(len(pc.entries)),
		MaxSize:   int64(pc.config.MaxSize),
		HitCount:  pc.hitCount,
		MissCount: pc.missCount,
		TTL:       pc.config.DefaultTTL,
	}
	if total := stats.HitCount + stats.MissCount; total > 0 {
		stats.HitRate = float64(stats.HitCount) / float64(total)
	}
	return stats
}

var _ Cache = (*PersistentCache)(nil)
