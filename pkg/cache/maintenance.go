package cache

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ytplayer/pkg/logger"
)

// Janitor 定期清理持久化缓存中过期条目的后台任务。
//
// 惰性过期（Get 时发现并删除）只能清理被再次访问的键；写入一次之后
// 再也不被读取的键会一直留在映射和磁盘文件里，定期清理补上这个缺口。
type Janitor struct {
	id      string
	cron    *cron.Cron
	store   *PersistentCache
	entryID cron.EntryID
	log     *logrus.Entry
}

// NewJanitor 创建清理任务。schedule 使用 cron 表达式或 "@every 10m" 形式的间隔。
func NewJanitor(store *PersistentCache, schedule string) (*Janitor, error) {
	j := &Janitor{
		id:    uuid.NewString(),
		cron:  cron.New(),
		store: store,
		log:   logger.WithComponent("cache.janitor"),
	}

	entryID, err := j.cron.AddFunc(schedule, j.run)
	if err != nil {
		return nil, fmt.Errorf("无效的清理调度表达式 %q: %w", schedule, err)
	}
	j.entryID = entryID

	return j, nil
}

// ID 返回任务实例标识，用于日志关联。
func (j *Janitor) ID() string {
	return j.id
}

// Start 启动清理任务
func (j *Janitor) Start() {
	j.cron.Start()
	j.log.Infof("缓存清理任务已启动 (id=%s)", j.id)
}

// Stop 停止清理任务，等待正在执行的一轮清理完成。
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.log.Infof("缓存清理任务已停止 (id=%s)", j.id)
}

func (j *Janitor) run() {
	if removed := j.store.PruneExpired(); removed > 0 {
		j.log.Debugf("本轮清理移除 %d 个条目 (id=%s)", removed, j.id)
	}
}
