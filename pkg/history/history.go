// Package history 维护播放清单的使用历史：每个 URL 记录使用次数与
// 最后使用时间，按最近使用排序，数量有上限。历史通过用户设置存储持久化。
package history

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"ytplayer/pkg/config"
	"ytplayer/pkg/logger"
)

const settingsKey = "playlist_history"

// record 设置存储中的单条历史
type record struct {
	Count    int   `json:"count"`
	LastUsed int64 `json:"last_used"`
}

// Entry 一条播放历史
type Entry struct {
	URL      string `json:"url"`
	Count    int    `json:"count"`
	LastUsed int64  `json:"last_used"` // Unix 秒
}

// Manager 播放历史管理器
type Manager struct {
	settings   *config.Settings
	maxEntries int
	now        func() time.Time
	log        *logrus.Entry
}

// NewManager 创建历史管理器。maxEntries <= 0 时使用默认上限 50。
func NewManager(settings *config.Settings, maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	return &Manager{
		settings:   settings,
		maxEntries: maxEntries,
		now:        time.Now,
		log:        logger.WithComponent("history"),
	}
}

// Touch 记录一次 URL 的使用：次数加一，刷新最后使用时间。
// 超出上限时丢弃最久未使用的记录。
func (m *Manager) Touch(url string) error {
	records := m.loadRecords()

	rec := records[url]
	rec.Count++
	rec.LastUsed = m.now().Unix()
	records[url] = rec

	if len(records) > m.maxEntries {
		m.trimOldest(records)
	}

	return m.settings.SetJSON(settingsKey, records)
}

// trimOldest 删除最久未使用的记录直到满足上限。
func (m *Manager) trimOldest(records map[string]record) {
	for len(records) > m.maxEntries {
		var oldestURL string
		var oldestUsed int64
		found := false
		for url, rec := range records {
			if !found || rec.LastUsed < oldestUsed {
				found = true
				oldestURL = url
				oldestUsed = rec.LastUsed
			}
		}
		delete(records, oldestURL)
		m.log.Debugf("历史已满，移除最旧记录: %s", oldestURL)
	}
}

// Sorted 返回按最后使用时间降序排列的历史列表。
func (m *Manager) Sorted() []Entry {
	records := m.loadRecords()

	entries := make([]Entry, 0, len(records))
	for url, rec := range records {
		entries = append(entries, Entry{
			URL:      url,
			Count:    rec.Count,
			LastUsed: rec.LastUsed,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastUsed != entries[j].LastUsed {
			return entries[i].LastUsed > entries[j].LastUsed
		}
		return entries[i].URL < entries[j].URL
	})
	return entries
}

// Last 返回最近使用的 URL，历史为空时返回 false。
func (m *Manager) Last() (string, bool) {
	entries := m.Sorted()
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].URL, true
}

// Delete 删除指定的历史记录。
func (m *Manager) Delete(urls ...string) error {
	records := m.loadRecords()

	changed := false
	for _, url := range urls {
		if _, exists := records[url]; exists {
			delete(records, url)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return m.settings.SetJSON(settingsKey, records)
}

// Len 返回历史记录数。
func (m *Manager) Len() int {
	return len(m.loadRecords())
}

// loadRecords 从设置存储读取历史，读取失败时返回空历史。
func (m *Manager) loadRecords() map[string]record {
	records := make(map[string]record)
	if _, err := m.settings.GetJSON(settingsKey, &records); err != nil {
		m.log.Warnf("读取播放历史失败，按空历史处理: %v", err)
		return make(map[string]record)
	}
	return records
}
