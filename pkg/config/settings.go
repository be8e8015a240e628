package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"ytplayer/pkg/logger"
)

// Settings 持久化用户设置存储。
// 设置以单个 JSON 文档保存在命名空间目录下（与缓存文件同目录），
// 每次 Set 后同步写盘；文件缺失或损坏时以空设置启动。
type Settings struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
	log  *logrus.Entry
}

// NewSettings 创建设置存储。baseDir 为空时使用平台用户配置目录。
func NewSettings(namespace, baseDir string) (*Settings, error) {
	if namespace == "" {
		namespace = "ytplayer"
	}

	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("解析用户配置目录失败: %w", err)
		}
		baseDir = dir
	}

	cfgDir := filepath.Join(baseDir, namespace)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return nil, fmt.Errorf("创建配置目录失败: %w", err)
	}

	s := &Settings{
		path: filepath.Join(cfgDir, "config.json"),
		data: make(map[string]json.RawMessage),
		log:  logger.WithComponent("settings"),
	}

	s.load()
	return s, nil
}

// Path 返回设置文件的完整路径。
func (s *Settings) Path() string {
	return s.path
}

func (s *Settings) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("读取设置文件失败 (%v)，以空设置启动", err)
		}
		return
	}

	parsed := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &parsed); err != nil {
		s.log.Warnf("解析设置文件失败 (%v)，以空设置启动", err)
		return
	}
	s.data = parsed
}

// save 同步写盘。写入失败只记录错误，内存状态仍然有效。调用方必须持有锁。
func (s *Settings) save() {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.log.Errorf("序列化设置失败: %v", err)
		return
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		s.log.Errorf("保存设置文件失败: %v", err)
		return
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		s.log.Errorf("保存设置文件失败: %v", err)
	}
}

// GetJSON 读取一个设置并反序列化到 target。键不存在时返回 false。
func (s *Settings) GetJSON(key string, target interface{}) (bool, error) {
	s.mu.Lock()
	raw, exists := s.data[key]
	s.mu.Unlock()

	if !exists {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return true, fmt.Errorf("设置项 %q 反序列化失败: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入一个设置并同步写盘。
func (s *Settings) SetJSON(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("设置项 %q 序列化失败: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = raw
	s.save()
	return nil
}

// GetString 读取字符串设置，键不存在或类型不符时返回 fallback。
func (s *Settings) GetString(key, fallback string) string {
	var value string
	exists, err := s.GetJSON(key, &value)
	if !exists || err != nil {
		return fallback
	}
	return value
}

// SetString 写入字符串设置。
func (s *Settings) SetString(key, value string) error {
	return s.SetJSON(key, value)
}

// Delete 删除一个设置并同步写盘。
func (s *Settings) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		delete(s.data, key)
		s.save()
	}
}
