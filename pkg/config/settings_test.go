package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T) (*Settings, string) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "settings_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	s, err := NewSettings("ytplayer_test", tempDir)
	require.NoError(t, err)
	return s, tempDir
}

// 测试设置的读写与删除
func TestSettings_BasicOperations(t *testing.T) {
	s, _ := newTestSettings(t)

	// 不存在的键
	var value string
	exists, err := s.GetJSON("missing", &value)
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "fallback", s.GetString("missing", "fallback"))

	// 写入后读取
	require.NoError(t, s.SetString("last_playlist", "https://example.com/list"))
	assert.Equal(t, "https://example.com/list", s.GetString("last_playlist", ""))

	// 结构化设置
	type volume struct {
		Level int  `json:"level"`
		Muted bool `json:"muted"`
	}
	require.NoError(t, s.SetJSON("volume", volume{Level: 80, Muted: false}))

	var v volume
	exists, err = s.GetJSON("volume", &v)
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, volume{Level: 80}, v)

	// 删除后不再存在
	s.Delete("last_playlist")
	assert.Equal(t, "fallback", s.GetString("last_playlist", "fallback"))
}

// 测试设置在重启后存活
func TestSettings_SurvivesRestart(t *testing.T) {
	s, tempDir := newTestSettings(t)
	require.NoError(t, s.SetString("last_playlist", "https://example.com/list"))

	reloaded, err := NewSettings("ytplayer_test", tempDir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list", reloaded.GetString("last_playlist", ""))
}

// 测试损坏的设置文件以空设置启动
func TestSettings_CorruptFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "settings_corrupt_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	cfgDir := filepath.Join(tempDir, "ytplayer_test")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("oops"), 0644))

	s, err := NewSettings("ytplayer_test", tempDir)
	require.NoError(t, err)
	assert.Equal(t, "fallback", s.GetString("anything", "fallback"))

	// 仍然可写，且写入修复文件
	require.NoError(t, s.SetString("key", "value"))
	reloaded, err := NewSettings("ytplayer_test", tempDir)
	require.NoError(t, err)
	assert.Equal(t, "value", reloaded.GetString("key", ""))
}
