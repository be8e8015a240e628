package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeBinary 生成一个代替 yt-dlp 的脚本，输出固定内容。
func writeFakeBinary(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("伪造脚本仅支持类 Unix 平台")
	}

	tempDir, err := os.MkdirTemp("", "ytdlp_fake")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	path := filepath.Join(tempDir, "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return path
}

// 测试通过伪造的 yt-dlp 完整走通清单提取
func TestProvider_FetchPlaylist(t *testing.T) {
	bin := writeFakeBinary(t, `echo '{"entries":[{"id":"abc123","title":"第一首"},{"id":"def456","title":"第二首"}]}'`)

	p, err := NewProvider(ProviderConfig{
		Binary:  bin,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "yt-dlp", p.Name())
	assert.True(t, p.IsHealthy())

	result, err := p.FetchPlaylist(context.Background(), "https://www.youtube.com/playlist?list=x")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Len())
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", result.URLs[0])
	assert.Equal(t, "第二首", result.Titles[1])
}

// 测试串流提取
func TestProvider_FetchStream(t *testing.T) {
	bin := writeFakeBinary(t, `echo '{"title":"单曲","url":"https://cdn.example.com/audio.m4a"}'`)

	p, err := NewProvider(ProviderConfig{
		Binary:  bin,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	result, err := p.FetchStream(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "单曲", result.Title)
	assert.Equal(t, "https://cdn.example.com/audio.m4a", result.StreamURL)
}

// 子进程失败时错误带上 stderr 的尾行
func TestProvider_SubprocessFailure(t *testing.T) {
	bin := writeFakeBinary(t, `echo "ERROR: Video unavailable" >&2; exit 1`)

	p, err := NewProvider(ProviderConfig{
		Binary:  bin,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	_, err = p.FetchPlaylist(context.Background(), "https://www.youtube.com/watch?v=gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Video unavailable")
}

// 测试超时控制
func TestProvider_Timeout(t *testing.T) {
	bin := writeFakeBinary(t, `sleep 5`)

	p, err := NewProvider(ProviderConfig{
		Binary:  bin,
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = p.FetchPlaylist(context.Background(), "https://example.com")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

// 子进程派生的后代进程持有输出管道时，超时后不再无限等待
func TestProvider_TimeoutWithLingeringDescendant(t *testing.T) {
	// 后台的 sleep 在 shell 被杀掉后继续持有 stdout 管道
	bin := writeFakeBinary(t, `sleep 10 &
wait`)

	p, err := NewProvider(ProviderConfig{
		Binary:  bin,
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = p.FetchPlaylist(context.Background(), "https://example.com")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

// 指定的可执行文件不存在时构造失败
func TestProvider_MissingBinary(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Binary: "/nonexistent/yt-dlp"})
	assert.Error(t, err)
}
