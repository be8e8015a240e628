package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试解析标准的清单响应
func TestParsePlaylist(t *testing.T) {
	data := []byte(`{
		"_type": "playlist",
		"title": "测试清单",
		"entries": [
			{"id": "abc123", "title": "第一首"},
			{"id": "def456", "title": "第二首"},
			{"id": "ghi789"}
		]
	}`)

	result, err := parsePlaylist(data)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://www.youtube.com/watch?v=def456",
		"https://www.youtube.com/watch?v=ghi789",
	}, result.URLs)
	assert.Equal(t, []string{"第一首", "第二首", "未命名影片"}, result.Titles)
}

// 缺少 id 的条目被跳过
func TestParsePlaylist_SkipsEntriesWithoutID(t *testing.T) {
	data := []byte(`{
		"entries": [
			{"title": "没有 id"},
			{"id": "abc123", "title": "有效"}
		]
	}`)

	result, err := parsePlaylist(data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Len())
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", result.URLs[0])
}

// 单个影片响应退回 webpage_url
func TestParsePlaylist_SingleVideo(t *testing.T) {
	data := []byte(`{
		"id": "abc123",
		"title": "单曲",
		"webpage_url": "https://www.youtube.com/watch?v=abc123"
	}`)

	result, err := parsePlaylist(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc123"}, result.URLs)
	assert.Equal(t, []string{"单曲"}, result.Titles)
}

// 没有可播放条目时报解析错误
func TestParsePlaylist_Empty(t *testing.T) {
	_, err := parsePlaylist([]byte(`{"entries": []}`))
	assert.Error(t, err)

	_, err = parsePlaylist([]byte(`{}`))
	assert.Error(t, err)
}

// 非法 JSON 报解析错误
func TestParsePlaylist_InvalidJSON(t *testing.T) {
	_, err := parsePlaylist([]byte("ERROR: not json"))
	assert.Error(t, err)
}

// 测试解析串流响应：顶层 url 优先
func TestParseStream(t *testing.T) {
	data := []byte(`{
		"title": "单曲",
		"url": "https://cdn.example.com/audio.m4a"
	}`)

	result, err := parseStream(data)
	require.NoError(t, err)
	assert.Equal(t, "单曲", result.Title)
	assert.Equal(t, "https://cdn.example.com/audio.m4a", result.StreamURL)
}

// 顶层没有 url 时退回 requested_downloads
func TestParseStream_RequestedDownloads(t *testing.T) {
	data := []byte(`{
		"title": "单曲",
		"requested_downloads": [
			{"url": "https://cdn.example.com/merged.mp4"}
		]
	}`)

	result, err := parseStream(data)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/merged.mp4", result.StreamURL)
}

// 缺少串流地址或标题时的处理
func TestParseStream_Fallbacks(t *testing.T) {
	// 没有任何 url 报错
	_, err := parseStream([]byte(`{"title": "单曲"}`))
	assert.Error(t, err)

	// 没有标题时使用占位标题
	result, err := parseStream([]byte(`{"url": "https://cdn.example.com/a.m4a"}`))
	require.NoError(t, err)
	assert.Equal(t, "未命名影片", result.Title)
}

// 测试 stderr 尾行提取
func TestLastLine(t *testing.T) {
	assert.Equal(t, "", lastLine(""))
	assert.Equal(t, "only", lastLine("only"))
	assert.Equal(t, "ERROR: video unavailable", lastLine("WARNING: something\nERROR: video unavailable\n\n"))
}
