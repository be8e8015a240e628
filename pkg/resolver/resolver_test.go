package resolver

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytplayer/pkg/cache"
	"ytplayer/pkg/provider"
)

// countingProvider 记录调用次数的测试提取器
type countingProvider struct {
	playlistCalls int
	streamCalls   int
	err           error
}

func (p *countingProvider) Name() string                { return "counting" }
func (p *countingProvider) GetRateLimit() time.Duration { return 0 }
func (p *countingProvider) IsHealthy() bool             { return true }

func (p *countingProvider) FetchPlaylist(ctx context.Context, url string) (*provider.PlaylistResult, error) {
	p.playlistCalls++
	if p.err != nil {
		return nil, p.err
	}
	return &provider.PlaylistResult{
		URLs:   []string{"https://www.youtube.com/watch?v=abc123", "https://www.youtube.com/watch?v=def456"},
		Titles: []string{"第一首", "第二首"},
	}, nil
}

func (p *countingProvider) FetchStream(ctx context.Context, url string) (*provider.StreamResult, error) {
	p.streamCalls++
	if p.err != nil {
		return nil, p.err
	}
	return &provider.StreamResult{Title: "单曲", StreamURL: "https://cdn.example.com/a.m4a"}, nil
}

func newTestCache(t *testing.T) *cache.PersistentCache {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "resolver_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	c, err := cache.NewPersistentCache(cache.StoreConfig{
		Namespace: "ytplayer_test",
		BaseDir:   tempDir,
		MaxSize:   100,
	})
	require.NoError(t, err)
	return c
}

// 测试清单解析：首次走提取器，再次命中缓存
func TestResolver_PlaylistCaching(t *testing.T) {
	p := &countingProvider{}
	r := New(p, newTestCache(t), time.Hour)
	ctx := context.Background()

	result, fromCache, err := r.ResolvePlaylist(ctx, "https://example.com/list")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, result.Len())
	assert.Equal(t, 1, p.playlistCalls)

	// 第二次解析不再调用提取器
	result, fromCache, err = r.ResolvePlaylist(ctx, "https://example.com/list")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, []string{"第一首", "第二首"}, result.Titles)
	assert.Equal(t, 1, p.playlistCalls)

	// 不同的 URL 各自缓存
	_, fromCache, err = r.ResolvePlaylist(ctx, "https://example.com/other")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, p.playlistCalls)
}

// 测试串流解析的缓存行为，并确认与清单键互不冲突
func TestResolver_StreamCaching(t *testing.T) {
	p := &countingProvider{}
	c := newTestCache(t)
	r := New(p, c, time.Hour)
	ctx := context.Background()

	url := "https://www.youtube.com/watch?v=abc123"

	stream, fromCache, err := r.ResolveStream(ctx, url)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "单曲", stream.Title)

	stream, fromCache, err = r.ResolveStream(ctx, url)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, "https://cdn.example.com/a.m4a", stream.StreamURL)
	assert.Equal(t, 1, p.streamCalls)

	// 同一 URL 的清单解析不会命中串流缓存
	_, fromCache, err = r.ResolvePlaylist(ctx, url)
	require.NoError(t, err)
	assert.False(t, fromCache)
}

// 测试无缓存模式：每次都走提取器
func TestResolver_NilCache(t *testing.T) {
	p := &countingProvider{}
	r := New(p, nil, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, fromCache, err := r.ResolvePlaylist(ctx, "https://example.com/list")
		require.NoError(t, err)
		assert.False(t, fromCache)
	}
	assert.Equal(t, 3, p.playlistCalls)
}

// 提取失败时错误原样返回且不写缓存
func TestResolver_ProviderFailure(t *testing.T) {
	p := &countingProvider{err: errors.New("fetch failed")}
	c := newTestCache(t)
	r := New(p, c, time.Hour)
	ctx := context.Background()

	_, _, err := r.ResolvePlaylist(ctx, "https://example.com/list")
	assert.Error(t, err)
	assert.Equal(t, int64(0), c.Stats().Size)

	// 失败不会被缓存：恢复后重新提取成功
	p.err = nil
	result, fromCache, err := r.ResolvePlaylist(ctx, "https://example.com/list")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, result.Len())
}

// 损坏的缓存条目按未命中处理
func TestResolver_CorruptCacheEntry(t *testing.T) {
	p := &countingProvider{}
	c := newTestCache(t)
	r := New(p, c, time.Hour)
	ctx := context.Background()

	// 写入一个类型不符的值：解码失败后仍能通过提取器解析
	require.NoError(t, c.Set(ctx, PlaylistKey("https://example.com/list"), "not a playlist", 0))

	result, fromCache, err := r.ResolvePlaylist(ctx, "https://example.com/list")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, result.Len())
	assert.Equal(t, 1, p.playlistCalls)
}

// 测试缓存键前缀
func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "playlist::https://a", PlaylistKey("https://a"))
	assert.Equal(t, "stream::https://a", StreamKey("https://a"))
}
