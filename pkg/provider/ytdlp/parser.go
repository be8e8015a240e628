package ytdlp

import (
	"github.com/tidwall/gjson"

	"ytplayer/pkg/provider"
)

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
	untitledVideo  = "未命名影片"
)

// parsePlaylist 解析 yt-dlp --flat-playlist -J 的输出。
// 清单响应带 entries 数组；单个影片响应没有 entries，退回 webpage_url。
func parsePlaylist(data []byte) (*provider.PlaylistResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, provider.NewProviderError(provider.ErrProviderParse, "yt-dlp output is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	result := &provider.PlaylistResult{}
	for _, entry := range root.Get("entries").Array() {
		id := entry.Get("id").String()
		if id == "" {
			continue
		}
		result.URLs = append(result.URLs, watchURLPrefix+id)
		result.Titles = append(result.Titles, titleOrFallback(entry))
	}

	if result.Len() == 0 {
		if webURL := root.Get("webpage_url").String(); webURL != "" {
			result.URLs = append(result.URLs, webURL)
			result.Titles = append(result.Titles, titleOrFallback(root))
		}
	}

	if result.Len() == 0 {
		return nil, provider.NewProviderError(provider.ErrProviderParse, "no playable entries in yt-dlp output")
	}
	return result, nil
}

// parseStream 解析 yt-dlp -j -f <format> 的输出。
// 直接格式命中时串流地址在顶层 url；合并格式时在 requested_downloads。
func parseStream(data []byte) (*provider.StreamResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, provider.NewProviderError(provider.ErrProviderParse, "yt-dlp output is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	streamURL := root.Get("url").String()
	if streamURL == "" {
		streamURL = root.Get("requested_downloads.0.url").String()
	}
	if streamURL == "" {
		return nil, provider.NewProviderError(provider.ErrProviderParse, "no stream url in yt-dlp output")
	}

	return &provider.StreamResult{
		Title:     titleOrFallback(root),
		StreamURL: streamURL,
	}, nil
}

func titleOrFallback(node gjson.Result) string {
	if title := node.Get("title").String(); title != "" {
		return title
	}
	return untitledVideo
}
