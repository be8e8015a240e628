package ytdlp

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ytplayer/pkg/logger"
	"ytplayer/pkg/provider"
)

// Client yt-dlp 子进程封装。对这个程序而言 yt-dlp 是一个黑盒：
// 喂给它一个 URL，拿回一段 JSON。
type Client struct {
	binPath string
	log     *logrus.Entry
}

// NewClient 创建子进程客户端。binPath 为空时自动查找可执行文件。
func NewClient(binPath string) (*Client, error) {
	if binPath == "" {
		found, err := locateBinary()
		if err != nil {
			return nil, err
		}
		binPath = found
	} else if _, err := os.Stat(binPath); err != nil {
		return nil, provider.WrapProviderError(provider.ErrProviderNotFound, "yt-dlp binary not found", err)
	}

	return &Client{
		binPath: binPath,
		log:     logger.WithComponent("ytdlp"),
	}, nil
}

// BinPath 返回实际使用的可执行文件路径。
func (c *Client) BinPath() string {
	return c.binPath
}

// locateBinary 查找 yt-dlp：先查 PATH，再查当前目录。
func locateBinary() (string, error) {
	name := "yt-dlp"
	if runtime.GOOS == "windows" {
		name = "yt-dlp.exe"
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", NewProviderNotFoundError()
}

// NewProviderNotFoundError 构造 yt-dlp 缺失错误。
func NewProviderNotFoundError() error {
	return provider.NewProviderError(provider.ErrProviderNotFound,
		"yt-dlp executable not found in PATH or working directory")
}

// run 执行 yt-dlp 并返回标准输出。超时/取消通过 ctx 控制。
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binPath, args...)
	// yt-dlp 可能派生持有输出管道的子进程；ctx 结束后最多再等这么久回收管道，
	// 避免 Wait 被残留的后代进程无限拖住。
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debugf("执行 %s %s", c.binPath, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, provider.WrapProviderError(provider.ErrProviderTimeout, "yt-dlp timed out", ctx.Err())
		}
		msg := "yt-dlp failed"
		if tail := lastLine(stderr.String()); tail != "" {
			msg = msg + ": " + tail
		}
		return nil, provider.WrapProviderError(provider.ErrProviderError, msg, err)
	}

	return stdout.Bytes(), nil
}

// lastLine 取 stderr 的最后一行非空内容，yt-dlp 的错误原因通常在那里。
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
