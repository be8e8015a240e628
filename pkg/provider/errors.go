package provider

import (
	apperr "ytplayer/pkg/error"
)

type ProviderError struct {
	apperr.BaseError
}

const (
	// ErrProviderError 表示提取器返回了一个通用错误。
	ErrProviderError apperr.ErrorCode = "PROVIDER_ERROR"
	// ErrProviderTimeout 表示提取操作超时。
	ErrProviderTimeout apperr.ErrorCode = "PROVIDER_TIMEOUT"
	// ErrProviderNotFound 表示提取器不可用（如 yt-dlp 未安装）。
	ErrProviderNotFound apperr.ErrorCode = "PROVIDER_NOT_FOUND"
	// ErrProviderParse 表示提取器输出无法解析。
	ErrProviderParse apperr.ErrorCode = "PROVIDER_PARSE"
)

func NewProviderError(code apperr.ErrorCode, message string) *ProviderError {
	return &ProviderError{
		BaseError: *apperr.NewError(code, message),
	}
}

func WrapProviderError(code apperr.ErrorCode, message string, cause error) *ProviderError {
	return &ProviderError{
		BaseError: *apperr.WrapError(code, message, cause),
	}
}
