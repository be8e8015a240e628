package cache

import (
	apperr "ytplayer/pkg/error"
)

type CacheError struct {
	apperr.BaseError
}

const (
	// ErrCacheMiss 表示在缓存中未找到请求的条目。
	ErrCacheMiss apperr.ErrorCode = "CACHE_MISS"
	// ErrCacheSerialize 表示缓存值无法被序列化为 JSON。
	ErrCacheSerialize apperr.ErrorCode = "CACHE_SERIALIZE"
	// ErrCacheCorrupted 表示缓存数据已损坏。
	ErrCacheCorrupted apperr.ErrorCode = "CACHE_CORRUPTED"
	// ErrCacheUnavailable 表示缓存后端不可用（如 Redis 连接失败）。
	ErrCacheUnavailable apperr.ErrorCode = "CACHE_UNAVAILABLE"
)

var (
	ErrCacheMissNotFound = NewCacheError(ErrCacheMiss, "cache entry not found")
)

func NewCacheError(code apperr.ErrorCode, message string) *CacheError {
	return &CacheError{
		BaseError: *apperr.NewError(code, message),
	}
}

func WrapCacheError(code apperr.ErrorCode, message string, cause error) *CacheError {
	return &CacheError{
		BaseError: *apperr.WrapError(code, message, cause),
	}
}

// IsMiss 判断一个错误是否为缓存未命中。
func IsMiss(err error) bool {
	ce, ok := err.(*CacheError)
	return ok && ce.Code == ErrCacheMiss
}
