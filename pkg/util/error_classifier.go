package util

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// StatusCoder is implemented by provider errors that carry an HTTP-like
// status code (e.g. the LLM client's APIError).
type StatusCoder interface {
	HTTPStatus() int
}

// IsRetryableError determines if an error is retryable
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// Provider errors with a status code - 根据状态码判断
	var coded StatusCoder
	if errors.As(err, &coded) {
		switch status := coded.HTTPStatus(); {
		case status == 400 || status == 401:
			// 请求本身无效，重试不会改变结果
			return false, "client_error"
		case status == 429:
			return true, "rate_limited"
		case status >= 500:
			return true, "provider_5xx"
		default:
			return false, "provider_error"
		}
	}

	// Network errors - 可重试
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	// URL errors - 可重试
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	// Context timeout - 可重试
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	// 默认：未知错误，保守处理 - 不重试
	return false, "unknown_error"
}
