package utils

import (
	"livecam-geo/internal/logger"
	"net/http"
	"time"
)

// NewHTTPClient：数据源共用客户端（出站日志 → 限流 → 默认传输）
func NewHTTPClient(timeout time.Duration, ratePerMin int) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &logger.Transport{
			Base: &LimitedTransport{Base: http.DefaultTransport, Limiter: NewMinuteLimiter(ratePerMin)},
		},
	}
}
