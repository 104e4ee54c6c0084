package utils

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// 文档注释：每分钟请求上限
// 背景：外部数据源按分钟计配额，超出时阻塞到下一分钟刷新。
// 约束：capacity<=0 表示不限流。
type MinuteLimiter struct {
	capacity int
	used     int
	lastMin  int64
	mu       sync.Mutex
	now      func() time.Time
}

func NewMinuteLimiter(capacity int) *MinuteLimiter {
	return &MinuteLimiter{capacity: capacity, now: time.Now}
}

func (ml *MinuteLimiter) allow() bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.capacity <= 0 {
		return true
	}
	nowMin := ml.now().Unix() / 60
	if ml.lastMin != nowMin {
		ml.lastMin = nowMin
		ml.used = 0
	}
	if ml.used < ml.capacity {
		ml.used++
		return true
	}
	return false
}

// Wait：阻塞直到允许或 ctx 取消
func (ml *MinuteLimiter) Wait(ctx context.Context) error {
	for !ml.allow() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return nil
}

// LimitedTransport：按 MinuteLimiter 放行的 RoundTripper
type LimitedTransport struct {
	Base    http.RoundTripper
	Limiter *MinuteLimiter
}

func (t *LimitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(r.Context()); err != nil {
			return nil, err
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
