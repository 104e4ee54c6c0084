// 包 utils：数据源 HTTP 调用、限流与外部连接（Redis/PostgreSQL）的公共工具
package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/metrics"
	"net/http"
	"net/url"
	"time"
)

// StatusError：非 2xx 响应
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}

// 文档注释：GET 并解码 JSON 响应
// 背景：各数据源客户端共用的调用路径，统一计数、耗时与错误分类。
// 约束：403/429 归类为配额耗尽（包装 keypool.ErrQuotaExceeded）；其余非 2xx 返回 *StatusError；
// 传输层错误去掉 URL，避免密钥随错误信息进入日志。
func GetJSON(ctx context.Context, client *http.Client, provider string, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, redact(err))
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	t0 := time.Now()
	metrics.ProviderRequestsTotal.WithLabelValues(provider).Inc()
	resp, err := client.Do(req)
	if err != nil {
		metrics.ProviderFailTotal.WithLabelValues(provider).Inc()
		return fmt.Errorf("%s: %w", provider, redact(err))
	}
	defer resp.Body.Close()
	metrics.ProviderDurationMs.WithLabelValues(provider).Observe(float64(time.Since(t0).Milliseconds()))
	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.ProviderQuotaTotal.WithLabelValues(provider).Inc()
		return fmt.Errorf("%s: status %d: %w", provider, resp.StatusCode, keypool.ErrQuotaExceeded)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.ProviderFailTotal.WithLabelValues(provider).Inc()
		return &StatusError{Provider: provider, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ProviderFailTotal.WithLabelValues(provider).Inc()
		return fmt.Errorf("%s: decode: %w", provider, err)
	}
	return nil
}

// WithQuery：在基础 URL 上追加/覆盖查询参数；基础 URL 可自带固定参数（如 part=snippet）
func WithQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
