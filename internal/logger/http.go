package logger

import (
	"net/http"
	"time"
)

// Transport：出站请求日志包装器
// 背景：所有数据源调用共用一个 http.Client，在传输层统一记录主机、路径、状态与耗时。
// 约束：不记录查询串，密钥以 key= 参数传递，不能进入日志。
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(r)
	dur := time.Since(start)
	if err != nil {
		L().Debug("http_out_error",
			"method", r.Method,
			"host", r.URL.Host,
			"path", r.URL.Path,
			"duration_ms", dur.Milliseconds(),
			"err", err,
		)
		return nil, err
	}
	L().Debug("http_out",
		"method", r.Method,
		"host", r.URL.Host,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", dur.Milliseconds(),
	)
	return resp, nil
}
