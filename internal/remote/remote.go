// 包 remote：按位置读取上一轮快照与输入清单（http/https、gs://、本地路径），并可选上传本轮输出到 GCS
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"livecam-geo/internal/logger"
	"net/http"
	"os"
	"strings"
)

// ObjectStore：对象存储的最小契约，GCS 客户端实现之
type ObjectStore interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	Upload(ctx context.Context, bucket, object string, r io.Reader) error
}

// Fetcher：按 scheme 分派读取
// 约束：gs:// 需要注入 ObjectStore；本地路径可带 file:// 前缀
type Fetcher struct {
	Client  *http.Client
	Objects ObjectStore
}

// 文档注释：打开一个输入位置
// 返回：调用方负责关闭；http 非 200 视为错误（快照缺失不能静默当作空集）。
func (f *Fetcher) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return f.openHTTP(ctx, loc)
	case strings.HasPrefix(loc, "gs://"):
		if f.Objects == nil {
			return nil, errors.New("gs:// location without object store")
		}
		bucket, object, err := SplitGS(loc)
		if err != nil {
			return nil, err
		}
		logger.L().Debug("fetch_gcs", "bucket", bucket, "object", object)
		return f.Objects.Open(ctx, bucket, object)
	default:
		return os.Open(strings.TrimPrefix(loc, "file://"))
	}
}

func (f *Fetcher) openHTTP(ctx context.Context, loc string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	c := f.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", req.URL.Host+req.URL.Path, resp.StatusCode)
	}
	return resp.Body, nil
}

// SplitGS：gs://bucket/path/to/object → bucket, path/to/object
func SplitGS(loc string) (string, string, error) {
	rest := strings.TrimPrefix(loc, "gs://")
	i := strings.IndexByte(rest, '/')
	if i <= 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("bad gs location %q", loc)
	}
	return rest[:i], rest[i+1:], nil
}
