package remote

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS：基于 cloud.google.com/go/storage 的 ObjectStore
type GCS struct {
	client *storage.Client
}

// NewGCS：credentialsFile 为空时使用默认应用凭据
func NewGCS(ctx context.Context, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("gcs credentials %s: %w", credentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCS{client: c}, nil
}

func (g *GCS) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	return r, nil
}

// Upload：输出文件是 gzip 数据，按二进制对象写入并禁止缓存
func (g *GCS) Upload(ctx context.Context, bucket, object string, r io.Reader) error {
	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/gzip"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

func (g *GCS) Close() error { return g.client.Close() }
