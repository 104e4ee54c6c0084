// 包 snapshot：管道输入输出的文件实现（远程读取上一轮快照，本地原子写出本轮结果）
package snapshot

import (
	"context"
	"fmt"
	"io"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/remote"
	"os"
	"path"
	"path/filepath"
)

const (
	GeoFile         = "geo.csv.gz"
	BlacklistFile   = "blacklist.txt.gz"
	DiagnosticsFile = "non_live_camera.txt.gz"
)

// Source：上一轮快照与搜索词的位置
type Source struct {
	Fetcher      *remote.Fetcher
	DataURL      string
	BlacklistURL string
	QueriesURL   string
}

func (s *Source) open(ctx context.Context, what, loc string, read func(io.Reader) error) error {
	if loc == "" {
		return fmt.Errorf("%s: no location configured", what)
	}
	rc, err := s.Fetcher.Open(ctx, loc)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	defer rc.Close()
	if err := read(rc); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (s *Source) Locations(ctx context.Context) (*dataset.LocationStore, error) {
	var ls *dataset.LocationStore
	err := s.open(ctx, "locations", s.DataURL, func(r io.Reader) error {
		var err error
		ls, err = dataset.Load(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("snapshot_loaded", "what", "locations", "count", ls.Len())
	return ls, nil
}

func (s *Source) Blacklist(ctx context.Context) (dataset.IDSet, error) {
	var set dataset.IDSet
	err := s.open(ctx, "blacklist", s.BlacklistURL, func(r io.Reader) error {
		var err error
		set, err = dataset.LoadIDSet(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("snapshot_loaded", "what", "blacklist", "count", set.Len())
	return set, nil
}

func (s *Source) Queries(ctx context.Context) ([]string, error) {
	var lines []string
	err := s.open(ctx, "queries", s.QueriesURL, func(r io.Reader) error {
		var err error
		lines, err = dataset.ReadLines(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("snapshot_loaded", "what", "queries", "count", len(lines))
	return lines, nil
}

// Sink：写出到 Dir；记录本轮实际写出的文件，供发布使用
type Sink struct {
	Dir     string
	written []string
}

func (s *Sink) write(ctx context.Context, name string, fn func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := filepath.Join(s.Dir, name)
	if err := dataset.WriteFileAtomic(p, fn); err != nil {
		return err
	}
	s.written = append(s.written, p)
	logger.L().Info("output_written", "path", p)
	return nil
}

func (s *Sink) SaveLocations(ctx context.Context, ls *dataset.LocationStore) error {
	return s.write(ctx, GeoFile, func(w io.Writer) error { return dataset.Save(w, ls) })
}

func (s *Sink) SaveBlacklist(ctx context.Context, set dataset.IDSet) error {
	return s.write(ctx, BlacklistFile, func(w io.Writer) error { return dataset.SaveIDSet(w, set) })
}

func (s *Sink) SaveDiagnostics(ctx context.Context, set dataset.IDSet) error {
	return s.write(ctx, DiagnosticsFile, func(w io.Writer) error { return dataset.SaveIDSet(w, set) })
}

// Written：本轮写出的文件路径（按写出顺序）
func (s *Sink) Written() []string { return append([]string(nil), s.written...) }

// 文档注释：把本轮写出的文件上传到对象存储
// 约束：对象名为 prefix/文件名；任一上传失败立即返回，已上传的不回滚（下一轮会覆盖）。
func Publish(ctx context.Context, objects remote.ObjectStore, bucket, prefix string, paths []string) error {
	for _, p := range paths {
		object := path.Join(prefix, filepath.Base(p))
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		err = objects.Upload(ctx, bucket, object, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", object, err)
		}
		logger.L().Info("output_published", "bucket", bucket, "object", object)
	}
	return nil
}
