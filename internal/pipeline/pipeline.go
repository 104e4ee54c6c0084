// 包 pipeline：增量地理解析对账流程
//
// 每次运行依次执行：加载上一份快照 → 存活校验（回收） → （完整运行）发现候选 + 分层解析
// → 缩水保护 → 写出。各阶段单线程顺序调用外部数据源，共享同一个密钥池。
package pipeline

import (
	"context"
	"fmt"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/feed"
	"livecam-geo/internal/geo"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
	"time"
)

// 各阶段在密钥池耗尽时的固定策略
const (
	validatePolicy = keypool.Abort
	discoverPolicy = keypool.StopPhase
	metadataPolicy = keypool.FallThrough
)

type LivenessChecker interface {
	IsLive(ctx context.Context, id, key string) (bool, error)
}

type Searcher interface {
	Search(ctx context.Context, query, key string) ([]string, error)
}

type ActivityFeed interface {
	Page(ctx context.Context, start int) (*feed.Page, error)
}

type MetadataLookup interface {
	RecordingLocation(ctx context.Context, id, key string) (geo.Coord, bool, error)
}

type InfoLookup interface {
	Info(ctx context.Context, id string) (title, author string, err error)
}

// Inputs：上一轮快照与搜索词
type Inputs interface {
	Locations(ctx context.Context) (*dataset.LocationStore, error)
	Blacklist(ctx context.Context) (dataset.IDSet, error)
	Queries(ctx context.Context) ([]string, error)
}

// Outputs：本轮写出；写出失败为致命错误
type Outputs interface {
	SaveLocations(ctx context.Context, ls *dataset.LocationStore) error
	SaveBlacklist(ctx context.Context, s dataset.IDSet) error
	SaveDiagnostics(ctx context.Context, s dataset.IDSet) error
}

// Pipeline：完整运行需要 Discoverer 与 Resolver；维护运行只用 Validator
type Pipeline struct {
	In         Inputs
	Out        Outputs
	Validator  *Validator
	Discoverer *Discoverer
	Resolver   *Resolver
}

// Summary：单次运行的计数
type Summary struct {
	Full        bool
	Previous    int
	Validated   int
	Candidates  int
	Resolved    int
	Blacklisted int
	Final       int
	Validate    ValidateStats
	Store       *dataset.LocationStore
}

// 文档注释：执行一次对账
// 参数：full=false 时只做存活校验并写出 geo.csv.gz，黑名单与诊断文件保持不动。
// 返回：运行计数；缩水保护触发时同时返回计数与 ErrShrinkage，geo.csv.gz 不写出。
// 约束：黑名单与诊断文件先于缩水保护写出，只有位置快照受保护。
func (p *Pipeline) Run(ctx context.Context, full bool) (*Summary, error) {
	t0 := time.Now()
	sum := &Summary{Full: full}
	ls, err := p.In.Locations(ctx)
	if err != nil {
		return sum, fmt.Errorf("load previous snapshot: %w", err)
	}
	sum.Store = ls
	sum.Previous = ls.Len()
	metrics.StoreSize.WithLabelValues("previous").Set(float64(sum.Previous))
	logger.L().Info("run_start", "full", full, "previous", sum.Previous)

	vst, err := p.Validator.Run(ctx, ls)
	sum.Validate = vst
	if err != nil {
		return sum, fmt.Errorf("validate: %w", err)
	}
	sum.Validated = ls.Len()
	metrics.StoreSize.WithLabelValues("validated").Set(float64(sum.Validated))

	if full {
		if err := p.discoverAndResolve(ctx, ls, sum); err != nil {
			return sum, err
		}
	}

	sum.Final = ls.Len()
	metrics.StoreSize.WithLabelValues("final").Set(float64(sum.Final))
	if err := Check(sum.Previous, sum.Final); err != nil {
		logger.L().Error("safety_abort", "previous", sum.Previous, "final", sum.Final)
		return sum, err
	}
	if err := p.Out.SaveLocations(ctx, ls); err != nil {
		return sum, fmt.Errorf("save locations: %w", err)
	}
	logger.L().Info("run_done", "full", full, "previous", sum.Previous, "validated", sum.Validated,
		"candidates", sum.Candidates, "resolved", sum.Resolved, "blacklisted", sum.Blacklisted,
		"final", sum.Final, "duration_ms", time.Since(t0).Milliseconds())
	return sum, nil
}

func (p *Pipeline) discoverAndResolve(ctx context.Context, ls *dataset.LocationStore, sum *Summary) error {
	blacklist, err := p.In.Blacklist(ctx)
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}
	queries, err := p.In.Queries(ctx)
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}
	cands, err := p.Discoverer.Run(ctx, queries, blacklist, ls)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	sum.Candidates = cands.Len()

	diagnostics := dataset.NewIDSet()
	rst, err := p.Resolver.Run(ctx, cands, ls, blacklist, diagnostics)
	sum.Resolved, sum.Blacklisted = rst.Found, rst.Blacklisted
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	if err := p.Out.SaveBlacklist(ctx, blacklist); err != nil {
		return fmt.Errorf("save blacklist: %w", err)
	}
	if err := p.Out.SaveDiagnostics(ctx, diagnostics); err != nil {
		return fmt.Errorf("save diagnostics: %w", err)
	}
	return nil
}
