package pipeline

import (
	"context"
	"errors"
	"fmt"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
	"regexp"
)

// watchPattern：摘要中嵌入的观看链接，捕获 11 位视频 ID
var watchPattern = regexp.MustCompile(`www\.youtube\.com/watch\?v=(.{11})`)

// DefaultMaxStart：活动流分页偏移上限
const DefaultMaxStart = 100

// Discoverer：搜索词与活动流两路候选的并集
type Discoverer struct {
	Search   Searcher
	Feed     ActivityFeed
	Keys     *keypool.Pool
	MaxStart int
}

// 文档注释：发现本轮候选
// 返回：去掉黑名单与已解析条目后的候选集。
// 约束：搜索阶段密钥耗尽只提前结束搜索；活动流错误直接返回。
func (d *Discoverer) Run(ctx context.Context, queries []string, blacklist dataset.IDSet, ls *dataset.LocationStore) (dataset.IDSet, error) {
	found, err := d.SearchAll(ctx, queries)
	if err != nil {
		return nil, err
	}
	watched, err := d.Watches(ctx)
	if err != nil {
		return nil, err
	}
	searched := found.Len()
	found.Merge(watched)
	out := Candidates(found, blacklist, ls)
	metrics.CandidatesTotal.Add(float64(out.Len()))
	logger.L().Info("discover_done", "search", searched, "feed", watched.Len(), "union", found.Len(), "candidates", out.Len())
	return out, nil
}

// 文档注释：逐个搜索词调用搜索接口
// 约束：配额失败轮换密钥重试同一词；整阶段只有一份预算，耗尽后停止并保留已得结果；
// 其它错误跳过该词。
func (d *Discoverer) SearchAll(ctx context.Context, queries []string) (dataset.IDSet, error) {
	out := dataset.NewIDSet()
	budget := d.Keys.Budget()
	total := len(queries)
	for i, q := range queries {
		var ids []string
		err := withRotation(ctx, budget, "search", func(key string) error {
			var err error
			ids, err = d.Search.Search(ctx, q, key)
			return err
		})
		switch {
		case errors.Is(err, errPoolExhausted):
			logger.L().Warn("search_stopped", "policy", discoverPolicy.String(), "done", i, "total", total, "found", out.Len())
			return out, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logger.L().Warn("search_skip", "query", q, "err", err)
			continue
		}
		for _, id := range ids {
			out.Add(id)
		}
		logger.L().Info("search_progress", "done", i+1, "total", total, "found", out.Len())
	}
	return out, nil
}

// 文档注释：分页读取活动流并从摘要中提取视频 ID
// 约束：偏移从 1 开始；下一偏移超过 totalResults 或分页上限即停止；count<=0 或偏移不前进也停止，
// 保证页数有界。
func (d *Discoverer) Watches(ctx context.Context) (dataset.IDSet, error) {
	maxStart := d.MaxStart
	if maxStart <= 0 {
		maxStart = DefaultMaxStart
	}
	out := dataset.NewIDSet()
	start := 1
	for {
		p, err := d.Feed.Page(ctx, start)
		if err != nil {
			return nil, fmt.Errorf("feed start=%d: %w", start, err)
		}
		for _, s := range p.Snippets {
			for _, m := range watchPattern.FindAllStringSubmatch(s, -1) {
				out.Add(m[1])
			}
		}
		logger.L().Debug("feed_page", "start", start, "count", p.Count, "total", p.Total, "found", out.Len())
		if p.Count <= 0 {
			break
		}
		from := p.StartIndex
		if from <= 0 {
			from = start
		}
		next := from + p.Count
		if next > p.Total || next > maxStart || next <= start {
			break
		}
		start = next
	}
	return out, nil
}

// Candidates：found 减去黑名单与已在快照中的 ID
func Candidates(found, blacklist dataset.IDSet, ls *dataset.LocationStore) dataset.IDSet {
	out := dataset.NewIDSet()
	for id := range found {
		if blacklist.Has(id) || ls.Has(id) {
			continue
		}
		out.Add(id)
	}
	return out
}
