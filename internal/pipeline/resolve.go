package pipeline

import (
	"context"
	"errors"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/geo"
	"livecam-geo/internal/geocode"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
	"strings"
)

// Result：单层解析结果；未命中时 Address 可携带已拼出的地址文本
type Result struct {
	Found   bool
	Coord   geo.Coord
	Address string
}

func Found(c geo.Coord) Result   { return Result{Found: true, Coord: c} }
func Miss(address string) Result { return Result{Address: address} }

// Strategy：一层解析；只有上下文取消会使整次解析中止，其余失败都是 Miss
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, id string) Result
}

// MetadataStrategy：视频元数据中的拍摄地坐标
type MetadataStrategy struct {
	Lookup MetadataLookup
	Keys   *keypool.Pool
}

func (s *MetadataStrategy) Name() string { return "metadata" }

// Resolve：每个 ID 单独一份密钥预算，耗尽后交给下一层
func (s *MetadataStrategy) Resolve(ctx context.Context, id string) Result {
	var (
		co geo.Coord
		ok bool
	)
	err := withRotation(ctx, s.Keys.Budget(), "metadata", func(key string) error {
		var err error
		co, ok, err = s.Lookup.RecordingLocation(ctx, id, key)
		return err
	})
	if errors.Is(err, errPoolExhausted) {
		logger.L().Warn("metadata_fall_through", "id", id, "policy", metadataPolicy.String())
		return Miss("")
	}
	if err != nil {
		logger.L().Debug("metadata_error", "id", id, "err", err)
		return Miss("")
	}
	if !ok || !co.Valid() {
		return Miss("")
	}
	return Found(co)
}

// AddressStrategy：标题 + 作者拼成地址文本后正向地理编码
type AddressStrategy struct {
	Info     InfoLookup
	Geocoder geocode.Geocoder
}

func (s *AddressStrategy) Name() string { return "address" }

func (s *AddressStrategy) Resolve(ctx context.Context, id string) Result {
	title, author, err := s.Info.Info(ctx, id)
	if err != nil {
		logger.L().Debug("info_error", "id", id, "err", err)
		return Miss("")
	}
	address := strings.TrimSpace(title + " " + author)
	if address == "" {
		return Miss("")
	}
	co, ok, err := s.Geocoder.Geocode(ctx, address)
	if err != nil {
		logger.L().Warn("geocode_error", "id", id, "err", err)
		return Miss(address)
	}
	if !ok || !co.Valid() {
		return Miss(address)
	}
	return Found(co)
}

// Resolver：按顺序尝试各层，第一个命中即停止
type Resolver struct {
	Strategies []Strategy
	Progress   int
}

type ResolveStats struct {
	Found       int
	Blacklisted int
	ByTier      map[string]int
}

// 文档注释：对候选逐个分层解析
// 背景：元数据坐标权威但覆盖少；地址文本噪声大，只作回落。
// 约束：命中写入快照；全部未命中加入黑名单，若某层拼出过地址则同时记入诊断集。
func (r *Resolver) Run(ctx context.Context, cands dataset.IDSet, ls *dataset.LocationStore, blacklist, diagnostics dataset.IDSet) (ResolveStats, error) {
	st := ResolveStats{ByTier: map[string]int{}}
	every := r.Progress
	if every <= 0 {
		every = 20
	}
	ids := cands.Sorted()
	total := len(ids)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		tier, res := r.resolveOne(ctx, id)
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if res.Found {
			if err := ls.Put(id, res.Coord); err == nil {
				st.Found++
				st.ByTier[tier]++
				metrics.ResolvedTotal.WithLabelValues(tier).Inc()
				logger.L().Debug("resolve_found", "id", id, "tier", tier, "coord", res.Coord.String())
			} else {
				logger.L().Warn("resolve_put_error", "id", id, "err", err)
				res.Found = false
			}
		}
		if !res.Found {
			blacklist.Add(id)
			if res.Address != "" {
				diagnostics.Add(res.Address)
			}
			st.Blacklisted++
			metrics.BlacklistedTotal.Inc()
			logger.L().Debug("resolve_miss", "id", id, "address", res.Address)
		}
		if (i+1)%every == 0 || i+1 == total {
			logger.L().Info("resolve_progress", "done", i+1, "total", total, "found", st.Found)
		}
	}
	logger.L().Info("resolve_done", "found", st.Found, "blacklisted", st.Blacklisted)
	return st, nil
}

// resolveOne：返回命中层名与结果；未命中时保留最后一个非空地址
func (r *Resolver) resolveOne(ctx context.Context, id string) (string, Result) {
	var address string
	for _, s := range r.Strategies {
		res := s.Resolve(ctx, id)
		if res.Found {
			return s.Name(), res
		}
		if res.Address != "" {
			address = res.Address
		}
	}
	return "", Miss(address)
}
