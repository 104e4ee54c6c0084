package main

import (
	"context"
	"fmt"
	"strings"

	"livecam-geo/internal/amap"
	"livecam-geo/internal/config"
	"livecam-geo/internal/feed"
	"livecam-geo/internal/geocode"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
	"livecam-geo/internal/migrate"
	"livecam-geo/internal/pipeline"
	"livecam-geo/internal/remote"
	"livecam-geo/internal/snapshot"
	"livecam-geo/internal/store"
	"livecam-geo/internal/utils"
	"livecam-geo/internal/version"
	"livecam-geo/internal/youtube"
	"net/http"
)

// 文档注释：组装依赖并执行一次运行
// 约束：geo.csv.gz 写出成功后才发布到 GCS 与同步 PostgreSQL 镜像；两者失败同样以非零退出。
func run(ctx context.Context, runID string, full bool) error {
	l := logger.L()
	l.Info("start", "commit", version.Commit, "full", full)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(full); err != nil {
		return err
	}
	defer func() {
		if err := metrics.Push(cfg.PushgatewayURL); err != nil {
			l.Warn("metrics_push_error", "err", err)
		}
	}()

	keys, err := keypool.New(cfg.DeveloperKeys)
	if err != nil {
		return err
	}
	l.Info("keys_loaded", "count", keys.Len())
	httpc := utils.NewHTTPClient(cfg.HTTPTimeout, cfg.RatePerMin)

	fetcher := &remote.Fetcher{Client: httpc}
	var gcs *remote.GCS
	if needsGCS(cfg) {
		gcs, err = remote.NewGCS(ctx, cfg.GCS.CredentialsFile)
		if err != nil {
			return err
		}
		defer gcs.Close()
		fetcher.Objects = gcs
	}

	yt := &youtube.Client{
		HTTP:        httpc,
		SearchURL:   cfg.SearchURLBase,
		LocationURL: cfg.LocationURLBase,
		LiveURL:     cfg.LiveURLBase,
		InfoURL:     cfg.InfoURLBase,
	}
	sink := &snapshot.Sink{Dir: cfg.OutputDir}
	p := &pipeline.Pipeline{
		In: &snapshot.Source{
			Fetcher:      fetcher,
			DataURL:      cfg.DataURL,
			BlacklistURL: cfg.BlacklistURL,
			QueriesURL:   cfg.QueriesURL,
		},
		Out:       sink,
		Validator: &pipeline.Validator{Live: yt, Keys: keys},
	}
	if full {
		gc, closeGC := newGeocoder(ctx, cfg, httpc)
		defer closeGC()
		p.Discoverer = &pipeline.Discoverer{
			Search:   yt,
			Feed:     &feed.Client{HTTP: httpc, BaseURL: cfg.WatchURL},
			Keys:     keys,
			MaxStart: cfg.FeedMaxStart,
		}
		p.Resolver = &pipeline.Resolver{Strategies: []pipeline.Strategy{
			&pipeline.MetadataStrategy{Lookup: yt, Keys: keys},
			&pipeline.AddressStrategy{Info: yt, Geocoder: gc},
		}}
	}

	sum, err := p.Run(ctx, full)
	if err != nil {
		return err
	}

	if cfg.GCS.Bucket != "" {
		if err := snapshot.Publish(ctx, gcs, cfg.GCS.Bucket, cfg.GCS.Prefix, sink.Written()); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	if cfg.Postgres.Enable {
		if err := mirror(ctx, cfg.Postgres, runID, sum); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
	}
	return nil
}

func needsGCS(cfg *config.Config) bool {
	if cfg.GCS.Bucket != "" {
		return true
	}
	for _, loc := range []string{cfg.DataURL, cfg.BlacklistURL, cfg.QueriesURL} {
		if strings.HasPrefix(loc, "gs://") {
			return true
		}
	}
	return false
}

// newGeocoder：按 GEOCODER 选择实现，Redis 启用时外包一层缓存
func newGeocoder(ctx context.Context, cfg *config.Config, httpc *http.Client) (geocode.Geocoder, func()) {
	var gc geocode.Geocoder
	switch cfg.Geocoder {
	case "amap":
		gc = &amap.Client{HTTP: httpc, BaseURL: cfg.GeocodeURLBase, Key: cfg.AMapKey}
	default:
		gc = &geocode.Google{HTTP: httpc, BaseURL: cfg.GeocodeURLBase, Key: cfg.GoogleAPIKey}
	}
	rc := utils.OpenRedis(cfg.Redis)
	if rc == nil {
		logger.L().Info("redis_disabled")
		return gc, func() {}
	}
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.L().Error("redis_ping_error", "err", err)
	} else {
		logger.L().Info("redis_ping_ok")
	}
	return &geocode.Cached{Next: gc, Redis: rc, TTL: cfg.Redis.CacheTTL}, func() { _ = rc.Close() }
}

func mirror(ctx context.Context, c config.Postgres, runID string, sum *pipeline.Summary) error {
	db, err := utils.OpenPostgres(c)
	if err != nil {
		return err
	}
	st := store.AttachDB(db)
	defer st.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		return err
	}
	if err := st.ReplaceLocations(ctx, sum.Store); err != nil {
		return err
	}
	return st.RecordRun(ctx, store.RunStats{
		RunID:       runID,
		Full:        sum.Full,
		Previous:    sum.Previous,
		Validated:   sum.Validated,
		Candidates:  sum.Candidates,
		Resolved:    sum.Resolved,
		Blacklisted: sum.Blacklisted,
		Final:       sum.Final,
	})
}
