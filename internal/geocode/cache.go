package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"livecam-geo/internal/geo"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix：缓存键前缀
const KeyPrefix = "livecam:geocode:"

// Cached：以 Redis 缓存地理编码结果
// 背景：同一频道的多个直播常拼出相同地址，跨运行复用可显著节省外部配额。
// 约束：无匹配同样缓存；错误不缓存；Redis 不可用时直接回源，不影响主流程。
type Cached struct {
	Next  Geocoder
	Redis *redis.Client
	TTL   time.Duration
}

type cachedValue struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat,omitempty"`
	Lng   float64 `json:"lng,omitempty"`
}

func cacheKey(address string) string {
	return KeyPrefix + strings.ToLower(strings.TrimSpace(address))
}

func (c *Cached) Geocode(ctx context.Context, address string) (geo.Coord, bool, error) {
	if c.Redis == nil {
		return c.Next.Geocode(ctx, address)
	}
	key := cacheKey(address)
	s, err := c.Redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var v cachedValue
		if json.Unmarshal([]byte(s), &v) == nil {
			metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
			return geo.Coord{Lat: v.Lat, Lng: v.Lng}, v.Found, nil
		}
		logger.L().Warn("geocode_cache_corrupt", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		logger.L().Warn("geocode_cache_get_error", "err", err)
	}
	metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()

	co, ok, err := c.Next.Geocode(ctx, address)
	if err != nil {
		return co, ok, err
	}
	v := cachedValue{Found: ok}
	if ok {
		v.Lat, v.Lng = co.Lat, co.Lng
	}
	b, _ := json.Marshal(v)
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if err := c.Redis.Set(ctx, key, string(b), ttl).Err(); err != nil {
		logger.L().Warn("geocode_cache_set_error", "err", err)
	}
	return co, ok, nil
}
