package geocode

import (
	"context"
	"errors"
	"fmt"
	"livecam-geo/internal/geo"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/utils"
	"net/http"
	"net/url"
)

// DefaultGoogleURL：Google Geocoding API JSON 端点
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google：Google Geocoding API 客户端
type Google struct {
	HTTP    *http.Client
	BaseURL string
	Key     string
}

type googleResult struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// 文档注释：按地址文本查询坐标
// 背景：HTTP 层始终返回 200，业务状态在 status 字段中。
// 返回：第一个合法非哨兵结果；ZERO_RESULTS 或结果全为哨兵时返回 ok=false。
// 约束：OVER_QUERY_LIMIT 归类为配额耗尽；其它非 OK 状态为错误。
func (g *Google) Geocode(ctx context.Context, address string) (geo.Coord, bool, error) {
	if g.Key == "" {
		return geo.Coord{}, false, errors.New("google geocode: missing key")
	}
	base := g.BaseURL
	if base == "" {
		base = DefaultGoogleURL
	}
	u, err := utils.WithQuery(base, url.Values{"address": {address}, "key": {g.Key}})
	if err != nil {
		return geo.Coord{}, false, err
	}
	var r googleResult
	if err := utils.GetJSON(ctx, g.HTTP, "geocode", u, &r); err != nil {
		return geo.Coord{}, false, err
	}
	switch r.Status {
	case "OK":
	case "ZERO_RESULTS":
		return geo.Coord{}, false, nil
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return geo.Coord{}, false, fmt.Errorf("google geocode: %s: %w", r.Status, keypool.ErrQuotaExceeded)
	default:
		return geo.Coord{}, false, fmt.Errorf("google geocode: status %s: %s", r.Status, r.ErrorMessage)
	}
	for _, res := range r.Results {
		co := geo.Coord{Lat: res.Geometry.Location.Lat, Lng: res.Geometry.Location.Lng}
		if co.Valid() {
			return co, true, nil
		}
	}
	logger.L().Debug("geocode_sentinel_only", "results", len(r.Results))
	return geo.Coord{}, false, nil
}
