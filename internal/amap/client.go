// 包 amap：高德 Web 服务地理编码客户端（国内地址回落）
package amap

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
	"strconv"
	"strings"
)

// DefaultURL：高德地理编码 REST 端点
const DefaultURL = "https://restapi.amap.com/v3/geocode/geo"

// 文档注释：高德地理编码响应结构
// 背景：对齐高德 REST API 的返回字段，仅解析本方案需要的坐标与状态信息。
// 约束：status/infocode 用于错误判定与配额分类；location 为 "经度,纬度"（GCJ-02）。
type GeoResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Infocode string `json:"infocode"`
	Geocodes []struct {
		FormattedAddress any    `json:"formatted_address"`
		Location         string `json:"location"`
	} `json:"geocodes"`
}

// 配额/频控类 infocode
var quotaInfocodes = map[string]bool{
	"10003": true, // DAILY_QUERY_OVER_LIMIT
	"10004": true, // ACCESS_TOO_FREQUENT
	"10014": true, // QPS_HAS_EXCEEDED_THE_LIMIT
	"10019": true,
	"10020": true,
	"10021": true,
	"10044": true, // USER_DAILY_QUERY_OVER_LIMIT
}

// Client：Key 为 Web 服务 API 的后端密钥
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Key     string
}

// 文档注释：按地址文本查询坐标（REST）
// 参数：
// - ctx：请求上下文，用于控制超时与取消；
// - address：结构化或自由文本地址。
// 返回：第一个可解析的坐标，已由 GCJ-02 转换为 WGS84；无匹配时 ok=false。
// 约束：status!="1" 时按 infocode 区分配额耗尽与其它错误。
func (c *Client) Geocode(ctx context.Context, address string) (geo.Coord, bool, error) {
	if c.Key == "" {
		return geo.Coord{}, false, errors.New("amap: missing key")
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultURL
	}
	u, err := utils.WithQuery(base, url.Values{"key": {c.Key}, "address": {address}})
	if err != nil {
		return geo.Coord{}, false, err
	}
	var r GeoResponse
	if err := utils.GetJSON(ctx, c.HTTP, "amap", u, &r); err != nil {
		return geo.Coord{}, false, err
	}
	logger.L().Debug("amap_resp", "status", r.Status, "infocode", r.Infocode, "count", len(r.Geocodes))
	if r.Status != "1" {
		if quotaInfocodes[r.Infocode] {
			return geo.Coord{}, false, fmt.Errorf("amap: %s: %w", r.Info, keypool.ErrQuotaExceeded)
		}
		return geo.Coord{}, false, fmt.Errorf("amap error: infocode %s: %s", r.Infocode, r.Info)
	}
	for _, g := range r.Geocodes {
		co, err := parseLocation(g.Location)
		if err != nil {
			logger.L().Debug("amap_bad_location", "location", g.Location, "err", err)
			continue
		}
		lat, lng := GCJ02ToWGS84(co.Lat, co.Lng)
		out := geo.Coord{Lat: lat, Lng: lng}
		if out.Valid() {
			return out, true, nil
		}
	}
	return geo.Coord{}, false, nil
}

// parseLocation："lng,lat"
func parseLocation(s string) (geo.Coord, error) {
	lngS, latS, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coord{}, fmt.Errorf("malformed location %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return geo.Coord{}, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return geo.Coord{}, err
	}
	return geo.Coord{Lat: lat, Lng: lng}, nil
}
