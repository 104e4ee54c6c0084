// 包 youtube：视频平台的搜索、元数据、直播状态与 oEmbed 信息接口客户端
package youtube

import (
	"context"
	"errors"
	"livecam-geo/internal/geo"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/utils"
	"net/http"
	"net/url"
)

// ErrNoItems：响应中没有任何条目（视频已删除或不可见）
var ErrNoItems = errors.New("no items in response")

// Client：各端点基础 URL 可自带固定参数（part=、type=、eventType= 等），密钥与 ID 在调用时追加
type Client struct {
	HTTP        *http.Client
	SearchURL   string
	LocationURL string
	LiveURL     string
	InfoURL     string
}

type searchResult struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// 文档注释：按关键词搜索直播视频
// 返回：结果中的视频 ID（频道/播放列表等无 videoId 的条目被跳过）；配额耗尽时错误包装 keypool.ErrQuotaExceeded。
func (c *Client) Search(ctx context.Context, query, key string) ([]string, error) {
	u, err := utils.WithQuery(c.SearchURL, url.Values{"key": {key}, "q": {query}})
	if err != nil {
		return nil, err
	}
	var r searchResult
	if err := utils.GetJSON(ctx, c.HTTP, "search", u, &r); err != nil {
		return nil, err
	}
	var out []string
	for _, it := range r.Items {
		if it.ID.VideoID != "" {
			out = append(out, it.ID.VideoID)
		}
	}
	logger.L().Debug("search_ok", "query", query, "count", len(out))
	return out, nil
}

type locationResult struct {
	Items []struct {
		RecordingDetails struct {
			Location struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"location"`
		} `json:"recordingDetails"`
	} `json:"items"`
}

// 文档注释：读取视频的拍摄地坐标（recordingDetails.location）
// 返回：第一个合法非哨兵坐标与 true；无条目或坐标为 (0,0) 时返回 false 且无错误。
func (c *Client) RecordingLocation(ctx context.Context, id, key string) (geo.Coord, bool, error) {
	u, err := utils.WithQuery(c.LocationURL, url.Values{"key": {key}, "id": {id}})
	if err != nil {
		return geo.Coord{}, false, err
	}
	var r locationResult
	if err := utils.GetJSON(ctx, c.HTTP, "metadata", u, &r); err != nil {
		return geo.Coord{}, false, err
	}
	for _, it := range r.Items {
		loc := it.RecordingDetails.Location
		co := geo.Coord{Lat: loc.Latitude, Lng: loc.Longitude}
		if co.Valid() {
			return co, true, nil
		}
	}
	return geo.Coord{}, false, nil
}

type liveResult struct {
	Items []struct {
		Snippet struct {
			LiveBroadcastContent string `json:"liveBroadcastContent"`
		} `json:"snippet"`
	} `json:"items"`
}

// IsLive：snippet.liveBroadcastContent == "live"；空响应返回 ErrNoItems
func (c *Client) IsLive(ctx context.Context, id, key string) (bool, error) {
	u, err := utils.WithQuery(c.LiveURL, url.Values{"key": {key}, "id": {id}})
	if err != nil {
		return false, err
	}
	var r liveResult
	if err := utils.GetJSON(ctx, c.HTTP, "liveness", u, &r); err != nil {
		return false, err
	}
	if len(r.Items) == 0 {
		return false, ErrNoItems
	}
	return r.Items[0].Snippet.LiveBroadcastContent == "live", nil
}

type infoResult struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// Info：oEmbed 标题与作者名，用于拼接地址文本；无需密钥
func (c *Client) Info(ctx context.Context, id string) (string, string, error) {
	u, err := utils.WithQuery(c.InfoURL, url.Values{"v": {id}, "format": {"json"}})
	if err != nil {
		return "", "", err
	}
	var r infoResult
	if err := utils.GetJSON(ctx, c.HTTP, "info", u, &r); err != nil {
		return "", "", err
	}
	return r.Title, r.AuthorName, nil
}
