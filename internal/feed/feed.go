// 包 feed：分页活动流（站内搜索结果）客户端
package feed

import (
	"context"
	"errors"
	"fmt"
	"livecam-geo/internal/utils"
	"net/http"
	"net/url"
	"strconv"
)

// ErrNoRequest：响应缺少 queries.request 分页元数据，无法继续分页
var ErrNoRequest = errors.New("feed: missing pagination metadata")

// Page：单页结果；Total 为服务端报告的总条数
type Page struct {
	Total      int
	Count      int
	StartIndex int
	Snippets   []string
}

// Client：BaseURL 为活动流端点，分页偏移以 start 参数追加
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

type pageResult struct {
	Queries struct {
		Request []struct {
			TotalResults string `json:"totalResults"`
			Count        int    `json:"count"`
			StartIndex   int    `json:"startIndex"`
		} `json:"request"`
	} `json:"queries"`
	Items []struct {
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// 文档注释：拉取从 start（1 起）开始的一页
// 约束：totalResults 以字符串返回，解析失败视为错误；末页可能没有 items 字段。
func (c *Client) Page(ctx context.Context, start int) (*Page, error) {
	u, err := utils.WithQuery(c.BaseURL, url.Values{"start": {strconv.Itoa(start)}})
	if err != nil {
		return nil, err
	}
	var r pageResult
	if err := utils.GetJSON(ctx, c.HTTP, "feed", u, &r); err != nil {
		return nil, err
	}
	if len(r.Queries.Request) == 0 {
		return nil, ErrNoRequest
	}
	req := r.Queries.Request[0]
	total, err := strconv.Atoi(req.TotalResults)
	if err != nil {
		return nil, fmt.Errorf("feed: totalResults %q: %w", req.TotalResults, err)
	}
	p := &Page{Total: total, Count: req.Count, StartIndex: req.StartIndex}
	for _, it := range r.Items {
		p.Snippets = append(p.Snippets, it.Snippet)
	}
	return p, nil
}
