package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "live cam", r.URL.Query().Get("q"))
		switch r.URL.Query().Get("start") {
		case "1":
			_, _ = w.Write([]byte(`{"queries":{"request":[{"totalResults":"23","count":10,"startIndex":1}]},
				"items":[{"snippet":"see www.youtube.com/watch?v=aaaaaaaaaaa now"},{"snippet":"nothing"}]}`))
		case "21":
			_, _ = w.Write([]byte(`{"queries":{"request":[{"totalResults":"23","count":3,"startIndex":21}]}}`))
		case "31":
			_, _ = w.Write([]byte(`{"queries":{}}`))
		default:
			_, _ = w.Write([]byte(`{"queries":{"request":[{"totalResults":"many","count":10,"startIndex":41}]}}`))
		}
	}))
	defer srv.Close()
	c := &Client{HTTP: srv.Client(), BaseURL: srv.URL + "/customsearch?q=live+cam"}
	ctx := context.Background()

	p, err := c.Page(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 23, p.Total)
	assert.Equal(t, 10, p.Count)
	assert.Equal(t, 1, p.StartIndex)
	assert.Len(t, p.Snippets, 2)

	p, err = c.Page(ctx, 21)
	require.NoError(t, err)
	assert.Empty(t, p.Snippets)
	assert.Equal(t, 3, p.Count)

	_, err = c.Page(ctx, 31)
	assert.ErrorIs(t, err, ErrNoRequest)

	_, err = c.Page(ctx, 41)
	assert.Error(t, err)
}
