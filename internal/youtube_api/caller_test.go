package youtubeapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/httpclient"
	"github.com/thep200/workflow-popularity/pkg/log"
)

func newTestCaller(t *testing.T, handler http.HandlerFunc) *Caller {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := cfg.Defaults()
	config.Youtube.ApiUrl = srv.URL
	config.Youtube.ApiKey = "secret"
	logger, err := log.NewCslLoggerTo(io.Discard, false)
	require.NoError(t, err)
	return NewCaller(logger, config, httpclient.New(5*time.Second))
}

func TestSearch(t *testing.T) {
	c := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "n8n webhook workflow", q.Get("q"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "25", q.Get("maxResults"))
		assert.Equal(t, "IN", q.Get("regionCode"))
		assert.Equal(t, "secret", q.Get("key"))
		w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"abc"}},{"id":{"kind":"youtube#channel"}}]}`))
	})

	ids, err := c.Search(context.Background(), "n8n webhook workflow", "IN")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)
}

func TestVideos(t *testing.T) {
	c := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "a,b", r.URL.Query().Get("id"))
		w.Write([]byte(`{"items":[{"id":"a","snippet":{"title":"Intro"},"statistics":{"viewCount":"1200","likeCount":"30"}}]}`))
	})

	videos, err := c.Videos(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Intro", videos[0].Snippet.Title)
	assert.Equal(t, "1200", videos[0].Statistics.ViewCount)
	assert.Empty(t, videos[0].Statistics.CommentCount)
}

func TestSearch_HTTPError(t *testing.T) {
	c := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403}}`, http.StatusForbidden)
	})

	_, err := c.Search(context.Background(), "q", "US")
	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}

func TestMissingKey(t *testing.T) {
	c := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	c.Config.Youtube.ApiKey = ""

	_, err := c.Search(context.Background(), "q", "US")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = ParseCount("98765")
	require.NoError(t, err)
	assert.Equal(t, int64(98765), n)

	_, err = ParseCount("1.5k")
	assert.Error(t, err)
}
