// Package youtubeapi calls the YouTube Data API: keyword search per region,
// then the statistics of the returned videos.

package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/httpclient"
	"github.com/thep200/workflow-popularity/pkg/log"
)

var ErrMissingAPIKey = errors.New("youtube api key is not configured")

type Caller struct {
	Logger log.Logger
	Config *cfg.Config
	client *httpclient.Client
}

func NewCaller(logger log.Logger, config *cfg.Config, client *httpclient.Client) *Caller {
	return &Caller{
		Logger: logger,
		Config: config,
		client: client,
	}
}

func (c *Caller) endpoint(path string, params url.Values) string {
	params.Set("key", c.Config.Youtube.ApiKey)
	return strings.TrimRight(c.Config.Youtube.ApiUrl, "/") + path + "?" + params.Encode()
}

// Search returns the ids of videos matching query in regionCode.
func (c *Caller) Search(ctx context.Context, query, regionCode string) ([]string, error) {
	if c.Config.Youtube.ApiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(c.Config.Youtube.MaxResults))
	params.Set("order", "relevance")
	if regionCode != "" {
		params.Set("regionCode", regionCode)
	}

	var resp SearchResponse
	if err := c.client.GetJSON(ctx, c.endpoint("/search", params), &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	c.Logger.Debug(ctx, "YouTube search %q in %s returned %d videos", query, regionCode, len(ids))
	return ids, nil
}

// Videos fetches snippet and statistics for ids in one request.
func (c *Caller) Videos(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return []Video{}, nil
	}
	if c.Config.Youtube.ApiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("id", strings.Join(ids, ","))
	params.Set("part", "statistics,snippet")

	var resp VideosResponse
	if err := c.client.GetJSON(ctx, c.endpoint("/videos", params), &resp); err != nil {
		return nil, fmt.Errorf("videos: %w", err)
	}
	return resp.Items, nil
}

// ParseCount reads a statistics counter. A missing counter is zero.
func ParseCount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter %q: %w", s, err)
	}
	return n, nil
}
