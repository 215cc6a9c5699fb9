// Package trendsapi reads interest-over-time series from Google Trends. There is no
// public API: the explore endpoint hands out a widget token that unlocks the series.

package trendsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/httpclient"
	"github.com/thep200/workflow-popularity/pkg/log"
)

var ErrNoTimeseries = errors.New("no timeseries widget in explore response")

const timeseriesWidget = "TIMESERIES"

type Caller struct {
	Logger log.Logger
	Config *cfg.Config
	client *httpclient.Client

	sessionOnce sync.Once
}

func NewCaller(logger log.Logger, config *cfg.Config, client *httpclient.Client) *Caller {
	return &Caller{
		Logger: logger,
		Config: config,
		client: client,
	}
}

func (c *Caller) baseUrl() string {
	return strings.TrimRight(c.Config.Trends.BaseUrl, "/")
}

// ensureSession picks up the cookie Google expects before the api endpoints answer.
func (c *Caller) ensureSession(ctx context.Context) {
	c.sessionOnce.Do(func() {
		if _, err := c.client.Get(ctx, c.baseUrl()+"/trends/?geo=US"); err != nil {
			c.Logger.Debug(ctx, "Google Trends session warm-up failed: %v", err)
		}
	})
}

// InterestOverTime returns the interest series of keyword in geo for the configured
// timeframe. An empty geo means worldwide.
func (c *Caller) InterestOverTime(ctx context.Context, keyword, geo string) ([]float64, error) {
	c.ensureSession(ctx)

	widget, err := c.explore(ctx, keyword, geo)
	if err != nil {
		return nil, err
	}

	params := c.commonParams()
	params.Set("req", string(widget.Request))
	params.Set("token", widget.Token)
	body, err := c.client.Get(ctx, c.baseUrl()+"/trends/api/widgetdata/multiline?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("interest over time %q: %w", keyword, err)
	}

	var resp MultilineResponse
	if err := decodeGuarded(body, &resp); err != nil {
		return nil, fmt.Errorf("interest over time %q: %w", keyword, err)
	}

	series := make([]float64, 0, len(resp.Default.TimelineData))
	for _, point := range resp.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}
		series = append(series, float64(point.Value[0]))
	}
	return series, nil
}

func (c *Caller) explore(ctx context.Context, keyword, geo string) (*Widget, error) {
	req, err := json.Marshal(exploreRequest{
		ComparisonItem: []comparisonItem{{Keyword: keyword, Geo: geo, Time: c.Config.Trends.Timeframe}},
		Category:       0,
		Property:       "",
	})
	if err != nil {
		return nil, err
	}

	params := c.commonParams()
	params.Set("req", string(req))
	body, err := c.client.Get(ctx, c.baseUrl()+"/trends/api/explore?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("explore %q: %w", keyword, err)
	}

	var resp ExploreResponse
	if err := decodeGuarded(body, &resp); err != nil {
		return nil, fmt.Errorf("explore %q: %w", keyword, err)
	}
	for i := range resp.Widgets {
		if resp.Widgets[i].ID == timeseriesWidget {
			return &resp.Widgets[i], nil
		}
	}
	return nil, fmt.Errorf("explore %q: %w", keyword, ErrNoTimeseries)
}

func (c *Caller) commonParams() url.Values {
	params := url.Values{}
	params.Set("hl", c.Config.Trends.Language)
	params.Set("tz", strconv.Itoa(c.Config.Trends.TzOffset))
	return params
}

// decodeGuarded strips the anti-JSON-hijacking prefix ")]}'" Google puts before the payload.
func decodeGuarded(body []byte, out interface{}) error {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return errors.New("response carries no json object")
	}
	return json.Unmarshal(body[start:], out)
}
