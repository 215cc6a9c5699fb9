// Package forumapi reads topic feeds from a Discourse community forum.

package forumapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/httpclient"
	"github.com/thep200/workflow-popularity/pkg/log"
)

type Feed string

const (
	FeedTop    Feed = "top"
	FeedLatest Feed = "latest"
)

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

// Topics fetches one feed.
func (c *Caller) Topics(ctx context.Context, feed Feed) ([]Topic, error) {
	feedUrl := fmt.Sprintf("%s/%s.json", strings.TrimRight(c.Config.Forum.BaseUrl, "/"), feed)

	var resp TopicListResponse
	if err := c.client.GetJSON(ctx, feedUrl, &resp); err != nil {
		return nil, fmt.Errorf("forum feed %s: %w", feed, err)
	}

	c.Logger.Debug(ctx, "Forum feed %s returned %d topics", feed, len(resp.TopicList.Topics))
	return resp.TopicList.Topics, nil
}
