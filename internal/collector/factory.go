package collector

import (
	"time"

	"github.com/thep200/workflow-popularity/cfg"
	forumapi "github.com/thep200/workflow-popularity/internal/forum_api"
	trendsapi "github.com/thep200/workflow-popularity/internal/trends_api"
	youtubeapi "github.com/thep200/workflow-popularity/internal/youtube_api"
	"github.com/thep200/workflow-popularity/pkg/httpclient"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// Providers is the set of sources one collection cycle walks through.
type Providers struct {
	Video RegionalProvider
	Trend RegionalProvider
	Forum GlobalProvider
}

// FactoryProviders wires every provider to its live upstream caller.
func FactoryProviders(logger log.Logger, config *cfg.Config) *Providers {
	timeout := time.Duration(config.Collector.RequestTimeout) * time.Second

	videoClient := httpclient.New(timeout)
	forumClient := httpclient.New(timeout)

	trendsClient := httpclient.New(timeout).WithCookies()
	trendsClient.Retries = config.Trends.Retries
	trendsClient.Backoff = time.Duration(config.Trends.BackoffMs) * time.Millisecond

	return &Providers{
		Video: NewVideoProvider(logger, config, youtubeapi.NewCaller(logger, config, videoClient)),
		Trend: NewTrendProvider(logger, config, trendsapi.NewCaller(logger, config, trendsClient)),
		Forum: NewForumProvider(logger, config, forumapi.NewCaller(logger, config, forumClient)),
	}
}
