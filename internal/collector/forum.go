package collector

import (
	"context"
	"strings"

	"github.com/thep200/workflow-popularity/cfg"
	forumapi "github.com/thep200/workflow-popularity/internal/forum_api"
	"github.com/thep200/workflow-popularity/internal/metrics"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/log"
	"golang.org/x/sync/errgroup"
)

type forumAPI interface {
	Topics(ctx context.Context, feed forumapi.Feed) ([]forumapi.Topic, error)
}

type ForumProvider struct {
	Logger log.Logger
	Config *cfg.Config
	api    forumAPI
	feeds  []forumapi.Feed
}

func NewForumProvider(logger log.Logger, config *cfg.Config, api forumAPI) *ForumProvider {
	return &ForumProvider{
		Logger: logger,
		Config: config,
		api:    api,
		feeds:  []forumapi.Feed{forumapi.FeedTop, forumapi.FeedLatest},
	}
}

func (p *ForumProvider) Source() model.Source {
	return model.SourceForum
}

// Collect reads the feeds concurrently and merges them in feed order, so a topic
// present in both is emitted once, from the first feed.
func (p *ForumProvider) Collect(ctx context.Context) ([]model.Record, error) {
	results := make([][]forumapi.Topic, len(p.feeds))

	var g errgroup.Group
	for i, feed := range p.feeds {
		g.Go(func() error {
			topics, err := p.api.Topics(ctx, feed)
			if err != nil {
				p.Logger.Error(ctx, "Error fetching forum feed %s: %v", feed, err)
				metrics.UnitFailures.WithLabelValues(string(model.SourceForum), "feed").Inc()
				return nil
			}
			results[i] = topics
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.Record, 0)
	seenIDs := make(map[int64]bool)
	seenTitles := make(map[string]bool)
	for _, topics := range results {
		for _, topic := range topics {
			record, ok := p.parseTopic(topic)
			if !ok {
				continue
			}
			if (topic.ID != 0 && seenIDs[topic.ID]) || seenTitles[record.Subject] {
				continue
			}
			seenIDs[topic.ID] = true
			seenTitles[record.Subject] = true
			records = append(records, record)
		}
	}

	metrics.RecordsCollected.WithLabelValues(string(model.SourceForum), model.RegionGlobal).Add(float64(len(records)))
	return records, nil
}

func (p *ForumProvider) matchesKeyword(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range p.Config.Forum.Keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// parseTopic keeps workflow topics with enough views.
func (p *ForumProvider) parseTopic(topic forumapi.Topic) (model.Record, bool) {
	title := cleanTitle(topic.Title)
	if title == "" || !p.matchesKeyword(title) {
		return model.Record{}, false
	}
	if topic.Views < p.Config.Forum.MinViews {
		return model.Record{}, false
	}

	return model.NewRecord(title, model.SourceForum, model.RegionGlobal, map[string]float64{
		"views":            float64(topic.Views),
		"likes":            float64(topic.LikeCount),
		"replies":          float64(topic.ReplyCount),
		"posts_count":      float64(topic.PostsCount),
		"engagement_score": EngagementScore(topic.LikeCount, topic.ReplyCount, topic.Views),
	}), true
}

// EngagementScore weights replies above likes, per view.
func EngagementScore(likes, replies, views int64) float64 {
	if views < 1 {
		views = 1
	}
	return float64(likes*2+replies*3) / float64(views)
}
