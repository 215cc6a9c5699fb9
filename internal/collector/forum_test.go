package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/workflow-popularity/cfg"
	forumapi "github.com/thep200/workflow-popularity/internal/forum_api"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/testsupport"
	"github.com/thep200/workflow-popularity/pkg/httpclient"
)

type fakeForumAPI struct {
	feeds map[forumapi.Feed][]forumapi.Topic
	errs  map[forumapi.Feed]error
}

func (f *fakeForumAPI) Topics(_ context.Context, feed forumapi.Feed) ([]forumapi.Topic, error) {
	if err := f.errs[feed]; err != nil {
		return nil, err
	}
	return f.feeds[feed], nil
}

func subjects(records []model.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Subject)
	}
	return out
}

func TestForumProvider_KeywordAndFloor(t *testing.T) {
	api := &fakeForumAPI{feeds: map[forumapi.Feed][]forumapi.Topic{
		forumapi.FeedTop: {
			{ID: 1, Title: "Best automation workflow tips", Views: 60, LikeCount: 3, ReplyCount: 2},
			{ID: 2, Title: "Random chat", Views: 1000},
			{ID: 3, Title: "Workflow template for CRM", Views: 10},
		},
	}}
	p := NewForumProvider(testsupport.Logger(t), cfg.Defaults(), api)

	records, err := p.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Best automation workflow tips", r.Subject)
	assert.Equal(t, model.SourceForum, r.Source)
	assert.Equal(t, model.RegionGlobal, r.Region)
	assert.Equal(t, 60.0, r.Metrics["views"])
	assert.InDelta(t, float64(3*2+2*3)/60, r.Metrics["engagement_score"], 1e-9)
}

func TestForumProvider_SkipsTopicsSeenInTopFeed(t *testing.T) {
	api := &fakeForumAPI{feeds: map[forumapi.Feed][]forumapi.Topic{
		forumapi.FeedTop: {
			{ID: 1, Title: "Automation ideas", Views: 100},
		},
		forumapi.FeedLatest: {
			{ID: 1, Title: "Automation ideas", Views: 120},
			{ID: 9, Title: "Integration with Postgres", Views: 70},
		},
	}}
	p := NewForumProvider(testsupport.Logger(t), cfg.Defaults(), api)

	records, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Automation ideas", "Integration with Postgres"}, subjects(records))
	assert.Equal(t, 100.0, records[0].Metrics["views"])
}

func TestForumProvider_FeedFailureIsIsolated(t *testing.T) {
	api := &fakeForumAPI{
		feeds: map[forumapi.Feed][]forumapi.Topic{
			forumapi.FeedLatest: {{ID: 4, Title: "Tutorial: webhooks", Views: 80}},
		},
		errs: map[forumapi.Feed]error{forumapi.FeedTop: errors.New("502 bad gateway")},
	}
	p := NewForumProvider(testsupport.Logger(t), cfg.Defaults(), api)

	records, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tutorial: webhooks"}, subjects(records))
}

func TestForumProvider_AgainstDiscourseServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/top.json":
			w.Write([]byte(`{"topic_list":{"topics":[{"id":7,"title":"Workflow for invoices","views":300,"like_count":4,"reply_count":1,"posts_count":2}]}}`))
		case "/latest.json":
			w.Write([]byte(`{"topic_list":{"topics":[]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	config := cfg.Defaults()
	config.Forum.BaseUrl = srv.URL
	logger := testsupport.Logger(t)
	p := NewForumProvider(logger, config, forumapi.NewCaller(logger, config, httpclient.New(5*time.Second)))

	records, err := p.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2.0, records[0].Metrics["posts_count"])
}

func TestEngagementScore_ZeroViews(t *testing.T) {
	assert.Equal(t, 5.0, EngagementScore(1, 1, 0))
}
