package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/testsupport"
	youtubeapi "github.com/thep200/workflow-popularity/internal/youtube_api"
)

type fakeVideoAPI struct {
	searches  map[string][]string
	searchErr map[string]error
	videos    map[string]youtubeapi.Video
	requested [][]string
}

func (f *fakeVideoAPI) Search(_ context.Context, query, _ string) ([]string, error) {
	if err := f.searchErr[query]; err != nil {
		return nil, err
	}
	return f.searches[query], nil
}

func (f *fakeVideoAPI) Videos(_ context.Context, ids []string) ([]youtubeapi.Video, error) {
	f.requested = append(f.requested, ids)
	out := make([]youtubeapi.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func video(id, title, views, likes, comments string) youtubeapi.Video {
	v := youtubeapi.Video{ID: id}
	v.Snippet.Title = title
	v.Statistics.ViewCount = views
	v.Statistics.LikeCount = likes
	v.Statistics.CommentCount = comments
	return v
}

func videoConfig(queries ...string) *cfg.Config {
	config := cfg.Defaults()
	config.Youtube.ApiKey = "test-key"
	config.Youtube.QueryDelayMs = 0
	config.Youtube.Queries = queries
	return config
}

func TestVideoProvider_FloorAndRatios(t *testing.T) {
	api := &fakeVideoAPI{
		searches: map[string][]string{"q": {"low", "high"}},
		videos: map[string]youtubeapi.Video{
			"low":  video("low", "Too small", "50", "10", "1"),
			"high": video("high", "n8n &amp; Slack <b>guide</b>", "150", "7", "2"),
		},
	}
	p := NewVideoProvider(testsupport.Logger(t), videoConfig("q"), api)

	records, err := p.Collect(context.Background(), "US")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "n8n & Slack guide", r.Subject)
	assert.Equal(t, model.SourceVideo, r.Source)
	assert.Equal(t, "US", r.Region)
	assert.Equal(t, 150.0, r.Metrics["views"])
	assert.Equal(t, 7.0, r.Metrics["likes"])
	assert.Equal(t, 2.0, r.Metrics["comments"])
	assert.Equal(t, 0.0467, r.Metrics["like_to_view_ratio"])
	assert.Equal(t, 0.0133, r.Metrics["comment_to_view_ratio"])
}

func TestVideoProvider_FailedQueryIsSkipped(t *testing.T) {
	api := &fakeVideoAPI{
		searches:  map[string][]string{"ok": {"a"}},
		searchErr: map[string]error{"broken": errors.New("quota exceeded")},
		videos:    map[string]youtubeapi.Video{"a": video("a", "Workflow", "1000", "10", "5")},
	}
	p := NewVideoProvider(testsupport.Logger(t), videoConfig("broken", "ok"), api)

	records, err := p.Collect(context.Background(), "IN")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestVideoProvider_DedupesAcrossQueries(t *testing.T) {
	api := &fakeVideoAPI{
		searches: map[string][]string{"q1": {"a", "b"}, "q2": {"b"}},
		videos: map[string]youtubeapi.Video{
			"a": video("a", "A", "500", "1", "1"),
			"b": video("b", "B", "500", "1", "1"),
		},
	}
	p := NewVideoProvider(testsupport.Logger(t), videoConfig("q1", "q2"), api)

	records, err := p.Collect(context.Background(), "US")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, api.requested, 1, "second query had no new ids")
}

func TestVideoProvider_UnparseableCounterSkipsItem(t *testing.T) {
	api := &fakeVideoAPI{
		searches: map[string][]string{"q": {"bad", "good"}},
		videos: map[string]youtubeapi.Video{
			"bad":  video("bad", "Bad", "many", "1", "1"),
			"good": video("good", "Good", "200", "", ""),
		},
	}
	p := NewVideoProvider(testsupport.Logger(t), videoConfig("q"), api)

	records, err := p.Collect(context.Background(), "US")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Good", records[0].Subject)
	assert.Equal(t, 0.0, records[0].Metrics["likes"])
}

func TestVideoProvider_MissingAPIKey(t *testing.T) {
	config := videoConfig("q")
	config.Youtube.ApiKey = ""
	p := NewVideoProvider(testsupport.Logger(t), config, &fakeVideoAPI{})

	_, err := p.Collect(context.Background(), "US")
	assert.ErrorIs(t, err, youtubeapi.ErrMissingAPIKey)
}
