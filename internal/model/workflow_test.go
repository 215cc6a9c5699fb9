package model_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/testsupport"
)

func record(subject string, source model.Source, region string, views float64) model.Record {
	return model.Record{
		Subject:    subject,
		Source:     source,
		Region:     region,
		Metrics:    map[string]float64{"views": views},
		ObservedAt: time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC),
	}
}

func TestWorkflow_UpsertIsIdempotentOnNaturalKey(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.Config(t))
	ctx := context.Background()

	first := record("Slack Automation", model.SourceTrend, "US", 10)
	second := first
	second.Metrics = map[string]float64{"views": 42, "likes": 3}
	second.ObservedAt = first.ObservedAt.Add(24 * time.Hour)

	res, err := store.UpsertBatch(ctx, []model.Record{first})
	require.NoError(t, err)
	assert.Equal(t, model.UpsertResult{Attempted: 1, Saved: 1}, res)

	res, err = store.UpsertBatch(ctx, []model.Record{second})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	rows, err := store.Query(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{"views": 42, "likes": 3}, rows[0].PopularityMetrics)
	assert.Equal(t, "2026-10-02T02:00:00Z", rows[0].LastUpdated)
}

func TestWorkflow_UpsertContinuesPastFailingRecord(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.Config(t))
	ctx := context.Background()

	bad := record("bad", model.SourceVideo, "US", 1)
	bad.Metrics["ratio"] = math.NaN()

	res, err := store.UpsertBatch(ctx, []model.Record{
		record("first", model.SourceVideo, "US", 1),
		bad,
		record("last", model.SourceVideo, "US", 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, model.UpsertResult{Attempted: 3, Saved: 2, Failed: 1}, res)

	rows, err := store.Query(ctx, model.Filter{})
	require.NoError(t, err)
	subjects := make([]string, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.Workflow)
	}
	assert.ElementsMatch(t, []string{"first", "last"}, subjects)
}

func TestWorkflow_QueryFilters(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.Config(t))
	ctx := context.Background()

	_, err := store.UpsertBatch(ctx, []model.Record{
		record("a", model.SourceVideo, "US", 1),
		record("b", model.SourceVideo, "IN", 1),
		record("c", model.SourceForum, model.RegionGlobal, 1),
		record("d", model.SourceTrend, "US", 1),
	})
	require.NoError(t, err)

	all, err := store.Query(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	videos, err := store.Query(ctx, model.Filter{Source: "youtube"})
	require.NoError(t, err)
	assert.Len(t, videos, 2)
	for _, v := range videos {
		assert.True(t, strings.EqualFold(v.Platform, "YouTube"))
	}

	usVideos, err := store.Query(ctx, model.Filter{Source: "YOUTUBE", Region: "us"})
	require.NoError(t, err)
	require.Len(t, usVideos, 1)
	assert.Equal(t, "a", usVideos[0].Workflow)

	none, err := store.Query(ctx, model.Filter{Region: "BR"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWorkflow_NilMetricsAndZeroTimeAreDefaulted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.Config(t))
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Minute)
	_, err := store.UpsertBatch(ctx, []model.Record{{Subject: "bare", Source: model.SourceForum}})
	require.NoError(t, err)

	rows, err := store.Query(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].PopularityMetrics)
	assert.Empty(t, rows[0].PopularityMetrics)
	assert.Equal(t, model.RegionGlobal, rows[0].Country)

	observed, err := time.Parse(time.RFC3339, rows[0].LastUpdated)
	require.NoError(t, err)
	assert.True(t, observed.After(before))
}

func TestWorkflow_StatsInvariant(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.Config(t))
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalWorkflows)
	assert.Nil(t, empty.LastUpdated)

	latest := record("newest", model.SourceTrend, "IN", 1)
	latest.ObservedAt = latest.ObservedAt.Add(48 * time.Hour)
	_, err = store.UpsertBatch(ctx, []model.Record{
		record("a", model.SourceVideo, "US", 1),
		record("b", model.SourceVideo, "IN", 1),
		record("c", model.SourceForum, model.RegionGlobal, 1),
		latest,
	})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	var byPlatform, byCountry int64
	for _, n := range stats.ByPlatform {
		byPlatform += n
	}
	for _, n := range stats.ByCountry {
		byCountry += n
	}
	assert.Equal(t, int64(4), stats.TotalWorkflows)
	assert.Equal(t, stats.TotalWorkflows, byPlatform)
	assert.Equal(t, stats.TotalWorkflows, byCountry)
	assert.Equal(t, int64(2), stats.ByPlatform["YouTube"])
	assert.Equal(t, int64(2), stats.ByCountry["IN"])
	require.NotNil(t, stats.LastUpdated)
	assert.Equal(t, "2026-10-03T02:00:00Z", *stats.LastUpdated)
}

func TestWorkflow_LongSubjectIsTruncated(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.Config(t))
	ctx := context.Background()

	_, err := store.UpsertBatch(ctx, []model.Record{record(strings.Repeat("é", 200), model.SourceVideo, "US", 1)})
	require.NoError(t, err)

	rows, err := store.Query(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.LessOrEqual(t, len(rows[0].Workflow), 255)
}
