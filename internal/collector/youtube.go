package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/limiter"
	"github.com/thep200/workflow-popularity/internal/metrics"
	"github.com/thep200/workflow-popularity/internal/model"
	youtubeapi "github.com/thep200/workflow-popularity/internal/youtube_api"
	"github.com/thep200/workflow-popularity/pkg/log"
)

type videoAPI interface {
	Search(ctx context.Context, query, regionCode string) ([]string, error)
	Videos(ctx context.Context, ids []string) ([]youtubeapi.Video, error)
}

type VideoProvider struct {
	Logger      log.Logger
	Config      *cfg.Config
	api         videoAPI
	rateLimiter *limiter.RateLimiter
}

func NewVideoProvider(logger log.Logger, config *cfg.Config, api videoAPI) *VideoProvider {
	return &VideoProvider{
		Logger:      logger,
		Config:      config,
		api:         api,
		rateLimiter: limiter.NewRateLimiter(time.Duration(config.Youtube.QueryDelayMs) * time.Millisecond),
	}
}

func (p *VideoProvider) Source() model.Source {
	return model.SourceVideo
}

// Collect runs every configured query in region. A failed query is skipped.
func (p *VideoProvider) Collect(ctx context.Context, region string) ([]model.Record, error) {
	if p.Config.Youtube.ApiKey == "" {
		return nil, youtubeapi.ErrMissingAPIKey
	}

	records := make([]model.Record, 0)
	seen := make(map[string]bool)

	for _, query := range p.Config.Youtube.Queries {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return records, err
		}

		ids, err := p.api.Search(ctx, query, region)
		if err != nil {
			p.Logger.Error(ctx, "Error fetching YouTube data for query %q in %s: %v", query, region, err)
			metrics.UnitFailures.WithLabelValues(string(model.SourceVideo), "query").Inc()
			continue
		}

		fresh := make([]string, 0, len(ids))
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				fresh = append(fresh, id)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		videos, err := p.api.Videos(ctx, fresh)
		if err != nil {
			p.Logger.Error(ctx, "Error fetching YouTube statistics for query %q in %s: %v", query, region, err)
			metrics.UnitFailures.WithLabelValues(string(model.SourceVideo), "query").Inc()
			continue
		}

		for _, video := range videos {
			record, ok, err := p.parseVideo(video, region)
			if err != nil {
				p.Logger.Warn(ctx, "Skipping video %s: %v", video.ID, err)
				continue
			}
			if ok {
				records = append(records, record)
			}
		}
	}

	metrics.RecordsCollected.WithLabelValues(string(model.SourceVideo), region).Add(float64(len(records)))
	return records, nil
}

// parseVideo returns ok=false for videos under the view floor.
func (p *VideoProvider) parseVideo(video youtubeapi.Video, region string) (model.Record, bool, error) {
	views, err := youtubeapi.ParseCount(video.Statistics.ViewCount)
	if err != nil {
		return model.Record{}, false, fmt.Errorf("views: %w", err)
	}
	likes, err := youtubeapi.ParseCount(video.Statistics.LikeCount)
	if err != nil {
		return model.Record{}, false, fmt.Errorf("likes: %w", err)
	}
	comments, err := youtubeapi.ParseCount(video.Statistics.CommentCount)
	if err != nil {
		return model.Record{}, false, fmt.Errorf("comments: %w", err)
	}

	if views < p.Config.Youtube.MinViews {
		return model.Record{}, false, nil
	}

	var likeRatio, commentRatio float64
	if views > 0 {
		likeRatio = float64(likes) / float64(views)
		commentRatio = float64(comments) / float64(views)
	}

	return model.NewRecord(cleanTitle(video.Snippet.Title), model.SourceVideo, region, map[string]float64{
		"views":                 float64(views),
		"likes":                 float64(likes),
		"comments":              float64(comments),
		"like_to_view_ratio":    model.Round(likeRatio, 4),
		"comment_to_view_ratio": model.Round(commentRatio, 4),
	}), true, nil
}
