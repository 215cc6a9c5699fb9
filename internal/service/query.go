package service

import (
	"context"

	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// StatsCacheKey holds the cached aggregate stats.
const StatsCacheKey = "workflows:stats"

type workflowReader interface {
	Query(ctx context.Context, filter model.Filter) ([]model.WorkflowView, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// Query is the read path behind the API.
type Query struct {
	Logger log.Logger
	Store  workflowReader
	Cache  Cache
}

func NewQuery(logger log.Logger, store workflowReader, cache Cache) *Query {
	return &Query{
		Logger: logger,
		Store:  store,
		Cache:  cache,
	}
}

// List returns stored workflows. Empty source or region match everything.
func (q *Query) List(ctx context.Context, source, region string) ([]model.WorkflowView, error) {
	return q.Store.Query(ctx, model.Filter{Source: source, Region: region})
}

// Stats serves from the cache when it can. Cache failures fall back to the store.
func (q *Query) Stats(ctx context.Context) (*model.Stats, error) {
	if q.Cache != nil {
		var cached model.Stats
		hit, err := q.Cache.Get(ctx, StatsCacheKey, &cached)
		if err != nil {
			q.Logger.Warn(ctx, "Stats cache read failed: %v", err)
		}
		if hit {
			return &cached, nil
		}
	}

	stats, err := q.Store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if q.Cache != nil {
		if err := q.Cache.Set(ctx, StatsCacheKey, stats); err != nil {
			q.Logger.Warn(ctx, "Stats cache write failed: %v", err)
		}
	}
	return stats, nil
}
