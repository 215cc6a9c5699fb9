package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/collector"
	"github.com/thep200/workflow-popularity/internal/metrics"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// UnitFailure is one (source, region) call that contributed nothing.
type UnitFailure struct {
	Source model.Source `json:"source"`
	Region string       `json:"region"`
	Err    error        `json:"-"`
	Error  string       `json:"error"`
}

// CollectionResult summarizes one collection cycle.
type CollectionResult struct {
	RunID      string                          `json:"run_id"`
	Records    map[model.Source][]model.Record `json:"-"`
	Failures   []UnitFailure                   `json:"failures"`
	Persisted  model.UpsertResult              `json:"persisted"`
	StartedAt  time.Time                       `json:"started_at"`
	FinishedAt time.Time                       `json:"finished_at"`
}

// Counts returns the number of records per source.
func (r *CollectionResult) Counts() map[model.Source]int {
	counts := make(map[model.Source]int, len(r.Records))
	for source, records := range r.Records {
		counts[source] = len(records)
	}
	return counts
}

// All flattens the per-source records in source order.
func (r *CollectionResult) All() []model.Record {
	all := make([]model.Record, 0)
	for _, source := range model.Sources() {
		all = append(all, r.Records[source]...)
	}
	return all
}

// Collector runs collection cycles over every provider and region.
type Collector struct {
	Logger    log.Logger
	Config    *cfg.Config
	Providers *collector.Providers
	Sink      Sink
	Cache     Cache
}

func NewCollector(logger log.Logger, config *cfg.Config, providers *collector.Providers, sink Sink, cache Cache) *Collector {
	return &Collector{
		Logger:    logger,
		Config:    config,
		Providers: providers,
		Sink:      sink,
		Cache:     cache,
	}
}

// CollectAll calls Video and Trend for every region and Forum once, then hands
// the merged records to the sink in one batch. Provider failures never fail the
// cycle; they show up in Failures. The returned error is the sink's.
func (c *Collector) CollectAll(ctx context.Context, regions []string) (*CollectionResult, error) {
	runID := log.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = log.WithRunID(ctx, runID)
	}

	result := &CollectionResult{
		RunID:     runID,
		Records:   make(map[model.Source][]model.Record, len(model.Sources())),
		Failures:  make([]UnitFailure, 0),
		StartedAt: time.Now().UTC(),
	}
	for _, source := range model.Sources() {
		result.Records[source] = make([]model.Record, 0)
	}

	c.Logger.Info(ctx, "Starting workflow collection for regions %v", regions)

	for _, region := range regions {
		for _, provider := range []collector.RegionalProvider{c.Providers.Video, c.Providers.Trend} {
			if provider == nil {
				continue
			}
			records, err := safeCollect(func() ([]model.Record, error) {
				return provider.Collect(ctx, region)
			})
			c.accumulate(ctx, result, provider.Source(), region, records, err)
		}
	}

	if c.Providers.Forum != nil {
		records, err := safeCollect(func() ([]model.Record, error) {
			return c.Providers.Forum.Collect(ctx)
		})
		c.accumulate(ctx, result, c.Providers.Forum.Source(), model.RegionGlobal, records, err)
	}

	err := c.persist(ctx, result)

	result.FinishedAt = time.Now().UTC()
	metrics.CollectionDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	metrics.LastCollectionTimestamp.Set(float64(result.FinishedAt.Unix()))

	counts := result.Counts()
	c.Logger.Info(ctx, "Workflow collection finished: %s=%d %s=%d %s=%d, %d failed units",
		model.SourceVideo, counts[model.SourceVideo],
		model.SourceForum, counts[model.SourceForum],
		model.SourceTrend, counts[model.SourceTrend],
		len(result.Failures))

	return result, err
}

func (c *Collector) accumulate(ctx context.Context, result *CollectionResult, source model.Source, region string, records []model.Record, err error) {
	if err != nil {
		c.Logger.Error(ctx, "Error collecting %s data for %s: %v", source, region, err)
		metrics.UnitFailures.WithLabelValues(string(source), "provider").Inc()
		result.Failures = append(result.Failures, UnitFailure{
			Source: source,
			Region: region,
			Err:    err,
			Error:  err.Error(),
		})
		return
	}
	result.Records[source] = append(result.Records[source], records...)
}

func (c *Collector) persist(ctx context.Context, result *CollectionResult) error {
	all := result.All()
	if len(all) == 0 {
		c.Logger.Warn(ctx, "No workflows collected, nothing to save")
		return nil
	}
	if c.Sink == nil {
		return fmt.Errorf("no sink configured for %d workflows", len(all))
	}

	persisted, err := c.Sink.UpsertBatch(ctx, all)
	result.Persisted = persisted
	countUpserts(persisted)

	if persisted.Saved > 0 {
		invalidateStats(ctx, c.Logger, c.Cache)
	}
	if err != nil {
		c.Logger.Error(ctx, "Failed to save %d of %d workflows: %v", persisted.Failed, persisted.Attempted, err)
		return fmt.Errorf("persist workflows: %w", err)
	}
	return nil
}

// safeCollect turns a provider panic into an error so one source cannot end the cycle.
func safeCollect(fn func() ([]model.Record, error)) (records []model.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return fn()
}

func countUpserts(result model.UpsertResult) {
	metrics.UpsertTotal.WithLabelValues("saved").Add(float64(result.Saved))
	metrics.UpsertTotal.WithLabelValues("published").Add(float64(result.Published))
	metrics.UpsertTotal.WithLabelValues("failed").Add(float64(result.Failed))
}

func invalidateStats(ctx context.Context, logger log.Logger, cache Cache) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, StatsCacheKey); err != nil {
		logger.Warn(ctx, "Failed to invalidate stats cache: %v", err)
	}
}
