// Package api runs manual collections in the background and reports on them.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/service"
	"github.com/thep200/workflow-popularity/pkg/log"
)

var (
	ErrAlreadyRunning = errors.New("collection already running")
	ErrNotInitialized = errors.New("collector is not initialized")
)

type collectRunner interface {
	CollectAll(ctx context.Context, regions []string) (*service.CollectionResult, error)
}

// CollectionStats describes the last manual collection.
type CollectionStats struct {
	RunID      string               `json:"run_id,omitempty"`
	IsRunning  bool                 `json:"is_running"`
	StartTime  *time.Time           `json:"start_time,omitempty"`
	Duration   string               `json:"duration,omitempty"`
	Collected  map[model.Source]int `json:"collected,omitempty"`
	Failures   int                  `json:"failures"`
	Persisted  model.UpsertResult   `json:"persisted"`
	LastError  string               `json:"last_error,omitempty"`
	FinishTime *time.Time           `json:"finish_time,omitempty"`
}

// CollectorAPI starts detached collection runs, one at a time.
type CollectorAPI struct {
	logger  log.Logger
	runner  collectRunner
	regions []string

	statsMu    sync.RWMutex
	collecting bool
	stats      *CollectionStats
	wg         sync.WaitGroup
}

func NewCollectorAPI(logger log.Logger, runner collectRunner, regions []string) *CollectorAPI {
	return &CollectorAPI{
		logger:  logger,
		runner:  runner,
		regions: regions,
		stats:   &CollectionStats{},
	}
}

// StartCollection launches a run on its own background context and returns its id
// without waiting for it.
func (a *CollectorAPI) StartCollection() (string, error) {
	if a.runner == nil {
		return "", ErrNotInitialized
	}

	a.statsMu.Lock()
	if a.collecting {
		a.statsMu.Unlock()
		return "", ErrAlreadyRunning
	}
	runID := uuid.NewString()
	start := time.Now().UTC()
	a.collecting = true
	a.stats = &CollectionStats{
		RunID:     runID,
		IsRunning: true,
		StartTime: &start,
	}
	a.statsMu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx := log.WithRunID(context.Background(), runID)

		result, err := a.runner.CollectAll(ctx, a.regions)
		if err != nil {
			a.logger.Error(ctx, "Manual collection failed: %v", err)
		}

		a.updateStats(func(stats *CollectionStats) {
			finish := time.Now().UTC()
			stats.IsRunning = false
			stats.FinishTime = &finish
			stats.Duration = finish.Sub(start).String()
			if result != nil {
				stats.Collected = result.Counts()
				stats.Failures = len(result.Failures)
				stats.Persisted = result.Persisted
			}
			if err != nil {
				stats.LastError = err.Error()
			}
		})

		a.statsMu.Lock()
		a.collecting = false
		a.statsMu.Unlock()
	}()

	return runID, nil
}

// GetCollectionStats returns a copy of the last run's stats.
func (a *CollectorAPI) GetCollectionStats() *CollectionStats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()

	stats := *a.stats
	if stats.IsRunning && stats.StartTime != nil {
		stats.Duration = time.Since(*stats.StartTime).String()
	}
	return &stats
}

// Wait blocks until the running collection, if any, has finished.
func (a *CollectorAPI) Wait() {
	a.wg.Wait()
}

func (a *CollectorAPI) updateStats(updateFn func(*CollectionStats)) {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()

	updateFn(a.stats)
}
