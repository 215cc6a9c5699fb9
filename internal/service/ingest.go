package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/kafka"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// Ingestor stores records read from Kafka in batches.
type Ingestor struct {
	Logger   log.Logger
	Config   *cfg.Config
	Store    Sink
	Cache    Cache
	messages chan model.Record
}

func NewIngestor(logger log.Logger, config *cfg.Config, store Sink, cache Cache) *Ingestor {
	size := config.Kafka.BatchSize
	if size < 1 {
		size = 1
	}
	return &Ingestor{
		Logger:   logger,
		Config:   config,
		Store:    store,
		Cache:    cache,
		messages: make(chan model.Record, size*2),
	}
}

// Handler decodes one record message and queues it for the next batch.
func (i *Ingestor) Handler(ctx context.Context) func([]byte) error {
	return func(data []byte) error {
		var msg model.RecordMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal record message: %w", err)
		}
		if msg.Subject == "" || msg.Source == "" {
			return errors.New("record message without subject or source")
		}

		select {
		case i.messages <- msg.Record():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run flushes queued records until ctx is done.
func (i *Ingestor) Run(ctx context.Context) {
	timeout := time.Duration(i.Config.Kafka.BatchTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	kafka.Batch(ctx, i.messages, i.Config.Kafka.BatchSize, timeout, i.flush)
}

func (i *Ingestor) flush(ctx context.Context, batch []model.Record) {
	i.Logger.Info(ctx, "Processing batch of %d workflows", len(batch))

	result, err := i.Store.UpsertBatch(ctx, batch)
	countUpserts(result)
	if result.Saved > 0 {
		invalidateStats(ctx, i.Logger, i.Cache)
	}
	if err != nil {
		i.Logger.Error(ctx, "Failed to save %d of %d workflows: %v", result.Failed, result.Attempted, err)
		return
	}
	i.Logger.Info(ctx, "Successfully saved batch of %d workflows", result.Saved)
}
