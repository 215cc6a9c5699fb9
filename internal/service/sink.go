package service

import (
	"context"
	"fmt"

	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/kafka"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// Sink receives the merged batch of one collection cycle. The workflow store
// is a Sink; so is KafkaSink.
type Sink interface {
	UpsertBatch(ctx context.Context, records []model.Record) (model.UpsertResult, error)
}

// Cache is the part of the stats cache the services need.
type Cache interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type publisher interface {
	PublishBatch(ctx context.Context, messages []kafka.Message) error
}

// KafkaSink publishes records for the ingest consumer to store.
type KafkaSink struct {
	Logger    log.Logger
	publisher publisher
}

func NewKafkaSink(logger log.Logger, publisher publisher) *KafkaSink {
	return &KafkaSink{
		Logger:    logger,
		publisher: publisher,
	}
}

// UpsertBatch publishes the whole batch in one write; it either all lands or all fails.
// Nothing is stored here, so Saved stays 0 and the ingest consumer reports the writes.
func (s *KafkaSink) UpsertBatch(ctx context.Context, records []model.Record) (model.UpsertResult, error) {
	result := model.UpsertResult{Attempted: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	runID := log.RunID(ctx)
	messages := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, kafka.Message{
			Key:   model.RecordMessageKey,
			Value: model.NewRecordMessage(r, runID),
		})
	}

	if err := s.publisher.PublishBatch(ctx, messages); err != nil {
		result.Failed = len(records)
		return result, fmt.Errorf("publish records: %w", err)
	}

	result.Published = len(records)
	s.Logger.Info(ctx, "Published %d workflows to kafka", len(records))
	return result, nil
}
