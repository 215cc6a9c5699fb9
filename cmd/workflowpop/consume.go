package main

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/service"
	"github.com/thep200/workflow-popularity/pkg/kafka"
)

func newConsumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Store workflow records published to Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer ctx.close()
			runCtx := cmd.Context()
			config, logger := ctx.config, ctx.logger

			store, err := ctx.openStore(runCtx)
			if err != nil {
				return err
			}
			consumer, err := kafka.NewConsumer(config, logger, config.Kafka.TopicRecords, config.Kafka.GroupID)
			if err != nil {
				return err
			}

			ingestor := service.NewIngestor(logger, config, store, ctx.statsCache(runCtx))
			consumer.RegisterHandler(model.RecordMessageKey, ingestor.Handler(runCtx))

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				ingestor.Run(runCtx)
			}()

			logger.Info(runCtx, "Record consumer started successfully")
			err = consumer.Start(runCtx)
			wg.Wait()
			logger.Info(runCtx, "Received shutdown signal, consumer stopped")
			return err
		},
	}
}
