package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/collector"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/service"
	"github.com/thep200/workflow-popularity/pkg/cache"
	"github.com/thep200/workflow-popularity/pkg/db"
	"github.com/thep200/workflow-popularity/pkg/kafka"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// commandContext loads configuration once and hands out shared dependencies.
type commandContext struct {
	configPath *string

	configOnce sync.Once
	loader     *cfg.ViperLoader
	config     *cfg.Config
	logger     log.Logger
	configErr  error

	store   *model.Workflow
	closers []func() error
}

func newCommandContext(configPath *string) *commandContext {
	return &commandContext{configPath: configPath}
}

func (c *commandContext) ensureConfig() (*cfg.Config, error) {
	c.configOnce.Do(func() {
		loader, _ := cfg.NewViperLoader()
		if c.configPath != nil && *c.configPath != "" {
			loader.ConfigPath = *c.configPath
		}
		config, err := loader.Load()
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := log.NewCslLoggerTo(os.Stderr, config.App.DevelopmentMode)
		if err != nil {
			c.configErr = fmt.Errorf("failed to create logger: %w", err)
			return
		}
		c.loader = loader
		c.config = config
		c.logger = logger
	})
	return c.config, c.configErr
}

// openStore connects to the database and makes sure the workflows table exists.
func (c *commandContext) openStore(ctx context.Context) (*model.Workflow, error) {
	if c.store != nil {
		return c.store, nil
	}
	database, err := db.NewDatabase(c.config)
	if err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	c.closers = append(c.closers, database.Close)

	store, err := model.NewWorkflow(c.config, c.logger, database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.logger.Info(ctx, "Database ready (%s)", c.config.Database.Driver)
	c.store = store
	return store, nil
}

// statsCache returns nil when Redis is not configured.
func (c *commandContext) statsCache(ctx context.Context) service.Cache {
	redisCache := cache.NewRedisCache(c.config)
	if redisCache == nil {
		return nil
	}
	c.closers = append(c.closers, redisCache.Close)
	if err := redisCache.Ping(ctx); err != nil {
		c.logger.Warn(ctx, "Redis at %s unreachable, stats will not be cached: %v", c.config.Redis.Addr, err)
		return nil
	}
	return redisCache
}

// sink picks where collected records go: straight to the store or onto Kafka.
func (c *commandContext) sink(ctx context.Context) (service.Sink, error) {
	switch c.config.Collector.Sink {
	case cfg.SinkKafka:
		producer, err := kafka.NewProducer(c.config, c.logger, c.config.Kafka.TopicRecords)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, producer.Close)
		c.logger.Info(ctx, "Publishing collected workflows to kafka topic %s", c.config.Kafka.TopicRecords)
		return service.NewKafkaSink(c.logger, producer), nil
	case cfg.SinkDatabase, "":
		return c.openStore(ctx)
	default:
		return nil, fmt.Errorf("unknown collector sink %q", c.config.Collector.Sink)
	}
}

func (c *commandContext) newCollector(ctx context.Context, statsCache service.Cache) (*service.Collector, error) {
	sink, err := c.sink(ctx)
	if err != nil {
		return nil, err
	}
	providers := collector.FactoryProviders(c.logger, c.config)
	return service.NewCollector(c.logger, c.config, providers, sink, statsCache), nil
}

func (c *commandContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.logger.Warn(context.Background(), "Error while closing: %v", err)
		}
	}
	c.closers = nil
}
